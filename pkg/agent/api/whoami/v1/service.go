package whoami

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/common/peercred"
	"github.com/spiffe/peercred/pkg/common/peertracker"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config is the service configuration
type Config struct {
	Log     logrus.FieldLogger
	Metrics telemetry.Metrics

	// IncludeProcessInfo adds a process block to responses for callers with a
	// known pid.
	IncludeProcessInfo bool

	// LookupProcess defaults to LookupProcess.
	LookupProcess ProcessLookup
}

// New creates a new whoami service
func New(config Config) *Service {
	if config.LookupProcess == nil {
		config.LookupProcess = LookupProcess
	}
	return &Service{
		log:                config.Log,
		metrics:            config.Metrics,
		includeProcessInfo: config.IncludeProcessInfo,
		lookupProcess:      config.LookupProcess,
	}
}

// Service answers whoami requests for callers accepted by a peertracker
// listener.
type Service struct {
	log                logrus.FieldLogger
	metrics            telemetry.Metrics
	includeProcessInfo bool
	lookupProcess      ProcessLookup
}

// Handler returns the routes of the service. Requests must reach it through
// an http.Server whose ConnContext is peertracker.ConnContext.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(Path, s.whoami)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Service) whoami(w http.ResponseWriter, r *http.Request) {
	var err error
	call := telemetry.StartCall(s.metrics, telemetry.WhoAmIAPI, telemetry.Query)
	defer call.Done(&err)

	log := LoggerFromContext(r.Context(), s.log)

	caller, ok := peertracker.CallerFromHTTPContext(r.Context())
	if !ok {
		err = status.Error(codes.Internal, "caller information missing from request")
		log.Error("Caller information missing from request")
		WriteError(w, http.StatusInternalServerError, "caller information missing from request")
		return
	}

	log = log.WithFields(logrus.Fields{
		telemetry.CallerUID: caller.UID,
		telemetry.CallerGID: caller.GID,
		telemetry.CallerPID: caller.PID.String(),
	})

	resp := &Response{
		UID:       caller.UID,
		GID:       caller.GID,
		PID:       caller.PID,
		Groups:    caller.Groups,
		Mechanism: peercred.Mechanism(),
	}
	if pid, known := caller.PID.Get(); known && s.includeProcessInfo {
		resp.Process = s.processInfo(r.Context(), log, pid)
	}

	log.Debug("Caller identified")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) processInfo(ctx context.Context, log logrus.FieldLogger, pid int32) *Process {
	p, err := s.lookupProcess(ctx, pid)

	outcome := telemetry.OutcomeSuccess
	if err != nil {
		outcome = telemetry.OutcomeError
		log.WithError(err).Debug("Unable to look up caller process")
	}
	s.metrics.IncrCounterWithLabels([]string{telemetry.WhoAmIAPI, telemetry.Process, telemetry.Lookup}, 1, []telemetry.Label{
		{Name: telemetry.Outcome, Value: outcome},
	})
	return p
}

// WriteError writes an Error body with the given status.
func WriteError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, &Error{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// The status line is already out, so an encoding failure can only be
	// seen by the client as a truncated body.
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeError extracts the message of an Error body, falling back to the
// status text.
func DecodeError(code int, body []byte) error {
	var e Error
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return errors.New(http.StatusText(code))
	}
	return errors.New(e.Error)
}
