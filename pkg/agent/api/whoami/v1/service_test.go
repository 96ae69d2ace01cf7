package whoami

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spiffe/peercred/pkg/common/peercred"
	"github.com/spiffe/peercred/pkg/common/peertracker"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"github.com/spiffe/peercred/test/fakes/fakemetrics"
	"github.com/spiffe/peercred/test/peercredtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestWhoAmI(t *testing.T) {
	for _, tt := range []struct {
		name               string
		caller             *peertracker.CallerInfo
		includeProcessInfo bool
		lookupErr          error
		expectCode         int
		expectBody         string
		expectLookups      []string
		expectStatus       string
		expectLogs         []peercredtest.LogEntry
	}{
		{
			name:         "missing caller",
			expectCode:   http.StatusInternalServerError,
			expectBody:   `{"error":"caller information missing from request"}`,
			expectStatus: "Internal",
			expectLogs: []peercredtest.LogEntry{
				{
					Level:   logrus.ErrorLevel,
					Message: "Caller information missing from request",
				},
			},
		},
		{
			name:         "unknown pid",
			caller:       &peertracker.CallerInfo{UID: 1000, GID: 100},
			expectCode:   http.StatusOK,
			expectBody:   `{"uid":1000,"gid":100,"pid":null,"mechanism":"` + peercred.Mechanism() + `"}`,
			expectStatus: "OK",
			expectLogs: []peercredtest.LogEntry{
				{
					Level:   logrus.DebugLevel,
					Message: "Caller identified",
					Data: logrus.Fields{
						telemetry.CallerUID: "1000",
						telemetry.CallerGID: "100",
						telemetry.CallerPID: "unknown",
					},
				},
			},
		},
		{
			name:         "known pid without process info",
			caller:       &peertracker.CallerInfo{UID: 0, GID: 0, PID: peercred.KnownPID(42)},
			expectCode:   http.StatusOK,
			expectBody:   `{"uid":0,"gid":0,"pid":42,"mechanism":"` + peercred.Mechanism() + `"}`,
			expectStatus: "OK",
		},
		{
			name:         "supplementary groups",
			caller:       &peertracker.CallerInfo{UID: 501, GID: 20, Groups: []uint32{20, 12, 61}},
			expectCode:   http.StatusOK,
			expectBody:   `{"uid":501,"gid":20,"pid":null,"groups":[20,12,61],"mechanism":"` + peercred.Mechanism() + `"}`,
			expectStatus: "OK",
		},
		{
			name:               "known pid with process info",
			caller:             &peertracker.CallerInfo{UID: 0, GID: 0, PID: peercred.KnownPID(42)},
			includeProcessInfo: true,
			expectCode:         http.StatusOK,
			expectBody:         `{"uid":0,"gid":0,"pid":42,"mechanism":"` + peercred.Mechanism() + `","process":{"name":"proc-42","create_time":"2024-03-01T12:00:00Z"}}`,
			expectLookups:      []string{telemetry.OutcomeSuccess},
			expectStatus:       "OK",
		},
		{
			name:               "process lookup fails",
			caller:             &peertracker.CallerInfo{UID: 0, GID: 0, PID: peercred.KnownPID(42)},
			includeProcessInfo: true,
			lookupErr:          errors.New("process exited"),
			expectCode:         http.StatusOK,
			expectBody:         `{"uid":0,"gid":0,"pid":42,"mechanism":"` + peercred.Mechanism() + `"}`,
			expectLookups:      []string{telemetry.OutcomeError},
			expectStatus:       "OK",
		},
		{
			name:               "unknown pid skips process lookup",
			caller:             &peertracker.CallerInfo{UID: 7, GID: 8},
			includeProcessInfo: true,
			expectCode:         http.StatusOK,
			expectBody:         `{"uid":7,"gid":8,"pid":null,"mechanism":"` + peercred.Mechanism() + `"}`,
			expectStatus:       "OK",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			log.SetLevel(logrus.DebugLevel)
			metrics := fakemetrics.New()

			service := New(Config{
				Log:                log,
				Metrics:            metrics,
				IncludeProcessInfo: tt.includeProcessInfo,
				LookupProcess: func(_ context.Context, pid int32) (*Process, error) {
					if tt.lookupErr != nil {
						return nil, tt.lookupErr
					}
					return &Process{Name: "proc-" + peercred.KnownPID(pid).String(), CreateTime: startTime}, nil
				},
			})

			req := httptest.NewRequest(http.MethodGet, Path, nil)
			if tt.caller != nil {
				conn := &peertracker.Conn{Info: peertracker.AuthInfo{Caller: *tt.caller}}
				req = req.WithContext(peertracker.ConnContext(req.Context(), conn))
			}
			rec := httptest.NewRecorder()
			service.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.expectCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectBody, rec.Body.String())

			var lookups []string
			for _, labels := range metrics.Counters(telemetry.WhoAmIAPI, telemetry.Process, telemetry.Lookup) {
				require.Len(t, labels, 1)
				lookups = append(lookups, labels[0].Value)
			}
			assert.Equal(t, tt.expectLookups, lookups)

			calls := metrics.Counters(telemetry.WhoAmIAPI, telemetry.Query)
			require.Len(t, calls, 1)
			assert.Equal(t, []telemetry.Label{{Name: telemetry.Status, Value: tt.expectStatus}}, calls[0])

			if tt.expectLogs != nil {
				peercredtest.AssertLogs(t, hook.AllEntries(), tt.expectLogs)
			}
		})
	}
}

func TestUnknownRoutes(t *testing.T) {
	log, _ := test.NewNullLogger()
	handler := New(Config{Log: log, Metrics: telemetry.Blackhole{}}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Path, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"method not allowed"}`, rec.Body.String())
}

func TestResponseDecodesUnknownPID(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"uid":1,"gid":2,"pid":null,"mechanism":"getpeereid"}`), &resp))
	assert.False(t, resp.PID.Known())
	assert.Nil(t, resp.Process)
}

func TestDecodeError(t *testing.T) {
	assert.EqualError(t, DecodeError(http.StatusTooManyRequests, []byte(`{"error":"rate limit exceeded"}`)), "rate limit exceeded")
	assert.EqualError(t, DecodeError(http.StatusBadGateway, []byte("<html>")), "Bad Gateway")
}
