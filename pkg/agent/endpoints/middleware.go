package endpoints

import (
	"context"
	"io"
	"math"
	"net/http"
	"path"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/agent/api/whoami/v1"
	"github.com/spiffe/peercred/pkg/common/peertracker"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// WhoAmIMiddleware wraps the whoami routes with panic recovery, request ids,
// access logging and, when limiter is not nil, rate limiting.
func WhoAmIMiddleware(h http.Handler, log logrus.FieldLogger, metrics telemetry.Metrics, limiter *rate.Limiter) http.Handler {
	if limiter != nil {
		h = withRateLimit(h, limiter, metrics)
	}
	h = withAccessLog(h, log)
	h = withRequestID(h, log)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(log),
		handlers.PrintRecoveryStack(false),
	)(h)
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if limit <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(math.Ceil(limit))
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}

func withRequestID(next http.Handler, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.NewV4()
		if err != nil {
			log.WithError(err).Warn("Unable to generate request id")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(whoami.RequestIDHeader, id.String())
		ctx := whoami.WithLogger(r.Context(), log.WithField(telemetry.RequestID, id.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withAccessLog(next http.Handler, log logrus.FieldLogger) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, params handlers.LogFormatterParams) {
		whoami.LoggerFromContext(params.Request.Context(), log).WithFields(logrus.Fields{
			telemetry.Method: params.Request.Method,
			telemetry.Path:   params.URL.Path,
			telemetry.Status: params.StatusCode,
		}).Debug("Request served")
	})
}

func withRateLimit(next http.Handler, limiter *rate.Limiter, metrics telemetry.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			metrics.IncrCounter([]string{telemetry.WhoAmIAPI, telemetry.RateLimit}, 1)
			whoami.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UnaryInterceptor logs and counts every admin API call along with the ids
// of its caller.
func UnaryInterceptor(log logrus.FieldLogger, metrics telemetry.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		call := startAdminCall(metrics, info.FullMethod)
		defer call.Done(&err)

		callLog, err := callerLogger(ctx, log, info.FullMethod)
		if err != nil {
			return nil, err
		}

		resp, err = handler(ctx, req)
		logCallResult(callLog, err)
		return resp, err
	}
}

// StreamInterceptor is UnaryInterceptor for streaming calls.
func StreamInterceptor(log logrus.FieldLogger, metrics telemetry.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		call := startAdminCall(metrics, info.FullMethod)
		defer call.Done(&err)

		callLog, err := callerLogger(ss.Context(), log, info.FullMethod)
		if err != nil {
			return err
		}

		err = handler(srv, ss)
		logCallResult(callLog, err)
		return err
	}
}

func startAdminCall(metrics telemetry.Metrics, fullMethod string) *telemetry.CallCounter {
	call := telemetry.StartCall(metrics, telemetry.AdminAPI)
	call.AddLabel(telemetry.Method, path.Base(fullMethod))
	return call
}

func callerLogger(ctx context.Context, log logrus.FieldLogger, fullMethod string) (logrus.FieldLogger, error) {
	caller, ok := peertracker.CallerFromContext(ctx)
	if !ok {
		log.WithField(telemetry.Method, fullMethod).Error("Caller information missing from context")
		return nil, status.Error(codes.Internal, "caller information missing from context")
	}

	return log.WithFields(logrus.Fields{
		telemetry.Method:    fullMethod,
		telemetry.CallerUID: caller.UID,
		telemetry.CallerGID: caller.GID,
		telemetry.CallerPID: caller.PID.String(),
	}), nil
}

func logCallResult(log logrus.FieldLogger, err error) {
	if err != nil {
		log.WithError(err).Warn("Admin API call failed")
		return
	}
	log.Debug("Admin API call succeeded")
}
