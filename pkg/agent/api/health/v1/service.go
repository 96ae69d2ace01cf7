package health

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/agent/api/whoami/v1"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// LivenessService is the service name of a shallow check, answered without
// probing the whoami API.
const LivenessService = "liveness"

// RegisterService registers the service on the gRPC server.
func RegisterService(s grpc.ServiceRegistrar, service *Service) {
	grpc_health_v1.RegisterHealthServer(s, service)
}

// Config is the service configuration
type Config struct {
	Log logrus.FieldLogger

	// SocketPath is the whoami API socket path
	SocketPath string
}

// New creates a new Health service
func New(config Config) *Service {
	return &Service{
		log:        config.Log,
		socketPath: config.SocketPath,
	}
}

// Service implements the v1 Health service
type Service struct {
	grpc_health_v1.UnimplementedHealthServer

	log        logrus.FieldLogger
	socketPath string
}

func (s *Service) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	switch req.Service {
	case "":
	case LivenessService:
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_SERVING,
		}, nil
	default:
		s.log.WithField(telemetry.Reason, req.Service).Error("Invalid argument: unknown health service")
		return nil, status.Errorf(codes.InvalidArgument, "unknown health service %q", req.Service)
	}

	client := whoami.NewClient(s.socketPath)
	defer client.CloseIdleConnections()
	_, err := client.Fetch(ctx)

	healthStatus := grpc_health_v1.HealthCheckResponse_SERVING
	var statusErr *whoami.StatusError
	switch {
	case err == nil:
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests:
		// A rate limited answer still proves the API is up and resolving
		// callers.
	default:
		healthStatus = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		s.log.WithFields(logrus.Fields{
			telemetry.Reason: "unable to query the whoami API",
			logrus.ErrorKey:  err,
		}).Warn("Health check failed")
	}

	return &grpc_health_v1.HealthCheckResponse{
		Status: healthStatus,
	}, nil
}
