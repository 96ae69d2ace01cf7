package agent

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/common/telemetry"
)

type Config struct {
	// Address to bind the whoami API to
	BindAddress *net.UnixAddr

	// Address to bind the admin API to
	AdminBindAddress *net.UnixAddr

	Log logrus.FieldLogger

	// LogReopener facilitates handling a signal to rotate log file.
	LogReopener func(context.Context) error

	// Requests per second allowed on the whoami API, 0 for no limit
	RateLimit float64

	// Number of whoami requests allowed at once
	RateLimitBurst int

	// If true, whoami responses describe the calling process
	IncludeProcessInfo bool

	// Umask applied before the sockets are created, -1 to only raise the
	// current umask to the minimum
	Umask int

	// Telemetry provides the configuration for metrics exporting
	Telemetry telemetry.FileConfig

	// MetricsSinks are extra sinks that receive every metric.
	MetricsSinks []telemetry.Sink
}

func New(c *Config) *Agent {
	return &Agent{
		c: c,
	}
}
