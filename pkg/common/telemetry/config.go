package telemetry

import (
	"github.com/hashicorp/hcl/hcl/token"
	"github.com/sirupsen/logrus"
)

type MetricsConfig struct {
	FileConfig  FileConfig
	Logger      logrus.FieldLogger
	ServiceName string

	// Sinks are extra sinks that always receive metrics, in addition to the
	// ones configured in FileConfig.
	Sinks []Sink
}

type FileConfig struct {
	Prometheus *PrometheusConfig `hcl:"Prometheus"`
	InMem      *InMem            `hcl:"InMem"`

	UnusedKeyPositions map[string][]token.Pos `hcl:",unusedKeyPositions"`
}

type PrometheusConfig struct {
	Host string `hcl:"host"`
	Port int    `hcl:"port"`

	UnusedKeyPositions map[string][]token.Pos `hcl:",unusedKeyPositions"`
}

// InMem keeps recent metrics in memory so they can be dumped with SIGUSR1.
// Interval and Retention are durations such as "10s"; empty means the
// default.
type InMem struct {
	Interval  string `hcl:"interval"`
	Retention string `hcl:"retention"`

	UnusedKeyPositions map[string][]token.Pos `hcl:",unusedKeyPositions"`
}
