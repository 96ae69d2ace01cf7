package agent

import (
	"context"
	"errors"

	"github.com/spiffe/peercred/pkg/agent/endpoints"
	"github.com/spiffe/peercred/pkg/common/peercred"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"github.com/spiffe/peercred/pkg/common/util"
	"github.com/spiffe/peercred/pkg/common/version"
)

type Agent struct {
	c *Config
}

// Run the agent
// This method starts the metrics backends and the endpoints, then blocks
// until ctx is done or one of them fails.
func (a *Agent) Run(ctx context.Context) error {
	a.c.Log.WithField("version", version.Version()).
		WithField(telemetry.Mechanism, peercred.Mechanism()).
		Info("Starting agent")
	if !peercred.PIDSupported() {
		a.c.Log.Warn("Peer credential mechanism cannot report pids; callers will have an unknown pid")
	}

	metrics, err := telemetry.NewMetrics(&telemetry.MetricsConfig{
		FileConfig:  a.c.Telemetry,
		Logger:      a.c.Log.WithField(telemetry.SubsystemName, "telemetry"),
		ServiceName: "peercred_agent",
		Sinks:       a.c.MetricsSinks,
	})
	if err != nil {
		return err
	}

	endpoints := a.newEndpoints(metrics)

	tasks := []func(context.Context) error{
		metrics.ListenAndServe,
		endpoints.ListenAndServe,
	}
	if a.c.LogReopener != nil {
		tasks = append(tasks, a.c.LogReopener)
	}

	err = util.RunTasks(ctx, tasks...)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func (a *Agent) newEndpoints(metrics telemetry.Metrics) endpoints.Server {
	return endpoints.New(endpoints.Config{
		BindAddr:           a.c.BindAddress,
		AdminBindAddr:      a.c.AdminBindAddress,
		Log:                a.c.Log.WithField(telemetry.SubsystemName, "endpoints"),
		Metrics:            metrics,
		RateLimit:          a.c.RateLimit,
		RateLimitBurst:     a.c.RateLimitBurst,
		IncludeProcessInfo: a.c.IncludeProcessInfo,
	})
}
