package telemetry

import (
	"context"
)

// sinkRunner builds the sinks for one kind of metrics backend and runs
// whatever that backend needs while the metrics are live.
type sinkRunner interface {
	isConfigured() bool
	sinks() []Sink
	run(context.Context) error

	// When true, metrics types are included in the metric key.
	requiresTypePrefix() bool
}

var sinkRunnerFactories = []func(*MetricsConfig) (sinkRunner, error){
	newInmemRunner,
	newPrometheusRunner,
	newExtraSinksRunner,
}

// extraSinksRunner carries MetricsConfig.Sinks.
type extraSinksRunner struct {
	extra []Sink
}

func newExtraSinksRunner(c *MetricsConfig) (sinkRunner, error) {
	return &extraSinksRunner{extra: c.Sinks}, nil
}

func (e *extraSinksRunner) isConfigured() bool {
	return len(e.extra) > 0
}

func (e *extraSinksRunner) sinks() []Sink {
	return e.extra
}

func (e *extraSinksRunner) run(context.Context) error {
	return nil
}

func (e *extraSinksRunner) requiresTypePrefix() bool {
	return false
}
