package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/spiffe/peercred/pkg/common/util"
)

// Label is a label/tag for a metric
type Label = metrics.Label

// Sink is an interface for emitting metrics
type Sink = metrics.MetricSink

// Metrics is the interface components use to emit metrics. It is satisfied by
// MetricsImpl and, in tests, by Blackhole or a fake.
type Metrics interface {
	// A Gauge should retain the last value it is set to
	SetGauge(key []string, val float32)
	SetGaugeWithLabels(key []string, val float32, labels []Label)

	// Should emit a Key/Value pair for each call
	EmitKey(key []string, val float32)

	// Counters should accumulate values
	IncrCounter(key []string, val float32)
	IncrCounterWithLabels(key []string, val float32, labels []Label)

	// Samples are for timing information, where quantiles are used
	AddSample(key []string, val float32)
	AddSampleWithLabels(key []string, val float32, labels []Label)

	// A convenience function for measuring elapsed time with a single line
	MeasureSince(key []string, start time.Time)
	MeasureSinceWithLabels(key []string, start time.Time, labels []Label)
}

type MetricsImpl struct {
	c       *MetricsConfig
	runners []sinkRunner

	// one metrics.Metrics per backend, since backends disagree on whether
	// keys carry a type prefix
	backends []*metrics.Metrics
}

var _ Metrics = (*MetricsImpl)(nil)

// NewMetrics builds one metrics.Metrics per configured backend. Labels are
// sanitized before they reach any sink.
func NewMetrics(c *MetricsConfig) (*MetricsImpl, error) {
	if c.Logger == nil {
		return nil, errors.New("logger must be configured")
	}

	impl := &MetricsImpl{c: c}

	for _, f := range sinkRunnerFactories {
		runner, err := f(c)
		if err != nil {
			return nil, err
		}

		if !runner.isConfigured() {
			continue
		}

		conf := metrics.DefaultConfig(c.ServiceName)
		conf.EnableHostname = false
		conf.EnableHostnameLabel = false
		conf.EnableRuntimeMetrics = false
		conf.EnableTypePrefix = runner.requiresTypePrefix()

		backend, err := metrics.New(conf, metrics.FanoutSink(runner.sinks()))
		if err != nil {
			return nil, err
		}

		impl.backends = append(impl.backends, backend)
		impl.runners = append(impl.runners, runner)
	}

	return impl, nil
}

// ListenAndServe runs every configured backend until ctx is done.
func (m *MetricsImpl) ListenAndServe(ctx context.Context) error {
	var tasks []func(context.Context) error
	for _, runner := range m.runners {
		tasks = append(tasks, runner.run)
	}

	err := util.RunTasks(ctx, tasks...)
	for _, backend := range m.backends {
		backend.Shutdown()
	}
	return err
}

func (m *MetricsImpl) SetGauge(key []string, val float32) {
	for _, b := range m.backends {
		b.SetGauge(key, val)
	}
}

func (m *MetricsImpl) SetGaugeWithLabels(key []string, val float32, labels []Label) {
	labels = SanitizeLabels(labels)
	for _, b := range m.backends {
		b.SetGaugeWithLabels(key, val, labels)
	}
}

func (m *MetricsImpl) EmitKey(key []string, val float32) {
	for _, b := range m.backends {
		b.EmitKey(key, val)
	}
}

func (m *MetricsImpl) IncrCounter(key []string, val float32) {
	for _, b := range m.backends {
		b.IncrCounter(key, val)
	}
}

func (m *MetricsImpl) IncrCounterWithLabels(key []string, val float32, labels []Label) {
	labels = SanitizeLabels(labels)
	for _, b := range m.backends {
		b.IncrCounterWithLabels(key, val, labels)
	}
}

func (m *MetricsImpl) AddSample(key []string, val float32) {
	for _, b := range m.backends {
		b.AddSample(key, val)
	}
}

func (m *MetricsImpl) AddSampleWithLabels(key []string, val float32, labels []Label) {
	labels = SanitizeLabels(labels)
	for _, b := range m.backends {
		b.AddSampleWithLabels(key, val, labels)
	}
}

func (m *MetricsImpl) MeasureSince(key []string, start time.Time) {
	for _, b := range m.backends {
		b.MeasureSince(key, start)
	}
}

func (m *MetricsImpl) MeasureSinceWithLabels(key []string, start time.Time, labels []Label) {
	labels = SanitizeLabels(labels)
	for _, b := range m.backends {
		b.MeasureSinceWithLabels(key, start, labels)
	}
}
