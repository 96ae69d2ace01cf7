package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-metrics"
)

const (
	defaultInmemInterval  = time.Second
	defaultInmemRetention = time.Hour
)

// inmemRunner aggregates metrics in memory. While it runs, SIGUSR1 writes the
// aggregated intervals to the agent log.
type inmemRunner struct {
	sink *metrics.InmemSink
	out  io.Writer
}

func newInmemRunner(c *MetricsConfig) (sinkRunner, error) {
	conf := c.FileConfig.InMem
	if conf == nil {
		return &inmemRunner{}, nil
	}

	logger, ok := c.Logger.(interface{ Writer() *io.PipeWriter })
	if !ok {
		c.Logger.Warn("Unknown logging subsystem; disabling telemetry signaling")
		return &inmemRunner{}, nil
	}

	interval, err := parseInmemDuration("interval", conf.Interval, defaultInmemInterval)
	if err != nil {
		return nil, err
	}
	retention, err := parseInmemDuration("retention", conf.Retention, defaultInmemRetention)
	if err != nil {
		return nil, err
	}
	if retention < interval {
		return nil, fmt.Errorf("InMem retention %s is shorter than interval %s", retention, interval)
	}

	return &inmemRunner{
		sink: metrics.NewInmemSink(interval, retention),
		out:  logger.Writer(),
	}, nil
}

func parseInmemDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid InMem %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid InMem %s: %s is not positive", key, d)
	}
	return d, nil
}

func (i *inmemRunner) isConfigured() bool {
	return i.sink != nil
}

func (i *inmemRunner) sinks() []Sink {
	if i.sink == nil {
		return nil
	}
	return []Sink{i.sink}
}

func (i *inmemRunner) run(ctx context.Context) error {
	if i.sink == nil {
		return nil
	}

	sig := metrics.NewInmemSignal(i.sink, metrics.DefaultSignal, i.out)
	defer sig.Stop()
	<-ctx.Done()
	return nil
}

func (i *inmemRunner) requiresTypePrefix() bool {
	return false
}
