package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	prommetrics "github.com/hashicorp/go-metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

// maxScrapeConns bounds concurrent connections to the exporter.
const maxScrapeConns = 16

// prometheusRunner exposes metrics on /metrics. Each runner owns its own
// registry so several agents can live in one process (tests).
type prometheusRunner struct {
	c        *PrometheusConfig
	log      logrus.FieldLogger
	registry *prometheus.Registry
	server   *http.Server
	sink     Sink
}

func newPrometheusRunner(c *MetricsConfig) (sinkRunner, error) {
	runner := &prometheusRunner{
		c:   c.FileConfig.Prometheus,
		log: c.Logger,
	}

	if runner.c == nil {
		return runner, nil
	}

	runner.registry = prometheus.NewRegistry()
	if err := runner.registry.Register(collectors.NewGoCollector()); err != nil {
		return runner, err
	}
	if err := runner.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return runner, err
	}

	var err error
	runner.sink, err = prommetrics.NewPrometheusSinkFrom(prommetrics.PrometheusOpts{
		Registerer: runner.registry,
	})
	if err != nil {
		return runner, err
	}

	handlerOpts := promhttp.HandlerOpts{
		ErrorLog: runner.log,
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(runner.registry, handlerOpts))

	host := runner.c.Host
	if host == "" {
		host = "localhost"
	}

	if host != "localhost" {
		runner.log.Warn("Agent is now configured to accept remote network connections for Prometheus stats collection. Please ensure access to this port is tightly controlled")
	}
	runner.log.WithFields(logrus.Fields{
		"host": host,
		"port": runner.c.Port,
	}).Info("Starting prometheus exporter")

	runner.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, runner.c.Port),
		Handler:           mux,
		ReadHeaderTimeout: time.Second * 10,
	}

	return runner, nil
}

func (p *prometheusRunner) isConfigured() bool {
	return p.c != nil
}

func (p *prometheusRunner) sinks() []Sink {
	if !p.isConfigured() {
		return []Sink{}
	}

	return []Sink{p.sink}
}

func (p *prometheusRunner) run(ctx context.Context) error {
	if !p.isConfigured() {
		return nil
	}

	l, err := net.Listen("tcp", p.server.Addr)
	if err != nil {
		return fmt.Errorf("unable to listen for prometheus: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := p.server.Serve(netutil.LimitListener(l, maxScrapeConns))
		if !errors.Is(err, http.ErrServerClosed) {
			p.log.WithError(err).Warn("Prometheus listener stopped unexpectedly")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		p.server.Close()
	}()

	wg.Wait()
	return nil
}

func (p *prometheusRunner) requiresTypePrefix() bool {
	return false
}
