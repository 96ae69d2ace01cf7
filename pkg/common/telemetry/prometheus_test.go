package telemetry

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRunnerNotConfigured(t *testing.T) {
	runner, err := newPrometheusRunner(testPrometheusConfig(nil))
	require.NoError(t, err)
	assert.False(t, runner.isConfigured())
	assert.Empty(t, runner.sinks())
	assert.NoError(t, runner.run(context.Background()))
}

func TestPrometheusRunnerServesMetrics(t *testing.T) {
	port := freePort(t)
	config := testPrometheusConfig(&PrometheusConfig{Port: port})
	m, err := NewMetrics(config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.ListenAndServe(ctx)
	}()
	defer func() {
		cancel()
		err := <-errCh
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	}()

	IncrPeerCredQuery(m, "SO_PEERCRED", OutcomeSuccess)

	url := fmt.Sprintf("http://localhost:%d/metrics", port)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:gosec // test URL
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(b)
		return strings.Contains(body, "peercred_query")
	}, 10*time.Second, 50*time.Millisecond)

	assert.Contains(t, body, `outcome="success"`)
	assert.Contains(t, body, "go_goroutines")
}

func testPrometheusConfig(c *PrometheusConfig) *MetricsConfig {
	logger, _ := test.NewNullLogger()
	return &MetricsConfig{
		Logger:      logger,
		ServiceName: "test",
		FileConfig:  FileConfig{Prometheus: c},
	}
}

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
