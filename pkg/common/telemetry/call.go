package telemetry

import (
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CallCounter tracks timing and the outcome of a "call". It is intended to be
// scoped to a function with a defer and a named error value:
//
//	func whoami() (err error) {
//		call := StartCall(metrics, WhoAmIAPI, Query)
//		defer call.Done(&err)
//
//		call.AddLabel(Mechanism, peercred.Mechanism())
//	}
type CallCounter struct {
	metrics Metrics
	key     []string
	labels  []Label
	start   time.Time
	done    bool
	mu      sync.Mutex
}

// StartCall starts a "call", which when finished via Done() will emit timing
// and error related metrics.
func StartCall(metrics Metrics, key string, keyn ...string) *CallCounter {
	return &CallCounter{
		metrics: metrics,
		key:     append([]string{key}, keyn...),
		start:   time.Now(),
	}
}

// AddLabel adds a label to be emitted with the call counter. It is safe to call
// from multiple goroutines.
func (c *CallCounter) AddLabel(name, value string) {
	c.mu.Lock()
	c.labels = append(c.labels, Label{Name: name, Value: value})
	c.mu.Unlock()
}

// Done emits a counter and a latency sample for the call, labelled with the
// gRPC status code of *errp (OK when nil). It must be the last use of the
// CallCounter.
func (c *CallCounter) Done(errp *error) {
	if c.done {
		return
	}
	c.done = true
	key := c.key

	code := codes.OK
	if errp != nil {
		code = status.Code(*errp)
	}
	c.AddLabel(Status, code.String())

	c.metrics.IncrCounterWithLabels(key, 1, c.labels)
	c.metrics.MeasureSinceWithLabels(append(key, ElapsedTime), c.start, c.labels)
}
