package fakemetrics

import (
	"sync"
	"time"

	"github.com/spiffe/peercred/pkg/common/telemetry"
)

type MetricType int

const (
	SetGaugeType MetricType = iota
	SetGaugeWithLabelsType
	EmitKeyType
	IncrCounterType
	IncrCounterWithLabelsType
	AddSampleType
	AddSampleWithLabelsType
	MeasureSinceType
	MeasureSinceWithLabelsType
)

// MetricItem is one recorded call. Val is left zero for MeasureSince calls,
// which carry no comparable value.
type MetricItem struct {
	Type   MetricType
	Key    []string
	Val    float32
	Labels []telemetry.Label
}

// FakeMetrics records every metric it is given, in order.
type FakeMetrics struct {
	mu      sync.Mutex
	metrics []MetricItem
}

var _ telemetry.Metrics = (*FakeMetrics)(nil)

func New() *FakeMetrics {
	return &FakeMetrics{}
}

// AllMetrics returns a copy of the recorded metrics.
func (m *FakeMetrics) AllMetrics() []MetricItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]MetricItem(nil), m.metrics...)
}

// Counters returns the recorded counter increments for key, one label set
// per increment.
func (m *FakeMetrics) Counters(key ...string) [][]telemetry.Label {
	var out [][]telemetry.Label
	for _, item := range m.AllMetrics() {
		if item.Type != IncrCounterWithLabelsType || !equalKeys(item.Key, key) {
			continue
		}
		out = append(out, item.Labels)
	}
	return out
}

func (m *FakeMetrics) SetGauge(key []string, val float32) {
	m.add(MetricItem{Type: SetGaugeType, Key: key, Val: val})
}

func (m *FakeMetrics) SetGaugeWithLabels(key []string, val float32, labels []telemetry.Label) {
	m.add(MetricItem{Type: SetGaugeWithLabelsType, Key: key, Val: val, Labels: telemetry.SanitizeLabels(labels)})
}

func (m *FakeMetrics) EmitKey(key []string, val float32) {
	m.add(MetricItem{Type: EmitKeyType, Key: key, Val: val})
}

func (m *FakeMetrics) IncrCounter(key []string, val float32) {
	m.add(MetricItem{Type: IncrCounterType, Key: key, Val: val})
}

func (m *FakeMetrics) IncrCounterWithLabels(key []string, val float32, labels []telemetry.Label) {
	m.add(MetricItem{Type: IncrCounterWithLabelsType, Key: key, Val: val, Labels: telemetry.SanitizeLabels(labels)})
}

func (m *FakeMetrics) AddSample(key []string, val float32) {
	m.add(MetricItem{Type: AddSampleType, Key: key, Val: val})
}

func (m *FakeMetrics) AddSampleWithLabels(key []string, val float32, labels []telemetry.Label) {
	m.add(MetricItem{Type: AddSampleWithLabelsType, Key: key, Val: val, Labels: telemetry.SanitizeLabels(labels)})
}

func (m *FakeMetrics) MeasureSince(key []string, _ time.Time) {
	m.add(MetricItem{Type: MeasureSinceType, Key: key})
}

func (m *FakeMetrics) MeasureSinceWithLabels(key []string, _ time.Time, labels []telemetry.Label) {
	m.add(MetricItem{Type: MeasureSinceWithLabelsType, Key: key, Labels: telemetry.SanitizeLabels(labels)})
}

func (m *FakeMetrics) add(item MetricItem) {
	// callers may reuse the backing arrays
	item.Key = append([]string(nil), item.Key...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = append(m.metrics, item)
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
