package telemetry

import (
	"time"
)

// Blackhole discards everything. The peer tracker falls back to it when its
// factory has no Metrics, and tests use it where the emitted values do not
// matter.
type Blackhole struct{}

var _ Metrics = Blackhole{}

func (Blackhole) SetGauge([]string, float32)                          {}
func (Blackhole) SetGaugeWithLabels([]string, float32, []Label)       {}
func (Blackhole) EmitKey([]string, float32)                           {}
func (Blackhole) IncrCounter([]string, float32)                       {}
func (Blackhole) IncrCounterWithLabels([]string, float32, []Label)    {}
func (Blackhole) AddSample([]string, float32)                         {}
func (Blackhole) AddSampleWithLabels([]string, float32, []Label)      {}
func (Blackhole) MeasureSince([]string, time.Time)                    {}
func (Blackhole) MeasureSinceWithLabels([]string, time.Time, []Label) {}
