package cli

import (
	"fmt"
	"time"
)

// DurationFlag is a flag.Value for the timeouts the agent commands take. Only
// positive durations are accepted.
type DurationFlag time.Duration

func (f DurationFlag) String() string {
	return time.Duration(f).String()
}

func (f *DurationFlag) Set(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	*f = DurationFlag(d)
	return nil
}
