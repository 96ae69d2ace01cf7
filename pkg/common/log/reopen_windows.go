//go:build windows

package log

import (
	"context"
)

// ReopenOnSignal never reopens the log file since there is no rotation signal
// on windows. The returned task only waits for ctx so it can share a RunTasks
// group with the agent servers.
func ReopenOnSignal(logger *Logger, _ Reopener) func(context.Context) error {
	return func(ctx context.Context) error {
		logger.Debug("Log reopen on signal is not supported on this platform")
		<-ctx.Done()
		return nil
	}
}
