package util

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTasksWithNoTasks(t *testing.T) {
	assert.NoError(t, RunTasks(context.Background()))
}

func TestRunTasksWaitsForEveryTask(t *testing.T) {
	flushed := make(chan struct{})
	flush := func(context.Context) error {
		close(flushed)
		return nil
	}
	reopener, reopenerDone := newServeTask()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wait := runTasksAsync(ctx, flush, reopener)

	receive(t, flushed)
	select {
	case err := <-wait:
		t.Fatalf("RunTasks returned %v while a task was still serving", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	assert.ErrorIs(t, receive(t, wait), context.Canceled)
	assert.NoError(t, receive(t, reopenerDone))
}

func TestRunTasksStopsServersWhenListenFails(t *testing.T) {
	endpoints, endpointsDone := newServeTask()
	metrics := func(context.Context) error {
		_, err := net.Listen("unix", filepath.Join(t.TempDir(), "missing", "metrics.sock"))
		return err
	}

	err := receive(t, runTasksAsync(context.Background(), endpoints, metrics))

	var opErr *net.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "listen", opErr.Op)
	assert.NoError(t, receive(t, endpointsDone), "serving task should stop cleanly")
}

func TestRunTasksReturnsFirstFailure(t *testing.T) {
	endpoints, endpointsDone := newServeTask()
	errBind := errors.New("bind: address already in use")
	admin := func(context.Context) error {
		return errBind
	}

	err := receive(t, runTasksAsync(context.Background(), endpoints, admin))
	assert.Equal(t, errBind, err)
	assert.NoError(t, receive(t, endpointsDone))
}

func TestRunTasksRecoversPanic(t *testing.T) {
	endpoints, endpointsDone := newServeTask()
	reopener := func(context.Context) error {
		panic("log file handle is nil")
	}

	err := receive(t, runTasksAsync(context.Background(), endpoints, reopener))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: log file handle is nil")
	assert.Contains(t, err.Error(), "TestRunTasksRecoversPanic", "error should carry the stack")
	assert.NoError(t, receive(t, endpointsDone))
}

func TestRunTasksReturnsParentError(t *testing.T) {
	endpoints, endpointsDone := newServeTask()
	metrics, metricsDone := newServeTask()

	ctx, cancel := context.WithCancel(context.Background())
	wait := runTasksAsync(ctx, endpoints, metrics)
	cancel()

	assert.ErrorIs(t, receive(t, wait), context.Canceled)
	assert.NoError(t, receive(t, endpointsDone))
	assert.NoError(t, receive(t, metricsDone))
}

func TestRunTasksReturnsParentDeadline(t *testing.T) {
	endpoints, _ := newServeTask()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, receive(t, runTasksAsync(ctx, endpoints)), context.DeadlineExceeded)
}

// newServeTask returns a task that behaves like the agent servers: it blocks
// until its context is canceled and then shuts down without error. The
// channel receives the task's result.
func newServeTask() (func(context.Context) error, chan error) {
	done := make(chan error, 1)
	return func(ctx context.Context) (err error) {
		defer func() { done <- err }()
		<-ctx.Done()
		return nil
	}, done
}

func runTasksAsync(ctx context.Context, tasks ...func(context.Context) error) chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- RunTasks(ctx, tasks...)
	}()
	return ch
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		var zero T
		return zero
	}
}
