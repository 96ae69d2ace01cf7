package util

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// RunTasks executes all the provided functions concurrently and waits for
// them all to complete. If a function returns an error, all other functions
// are canceled (i.e. the context they are passed is canceled) and the first
// error is returned. A panicking function counts as one returning an error.
// If the context passed to RunTasks is canceled then each function is
// canceled and RunTasks returns ctx.Err(). Tasks passed to RunTasks MUST
// support cancellation via the provided context for RunTasks to work
// properly.
func RunTasks(ctx context.Context, tasks ...func(context.Context) error) error {
	if len(tasks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return runTask(gctx, task)
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func runTask(ctx context.Context, task func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s\n", r, string(debug.Stack()))
		}
	}()
	return task(ctx)
}
