package whoami

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessLookup resolves details of a running process.
type ProcessLookup func(ctx context.Context, pid int32) (*Process, error)

// LookupProcess reads the name and start time of pid from the process table.
// The process may have exited, or its pid been reused, since it connected.
func LookupProcess(ctx context.Context, pid int32) (*Process, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return nil, err
	}

	created, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &Process{
		Name:       name,
		CreateTime: time.UnixMilli(created).UTC(),
	}, nil
}
