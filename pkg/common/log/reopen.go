package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	logFileFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY
	logFileMode  = 0640
)

var _ ReopenableWriteCloser = (*ReopenableFile)(nil)

// Reopener is implemented by outputs that can swap in a fresh file after an
// external tool rotated the current one away.
type Reopener interface {
	Reopen() error
}

type ReopenableWriteCloser interface {
	Reopener
	io.WriteCloser
}

// ReopenableFile is the agent log file. Writes are serialized with Reopen so
// no log line is split across the old and new file.
type ReopenableFile struct {
	name string

	mu sync.Mutex
	f  *os.File
	// closeFile releases a replaced file; it runs with mu held.
	closeFile func(*os.File) error
}

func NewReopenableFile(name string) (*ReopenableFile, error) {
	f, err := os.OpenFile(name, logFileFlags, logFileMode)
	if err != nil {
		return nil, err
	}
	return &ReopenableFile{
		name:      name,
		f:         f,
		closeFile: (*os.File).Close,
	}, nil
}

// Reopen switches to a newly opened file at the configured path once the
// current one has been moved or removed. When the path still names the open
// file there is nothing to do.
func (r *ReopenableFile) Reopen() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inPlaceLocked() {
		return nil
	}

	f, err := os.OpenFile(r.name, logFileFlags, logFileMode)
	if err != nil {
		return fmt.Errorf("unable to reopen %s: %w", r.name, err)
	}

	// The old descriptor may leak if closing fails; the new file is used
	// either way.
	_ = r.closeFile(r.f)
	r.f = f
	return nil
}

// inPlaceLocked reports whether the configured path still names the open
// file.
func (r *ReopenableFile) inPlaceLocked() bool {
	onDisk, err := os.Stat(r.name)
	if err != nil {
		return false
	}
	current, err := r.f.Stat()
	if err != nil {
		return false
	}
	return os.SameFile(onDisk, current)
}

func (r *ReopenableFile) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Write(b)
}

func (r *ReopenableFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}

// Name returns the configured path, which may no longer be the file being
// written until the next Reopen.
func (r *ReopenableFile) Name() string {
	return r.name
}
