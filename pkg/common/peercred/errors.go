package peercred

import (
	"errors"
	"fmt"
)

var (
	// ErrNotASocket is returned when the handle is not a UNIX domain socket.
	ErrNotASocket = errors.New("not a unix domain socket")

	// ErrNotConnected is returned when the socket has no peer.
	ErrNotConnected = errors.New("socket is not connected")

	// ErrUnsupported is returned when the kernel lacks the peer credential
	// mechanism, or returned a record that cannot be trusted.
	ErrUnsupported = errors.New("peer credentials are not supported")
)

// SystemError is returned when the kernel query fails for a reason other
// than the ones above. Err holds the platform error code, usually a
// syscall.Errno.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// kindError attaches one of the exported sentinels to the failure that
// produced it, so both remain reachable through errors.Is and errors.As.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.cause)
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

func withKind(kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}

var (
	// errNoPeer marks a record the kernel filled in for a socket without a
	// peer.
	errNoPeer = errors.New("no peer credentials recorded")

	// errUntrustedRecord marks a record whose size, version or contents
	// failed validation.
	errUntrustedRecord = errors.New("untrusted peer credential record")
)
