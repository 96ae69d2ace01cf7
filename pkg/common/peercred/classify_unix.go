//go:build unix

package peercred

import (
	"errors"

	"golang.org/x/sys/unix"
)

// classify maps a failed query onto the exported error kinds. Ambiguous
// failures are resolved with read-only follow-up queries on fd. A classified
// failure never matches *SystemError; it unwraps to its kind and to the errno
// that caused it.
func classify(fd int, err error) error {
	cause := stripSystemError(err)

	switch {
	case errors.Is(err, ErrUnsupported):
		return cause
	case errors.Is(err, unix.ENOTSOCK):
		return withKind(ErrNotASocket, cause)
	case errors.Is(err, unix.ENOTCONN):
		// OpenBSD answers ENOTCONN for any datagram socket.
		if isDatagram(fd) && hasPeer(fd) {
			return withKind(ErrUnsupported, cause)
		}
		return withKind(ErrNotConnected, cause)
	case errors.Is(err, errNoPeer):
		// Linux records nothing for a datagram socket joined with connect(2).
		switch {
		case !isUnixSocket(fd):
			return withKind(ErrNotASocket, cause)
		case isDatagram(fd) && hasPeer(fd):
			return withKind(ErrUnsupported, cause)
		}
		return withKind(ErrNotConnected, cause)
	case errors.Is(err, errUntrustedRecord),
		errors.Is(err, unix.ENOPROTOOPT),
		errors.Is(err, unix.EOPNOTSUPP):
		if !isUnixSocket(fd) {
			return withKind(ErrNotASocket, cause)
		}
		return withKind(ErrUnsupported, cause)
	case errors.Is(err, unix.EINVAL):
		// The BSDs answer EINVAL for a datagram socket that never
		// recorded peer credentials, connected or not.
		if !isUnixSocket(fd) {
			return withKind(ErrNotASocket, cause)
		}
		if isDatagram(fd) {
			if hasPeer(fd) {
				return withKind(ErrUnsupported, cause)
			}
			return withKind(ErrNotConnected, cause)
		}
	}

	var sysErr *SystemError
	if errors.As(err, &sysErr) {
		return sysErr
	}
	return &SystemError{Op: "peer credential query", Err: err}
}

func stripSystemError(err error) error {
	var sysErr *SystemError
	if errors.As(err, &sysErr) {
		return sysErr.Err
	}
	return err
}

// isUnixSocket reports false only when fd is known not to be a UNIX domain
// socket.
func isUnixSocket(fd int) bool {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return !errors.Is(err, unix.ENOTSOCK)
	}
	_, ok := sa.(*unix.SockaddrUnix)
	return ok
}

func isDatagram(fd int) bool {
	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	return err == nil && typ == unix.SOCK_DGRAM
}

func hasPeer(fd int) bool {
	_, err := unix.Getpeername(fd)
	return err == nil
}
