//go:build unix

package peercred

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindError(t *testing.T) {
	err := withKind(ErrNotASocket, syscall.ENOTSOCK)

	assert.EqualError(t, err, "not a unix domain socket: socket operation on non-socket")
	assert.ErrorIs(t, err, ErrNotASocket)
	assert.ErrorIs(t, err, syscall.ENOTSOCK)
	assert.NotErrorIs(t, err, ErrNotConnected)
	assert.NotErrorIs(t, err, ErrUnsupported)

	var sysErr *SystemError
	assert.NotErrorAs(t, err, &sysErr)
}

func TestSystemError(t *testing.T) {
	err := error(&SystemError{Op: "getsockopt", Err: syscall.EBADF})
	assert.ErrorIs(t, err, syscall.EBADF)
	assert.True(t, errors.Is(err, syscall.EBADF))
	assert.Equal(t, "getsockopt: bad file descriptor", err.Error())
}
