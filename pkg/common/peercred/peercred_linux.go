//go:build linux

package peercred

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	mechanism       = "SO_PEERCRED"
	mechanismHasPID = true
)

func query(fd int, wantPID bool) (Credentials, error) {
	var cred ucred
	n, err := getsockopt(fd, unix.SOL_SOCKET, unix.SO_PEERCRED, unsafe.Pointer(&cred), sizeofUcred)
	if err != nil {
		return Credentials{}, &SystemError{Op: "getsockopt SO_PEERCRED", Err: err}
	}
	return cred.decode(n, wantPID)
}
