//go:build openbsd && cgo

package peercred

/*
#include <sys/types.h>
#include <unistd.h>
*/
import "C"

import (
	"syscall"
)

// OpenBSD only allows system calls through libc, so the ids come from libc's
// getpeereid. It reads SO_PEERCRED and drops the pid.
const (
	mechanism       = "getpeereid"
	mechanismHasPID = false
)

func query(fd int, _ bool) (Credentials, error) {
	var uid C.uid_t
	var gid C.gid_t
	if rc, err := C.getpeereid(C.int(fd), &uid, &gid); rc != 0 {
		if err == nil {
			err = syscall.EINVAL
		}
		return Credentials{}, &SystemError{Op: "getpeereid", Err: err}
	}

	u, g, err := checkIDs("getpeereid", uint32(uid), uint32(gid))
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{UID: u, GID: g}, nil
}
