//go:build linux || freebsd || dragonfly || netbsd

package peercred

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// getsockopt fills the size bytes at val with the option and returns the
// length the kernel reported. x/sys/unix only wraps a few of the credential
// records, and none of the wrappers expose that length.
func getsockopt(fd, level, opt int, val unsafe.Pointer, size uint32) (uint32, error) {
	vallen := size
	_, _, errno := unix.Syscall6(
		unix.SYS_GETSOCKOPT,
		uintptr(fd),
		uintptr(level),
		uintptr(opt),
		uintptr(val),
		uintptr(unsafe.Pointer(&vallen)),
		0,
	)
	if errno != 0 {
		return 0, errno
	}
	return vallen, nil
}
