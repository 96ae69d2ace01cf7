//go:build freebsd

package peercred

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	mechanism          = "LOCAL_PEERCRED"
	mechanismHasPID    = true
	mechanismHasGroups = true
)

// kernelFillsCrPID reports whether the running kernel stores the peer pid in
// the xucred union. Older kernels leave it zeroed or unused.
var kernelFillsCrPID = sync.OnceValue(func() bool {
	osreldate, err := unix.SysctlUint32("kern.osreldate")
	return err == nil && osreldate >= crPIDOSRelDate
})

func query(fd int, wantPID bool) (Credentials, error) {
	cred, n, err := getXucred(fd)
	if err != nil {
		return Credentials{}, err
	}
	return cred.decode(n, wantPID && kernelFillsCrPID())
}

func queryGroups(fd int) ([]uint32, error) {
	cred, n, err := getXucred(fd)
	if err != nil {
		return nil, err
	}
	return cred.decodeGroups(n)
}

func getXucred(fd int) (*xucred, uint32, error) {
	cred := &xucred{Version: xucredVersion}
	n, err := getsockopt(fd, unix.SOL_LOCAL, unix.LOCAL_PEERCRED, unsafe.Pointer(cred), sizeofXucred)
	if err != nil {
		return nil, 0, &SystemError{Op: "getsockopt LOCAL_PEERCRED", Err: err}
	}
	return cred, n, nil
}
