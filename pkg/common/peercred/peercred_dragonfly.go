//go:build dragonfly

package peercred

import (
	"unsafe"
)

// DragonFly shares the FreeBSD xucred layout but never fills the union.
const (
	mechanism          = "LOCAL_PEERCRED"
	mechanismHasPID    = false
	mechanismHasGroups = true
)

const (
	// Neither is exported by x/sys/unix for DragonFly.
	solLocal      = 0
	localPeerCred = 0x0001
)

func query(fd int, _ bool) (Credentials, error) {
	cred, n, err := getXucred(fd)
	if err != nil {
		return Credentials{}, err
	}
	return cred.decode(n, false)
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
	n, err := getsockopt(fd, solLocal, localPeerCred, unsafe.Pointer(cred), sizeofXucred)
	if err != nil {
		return nil, 0, &SystemError{Op: "getsockopt LOCAL_PEERCRED", Err: err}
	}
	return cred, n, nil
}
