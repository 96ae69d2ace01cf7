//go:build netbsd

package peercred

import (
	"unsafe"
)

// NetBSD implements getpeereid with LOCAL_PEEREID. Only the ids are reported.
const (
	mechanism       = "getpeereid"
	mechanismHasPID = false
)

const (
	// Neither is exported by x/sys/unix for NetBSD.
	solLocal     = 0
	localPeerEID = 0x0003
)

func query(fd int, _ bool) (Credentials, error) {
	var cred unpcbid
	n, err := getsockopt(fd, solLocal, localPeerEID, unsafe.Pointer(&cred), sizeofUnpcbid)
	if err != nil {
		return Credentials{}, &SystemError{Op: "getsockopt LOCAL_PEEREID", Err: err}
	}

	uid, gid, err := cred.decodeIDs(n)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{UID: uid, GID: gid}, nil
}
