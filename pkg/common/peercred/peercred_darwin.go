//go:build darwin

package peercred

import (
	"golang.org/x/sys/unix"
)

// Darwin implements getpeereid with LOCAL_PEERCRED, and so does this. The pid
// would need a second query (LOCAL_PEERPID) and is not reported.
// unix.GetsockoptXucred does not return the length the kernel reported, so
// the record size is not checked here. The version and group count still
// are.
const (
	mechanism          = "getpeereid"
	mechanismHasPID    = false
	mechanismHasGroups = true
)

func query(fd int, _ bool) (Credentials, error) {
	xu, err := getXucred(fd)
	if err != nil {
		return Credentials{}, err
	}

	uid, gid, err := decodeXucredIDs(xu.Version, xu.Uid, xu.Ngroups, xu.Groups[:])
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{UID: uid, GID: gid}, nil
}

func queryGroups(fd int) ([]uint32, error) {
	xu, err := getXucred(fd)
	if err != nil {
		return nil, err
	}
	return decodeXucredGroups(xu.Version, xu.Uid, xu.Ngroups, xu.Groups[:])
}

func getXucred(fd int) (*unix.Xucred, error) {
	xu, err := unix.GetsockoptXucred(fd, unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	if err != nil {
		return nil, &SystemError{Op: "getsockopt LOCAL_PEERCRED", Err: err}
	}
	return xu, nil
}
