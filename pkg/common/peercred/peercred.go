// Package peercred reads the credentials of the process on the other end of a
// connected UNIX domain socket. The credentials are recorded by the kernel when
// the connection (or socket pair) is established, so they cannot be forged by
// the peer.
//
// Each supported operating system offers a different mechanism for this, and
// exactly one of them is compiled into a given build:
//
//   - Linux: the SO_PEERCRED socket option, which reports pid, uid and gid.
//   - Darwin, NetBSD and OpenBSD: getpeereid-style queries, which report uid
//     and gid only. The pid is always unknown.
//   - FreeBSD and DragonFly: the LOCAL_PEERCRED socket option, whose xucred
//     record carries a pid on FreeBSD 13 and later.
//
// OpenBSD goes through libc and needs cgo. On any other platform, and on
// OpenBSD without cgo, every query fails with ErrUnsupported.
//
// The xucred mechanisms (Darwin, FreeBSD and DragonFly) also record the
// peer's groups, available through GetPeerGroups.
//
// The uid and gid are the effective ids of the peer at connect time. A process
// that later changes its ids, or hands the descriptor to another process, is
// still reported with the original ids. Likewise, a pid names the process that
// connected, which may since have exited and had its pid reused.
//
// On Linux a listening socket answers with the credentials of the process
// that called listen(2), not with ErrNotConnected. A datagram socket joined
// with connect(2) has a peer but no recorded credentials, and fails with
// ErrUnsupported.
package peercred

import (
	"errors"
	"fmt"
	"syscall"
)

// Credentials are the ids of a socket peer.
type Credentials struct {
	UID uint32
	GID uint32
	PID PID
}

func (c Credentials) String() string {
	return fmt.Sprintf("pid=%s uid=%d gid=%d", c.PID, c.UID, c.GID)
}

// Mechanism returns the name of the kernel interface compiled into this build.
func Mechanism() string {
	return mechanism
}

// PIDSupported reports whether the compiled mechanism carries a pid at all.
// When it returns false, GetPeerPIDIDs always returns an unknown PID.
func PIDSupported() bool {
	return mechanismHasPID
}

// GroupsSupported reports whether GetPeerGroups can succeed on this build.
func GroupsSupported() bool {
	return mechanismHasGroups
}

// GetPeerIDs returns the uid and gid of the peer of conn. It never attempts to
// resolve the peer pid, so it behaves the same on every supported platform.
//
// conn is only borrowed: the descriptor is neither duplicated nor closed.
func GetPeerIDs(conn syscall.Conn) (uid, gid uint32, err error) {
	creds, err := fromConn(conn, false)
	if err != nil {
		return 0, 0, err
	}
	return creds.UID, creds.GID, nil
}

// GetPeerPIDIDs returns the pid, uid and gid of the peer of conn. The pid is
// unknown, not an error, when the platform or the kernel cannot supply it.
func GetPeerPIDIDs(conn syscall.Conn) (pid PID, uid, gid uint32, err error) {
	creds, err := fromConn(conn, true)
	if err != nil {
		return UnknownPID, 0, 0, err
	}
	return creds.PID, creds.UID, creds.GID, nil
}

// Get is GetPeerPIDIDs returning a Credentials value.
func Get(conn syscall.Conn) (Credentials, error) {
	return fromConn(conn, true)
}

// GetPeerIDsFD is GetPeerIDs for a raw socket descriptor.
func GetPeerIDsFD(fd int) (uid, gid uint32, err error) {
	creds, err := fromFD(fd, false)
	if err != nil {
		return 0, 0, err
	}
	return creds.UID, creds.GID, nil
}

// GetPeerPIDIDsFD is GetPeerPIDIDs for a raw socket descriptor.
func GetPeerPIDIDsFD(fd int) (pid PID, uid, gid uint32, err error) {
	creds, err := fromFD(fd, true)
	if err != nil {
		return UnknownPID, 0, 0, err
	}
	return creds.PID, creds.UID, creds.GID, nil
}

// GetPeerGroups returns the groups of the peer of conn, as recorded at
// connect time. The first entry is the effective gid. The kernel keeps at
// most 16 groups, so a peer in more groups is reported with a truncated
// list. It fails with ErrUnsupported unless GroupsSupported.
func GetPeerGroups(conn syscall.Conn) ([]uint32, error) {
	var groups []uint32
	err := control(conn, func(fd int) (err error) {
		groups, err = GetPeerGroupsFD(fd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GetPeerGroupsFD is GetPeerGroups for a raw socket descriptor.
func GetPeerGroupsFD(fd int) ([]uint32, error) {
	groups, err := queryGroups(fd)
	if err != nil {
		return nil, classify(fd, err)
	}
	return groups, nil
}

func fromConn(conn syscall.Conn, wantPID bool) (Credentials, error) {
	var creds Credentials
	err := control(conn, func(fd int) (err error) {
		creds, err = fromFD(fd, wantPID)
		return err
	})
	if err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// control runs f on the descriptor of conn without duplicating it.
func control(conn syscall.Conn, f func(fd int) error) error {
	if conn == nil {
		return errNilConn
	}

	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("unable to access socket descriptor: %w", err)
	}

	ctrlErr := rawConn.Control(func(fd uintptr) {
		err = f(int(fd))
	})
	if ctrlErr != nil {
		return fmt.Errorf("unable to access socket descriptor: %w", ctrlErr)
	}
	return err
}

func fromFD(fd int, wantPID bool) (Credentials, error) {
	creds, err := query(fd, wantPID)
	if err != nil {
		return Credentials{}, classify(fd, err)
	}
	return creds, nil
}

var errNilConn = errors.New("nil connection")
