package peercred

import (
	"fmt"
	"unsafe"
)

// Raw kernel records. Each one mirrors the C layout of a single mechanism and
// is decoded right after the getsockopt call that filled it. The types carry
// no build constraints so the validation rules can be exercised on any
// platform.

const (
	// noID is (uid_t)-1 / (gid_t)-1, never a valid id.
	noID = ^uint32(0)

	// xucredVersion is XUCRED_VERSION.
	xucredVersion = 0

	// xuNGroups is XU_NGROUPS.
	xuNGroups = 16

	// crPIDOSRelDate is the first FreeBSD release (13.0) that fills cr_pid.
	crPIDOSRelDate = 1300000
)

// ucred is struct ucred, the SO_PEERCRED record on Linux.
type ucred struct {
	PID int32
	UID uint32
	GID uint32
}

const sizeofUcred = uint32(unsafe.Sizeof(ucred{}))

// decode validates a ucred the kernel reported as n bytes long. A record with
// neither pid nor ids is what Linux returns for a socket without a peer. A
// pid of 0 alone means the peer lives outside our pid namespace.
func (r *ucred) decode(n uint32, wantPID bool) (Credentials, error) {
	if n != sizeofUcred {
		return Credentials{}, sizeMismatch("ucred", n, sizeofUcred)
	}
	if r.PID == 0 && r.UID == noID && r.GID == noID {
		return Credentials{}, errNoPeer
	}
	if r.UID == noID || r.GID == noID {
		return Credentials{}, fmt.Errorf("%w: ucred has uid %d and gid %d", errUntrustedRecord, r.UID, r.GID)
	}

	creds := Credentials{UID: r.UID, GID: r.GID}
	if wantPID && r.PID > 0 {
		creds.PID = KnownPID(r.PID)
	}
	return creds, nil
}

// unpcbid is struct unpcbid, the LOCAL_PEEREID record on NetBSD.
type unpcbid struct {
	PID  int32
	EUID uint32
	EGID uint32
}

const sizeofUnpcbid = uint32(unsafe.Sizeof(unpcbid{}))

// decodeIDs returns the ids only, as getpeereid does.
func (r *unpcbid) decodeIDs(n uint32) (uid, gid uint32, err error) {
	if n != sizeofUnpcbid {
		return 0, 0, sizeMismatch("unpcbid", n, sizeofUnpcbid)
	}
	return checkIDs("unpcbid", r.EUID, r.EGID)
}

// xucred is struct xucred, the LOCAL_PEERCRED record on FreeBSD and
// DragonFly. Darwin uses the same layout without the trailing union.
type xucred struct {
	Version uint32
	UID     uint32
	NGroups int16
	Groups  [xuNGroups]uint32
	Tail    xucredTail
}

// xucredTail is the pointer sized union ending struct xucred. FreeBSD 13
// stores cr_pid in its first four bytes.
type xucredTail struct {
	_   [0]uintptr
	PID int32
	_   [unsafe.Sizeof(uintptr(0)) - 4]byte
}

const sizeofXucred = uint32(unsafe.Sizeof(xucred{}))

// decode validates an xucred the kernel reported as n bytes long. pidValid
// must only be set when the running kernel is known to fill cr_pid.
func (r *xucred) decode(n uint32, pidValid bool) (Credentials, error) {
	if n != sizeofXucred {
		return Credentials{}, sizeMismatch("xucred", n, sizeofXucred)
	}
	uid, gid, err := decodeXucredIDs(r.Version, r.UID, r.NGroups, r.Groups[:])
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{UID: uid, GID: gid}
	if pidValid && r.Tail.PID > 0 {
		creds.PID = KnownPID(r.Tail.PID)
	}
	return creds, nil
}

// decodeGroups validates an xucred like decode and returns a copy of its
// group list. The first entry is the effective gid.
func (r *xucred) decodeGroups(n uint32) ([]uint32, error) {
	if n != sizeofXucred {
		return nil, sizeMismatch("xucred", n, sizeofXucred)
	}
	return decodeXucredGroups(r.Version, r.UID, r.NGroups, r.Groups[:])
}

// decodeXucredIDs checks the version and group count of an xucred and returns
// its uid and effective gid, which is always the first group.
func decodeXucredIDs(version, uid uint32, ngroups int16, groups []uint32) (uint32, uint32, error) {
	if version != xucredVersion {
		return 0, 0, fmt.Errorf("%w: xucred version %d, expected %d", errUntrustedRecord, version, xucredVersion)
	}
	if ngroups < 1 || int(ngroups) > len(groups) {
		return 0, 0, fmt.Errorf("%w: xucred has %d groups", errUntrustedRecord, ngroups)
	}
	return checkIDs("xucred", uid, groups[0])
}

func decodeXucredGroups(version, uid uint32, ngroups int16, groups []uint32) ([]uint32, error) {
	if _, _, err := decodeXucredIDs(version, uid, ngroups, groups); err != nil {
		return nil, err
	}
	return append([]uint32(nil), groups[:ngroups]...), nil
}

func checkIDs(record string, uid, gid uint32) (uint32, uint32, error) {
	if uid == noID || gid == noID {
		return 0, 0, fmt.Errorf("%w: %s has uid %d and gid %d", errUntrustedRecord, record, uid, gid)
	}
	return uid, gid, nil
}

func sizeMismatch(record string, got, want uint32) error {
	return fmt.Errorf("%w: %s is %d bytes, expected %d", errUntrustedRecord, record, got, want)
}
