package peercred

import (
	"strconv"
)

// PID is a peer process id that may be unknown. The zero value is unknown.
type PID struct {
	pid   int32
	known bool
}

// UnknownPID is the PID reported when the mechanism cannot supply one.
var UnknownPID = PID{}

// KnownPID returns a PID holding pid.
func KnownPID(pid int32) PID {
	return PID{pid: pid, known: true}
}

// Get returns the pid and whether it is known.
func (p PID) Get() (int32, bool) {
	return p.pid, p.known
}

// Known reports whether the pid is known.
func (p PID) Known() bool {
	return p.known
}

func (p PID) String() string {
	if !p.known {
		return "unknown"
	}
	return strconv.FormatInt(int64(p.pid), 10)
}

// MarshalJSON encodes a known pid as a number and an unknown one as null.
func (p PID) MarshalJSON() ([]byte, error) {
	if !p.known {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(p.pid), 10), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *PID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = UnknownPID
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 32)
	if err != nil {
		return err
	}
	*p = KnownPID(int32(v))
	return nil
}
