package peertracker

import (
	"net"
	"syscall"

	"github.com/spiffe/peercred/pkg/common/peercred"
)

// CallerFromUDSConn reads the peer credentials of conn. The pid is unknown on
// platforms that cannot report it, and Groups is only set where the kernel
// records them.
func CallerFromUDSConn(conn net.Conn) (CallerInfo, error) {
	sysconn, ok := conn.(syscall.Conn)
	if !ok {
		return CallerInfo{}, ErrInvalidConnection
	}

	creds, err := peercred.Get(sysconn)
	if err != nil {
		return CallerInfo{}, err
	}

	var groups []uint32
	if peercred.GroupsSupported() {
		groups, err = peercred.GetPeerGroups(sysconn)
		if err != nil {
			return CallerInfo{}, err
		}
	}

	return CallerInfo{
		Addr:   conn.RemoteAddr(),
		PID:    creds.PID,
		UID:    creds.UID,
		GID:    creds.GID,
		Groups: groups,
	}, nil
}
