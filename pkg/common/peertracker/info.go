package peertracker

import (
	"net"

	"github.com/spiffe/peercred/pkg/common/peercred"
	"google.golang.org/grpc/credentials"
)

const (
	authType = "peercred"
)

// CallerInfo holds the kernel-recorded identity of a connected peer.
type CallerInfo struct {
	Addr net.Addr
	PID  peercred.PID
	UID  uint32
	GID  uint32

	// Groups starts with GID. It is nil where the kernel does not record
	// groups.
	Groups []uint32
}

// AuthInfo is the gRPC AuthInfo of connections accepted by Listener.
type AuthInfo struct {
	credentials.CommonAuthInfo

	Caller CallerInfo
}

func (AuthInfo) AuthType() string {
	return authType
}
