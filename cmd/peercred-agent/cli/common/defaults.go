package common

import (
	"net"
	"os"

	"github.com/spiffe/peercred/pkg/common/util"
)

const (
	// DefaultRunSocketPath is the agent's default whoami API socket path
	DefaultRunSocketPath = "/tmp/peercred-agent/public/api.sock"
	// DefaultAdminSocketPath is the agent's default admin socket path
	DefaultAdminSocketPath = "/tmp/peercred-agent/private/admin.sock"

	socketPathEnv = "PEERCRED_AGENT_SOCKET"
)

// DefaultSocketPath is the whoami API socket path clients use by default.
// It can be overridden with the PEERCRED_AGENT_SOCKET environment variable.
var DefaultSocketPath string

func init() {
	DefaultSocketPath = DefaultRunSocketPath
	if s := os.Getenv(socketPathEnv); s != "" {
		DefaultSocketPath = s
	}
}

func GetAddr(socketPath string) (*net.UnixAddr, error) {
	return util.GetUnixAddrWithAbsPath(socketPath)
}
