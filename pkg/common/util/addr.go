package util

import (
	"fmt"
	"net"
	"path/filepath"
)

// GetUnixAddrWithAbsPath returns a unix address for path, made absolute.
func GetUnixAddrWithAbsPath(path string) (*net.UnixAddr, error) {
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for socket path: %w", err)
	}

	return GetUnixAddr(pathAbs), nil
}

func GetUnixAddr(name string) *net.UnixAddr {
	return &net.UnixAddr{
		Name: name,
		Net:  "unix",
	}
}

// GetTargetName gets the fully qualified, self contained name used
// for gRPC channel construction. Only unix addresses with absolute paths
// are supported.
func GetTargetName(addr net.Addr) (string, error) {
	switch addr.Network() {
	case "unix":
		if !filepath.IsAbs(addr.String()) {
			return "", fmt.Errorf("socket path %q is not absolute", addr.String())
		}
		return "unix://" + addr.String(), nil
	default:
		return "", fmt.Errorf("unsupported network %q", addr.Network())
	}
}
