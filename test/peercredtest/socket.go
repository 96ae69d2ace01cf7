package peercredtest

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TempDir returns a short-lived directory with a path short enough to hold
// UNIX domain sockets. t.TempDir paths can exceed sun_path on macOS.
func TempDir(tb testing.TB) string {
	tb.Helper()
	dir, err := os.MkdirTemp("", "peercred-test")
	require.NoError(tb, err)
	tb.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// SocketAddr returns a unix address for a socket named name inside a fresh
// TempDir.
func SocketAddr(tb testing.TB, name string) *net.UnixAddr {
	tb.Helper()
	return &net.UnixAddr{
		Net:  "unix",
		Name: filepath.Join(TempDir(tb), name),
	}
}
