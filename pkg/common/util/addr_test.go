package util

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnixAddrWithAbsPath(t *testing.T) {
	addr, err := GetUnixAddrWithAbsPath("agent.sock")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(addr.Name))
	assert.Equal(t, "agent.sock", filepath.Base(addr.Name))
	assert.Equal(t, "unix", addr.Network())
}

func TestGetTargetName(t *testing.T) {
	target, err := GetTargetName(GetUnixAddr("/tmp/agent.sock"))
	require.NoError(t, err)
	assert.Equal(t, "unix:///tmp/agent.sock", target)

	_, err = GetTargetName(GetUnixAddr("agent.sock"))
	require.EqualError(t, err, `socket path "agent.sock" is not absolute`)

	_, err = GetTargetName(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 80})
	require.EqualError(t, err, `unsupported network "tcp"`)
}
