//go:build unix

package peertracker

import (
	"net"
	"os"
	"testing"

	"github.com/spiffe/peercred/pkg/common/peercred"
	"github.com/spiffe/peercred/test/peercredtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerFromUDSConn(t *testing.T) {
	t.Run("not a syscall.Conn", func(t *testing.T) {
		a, b := net.Pipe()
		defer a.Close()
		defer b.Close()

		_, err := CallerFromUDSConn(a)
		require.ErrorIs(t, err, ErrInvalidConnection)
	})

	t.Run("unix connection", func(t *testing.T) {
		addr := peercredtest.SocketAddr(t, "uds.sock")
		l, err := net.ListenUnix("unix", addr)
		require.NoError(t, err)
		defer l.Close()

		client, err := net.DialUnix("unix", nil, addr)
		require.NoError(t, err)
		defer client.Close()

		caller, err := CallerFromUDSConn(client)
		require.NoError(t, err)
		assert.Equal(t, uint32(os.Geteuid()), caller.UID)
		assert.Equal(t, uint32(os.Getegid()), caller.GID)
		assert.Equal(t, addr.Name, caller.Addr.String())
		if peercred.GroupsSupported() {
			require.NotEmpty(t, caller.Groups)
			assert.Equal(t, uint32(os.Getegid()), caller.Groups[0])
		} else {
			assert.Nil(t, caller.Groups)
		}
	})
}
