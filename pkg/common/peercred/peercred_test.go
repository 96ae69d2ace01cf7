//go:build linux || darwin || freebsd || dragonfly || netbsd || (openbsd && cgo)

package peercred

import (
	"bufio"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const helperSocketEnv = "PEERCRED_TEST_HELPER_SOCKET"

func TestMain(m *testing.M) {
	if path := os.Getenv(helperSocketEnv); path != "" {
		os.Exit(runHelper(path))
	}
	os.Exit(m.Run())
}

// runHelper connects to path, announces itself and waits for the other end
// to hang up.
func runHelper(path string) int {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return 2
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("ready\n")); err != nil {
		return 3
	}
	_, _ = bufio.NewReader(conn).ReadString('\n')
	return 0
}

func TestMechanism(t *testing.T) {
	expected := map[string]struct {
		mechanism string
		pid       bool
		groups    bool
	}{
		"linux":     {"SO_PEERCRED", true, false},
		"darwin":    {"getpeereid", false, true},
		"netbsd":    {"getpeereid", false, false},
		"openbsd":   {"getpeereid", false, false},
		"freebsd":   {"LOCAL_PEERCRED", true, true},
		"dragonfly": {"LOCAL_PEERCRED", false, true},
	}[runtime.GOOS]

	assert.Equal(t, expected.mechanism, Mechanism())
	assert.Equal(t, expected.pid, PIDSupported())
	assert.Equal(t, expected.groups, GroupsSupported())
}

func TestSocketPair(t *testing.T) {
	for _, typ := range []struct {
		name string
		typ  int
	}{
		{"stream", unix.SOCK_STREAM},
		{"datagram", unix.SOCK_DGRAM},
	} {
		t.Run(typ.name, func(t *testing.T) {
			if typ.typ == unix.SOCK_DGRAM && runtime.GOOS != "linux" {
				t.Skip("datagram socket pairs only record credentials on linux")
			}
			a, b := socketPair(t, typ.typ)
			for _, f := range []*os.File{a, b} {
				uid, gid, err := GetPeerIDs(f)
				require.NoError(t, err)
				assert.Equal(t, uint32(os.Geteuid()), uid)
				assert.Equal(t, uint32(os.Getegid()), gid)

				pid, uid, gid, err := GetPeerPIDIDs(f)
				require.NoError(t, err)
				assert.Equal(t, uint32(os.Geteuid()), uid)
				assert.Equal(t, uint32(os.Getegid()), gid)
				assertSelfPID(t, pid)
			}
		})
	}
}

func TestGetPeerIDsNeverReportsPID(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)
	creds, err := fromConn(a, false)
	require.NoError(t, err)
	assert.False(t, creds.PID.Known())
}

func TestConnectedUnixConn(t *testing.T) {
	server, client := unixConnPair(t)

	for _, conn := range []*net.UnixConn{server, client} {
		creds, err := Get(conn)
		require.NoError(t, err)
		assert.Equal(t, uint32(os.Geteuid()), creds.UID)
		assert.Equal(t, uint32(os.Getegid()), creds.GID)
		assertSelfPID(t, creds.PID)
	}

	// The connection is only borrowed.
	_, err := client.Write([]byte("x"))
	require.NoError(t, err)
	buf := make([]byte, 1)
	_, err = server.Read(buf)
	require.NoError(t, err)
}

func TestRepeatedQueries(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)

	first, err := Get(a)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		creds, err := Get(a)
		require.NoError(t, err)
		assert.Equal(t, first, creds)
	}
}

func TestConcurrentQueries(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)

	first, err := Get(a)
	require.NoError(t, err)

	const workers = 50
	results := make(chan Credentials, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			creds, err := Get(a)
			if err != nil {
				errs <- err
				return
			}
			results <- creds
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	count := 0
	for creds := range results {
		assert.Equal(t, first, creds)
		count++
	}
	assert.Equal(t, workers, count)
}

func TestConnectedDatagramSocket(t *testing.T) {
	conn := connectedDatagram(t)

	_, err := Get(conn)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.NotErrorIs(t, err, ErrNotConnected)
	var sysErr *SystemError
	assert.NotErrorAs(t, err, &sysErr)
}

func TestPeerGroups(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)

	groups, err := GetPeerGroups(a)
	if !GroupsSupported() {
		require.ErrorIs(t, err, ErrUnsupported)
		assert.Nil(t, groups)
		return
	}
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	assert.LessOrEqual(t, len(groups), xuNGroups)
	assert.Equal(t, uint32(os.Getegid()), groups[0])

	own, err := unix.Getgroups()
	require.NoError(t, err)
	ours := map[uint32]bool{uint32(os.Getegid()): true}
	for _, g := range own {
		ours[uint32(g)] = true
	}
	for _, g := range groups {
		assert.True(t, ours[g], "group %d is not one of ours", g)
	}

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	fdGroups, err := GetPeerGroupsFD(fds[0])
	require.NoError(t, err)
	assert.Equal(t, groups, fdGroups)
}

func TestPeerGroupsOfRegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-socket")
	require.NoError(t, err)
	defer f.Close()

	_, err = GetPeerGroups(f)
	if GroupsSupported() {
		require.ErrorIs(t, err, ErrNotASocket)
	} else {
		require.ErrorIs(t, err, ErrUnsupported)
	}
}

func TestRawDescriptor(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})

	uid, gid, err := GetPeerIDsFD(fds[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(os.Geteuid()), uid)
	assert.Equal(t, uint32(os.Getegid()), gid)

	pid, _, _, err := GetPeerPIDIDsFD(fds[1])
	require.NoError(t, err)
	assertSelfPID(t, pid)

	// Still usable afterwards.
	_, err = unix.Write(fds[0], []byte("x"))
	require.NoError(t, err)
}

func TestRegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-socket")
	require.NoError(t, err)
	defer f.Close()

	_, _, err = GetPeerIDs(f)
	require.ErrorIs(t, err, ErrNotASocket)

	_, _, _, err = GetPeerPIDIDs(f)
	require.ErrorIs(t, err, ErrNotASocket)
	var sysErr *SystemError
	assert.NotErrorAs(t, err, &sysErr)
	assert.NotErrorIs(t, err, ErrNotConnected)
	assert.NotErrorIs(t, err, ErrUnsupported)
}

func TestUnconnectedStreamSocket(t *testing.T) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	f := os.NewFile(uintptr(fd), "unconnected")
	defer f.Close()

	_, _, err = GetPeerIDs(f)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestTCPSocket(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("TCP peer credential errors are only pinned down on linux")
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = GetPeerIDs(conn.(*net.TCPConn))
	require.ErrorIs(t, err, ErrNotASocket)
}

func TestBadDescriptor(t *testing.T) {
	_, _, err := GetPeerIDsFD(-1)
	require.Error(t, err)

	var sysErr *SystemError
	require.ErrorAs(t, err, &sysErr)
	assert.ErrorIs(t, err, syscall.EBADF)
	assert.NotErrorIs(t, err, ErrNotASocket)
	assert.NotErrorIs(t, err, ErrNotConnected)
}

func TestClosedConn(t *testing.T) {
	server, _ := unixConnPair(t)
	require.NoError(t, server.Close())

	_, _, err := GetPeerIDs(server)
	require.ErrorContains(t, err, "unable to access socket descriptor")
}

func TestNilConn(t *testing.T) {
	_, _, err := GetPeerIDs(nil)
	require.ErrorIs(t, err, errNilConn)
}

func TestCredentialsOutliveThePeer(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("only linux is known to keep peer credentials after the peer closes")
	}
	server, client := unixConnPair(t)
	before, err := Get(server)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	after, err := Get(server)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPeerProcess(t *testing.T) {
	path := socketPath(t)
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	require.NoError(t, err)
	defer l.Close()

	exe, err := os.Executable()
	require.NoError(t, err)
	cmd := exec.Command(exe, "-test.run=^$")
	cmd.Env = append(os.Environ(), helperSocketEnv+"="+path)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	require.NoError(t, l.SetDeadline(time.Now().Add(30*time.Second)))
	conn, err := l.AcceptUnix()
	require.NoError(t, err)
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ready\n", line)

	creds, err := Get(conn)
	require.NoError(t, err)
	assert.Equal(t, uint32(os.Geteuid()), creds.UID)
	assert.Equal(t, uint32(os.Getegid()), creds.GID)
	if pid, ok := creds.PID.Get(); ok {
		assert.Equal(t, int32(cmd.Process.Pid), pid)
	}
	if runtime.GOOS == "linux" {
		assert.True(t, creds.PID.Known())
	}
}

func assertSelfPID(t *testing.T, pid PID) {
	t.Helper()
	if runtime.GOOS == "linux" {
		require.True(t, pid.Known(), "pid should be known on linux")
	}
	if !PIDSupported() {
		assert.False(t, pid.Known())
	}
	if got, ok := pid.Get(); ok {
		assert.Equal(t, int32(os.Getpid()), got)
	}
}

func socketPair(t *testing.T, typ int) (*os.File, *os.File) {
	fds, err := unix.Socketpair(unix.AF_UNIX, typ, 0)
	require.NoError(t, err)
	a := os.NewFile(uintptr(fds[0]), "a")
	b := os.NewFile(uintptr(fds[1]), "b")
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func unixConnPair(t *testing.T) (server, client *net.UnixConn) {
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath(t), Net: "unix"})
	require.NoError(t, err)
	defer l.Close()

	client, err = net.DialUnix("unix", nil, l.Addr().(*net.UnixAddr))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server, err = l.AcceptUnix()
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server, client
}

// socketPath returns a short path; sun_path is about 100 bytes and t.TempDir
// can exceed that on macOS.
func socketPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "peercred")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "sock")
}
