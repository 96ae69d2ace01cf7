//go:build unix

package peertracker

import (
	"math"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"golang.org/x/sys/unix"
)

// rlimitPercent is the share of RLIMIT_NOFILE that accepted connections may
// use, leaving the rest to the process itself.
const rlimitPercent = 99

func (lf *ListenerFactory) ListenUnix(network string, laddr *net.UnixAddr) (*Listener, error) {
	if lf.NewUnixListener == nil {
		lf.NewUnixListener = net.ListenUnix
	}
	if lf.Log == nil {
		lf.Log = newNoopLogger()
	}
	if lf.Metrics == nil {
		lf.Metrics = telemetry.Blackhole{}
	}
	return lf.listenUnix(network, laddr)
}

func (lf *ListenerFactory) listenUnix(network string, laddr *net.UnixAddr) (*Listener, error) {
	maxConns, err := lf.connectionLimit()
	if err != nil {
		return nil, err
	}

	l, err := lf.NewUnixListener(network, laddr)
	if err != nil {
		return nil, err
	}

	return newListener(l, lf.Log, lf.Metrics, maxConns), nil
}

func (lf *ListenerFactory) connectionLimit() (int64, error) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return 0, err
	}

	// Cur is signed on some platforms, where infinity is -1.
	limit := uint64(rlimit.Cur) / 100 * rlimitPercent
	switch {
	case limit > math.MaxInt32:
		limit = math.MaxInt32
	case limit == 0:
		limit = 1
	}
	lf.Log.WithFields(logrus.Fields{
		"rlimit":      uint64(rlimit.Cur),
		"concurrency": limit,
	}).Debug("Limiting concurrent connections below open file limit")

	return int64(limit), nil
}
