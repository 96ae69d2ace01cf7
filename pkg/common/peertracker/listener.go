package peertracker

import (
	"context"
	"io"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/common/peercred"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"golang.org/x/sync/semaphore"
)

var _ net.Listener = &Listener{}

type ListenerFactory struct {
	Log     logrus.FieldLogger
	Metrics telemetry.Metrics

	NewUnixListener func(network string, laddr *net.UnixAddr) (*net.UnixListener, error)
}

// Listener resolves the caller of every accepted connection. Connections
// whose caller cannot be resolved are logged and closed, and Accept moves on
// to the next one. At most a fixed number of accepted connections may be open
// at once; Accept blocks until one of them is closed.
type Listener struct {
	l       net.Listener
	log     logrus.FieldLogger
	metrics telemetry.Metrics

	slots  *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
}

func newListener(l net.Listener, log logrus.FieldLogger, metrics telemetry.Metrics, maxConns int64) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		l:       l,
		log:     log,
		metrics: metrics,
		slots:   semaphore.NewWeighted(maxConns),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func newNoopLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func (l *Listener) Accept() (net.Conn, error) {
	for {
		if err := l.slots.Acquire(l.ctx, 1); err != nil {
			return nil, net.ErrClosed
		}

		conn, err := l.l.Accept()
		if err != nil {
			l.releaseSlot()
			return nil, err
		}

		var caller CallerInfo
		// Support future Listener types
		switch conn.RemoteAddr().Network() {
		case "unix":
			caller, err = CallerFromUDSConn(conn)
			telemetry.IncrPeerCredQuery(l.metrics, peercred.Mechanism(), telemetry.PeerCredOutcome(err))
		default:
			err = ErrUnsupportedTransport
		}

		if err != nil {
			l.log.WithError(err).Warn("Connection failed during accept")
			conn.Close()
			l.releaseSlot()
			continue
		}

		return &Conn{
			Conn: conn,
			Info: AuthInfo{
				Caller: caller,
			},
			release: l.releaseSlot,
		}, nil
	}
}

func (l *Listener) releaseSlot() {
	l.slots.Release(1)
}

// Close stops the listener. Connections already accepted stay open.
func (l *Listener) Close() error {
	l.cancel()
	return l.l.Close()
}

func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}
