package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/agent/api/health/v1"
	"github.com/spiffe/peercred/pkg/agent/api/whoami/v1"
	"github.com/spiffe/peercred/pkg/common/peertracker"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const (
	// publicSocketMode lets any local user reach the whoami API.
	publicSocketMode os.FileMode = 0o777

	// adminSocketMode limits the admin API to the agent's user and group.
	adminSocketMode os.FileMode = 0o770

	readHeaderTimeout = 10 * time.Second
)

type Server interface {
	ListenAndServe(ctx context.Context) error
}

type Endpoints struct {
	addr      *net.UnixAddr
	adminAddr *net.UnixAddr
	log       logrus.FieldLogger
	metrics   telemetry.Metrics

	whoamiHandler http.Handler
	healthServer  *health.Service
}

func New(c Config) *Endpoints {
	whoamiService := whoami.New(whoami.Config{
		Log:                c.Log.WithField(telemetry.SubsystemName, telemetry.WhoAmIAPI),
		Metrics:            c.Metrics,
		IncludeProcessInfo: c.IncludeProcessInfo,
	})

	healthServer := health.New(health.Config{
		Log:        c.Log.WithField(telemetry.SubsystemName, telemetry.AdminAPI),
		SocketPath: c.BindAddr.String(),
	})

	return &Endpoints{
		addr:          c.BindAddr,
		adminAddr:     c.AdminBindAddr,
		log:           c.Log,
		metrics:       c.Metrics,
		whoamiHandler: WhoAmIMiddleware(whoamiService.Handler(), c.Log, c.Metrics, newLimiter(c.RateLimit, c.RateLimitBurst)),
		healthServer:  healthServer,
	}
}

// ListenAndServe serves the whoami API and, when configured, the admin API
// until ctx is done or one of them fails.
func (e *Endpoints) ListenAndServe(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.serveWhoAmI(ctx)
	})
	if e.adminAddr != nil {
		g.Go(func() error {
			return e.serveAdmin(ctx)
		})
	}
	return g.Wait()
}

func (e *Endpoints) serveWhoAmI(ctx context.Context) error {
	l, err := e.createUDSListener(e.addr, publicSocketMode)
	if err != nil {
		return err
	}
	defer l.Close()

	server := &http.Server{
		Handler:           e.whoamiHandler,
		ConnContext:       peertracker.ConnContext,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	e.log.WithField(telemetry.Address, e.addr.String()).Info("Starting WhoAmI API")
	errChan := make(chan error, 1)
	go func() { errChan <- server.Serve(l) }()

	select {
	case err = <-errChan:
	case <-ctx.Done():
		e.log.Info("Stopping WhoAmI API")
		server.Close()
		err = <-errChan
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

func (e *Endpoints) serveAdmin(ctx context.Context) error {
	server := grpc.NewServer(
		grpc.Creds(peertracker.NewCredentials()),
		grpc.ChainUnaryInterceptor(UnaryInterceptor(e.log, e.metrics)),
		grpc.ChainStreamInterceptor(StreamInterceptor(e.log, e.metrics)),
	)
	health.RegisterService(server, e.healthServer)

	l, err := e.createUDSListener(e.adminAddr, adminSocketMode)
	if err != nil {
		return err
	}
	defer l.Close()

	e.log.WithField(telemetry.Address, e.adminAddr.String()).Info("Starting Admin API")
	errChan := make(chan error, 1)
	go func() { errChan <- server.Serve(l) }()

	select {
	case err = <-errChan:
	case <-ctx.Done():
		e.log.Info("Stopping Admin API")
		server.Stop()
		err = <-errChan
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
	}
	return err
}

func (e *Endpoints) createUDSListener(addr *net.UnixAddr, mode os.FileMode) (net.Listener, error) {
	// Remove uds if already exists
	os.Remove(addr.String())

	unixListener := &peertracker.ListenerFactory{
		Log:     e.log.WithField(telemetry.SubsystemName, telemetry.Listener),
		Metrics: e.metrics,
	}

	l, err := unixListener.ListenUnix(addr.Network(), addr)
	if err != nil {
		return nil, fmt.Errorf("create UDS listener: %w", err)
	}

	if err := os.Chmod(addr.String(), mode); err != nil {
		l.Close()
		return nil, fmt.Errorf("unable to change UDS permissions: %w", err)
	}
	return l, nil
}
