package healthcheck

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/cli"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/common"
	"github.com/spiffe/peercred/pkg/agent/api/health/v1"
	common_cli "github.com/spiffe/peercred/pkg/common/cli"
	"github.com/spiffe/peercred/pkg/common/util"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func NewHealthCheckCommand() cli.Command {
	return newHealthCheckCommand(common_cli.DefaultEnv)
}

func newHealthCheckCommand(env *common_cli.Env) *healthCheckCommand {
	return &healthCheckCommand{
		env: env,
	}
}

type healthCheckCommand struct {
	env *common_cli.Env

	socketPath string
	shallow    bool
	verbose    bool
	wait       common_cli.DurationFlag
}

func (c *healthCheckCommand) Help() string {
	// ignoring parsing errors since "-h" is always supported by the flags package
	_ = c.parseFlags([]string{"-h"})
	return ""
}

func (c *healthCheckCommand) Synopsis() string {
	return "Determines agent health status"
}

func (c *healthCheckCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		return 1
	}
	if err := c.run(); err != nil {
		// Ignore error since a failure to write to stderr cannot very well be
		// reported
		_ = c.env.ErrPrintf("Agent is unhealthy: %v\n", err)
		return 1
	}
	if err := c.env.Println("Agent is healthy."); err != nil {
		return 1
	}
	return 0
}

func (c *healthCheckCommand) parseFlags(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(c.env.Stderr)
	fs.StringVar(&c.socketPath, "socketPath", common.DefaultAdminSocketPath, "Path to the agent admin API socket")
	fs.BoolVar(&c.shallow, "shallow", false, "Perform a less stringent health check")
	fs.BoolVar(&c.verbose, "verbose", false, "Print verbose information")
	fs.Var(&c.wait, "wait", "Keep retrying for this long while the agent is unhealthy")
	return fs.Parse(args)
}

func (c *healthCheckCommand) run() error {
	if c.verbose {
		c.env.Printf("Checking agent health...\n")
	}

	addr, err := common.GetAddr(c.socketPath)
	if err != nil {
		return err
	}
	target, err := util.GetTargetName(addr)
	if err != nil {
		return err
	}
	conn, err := util.GRPCDialContext(context.Background(), target)
	if err != nil {
		return err
	}
	defer conn.Close()

	healthClient := grpc_health_v1.NewHealthClient(conn)

	wait := time.Duration(c.wait)
	if wait <= 0 {
		return c.check(context.Background(), healthClient)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMaxInterval(2*time.Second),
		backoff.WithMaxElapsedTime(wait),
	)
	var lastErr error
	err = backoff.RetryNotify(func() error {
		lastErr = c.check(ctx, healthClient)
		return lastErr
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		if c.verbose {
			_ = c.env.ErrPrintf("Agent is not healthy yet (%v); retrying in %s\n", err, next.Round(time.Millisecond))
		}
	})
	// Report why the agent was unhealthy rather than the expired deadline.
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}

func (c *healthCheckCommand) check(ctx context.Context, client grpc_health_v1.HealthClient) error {
	req := &grpc_health_v1.HealthCheckRequest{}
	if c.shallow {
		req.Service = health.LivenessService
	}

	resp, err := client.Check(ctx, req)
	if err != nil {
		if c.verbose {
			// Ignore error since a failure to write to stderr cannot very well
			// be reported
			_ = c.env.ErrPrintf("Failed to check health: %v\n", err)
		}
		return errors.New("unable to determine health")
	}

	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("agent returned status %q", resp.Status)
	}

	return nil
}
