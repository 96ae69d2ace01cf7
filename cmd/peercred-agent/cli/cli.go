package cli

import (
	"context"
	stdlog "log"

	"github.com/mitchellh/cli"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/healthcheck"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/mechanism"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/run"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/whoami"
	"github.com/spiffe/peercred/pkg/common/log"
	"github.com/spiffe/peercred/pkg/common/version"
)

type CLI struct {
	LogOptions         []log.Option
	AllowUnknownConfig bool
}

func (cc *CLI) Run(ctx context.Context, args []string) int {
	c := cli.NewCLI("peercred-agent", version.Version())
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"run": func() (cli.Command, error) {
			return run.NewRunCommand(ctx, cc.LogOptions, cc.AllowUnknownConfig), nil
		},
		"healthcheck": func() (cli.Command, error) {
			return healthcheck.NewHealthCheckCommand(), nil
		},
		"whoami": func() (cli.Command, error) {
			return whoami.NewWhoAmICommand(), nil
		},
		"mechanism": func() (cli.Command, error) {
			return mechanism.NewMechanismCommand(), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		stdlog.Println(err)
	}
	return exitStatus
}
