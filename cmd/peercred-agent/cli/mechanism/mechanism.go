package mechanism

import (
	"flag"

	"github.com/mitchellh/cli"
	common_cli "github.com/spiffe/peercred/pkg/common/cli"
	"github.com/spiffe/peercred/pkg/common/peercred"
)

func NewMechanismCommand() cli.Command {
	return newMechanismCommand(common_cli.DefaultEnv)
}

func newMechanismCommand(env *common_cli.Env) *mechanismCommand {
	return &mechanismCommand{
		env: env,
	}
}

type mechanismCommand struct {
	env *common_cli.Env
}

func (c *mechanismCommand) Help() string {
	_ = c.parseFlags([]string{"-h"})
	return ""
}

func (c *mechanismCommand) Synopsis() string {
	return "Prints the peer credential mechanism of this build"
}

func (c *mechanismCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		return 1
	}

	if err := c.env.Printf("Mechanism:     %s\nPID supported: %t\n", peercred.Mechanism(), peercred.PIDSupported()); err != nil {
		return 1
	}
	return 0
}

func (c *mechanismCommand) parseFlags(args []string) error {
	fs := flag.NewFlagSet("mechanism", flag.ContinueOnError)
	fs.SetOutput(c.env.Stderr)
	return fs.Parse(args)
}
