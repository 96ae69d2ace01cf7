package whoami

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/cli"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/common"
	whoamiv1 "github.com/spiffe/peercred/pkg/agent/api/whoami/v1"
	common_cli "github.com/spiffe/peercred/pkg/common/cli"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func NewWhoAmICommand() cli.Command {
	return newWhoAmICommand(common_cli.DefaultEnv)
}

func newWhoAmICommand(env *common_cli.Env) *whoAmICommand {
	return &whoAmICommand{
		env: env,
	}
}

type whoAmICommand struct {
	env *common_cli.Env

	socketPath string
	format     string
	timeout    common_cli.DurationFlag
}

func (c *whoAmICommand) Help() string {
	// ignoring parsing errors since "-h" is always supported by the flags package
	_ = c.parseFlags([]string{"-h"})
	return ""
}

func (c *whoAmICommand) Synopsis() string {
	return "Shows the credentials the agent sees for this process"
}

func (c *whoAmICommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		return 1
	}
	if err := c.run(); err != nil {
		_ = c.env.ErrPrintf("Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *whoAmICommand) parseFlags(args []string) error {
	c.timeout = common_cli.DurationFlag(5 * time.Second)

	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(c.env.Stderr)
	fs.StringVar(&c.socketPath, "socketPath", common.DefaultSocketPath, "Path to the agent whoami API socket")
	fs.StringVar(&c.format, "format", formatText, fmt.Sprintf("Output format, %q or %q", formatText, formatJSON))
	fs.Var(&c.timeout, "timeout", "Time to wait for a response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch c.format {
	case formatText, formatJSON:
		return nil
	default:
		err := fmt.Errorf("invalid format %q, expected %q or %q", c.format, formatText, formatJSON)
		_ = c.env.ErrPrintln(err)
		return err
	}
}

func (c *whoAmICommand) run() error {
	addr, err := common.GetAddr(c.socketPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.timeout))
	defer cancel()

	client := whoamiv1.NewClient(addr.Name)
	defer client.CloseIdleConnections()

	resp, err := client.Fetch(ctx)
	if err != nil {
		return err
	}

	if c.format == formatJSON {
		return c.printJSON(resp)
	}
	return c.printText(resp)
}

func (c *whoAmICommand) printJSON(resp *whoamiv1.Response) error {
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	return c.env.Println(string(out))
}

func (c *whoAmICommand) printText(resp *whoamiv1.Response) error {
	err := errors.Join(
		c.env.Printf("UID:       %d\n", resp.UID),
		c.env.Printf("GID:       %d\n", resp.GID),
		c.env.Printf("PID:       %s\n", resp.PID),
	)
	if len(resp.Groups) > 0 {
		groups := make([]string, 0, len(resp.Groups))
		for _, gid := range resp.Groups {
			groups = append(groups, strconv.FormatUint(uint64(gid), 10))
		}
		err = errors.Join(err, c.env.Printf("Groups:    %s\n", strings.Join(groups, ",")))
	}
	err = errors.Join(err, c.env.Printf("Mechanism: %s\n", resp.Mechanism))
	if resp.Process != nil {
		err = errors.Join(err,
			c.env.Printf("Process:   %s\n", resp.Process.Name),
			c.env.Printf("Started:   %s\n", resp.Process.CreateTime.Format(time.RFC3339)),
		)
	}
	return err
}
