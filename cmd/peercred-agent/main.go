package main

import (
	"context"
	"os"

	"github.com/spiffe/peercred/cmd/peercred-agent/cli"
)

func main() {
	os.Setenv("$", "$") // Allow escaping $ in config files using ExpandEnv
	os.Exit(new(cli.CLI).Run(context.Background(), os.Args[1:]))
}
