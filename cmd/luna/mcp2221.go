package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/luna/adapter"
	"github.com/mklimuk/luna/cmd/luna/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 USB bridge",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge i2c engine state",
	Action: func(c *cli.Context) error {
		return printBridgeStatus(commandContext(c), adapter.NewMCP2221())
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck i2c transfer and print the resulting state",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		a := adapter.NewMCP2221()
		if err := a.Release(ctx); err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return printBridgeStatus(ctx, a)
	},
}

func printBridgeStatus(ctx context.Context, a *adapter.MCP2221) error {
	status, err := a.Status(ctx)
	if err != nil {
		return console.Exit(1, "adapter communication error: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(console.Output())
	defer enc.Close()
	if err := enc.Encode(status); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
