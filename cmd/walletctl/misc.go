package main

import (
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/urfave/cli/v2"
)

var (
	versionCmd = cli.Command{
		Name:  "version",
		Usage: "print the version of the daemon",
		Action: func(ctx *cli.Context) error {
			return call(ctx, rpcmodel.MethodVersion, nil)
		},
	}

	stopCmd = cli.Command{
		Name:  "stop",
		Usage: "stop the daemon",
		Action: func(ctx *cli.Context) error {
			return call(ctx, rpcmodel.MethodStop, nil)
		},
	}

	schemaCmd = cli.Command{
		Name:  "schema",
		Usage: "print the JSON schema of the request or the response of a method",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "method",
				Usage:    "the name of the method",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "direction",
				Usage: "either request or response",
				Value: "request",
			},
		},
		Action: schemaAction,
	}
)

func schemaAction(ctx *cli.Context) error {
	direction, err := rpcmodel.ParseDirection(ctx.String("direction"))
	if err != nil {
		return err
	}
	return call(ctx, rpcmodel.MethodSchema, rpcmodel.SchemaRequest{
		Method:    ctx.String("method"),
		Direction: direction,
	})
}
