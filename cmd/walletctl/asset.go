package main

import (
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/urfave/cli/v2"
)

var assetCmd = cli.Command{
	Name:  "asset",
	Usage: "issuance contracts and asset details",
	Subcommands: []*cli.Command{
		{
			Name:  "contract",
			Usage: "validate and print an issuance contract",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "domain", Required: true},
				&cli.StringFlag{Name: "issuer-pubkey", Required: true},
				&cli.StringFlag{Name: "name", Required: true},
				&cli.UintFlag{Name: "precision"},
				&cli.StringFlag{Name: "ticker", Required: true},
				&cli.UintFlag{Name: "contract-version"},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodContract, rpcmodel.ContractRequest{
					Domain:       ctx.String("domain"),
					IssuerPubkey: ctx.String("issuer-pubkey"),
					Name:         ctx.String("name"),
					Precision:    uint8(ctx.Uint("precision")),
					Ticker:       ctx.String("ticker"),
					Version:      uint8(ctx.Uint("contract-version")),
				})
			},
		},
		{
			Name:  "details",
			Usage: "print the details of an asset",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "asset-id", Required: true},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodAssetDetails, rpcmodel.AssetDetailsRequest{
					AssetID: ctx.String("asset-id"),
				})
			},
		},
	},
}
