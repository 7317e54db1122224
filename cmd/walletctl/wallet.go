package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/urfave/cli/v2"
)

var (
	nameFlag = &cli.StringFlag{
		Name:     "name",
		Usage:    "the name of the wallet or signer",
		Required: true,
	}
	psetFlag = &cli.StringFlag{
		Name:     "pset",
		Usage:    "the base64 encoded pset",
		Required: true,
	}
	feeRateFlag = &cli.Float64Flag{
		Name:  "fee-rate",
		Usage: "the fee rate in sat/kvB, the daemon default if not set",
	}
)

var walletCmd = cli.Command{
	Name:  "wallet",
	Usage: "manage the watch-only wallets",
	Subcommands: []*cli.Command{
		{
			Name:  "load",
			Usage: "load a wallet from its CT descriptor",
			Flags: []cli.Flag{
				nameFlag,
				&cli.StringFlag{
					Name:     "descriptor",
					Usage:    "the CT descriptor of the wallet",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodLoadWallet, rpcmodel.LoadWalletRequest{
					Name:       ctx.String("name"),
					Descriptor: ctx.String("descriptor"),
				})
			},
		},
		{
			Name:  "unload",
			Usage: "unload a wallet",
			Flags: []cli.Flag{nameFlag},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodUnloadWallet, rpcmodel.UnloadWalletRequest{
					Name: ctx.String("name"),
				})
			},
		},
		{
			Name:  "list",
			Usage: "list the loaded wallets",
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodListWallets, nil)
			},
		},
		{
			Name:  "address",
			Usage: "derive a receiving address of a wallet",
			Flags: []cli.Flag{
				nameFlag,
				&cli.UintFlag{
					Name:  "index",
					Usage: "the derivation index, the next unused one if not set",
				},
			},
			Action: addressAction,
		},
		{
			Name:  "balance",
			Usage: "print the balance of a wallet per asset",
			Flags: []cli.Flag{nameFlag},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodBalance, rpcmodel.BalanceRequest{
					Name: ctx.String("name"),
				})
			},
		},
		{
			Name:  "send",
			Usage: "create a pset sending funds to the given addressees",
			Flags: []cli.Flag{
				nameFlag,
				&cli.StringSliceFlag{
					Name:     "to",
					Usage:    "an addressee in the form <satoshi>:<address>[:<asset>], repeatable",
					Required: true,
				},
				feeRateFlag,
			},
			Action: sendAction,
		},
		{
			Name:  "details",
			Usage: "print the details of a wallet",
			Flags: []cli.Flag{nameFlag},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodWalletDetails, rpcmodel.WalletDetailsRequest{
					Name: ctx.String("name"),
				})
			},
		},
		{
			Name:  "combine",
			Usage: "combine the signatures of the given psets",
			Flags: []cli.Flag{
				nameFlag,
				&cli.StringSliceFlag{
					Name:     "pset",
					Usage:    "a base64 encoded pset, repeatable",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodWalletCombine, rpcmodel.WalletCombineRequest{
					Name: ctx.String("name"),
					Pset: ctx.StringSlice("pset"),
				})
			},
		},
		{
			Name:  "pset-details",
			Usage: "print which signers of the wallet signed a pset",
			Flags: []cli.Flag{nameFlag, psetFlag},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodWalletPsetDetails, rpcmodel.WalletPsetDetailsRequest{
					Name: ctx.String("name"),
					Pset: ctx.String("pset"),
				})
			},
		},
		{
			Name:  "broadcast",
			Usage: "finalize a pset and broadcast the transaction",
			Flags: []cli.Flag{
				nameFlag,
				psetFlag,
				&cli.BoolFlag{
					Name:  "dry-run",
					Usage: "finalize the pset without broadcasting",
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodBroadcast, rpcmodel.BroadcastRequest{
					Name:   ctx.String("name"),
					Pset:   ctx.String("pset"),
					DryRun: ctx.Bool("dry-run"),
				})
			},
		},
		{
			Name:  "issue",
			Usage: "create a pset issuing a new asset",
			Flags: []cli.Flag{
				nameFlag,
				&cli.Uint64Flag{
					Name:     "satoshi-asset",
					Usage:    "the amount of asset to issue",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "address-asset",
					Usage: "the receiving address of the asset",
				},
				&cli.Uint64Flag{
					Name:  "satoshi-token",
					Usage: "the amount of reissuance token to issue",
				},
				&cli.StringFlag{
					Name:  "address-token",
					Usage: "the receiving address of the reissuance token",
				},
				&cli.StringFlag{
					Name:  "contract",
					Usage: "the JSON contract committed in the issuance",
				},
				feeRateFlag,
			},
			Action: issueAction,
		},
	},
}

func addressAction(ctx *cli.Context) error {
	req := rpcmodel.AddressRequest{Name: ctx.String("name")}
	if ctx.IsSet("index") {
		index := uint32(ctx.Uint("index"))
		req.Index = &index
	}
	return call(ctx, rpcmodel.MethodAddress, req)
}

func sendAction(ctx *cli.Context) error {
	addressees, err := parseAddressees(ctx.StringSlice("to"))
	if err != nil {
		return err
	}
	return call(ctx, rpcmodel.MethodSendMany, rpcmodel.SendManyRequest{
		Name:       ctx.String("name"),
		Addressees: addressees,
		FeeRate:    optionalFloat(ctx, feeRateFlag.Name),
	})
}

func issueAction(ctx *cli.Context) error {
	return call(ctx, rpcmodel.MethodIssue, rpcmodel.IssueRequest{
		Name:         ctx.String("name"),
		SatoshiAsset: ctx.Uint64("satoshi-asset"),
		AddressAsset: optionalString(ctx, "address-asset"),
		SatoshiToken: ctx.Uint64("satoshi-token"),
		AddressToken: optionalString(ctx, "address-token"),
		Contract:     optionalString(ctx, "contract"),
		FeeRate:      optionalFloat(ctx, feeRateFlag.Name),
	})
}

func parseAddressees(values []string) ([]rpcmodel.UnvalidatedAddressee, error) {
	addressees := make([]rpcmodel.UnvalidatedAddressee, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid addressee %q, must be <satoshi>:<address>[:<asset>]", v)
		}
		satoshi, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in addressee %q: %w", v, err)
		}
		addressee := rpcmodel.UnvalidatedAddressee{Satoshi: satoshi, Address: parts[1]}
		if len(parts) == 3 {
			addressee.Asset = parts[2]
		}
		addressees = append(addressees, addressee)
	}
	return addressees, nil
}

func optionalString(ctx *cli.Context, name string) *string {
	if !ctx.IsSet(name) {
		return nil
	}
	v := ctx.String(name)
	return &v
}

func optionalFloat(ctx *cli.Context, name string) *float64 {
	if !ctx.IsSet(name) {
		return nil
	}
	v := ctx.Float64(name)
	return &v
}
