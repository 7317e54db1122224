package main

import (
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/urfave/cli/v2"
)

var blindingKeyFlag = &cli.StringFlag{
	Name:  "blinding-key",
	Usage: "the descriptor blinding key, one of slip77, slip77-rand, elip151",
	Value: "slip77",
}

var signerCmd = cli.Command{
	Name:  "signer",
	Usage: "manage the signers",
	Subcommands: []*cli.Command{
		{
			Name:  "generate",
			Usage: "generate a new random mnemonic",
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodGenerateSigner, nil)
			},
		},
		{
			Name:  "load",
			Usage: "load a software signer from its mnemonic or a serial signer",
			Flags: []cli.Flag{
				nameFlag,
				&cli.StringFlag{
					Name:  "kind",
					Usage: "the kind of signer, either software or serial",
					Value: "software",
				},
				&cli.StringFlag{
					Name:  "mnemonic",
					Usage: "the mnemonic of a software signer",
				},
				&cli.StringFlag{
					Name:  "fingerprint",
					Usage: "the expected fingerprint of a serial signer",
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodLoadSigner, rpcmodel.LoadSignerRequest{
					Name:        ctx.String("name"),
					Kind:        ctx.String("kind"),
					Mnemonic:    optionalString(ctx, "mnemonic"),
					Fingerprint: optionalString(ctx, "fingerprint"),
				})
			},
		},
		{
			Name:  "unload",
			Usage: "unload a signer",
			Flags: []cli.Flag{nameFlag},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodUnloadSigner, rpcmodel.UnloadSignerRequest{
					Name: ctx.String("name"),
				})
			},
		},
		{
			Name:  "list",
			Usage: "list the loaded signers",
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodListSigners, nil)
			},
		},
		{
			Name:  "xpub",
			Usage: "print the key origin xpub of a signer",
			Flags: []cli.Flag{
				nameFlag,
				&cli.StringFlag{
					Name:  "kind",
					Usage: "the xpub kind, one of bip84, bip49, bip87",
					Value: "bip84",
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodXpub, rpcmodel.XpubRequest{
					Name:     ctx.String("name"),
					XpubKind: ctx.String("kind"),
				})
			},
		},
		{
			Name:  "singlesig-descriptor",
			Usage: "build the singlesig descriptor of a signer",
			Flags: []cli.Flag{
				nameFlag,
				blindingKeyFlag,
				&cli.StringFlag{
					Name:  "kind",
					Usage: "the singlesig kind, either wpkh or shwpkh",
					Value: "wpkh",
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodSinglesigDescriptor, rpcmodel.SinglesigDescriptorRequest{
					Name:                  ctx.String("name"),
					DescriptorBlindingKey: ctx.String(blindingKeyFlag.Name),
					SinglesigKind:         ctx.String("kind"),
				})
			},
		},
		{
			Name:  "multisig-descriptor",
			Usage: "build a multisig descriptor from key origin xpubs",
			Flags: []cli.Flag{
				blindingKeyFlag,
				&cli.StringFlag{
					Name:  "kind",
					Usage: "the multisig kind",
					Value: "wsh",
				},
				&cli.IntFlag{
					Name:     "threshold",
					Usage:    "the number of signatures required",
					Required: true,
				},
				&cli.StringSliceFlag{
					Name:     "xpub",
					Usage:    "a key origin xpub, repeatable",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodMultisigDescriptor, rpcmodel.MultisigDescriptorRequest{
					DescriptorBlindingKey: ctx.String(blindingKeyFlag.Name),
					MultisigKind:          ctx.String("kind"),
					Threshold:             ctx.Int("threshold"),
					KeyoriginXpubs:        ctx.StringSlice("xpub"),
				})
			},
		},
		{
			Name:  "sign",
			Usage: "sign a pset with a signer",
			Flags: []cli.Flag{nameFlag, psetFlag},
			Action: func(ctx *cli.Context) error {
				return call(ctx, rpcmodel.MethodSign, rpcmodel.SignRequest{
					Name: ctx.String("name"),
					Pset: ctx.String("pset"),
				})
			},
		},
	},
}
