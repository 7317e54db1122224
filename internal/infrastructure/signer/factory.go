// Package signer implements the signing capabilities: software signers
// backed by a bip39 mnemonic and Jade hardware signers over serial.
package signer

import (
	"bytes"
	"context"

	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/jade"
	"github.com/tdex-network/walletd/pkg/wallet"
	"github.com/vulpemventures/go-elements/psetv2"
)

// FactoryOpts ...
type FactoryOpts struct {
	// SerialPort is the device of the hardware signer, autodetected when
	// empty.
	SerialPort   string
	PinServerURL string
}

type factory struct {
	opts       FactoryOpts
	openDevice func(portName string, opts jade.ClientOpts) (device, error)
}

// NewFactory returns a ports.SignerFactory.
func NewFactory(opts FactoryOpts) ports.SignerFactory {
	return &factory{
		opts: opts,
		openDevice: func(portName string, opts jade.ClientOpts) (device, error) {
			return jade.Open(portName, opts)
		},
	}
}

func (f *factory) NewSoftwareSigner(mnemonic string, mainnet bool) (ports.Signer, error) {
	return newSoftwareSigner(mnemonic, mainnet)
}

func (f *factory) NewSerialSigner(ctx context.Context, network string) (ports.Signer, error) {
	pinServerURL := f.opts.PinServerURL
	if pinServerURL == "" {
		pinServerURL = jade.DefaultPinServerURL
	}
	dev, err := f.openDevice(f.opts.SerialPort, jade.ClientOpts{
		PinServerURL: pinServerURL,
	})
	if err != nil {
		return nil, err
	}

	signer, err := newSerialSigner(ctx, dev, network)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return signer, nil
}

func (f *factory) NewMnemonic() (string, error) {
	return wallet.NewMnemonic(wallet.NewMnemonicOpts{})
}

func hasPartialSig(pset *psetv2.Pset, inIndex int, pubkey []byte) bool {
	for _, sig := range pset.Inputs[inIndex].PartialSigs {
		if bytes.Equal(sig.PubKey, pubkey) {
			return true
		}
	}
	return false
}

// trustedCommitments returns the commitments of the blinded outputs, nil
// for the unblinded ones.
func trustedCommitments(pset *psetv2.Pset) []*jade.Commitment {
	commitments := make([]*jade.Commitment, 0, len(pset.Outputs))
	for i := range pset.Outputs {
		out := pset.Outputs[i]
		if len(out.ValueCommitment) <= 0 {
			commitments = append(commitments, nil)
			continue
		}
		commitments = append(commitments, &jade.Commitment{
			AssetID:         out.Asset,
			Value:           out.Value,
			AssetGenerator:  out.AssetCommitment,
			ValueCommitment: out.ValueCommitment,
			BlindingKey:     out.BlindingPubkey,
		})
	}
	return commitments
}
