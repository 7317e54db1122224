package signer

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/txscript"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/pkg/jade"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/psetv2"
)

// device is the subset of the Jade client used by the serial signer.
type device interface {
	AuthUser(ctx context.Context, network string) error
	GetXpub(ctx context.Context, network string, path []uint32) (string, error)
	GetMasterBlindingKey(ctx context.Context) ([]byte, error)
	SignLiquidTx(ctx context.Context, args jade.SignTxArgs) ([][]byte, error)
	Close() error
}

var jadeNetworks = map[string]string{
	network.Liquid.Name:  jade.NetworkLiquid,
	network.Testnet.Name: jade.NetworkTestnet,
	network.Regtest.Name: jade.NetworkRegtest,
}

type serialSigner struct {
	lock      sync.Mutex
	device    device
	network   string
	mainnet   bool
	masterKey *hdkeychain.ExtendedKey
	xpub      string
}

func newSerialSigner(
	ctx context.Context, dev device, networkName string,
) (*serialSigner, error) {
	jadeNetwork, ok := jadeNetworks[networkName]
	if !ok {
		return nil, fmt.Errorf("unsupported network %q", networkName)
	}

	if err := dev.AuthUser(ctx, jadeNetwork); err != nil {
		return nil, fmt.Errorf("failed to unlock device: %w", err)
	}
	xpub, err := dev.GetXpub(ctx, jadeNetwork, []uint32{})
	if err != nil {
		return nil, fmt.Errorf("failed to get master xpub: %w", err)
	}
	masterKey, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, fmt.Errorf("invalid master xpub from device: %w", err)
	}

	log.Debugf("serial signer unlocked on network %s", jadeNetwork)
	return &serialSigner{
		device:    dev,
		network:   jadeNetwork,
		mainnet:   networkName == network.Liquid.Name,
		masterKey: masterKey,
		xpub:      xpub,
	}, nil
}

func (s *serialSigner) Fingerprint() (domain.Fingerprint, error) {
	pubkey, err := s.masterPubKey()
	if err != nil {
		return domain.Fingerprint{}, err
	}
	return domain.FingerprintFromPubKey(pubkey), nil
}

func (s *serialSigner) Identifier() (string, error) {
	pubkey, err := s.masterPubKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(btcutil.Hash160(pubkey)), nil
}

func (s *serialSigner) Xpub() (string, error) {
	return s.xpub, nil
}

func (s *serialSigner) DeriveXpub(path domain.DerivationPath) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.device.GetXpub(context.Background(), s.network, path)
}

func (s *serialSigner) Slip77MasterBlindingKey() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key, err := s.device.GetMasterBlindingKey(context.Background())
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

func (s *serialSigner) IsMainnet() bool {
	return s.mainnet
}

// Sign sends the unsigned transaction to the device along with the inputs
// it owns, and adds the returned signatures to the partial transaction.
func (s *serialSigner) Sign(ctx context.Context, pset *psetv2.Pset) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	fp, err := s.Fingerprint()
	if err != nil {
		return 0, err
	}
	tx, err := pset.UnsignedTx()
	if err != nil {
		return 0, err
	}
	txBytes, err := tx.Serialize()
	if err != nil {
		return 0, err
	}

	inputs, pubkeys, err := s.txInputs(pset, fp.Uint32())
	if err != nil {
		return 0, err
	}
	if len(pubkeys) <= 0 {
		return 0, nil
	}

	sigs, err := s.device.SignLiquidTx(ctx, jade.SignTxArgs{
		Network:            s.network,
		Tx:                 txBytes,
		TrustedCommitments: trustedCommitments(pset),
		Inputs:             inputs,
	})
	if err != nil {
		return 0, err
	}
	if len(sigs) != len(inputs) {
		return 0, fmt.Errorf(
			"device returned %d signatures for %d inputs", len(sigs), len(inputs),
		)
	}

	signer, err := psetv2.NewSigner(pset)
	if err != nil {
		return 0, err
	}
	count := 0
	for i, sig := range sigs {
		pubkey, ok := pubkeys[i]
		if !ok || len(sig) <= 0 {
			continue
		}
		if err := signer.SignInput(i, sig, pubkey, nil, nil); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *serialSigner) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.device.Close()
}

// txInputs maps every pset input to a device input. Inputs with a bip32
// derivation of this signer carry the path and script code to sign, the
// returned map holds the public key of each of them.
func (s *serialSigner) txInputs(
	pset *psetv2.Pset, fingerprint uint32,
) ([]jade.TxInput, map[int][]byte, error) {
	inputs := make([]jade.TxInput, 0, len(pset.Inputs))
	pubkeys := make(map[int][]byte)

	for i := range pset.Inputs {
		in := pset.Inputs[i]
		txIn := jade.TxInput{IsWitness: true}

		for _, derivation := range in.Bip32Derivation {
			if derivation.MasterKeyFingerprint != fingerprint {
				continue
			}
			if hasPartialSig(pset, i, derivation.PubKey) {
				continue
			}
			prevout := in.GetUtxo()
			if prevout == nil {
				return nil, nil, fmt.Errorf("input %d is missing the previous output", i)
			}

			script := in.WitnessScript
			if len(script) <= 0 {
				pubkey, err := btcec.ParsePubKey(derivation.PubKey)
				if err != nil {
					return nil, nil, fmt.Errorf("input %d: %w", i, err)
				}
				script = payment.FromPublicKey(pubkey, nil, nil).Script
			}
			sighash := in.SigHashType
			if sighash == 0 {
				sighash = txscript.SigHashAll
			}

			txIn.Script = script
			txIn.ValueCommitment = prevout.Value
			txIn.Path = derivation.Bip32Path
			txIn.SigHash = uint8(sighash)
			pubkeys[i] = derivation.PubKey
			break
		}
		inputs = append(inputs, txIn)
	}
	return inputs, pubkeys, nil
}

func (s *serialSigner) masterPubKey() ([]byte, error) {
	pubkey, err := s.masterKey.ECPubKey()
	if err != nil {
		return nil, err
	}
	return pubkey.SerializeCompressed(), nil
}
