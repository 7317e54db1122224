package wallet

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
	"github.com/vulpemventures/go-elements/slip77"
)

var (
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic is null")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullPset ...
	ErrNullPset = errors.New("pset must not be null")
	// ErrMissingPrevout ...
	ErrMissingPrevout = errors.New("input is missing the previous output")
)

// Wallet holds the bip32 master key and the slip77 master blinding key
// derived from a bip39 mnemonic. It derives keys and signs partial
// transactions, but never exposes the mnemonic or the private keys.
type Wallet struct {
	masterKey         *hdkeychain.ExtendedKey
	blindingMasterKey []byte
	mainnet           bool
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method.
type NewWalletFromMnemonicOpts struct {
	Mnemonic string
	Mainnet  bool
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if len(strings.TrimSpace(o.Mnemonic)) <= 0 {
		return ErrNullMnemonic
	}
	if !bip39.IsMnemonicValid(normalizeMnemonic(o.Mnemonic)) {
		return ErrInvalidMnemonic
	}
	return nil
}

// NewWalletFromMnemonic generates the signing and blinding master keys from
// the given mnemonic, with an empty passphrase.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(normalizeMnemonic(opts.Mnemonic), "")
	masterKey, err := hdkeychain.NewMaster(seed, chainParams(opts.Mainnet))
	if err != nil {
		return nil, err
	}
	slip77Node, err := slip77.FromSeed(seed)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		masterKey:         masterKey,
		blindingMasterKey: slip77Node.MasterKey,
		mainnet:           opts.Mainnet,
	}, nil
}

// IsMainnet returns whether extended keys are encoded with mainnet versions.
func (w *Wallet) IsMainnet() bool {
	return w.mainnet
}

// Fingerprint returns the 4 bytes fingerprint of the master public key.
func (w *Wallet) Fingerprint() ([]byte, error) {
	pubkey, err := w.masterPubKey()
	if err != nil {
		return nil, err
	}
	return btcutil.Hash160(pubkey)[:4], nil
}

// Identifier returns the hash160 of the master public key.
func (w *Wallet) Identifier() ([]byte, error) {
	pubkey, err := w.masterPubKey()
	if err != nil {
		return nil, err
	}
	return btcutil.Hash160(pubkey), nil
}

// MasterBlindingKey returns the slip77 master blinding key.
func (w *Wallet) MasterBlindingKey() []byte {
	return append([]byte{}, w.blindingMasterKey...)
}

func (w *Wallet) masterPubKey() ([]byte, error) {
	pubkey, err := w.masterKey.ECPubKey()
	if err != nil {
		return nil, err
	}
	return pubkey.SerializeCompressed(), nil
}

func (w *Wallet) fingerprintUint32() (uint32, error) {
	fp, err := w.Fingerprint()
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(fp), nil
}

func chainParams(mainnet bool) *chaincfg.Params {
	if mainnet {
		return &chaincfg.MainNetParams
	}
	return &chaincfg.TestNet3Params
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
