package wallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/vulpemventures/go-elements/slip77"
)

// MasterXpub returns the master extended public key in base58 format.
func (w *Wallet) MasterXpub() (string, error) {
	xpub, err := w.masterKey.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

// DeriveXpub returns the extended public key at the given absolute path.
func (w *Wallet) DeriveXpub(path []uint32) (string, error) {
	key, err := w.derive(path)
	if err != nil {
		return "", err
	}
	xpub, err := key.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

// DeriveSigningKeyPair derives the key pair at the given absolute path.
func (w *Wallet) DeriveSigningKeyPair(path []uint32) (
	*btcec.PrivateKey, *btcec.PublicKey, error,
) {
	if len(path) <= 0 {
		return nil, nil, ErrNullDerivationPath
	}
	key, err := w.derive(path)
	if err != nil {
		return nil, nil, err
	}

	privateKey, err := key.ECPrivKey()
	if err != nil {
		return nil, nil, err
	}
	return privateKey, privateKey.PubKey(), nil
}

// DeriveBlindingKeyPair derives the slip77 blinding key pair of the given
// output script.
func (w *Wallet) DeriveBlindingKeyPair(script []byte) (
	*btcec.PrivateKey, *btcec.PublicKey, error,
) {
	slip77Node, err := slip77.FromMasterKey(w.blindingMasterKey)
	if err != nil {
		return nil, nil, err
	}
	return slip77Node.DeriveKey(script)
}

func (w *Wallet) derive(path []uint32) (*hdkeychain.ExtendedKey, error) {
	key := w.masterKey
	for _, step := range path {
		var err error
		if key, err = key.Derive(step); err != nil {
			return nil, err
		}
	}
	return key, nil
}
