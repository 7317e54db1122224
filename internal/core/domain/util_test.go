package domain_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/walletd/internal/core/domain"
)

// testKey is a deterministic master key used to build descriptors.
type testKey struct {
	master *hdkeychain.ExtendedKey
}

func newTestKey(t *testing.T, b byte) testKey {
	t.Helper()

	master, err := hdkeychain.NewMaster(bytes.Repeat([]byte{b}, 32), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	return testKey{master}
}

func (k testKey) Fingerprint() (domain.Fingerprint, error) {
	pubkey, err := k.master.ECPubKey()
	if err != nil {
		return domain.Fingerprint{}, err
	}
	return domain.FingerprintFromPubKey(pubkey.SerializeCompressed()), nil
}

func (k testKey) DeriveXpub(path domain.DerivationPath) (string, error) {
	key := k.master
	var err error
	for _, step := range path {
		if key, err = key.Derive(step); err != nil {
			return "", err
		}
	}
	xpub, err := key.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

func (k testKey) Slip77MasterBlindingKey() (string, error) {
	return hex.EncodeToString(bytes.Repeat([]byte{0xab}, 32)), nil
}

func (k testKey) IsMainnet() bool {
	return false
}

// keyOrigin returns the bip84 [fingerprint/path]xpub of the key.
func (k testKey) keyOrigin(t *testing.T) string {
	t.Helper()

	key, err := domain.NewKeyOriginXpub(k, domain.Bip84)
	require.NoError(t, err)
	return key.String()
}

func (k testKey) fingerprint(t *testing.T) domain.Fingerprint {
	t.Helper()

	fp, err := k.Fingerprint()
	require.NoError(t, err)
	return fp
}
