package domain_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/walletd/internal/core/domain"
)

func TestVariants(t *testing.T) {
	t.Parallel()

	_, err := domain.ParseSinglesigVariant("wpkh")
	require.NoError(t, err)
	_, err = domain.ParseSinglesigVariant("pkh")
	require.ErrorIs(t, err, domain.ErrInvalidSinglesigVariant)

	_, err = domain.ParseMultisigVariant("wsh")
	require.NoError(t, err)
	_, err = domain.ParseMultisigVariant("sh")
	require.ErrorIs(t, err, domain.ErrInvalidMultisigVariant)

	_, err = domain.ParseBlindingKeyVariant("elip151")
	require.NoError(t, err)
	_, err = domain.ParseBlindingKeyVariant("view")
	require.ErrorIs(t, err, domain.ErrInvalidBlindingKeyVariant)

	bip, err := domain.ParseBipVariant("bip87")
	require.NoError(t, err)
	require.Equal(t, "87h/1h/0h", bip.AccountPath(false).String())
	require.Equal(t, "87h/1776h/0h", bip.AccountPath(true).String())
	_, err = domain.ParseBipVariant("bip44")
	require.ErrorIs(t, err, domain.ErrInvalidBipVariant)
}

func TestKeyOriginXpub(t *testing.T) {
	t.Parallel()

	k := newTestKey(t, 4)
	key, err := domain.NewKeyOriginXpub(k, domain.Bip49)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(
		key.String(), fmt.Sprintf("[%s/49h/1h/0h]tpub", k.fingerprint(t)),
	))

	parsed, err := domain.ParseKeyOriginXpub(key.String())
	require.NoError(t, err)
	require.Equal(t, *key, *parsed)

	xprv := k.master.String()
	tests := []string{
		key.Xpub,
		"[" + k.fingerprint(t).String() + "/49h" + key.Xpub,
		"[" + k.fingerprint(t).String() + "]notakey",
		"[" + k.fingerprint(t).String() + "]" + xprv,
		"[xyz/49h]" + key.Xpub,
	}
	for _, tt := range tests {
		_, err := domain.ParseKeyOriginXpub(tt)
		require.ErrorIs(t, err, domain.ErrInvalidKeyOriginXpub, tt)
	}
}

func TestNewSinglesigDescriptor(t *testing.T) {
	t.Parallel()

	k := newTestKey(t, 5)

	desc, err := domain.NewSinglesigDescriptor(k, domain.SinglesigWpkh, domain.BlindingKeySlip77)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(desc, "ct(slip77(abababab"))
	require.Equal(t, "wpkh", domain.ClassifyDescriptor(desc).String())

	parsed, err := domain.ParseDescriptor(desc)
	require.NoError(t, err)
	require.Equal(t, "84h/1h/0h", parsed.Keys[0].Origin.Path.String())

	desc, err = domain.NewSinglesigDescriptor(k, domain.SinglesigShWpkh, domain.BlindingKeyElip151)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(desc, "ct(elip151,elsh(wpkh(["))
	require.Equal(t, "sh_wpkh", domain.ClassifyDescriptor(desc).String())

	_, err = domain.NewSinglesigDescriptor(k, domain.SinglesigWpkh, domain.BlindingKeySlip77Rand)
	require.ErrorIs(t, err, domain.ErrSlip77RandSinglesig)
}

func TestNewMultisigDescriptor(t *testing.T) {
	t.Parallel()

	keys := make([]domain.KeyOriginXpub, 0, 3)
	for i := byte(1); i <= 3; i++ {
		key, err := domain.NewKeyOriginXpub(newTestKey(t, i), domain.Bip87)
		require.NoError(t, err)
		keys = append(keys, *key)
	}

	desc, err := domain.NewMultisigDescriptor(2, keys, domain.MultisigWsh, domain.BlindingKeyElip151)
	require.NoError(t, err)
	require.Equal(t, "wsh_multi_2of3", domain.ClassifyDescriptor(desc).String())

	desc, err = domain.NewMultisigDescriptor(3, keys, domain.MultisigWsh, domain.BlindingKeySlip77Rand)
	require.NoError(t, err)
	parsed, err := domain.ParseDescriptor(desc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(parsed.BlindingKey, "slip77("))
	require.Len(t, parsed.BlindingKey, len("slip77()")+64)

	_, err = domain.NewMultisigDescriptor(2, keys, domain.MultisigWsh, domain.BlindingKeySlip77)
	require.ErrorIs(t, err, domain.ErrMultisigSlip77)

	for _, threshold := range []int{0, 4} {
		_, err = domain.NewMultisigDescriptor(threshold, keys, domain.MultisigWsh, domain.BlindingKeyElip151)
		require.ErrorIs(t, err, domain.ErrInvalidThreshold)
	}
}
