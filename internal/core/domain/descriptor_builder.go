package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	coinTypeLiquid  = 1776
	coinTypeTestnet = 1
)

// KeyDeriver is the subset of a signer capability required to build
// descriptors and key origin xpubs.
type KeyDeriver interface {
	Fingerprint() (Fingerprint, error)
	DeriveXpub(path DerivationPath) (string, error)
	Slip77MasterBlindingKey() (string, error)
	IsMainnet() bool
}

// SinglesigVariant ...
type SinglesigVariant int

const (
	SinglesigWpkh SinglesigVariant = iota
	SinglesigShWpkh
)

// ParseSinglesigVariant ...
func ParseSinglesigVariant(str string) (SinglesigVariant, error) {
	switch str {
	case "wpkh":
		return SinglesigWpkh, nil
	case "shwpkh":
		return SinglesigShWpkh, nil
	default:
		return 0, ErrInvalidSinglesigVariant
	}
}

// MultisigVariant ...
type MultisigVariant int

const (
	MultisigWsh MultisigVariant = iota
)

// ParseMultisigVariant ...
func ParseMultisigVariant(str string) (MultisigVariant, error) {
	if str == "wsh" {
		return MultisigWsh, nil
	}
	return 0, ErrInvalidMultisigVariant
}

// BlindingKeyVariant is the kind of descriptor blinding key to use.
type BlindingKeyVariant int

const (
	// BlindingKeySlip77 derives the blinding key from the signer seed.
	BlindingKeySlip77 BlindingKeyVariant = iota
	// BlindingKeySlip77Rand uses a random slip77 master blinding key.
	BlindingKeySlip77Rand
	// BlindingKeyElip151 derives the blinding key from the descriptor.
	BlindingKeyElip151
)

// ParseBlindingKeyVariant ...
func ParseBlindingKeyVariant(str string) (BlindingKeyVariant, error) {
	switch str {
	case "slip77":
		return BlindingKeySlip77, nil
	case "slip77-rand":
		return BlindingKeySlip77Rand, nil
	case "elip151":
		return BlindingKeyElip151, nil
	default:
		return 0, ErrInvalidBlindingKeyVariant
	}
}

// BipVariant is the derivation standard of a key origin xpub.
type BipVariant int

const (
	Bip84 BipVariant = iota
	Bip49
	Bip87
)

// ParseBipVariant ...
func ParseBipVariant(str string) (BipVariant, error) {
	switch str {
	case "bip84":
		return Bip84, nil
	case "bip49":
		return Bip49, nil
	case "bip87":
		return Bip87, nil
	default:
		return 0, ErrInvalidBipVariant
	}
}

func (b BipVariant) purpose() uint32 {
	switch b {
	case Bip49:
		return 49
	case Bip87:
		return 87
	default:
		return 84
	}
}

// AccountPath returns the purpose'/coin_type'/0' path of the variant.
func (b BipVariant) AccountPath(mainnet bool) DerivationPath {
	coinType := uint32(coinTypeTestnet)
	if mainnet {
		coinType = coinTypeLiquid
	}
	return DerivationPath{
		hdkeychain.HardenedKeyStart + b.purpose(),
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart,
	}
}

// KeyOriginXpub is an extended public key along with its origin.
type KeyOriginXpub struct {
	Origin KeyOrigin
	Xpub   string
}

// ParseKeyOriginXpub parses strings in the form [fingerprint/path]xpub.
func ParseKeyOriginXpub(str string) (*KeyOriginXpub, error) {
	str = strings.TrimSpace(str)
	if !strings.HasPrefix(str, "[") {
		return nil, fmt.Errorf("%w: missing key origin", ErrInvalidKeyOriginXpub)
	}
	end := strings.Index(str, "]")
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated key origin", ErrInvalidKeyOriginXpub)
	}
	origin, err := parseKeyOrigin(str[1:end])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKeyOriginXpub, err)
	}
	xpub := str[end+1:]
	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKeyOriginXpub, err)
	}
	if key.IsPrivate() {
		return nil, fmt.Errorf("%w: extended key must be public", ErrInvalidKeyOriginXpub)
	}
	return &KeyOriginXpub{*origin, xpub}, nil
}

func (k KeyOriginXpub) String() string {
	origin := k.Origin.Fingerprint.String()
	if path := k.Origin.Path.String(); path != "" {
		origin += "/" + path
	}
	return fmt.Sprintf("[%s]%s", origin, k.Xpub)
}

// NewKeyOriginXpub derives the account xpub of the given standard from the
// signer and returns it along with its origin.
func NewKeyOriginXpub(signer KeyDeriver, bip BipVariant) (*KeyOriginXpub, error) {
	fp, err := signer.Fingerprint()
	if err != nil {
		return nil, err
	}
	path := bip.AccountPath(signer.IsMainnet())
	xpub, err := signer.DeriveXpub(path)
	if err != nil {
		return nil, err
	}
	return &KeyOriginXpub{KeyOrigin{fp, path}, xpub}, nil
}

// NewSinglesigDescriptor returns a confidential single signer descriptor
// for the signer's first account.
func NewSinglesigDescriptor(
	signer KeyDeriver, variant SinglesigVariant, blinding BlindingKeyVariant,
) (string, error) {
	prefix, suffix, bip := "elwpkh", "", Bip84
	if variant == SinglesigShWpkh {
		prefix, suffix, bip = "elsh(wpkh", ")", Bip49
	}

	var blindingKey string
	switch blinding {
	case BlindingKeySlip77:
		key, err := signer.Slip77MasterBlindingKey()
		if err != nil {
			return "", err
		}
		blindingKey = fmt.Sprintf("slip77(%s)", key)
	case BlindingKeySlip77Rand:
		return "", ErrSlip77RandSinglesig
	case BlindingKeyElip151:
		blindingKey = "elip151"
	default:
		return "", ErrInvalidBlindingKeyVariant
	}

	key, err := NewKeyOriginXpub(signer, bip)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"ct(%s,%s(%s/<0;1>/*)%s)", blindingKey, prefix, key, suffix,
	), nil
}

// NewMultisigDescriptor returns a confidential threshold-of-n multisig
// descriptor over the given keys.
func NewMultisigDescriptor(
	threshold int, keys []KeyOriginXpub,
	variant MultisigVariant, blinding BlindingKeyVariant,
) (string, error) {
	if threshold <= 0 || threshold > len(keys) {
		return "", ErrInvalidThreshold
	}
	if variant != MultisigWsh {
		return "", ErrInvalidMultisigVariant
	}

	var blindingKey string
	switch blinding {
	case BlindingKeySlip77:
		return "", ErrMultisigSlip77
	case BlindingKeySlip77Rand:
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return "", err
		}
		blindingKey = fmt.Sprintf("slip77(%s)", hex.EncodeToString(key))
	case BlindingKeyElip151:
		blindingKey = "elip151"
	default:
		return "", ErrInvalidBlindingKeyVariant
	}

	exprs := make([]string, 0, len(keys))
	for _, k := range keys {
		exprs = append(exprs, fmt.Sprintf("%s/<0;1>/*", k))
	}
	return fmt.Sprintf(
		"ct(%s,elwsh(multi(%d,%s)))", blindingKey, threshold, strings.Join(exprs, ","),
	), nil
}
