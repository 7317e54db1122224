package domain

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

// Fingerprint is the first 4 bytes of the hash160 of a master public key.
type Fingerprint [4]byte

// ParseFingerprint parses an 8 chars hex string.
func ParseFingerprint(str string) (Fingerprint, error) {
	var fp Fingerprint
	buf, err := hex.DecodeString(strings.TrimSpace(str))
	if err != nil || len(buf) != len(fp) {
		return fp, ErrInvalidFingerprint
	}
	copy(fp[:], buf)
	return fp, nil
}

// FingerprintFromPubKey returns the fingerprint of the given serialized
// compressed public key.
func FingerprintFromPubKey(pubkey []byte) Fingerprint {
	var fp Fingerprint
	copy(fp[:], btcutil.Hash160(pubkey)[:4])
	return fp
}

// FingerprintFromUint32 converts the little endian integer form used in
// bip32 derivation fields of partial transactions.
func FingerprintFromUint32(n uint32) Fingerprint {
	var fp Fingerprint
	binary.LittleEndian.PutUint32(fp[:], n)
	return fp
}

// Uint32 is the inverse of FingerprintFromUint32.
func (f Fingerprint) Uint32() uint32 {
	return binary.LittleEndian.Uint32(f[:])
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	fp, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = fp
	return nil
}
