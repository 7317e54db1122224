package domain

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the binary representation of a bip32 path.
type DerivationPath []uint32

// ParseDerivationPath converts a derivation path string like m/84'/1'/0' or
// 84h/1h/0h into its binary representation. The leading m is optional and
// an empty string (or just m) is the empty path.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	strPath = strings.TrimSpace(strPath)
	if strPath == "" || strPath == "m" {
		return DerivationPath{}, nil
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, fmt.Errorf("%w: empty step in %s", ErrInvalidDerivationPath, strPath)
		}

		var value uint32
		if last := elem[len(elem)-1]; last == '\'' || last == 'h' || last == 'H' {
			value = hdkeychain.HardenedKeyStart
			elem = elem[:len(elem)-1]
		}

		bigval, ok := new(big.Int).SetString(elem, 10)
		if !ok {
			return nil, fmt.Errorf("%w: invalid step '%s'", ErrInvalidDerivationPath, elem)
		}
		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			return nil, fmt.Errorf(
				"%w: step %v out of range [0, %d]", ErrInvalidDerivationPath, bigval, max,
			)
		}
		path = append(path, value+uint32(bigval.Uint64()))
	}
	return path, nil
}

// String returns the path without the leading m, hardened steps are marked
// with h. The empty path is the empty string.
func (path DerivationPath) String() string {
	steps := make([]string, 0, len(path))
	for _, step := range path {
		if step >= hdkeychain.HardenedKeyStart {
			steps = append(steps, fmt.Sprintf("%dh", step-hdkeychain.HardenedKeyStart))
			continue
		}
		steps = append(steps, fmt.Sprintf("%d", step))
	}
	return strings.Join(steps, "/")
}

// IsHardened returns whether any step of the path is hardened.
func (path DerivationPath) IsHardened() bool {
	for _, step := range path {
		if step >= hdkeychain.HardenedKeyStart {
			return true
		}
	}
	return false
}
