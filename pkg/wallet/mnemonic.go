package wallet

import (
	"github.com/tyler-smith/go-bip39"
)

type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize > 0 {
		if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	if o.EntropySize < 0 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewMnemonic returns a new space separated mnemonic, 12 words by default.
func NewMnemonic(opts NewMnemonicOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}
