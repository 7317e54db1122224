package ports

import (
	"context"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/vulpemventures/go-elements/psetv2"
)

// Signer is a live signing capability, either backed by key material held
// in memory or by an open hardware device session.
type Signer interface {
	domain.KeyDeriver
	// Identifier is the hex encoded hash160 of the master public key.
	Identifier() (string, error)
	// Xpub is the master extended public key.
	Xpub() (string, error)
	// Sign adds the signer's signatures to the inputs it owns and returns
	// the number of signatures added.
	Sign(ctx context.Context, pset *psetv2.Pset) (int, error)
	Close() error
}

// SignerFactory opens signers of the kinds that hold a signing capability.
type SignerFactory interface {
	// NewSoftwareSigner returns a signer from a bip39 mnemonic.
	NewSoftwareSigner(mnemonic string, mainnet bool) (Signer, error)
	// NewSerialSigner opens and unlocks a hardware signer connected over a
	// local serial port.
	NewSerialSigner(ctx context.Context, network string) (Signer, error)
	// NewMnemonic returns a fresh bip39 mnemonic.
	NewMnemonic() (string, error)
}
