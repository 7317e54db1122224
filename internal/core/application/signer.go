package application

import (
	"fmt"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

// Signer kinds accepted by load_signer.
const (
	SignerKindSoftware = "software"
	SignerKindSerial   = "serial"
	SignerKindExternal = "external"
)

// appSigner is either an availableSigner or an externalSigner.
type appSigner interface {
	isAppSigner()
}

// availableSigner holds a live signing capability.
type availableSigner struct {
	ports.Signer
}

// externalSigner is known only by its fingerprint, the key material lives
// outside of the daemon.
type externalSigner struct {
	fingerprint domain.Fingerprint
}

func (availableSigner) isAppSigner() {}
func (externalSigner) isAppSigner()  {}

func signerFingerprint(signer appSigner) (domain.Fingerprint, error) {
	switch s := signer.(type) {
	case availableSigner:
		return s.Fingerprint()
	case externalSigner:
		return s.fingerprint, nil
	default:
		panic(fmt.Sprintf("unexpected signer type %T", signer))
	}
}

func signerInfo(name string, signer appSigner) (*rpcmodel.Signer, error) {
	switch s := signer.(type) {
	case availableSigner:
		fp, err := s.Fingerprint()
		if err != nil {
			return nil, err
		}
		id, err := s.Identifier()
		if err != nil {
			return nil, err
		}
		xpub, err := s.Xpub()
		if err != nil {
			return nil, err
		}
		return &rpcmodel.Signer{
			Name:        name,
			ID:          &id,
			Fingerprint: fp.String(),
			Xpub:        &xpub,
		}, nil
	case externalSigner:
		return &rpcmodel.Signer{
			Name:        name,
			Fingerprint: s.fingerprint.String(),
		}, nil
	default:
		panic(fmt.Sprintf("unexpected signer type %T", signer))
	}
}

func closeSigner(signer appSigner) error {
	switch s := signer.(type) {
	case availableSigner:
		return s.Close()
	case externalSigner:
		return nil
	default:
		panic(fmt.Sprintf("unexpected signer type %T", signer))
	}
}
