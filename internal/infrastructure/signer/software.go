package signer

import (
	"context"
	"encoding/hex"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/wallet"
	"github.com/vulpemventures/go-elements/psetv2"
)

type softwareSigner struct {
	wallet *wallet.Wallet
}

func newSoftwareSigner(mnemonic string, mainnet bool) (ports.Signer, error) {
	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
		Mainnet:  mainnet,
	})
	if err != nil {
		return nil, err
	}
	return &softwareSigner{w}, nil
}

func (s *softwareSigner) Fingerprint() (domain.Fingerprint, error) {
	buf, err := s.wallet.Fingerprint()
	if err != nil {
		return domain.Fingerprint{}, err
	}
	var fp domain.Fingerprint
	copy(fp[:], buf)
	return fp, nil
}

func (s *softwareSigner) Identifier() (string, error) {
	id, err := s.wallet.Identifier()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(id), nil
}

func (s *softwareSigner) Xpub() (string, error) {
	return s.wallet.MasterXpub()
}

func (s *softwareSigner) DeriveXpub(path domain.DerivationPath) (string, error) {
	return s.wallet.DeriveXpub(path)
}

func (s *softwareSigner) Slip77MasterBlindingKey() (string, error) {
	return hex.EncodeToString(s.wallet.MasterBlindingKey()), nil
}

func (s *softwareSigner) IsMainnet() bool {
	return s.wallet.IsMainnet()
}

func (s *softwareSigner) Sign(_ context.Context, pset *psetv2.Pset) (int, error) {
	return s.wallet.SignPset(pset)
}

func (s *softwareSigner) Close() error {
	return nil
}
