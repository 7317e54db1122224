package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/vulpemventures/go-elements/psetv2"
)

// **** Wallet ****

type mockWalletFactory struct {
	mock.Mock
}

func (m *mockWalletFactory) NewWallet(
	ctx context.Context, cfg ports.WalletConfig, descriptor string,
) (ports.Wallet, error) {
	args := m.Called(ctx, cfg, descriptor)

	var res ports.Wallet
	if a := args.Get(0); a != nil {
		res = a.(ports.Wallet)
	}
	return res, args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) Descriptor() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockWallet) Signers() []domain.Fingerprint {
	args := m.Called()

	var res []domain.Fingerprint
	if a := args.Get(0); a != nil {
		res = a.([]domain.Fingerprint)
	}
	return res
}

func (m *mockWallet) SyncTxs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockWallet) Address(
	ctx context.Context, index *uint32,
) (ports.AddressInfo, error) {
	args := m.Called(ctx, index)

	var res ports.AddressInfo
	if a := args.Get(0); a != nil {
		res = a.(ports.AddressInfo)
	}
	return res, args.Error(1)
}

func (m *mockWallet) Balance(ctx context.Context) (map[string]uint64, error) {
	args := m.Called(ctx)

	var res map[string]uint64
	if a := args.Get(0); a != nil {
		res = a.(map[string]uint64)
	}
	return res, args.Error(1)
}

func (m *mockWallet) SendMany(
	ctx context.Context, addressees []ports.Addressee, feeRate *float64,
) (*psetv2.Pset, error) {
	args := m.Called(ctx, addressees, feeRate)

	var res *psetv2.Pset
	if a := args.Get(0); a != nil {
		res = a.(*psetv2.Pset)
	}
	return res, args.Error(1)
}

func (m *mockWallet) IssueAsset(
	ctx context.Context, issueArgs ports.IssueArgs,
) (*psetv2.Pset, error) {
	args := m.Called(ctx, issueArgs)

	var res *psetv2.Pset
	if a := args.Get(0); a != nil {
		res = a.(*psetv2.Pset)
	}
	return res, args.Error(1)
}

func (m *mockWallet) Finalize(
	ctx context.Context, pset *psetv2.Pset,
) (*ports.Transaction, error) {
	args := m.Called(ctx, pset)

	var res *ports.Transaction
	if a := args.Get(0); a != nil {
		res = a.(*ports.Transaction)
	}
	return res, args.Error(1)
}

func (m *mockWallet) Broadcast(
	ctx context.Context, tx *ports.Transaction,
) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

func (m *mockWallet) Combine(
	ctx context.Context, psets []*psetv2.Pset,
) (*psetv2.Pset, error) {
	args := m.Called(ctx, psets)

	var res *psetv2.Pset
	if a := args.Get(0); a != nil {
		res = a.(*psetv2.Pset)
	}
	return res, args.Error(1)
}

func (m *mockWallet) PsetDetails(
	ctx context.Context, pset *psetv2.Pset,
) (*ports.PsetDetails, error) {
	args := m.Called(ctx, pset)

	var res *ports.PsetDetails
	if a := args.Get(0); a != nil {
		res = a.(*ports.PsetDetails)
	}
	return res, args.Error(1)
}

func (m *mockWallet) Close() error {
	args := m.Called()
	return args.Error(0)
}

// **** Signer ****

type mockSignerFactory struct {
	mock.Mock
}

func (m *mockSignerFactory) NewSoftwareSigner(
	mnemonic string, mainnet bool,
) (ports.Signer, error) {
	args := m.Called(mnemonic, mainnet)

	var res ports.Signer
	if a := args.Get(0); a != nil {
		res = a.(ports.Signer)
	}
	return res, args.Error(1)
}

func (m *mockSignerFactory) NewSerialSigner(
	ctx context.Context, network string,
) (ports.Signer, error) {
	args := m.Called(ctx, network)

	var res ports.Signer
	if a := args.Get(0); a != nil {
		res = a.(ports.Signer)
	}
	return res, args.Error(1)
}

func (m *mockSignerFactory) NewMnemonic() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) Fingerprint() (domain.Fingerprint, error) {
	args := m.Called()

	var res domain.Fingerprint
	if a := args.Get(0); a != nil {
		res = a.(domain.Fingerprint)
	}
	return res, args.Error(1)
}

func (m *mockSigner) Identifier() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockSigner) Xpub() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockSigner) DeriveXpub(path domain.DerivationPath) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func (m *mockSigner) Slip77MasterBlindingKey() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockSigner) IsMainnet() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockSigner) Sign(ctx context.Context, pset *psetv2.Pset) (int, error) {
	args := m.Called(ctx, pset)
	return args.Int(0), args.Error(1)
}

func (m *mockSigner) Close() error {
	args := m.Called()
	return args.Error(0)
}
