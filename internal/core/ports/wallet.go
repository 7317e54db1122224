package ports

import (
	"context"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/vulpemventures/go-elements/psetv2"
)

// WalletConfig is the blockchain access configuration handed to the wallet
// engine for every new wallet.
type WalletConfig struct {
	Network        string
	Endpoint       string
	TLS            bool
	ValidateDomain bool
	Datadir        string
}

// WalletFactory builds wallets bound to a descriptor.
type WalletFactory interface {
	NewWallet(ctx context.Context, cfg WalletConfig, descriptor string) (Wallet, error)
}

// Addressee is a recipient of a send. An empty asset is the policy asset.
type Addressee struct {
	Satoshi uint64
	Address string
	Asset   string
}

// AddressInfo is an address derived from the wallet descriptor.
type AddressInfo struct {
	Address string
	Index   uint32
}

// IssueArgs are the arguments to build an asset issuance. Empty addresses
// default to wallet addresses, an empty contract means no contract.
type IssueArgs struct {
	SatoshiAsset uint64
	AddressAsset string
	SatoshiToken uint64
	AddressToken string
	Contract     string
	FeeRate      *float64
}

// Transaction is a finalized transaction.
type Transaction struct {
	Txid string
	Hex  string
}

// PsetDetails reports which of the wallet signers signed a partial
// transaction.
type PsetDetails struct {
	FingerprintsHas     []domain.Fingerprint
	FingerprintsMissing []domain.Fingerprint
}

// Wallet is a watch-only wallet bound to a descriptor.
type Wallet interface {
	Descriptor() string
	// Signers returns the master fingerprints of the descriptor keys, in
	// descriptor order.
	Signers() []domain.Fingerprint
	// SyncTxs fetches the wallet transactions from the blockchain.
	SyncTxs(ctx context.Context) error
	// Address returns the address at the given index, or the first unused
	// one if index is nil.
	Address(ctx context.Context, index *uint32) (AddressInfo, error)
	// Balance returns the balance per asset.
	Balance(ctx context.Context) (map[string]uint64, error)
	SendMany(
		ctx context.Context, addressees []Addressee, feeRate *float64,
	) (*psetv2.Pset, error)
	IssueAsset(ctx context.Context, args IssueArgs) (*psetv2.Pset, error)
	Finalize(ctx context.Context, pset *psetv2.Pset) (*Transaction, error)
	Broadcast(ctx context.Context, tx *Transaction) (string, error)
	Combine(ctx context.Context, psets []*psetv2.Pset) (*psetv2.Pset, error)
	PsetDetails(ctx context.Context, pset *psetv2.Pset) (*PsetDetails, error)
	Close() error
}
