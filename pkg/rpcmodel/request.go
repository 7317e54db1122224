package rpcmodel

// Empty is the params and result shape of the methods that take or return
// nothing.
type Empty struct{}

type SchemaRequest struct {
	Method    string    `json:"method"`
	Direction Direction `json:"direction"`
}

type LoadWalletRequest struct {
	Descriptor string `json:"descriptor"`
	Name       string `json:"name"`
}

type UnloadWalletRequest struct {
	Name string `json:"name"`
}

// LoadSignerRequest loads a signer under a name. Kind is one of software,
// serial and external. Mnemonic is required by software signers,
// fingerprint by external ones.
type LoadSignerRequest struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Mnemonic    *string `json:"mnemonic,omitempty"`
	Fingerprint *string `json:"fingerprint,omitempty"`
}

type UnloadSignerRequest struct {
	Name string `json:"name"`
}

// AddressRequest asks for the address at the given index, or the first
// unused one if index is missing.
type AddressRequest struct {
	Name  string  `json:"name"`
	Index *uint32 `json:"index,omitempty"`
}

type BalanceRequest struct {
	Name string `json:"name"`
}

// UnvalidatedAddressee is a recipient of a send. Asset defaults to the
// policy asset.
type UnvalidatedAddressee struct {
	Satoshi uint64 `json:"satoshi"`
	Address string `json:"address"`
	Asset   string `json:"asset,omitempty"`
}

// SendManyRequest builds a transaction paying all addressees. FeeRate is
// expressed in sats/kvB.
type SendManyRequest struct {
	Name       string                 `json:"name"`
	Addressees []UnvalidatedAddressee `json:"addressees"`
	FeeRate    *float64               `json:"fee_rate,omitempty"`
}

type SinglesigDescriptorRequest struct {
	Name                  string `json:"name"`
	DescriptorBlindingKey string `json:"descriptor_blinding_key"`
	SinglesigKind         string `json:"singlesig_kind"`
}

type MultisigDescriptorRequest struct {
	DescriptorBlindingKey string   `json:"descriptor_blinding_key"`
	MultisigKind          string   `json:"multisig_kind"`
	Threshold             int      `json:"threshold"`
	KeyoriginXpubs        []string `json:"keyorigin_xpubs"`
}

type XpubRequest struct {
	Name     string `json:"name"`
	XpubKind string `json:"xpub_kind"`
}

type SignRequest struct {
	Name string `json:"name"`
	Pset string `json:"pset"`
}

type BroadcastRequest struct {
	Name   string `json:"name"`
	Pset   string `json:"pset"`
	DryRun bool   `json:"dry_run,omitempty"`
}

type WalletDetailsRequest struct {
	Name string `json:"name"`
}

type WalletCombineRequest struct {
	Name string   `json:"name"`
	Pset []string `json:"pset"`
}

type WalletPsetDetailsRequest struct {
	Name string `json:"name"`
	Pset string `json:"pset"`
}

// IssueRequest builds an asset issuance transaction. Missing addresses
// default to wallet addresses. Contract is the JSON of a validated contract.
type IssueRequest struct {
	Name         string   `json:"name"`
	SatoshiAsset uint64   `json:"satoshi_asset"`
	AddressAsset *string  `json:"address_asset,omitempty"`
	SatoshiToken uint64   `json:"satoshi_token"`
	AddressToken *string  `json:"address_token,omitempty"`
	Contract     *string  `json:"contract,omitempty"`
	FeeRate      *float64 `json:"fee_rate,omitempty"`
}

type ContractRequest struct {
	Domain       string `json:"domain"`
	IssuerPubkey string `json:"issuer_pubkey"`
	Name         string `json:"name"`
	Precision    uint8  `json:"precision"`
	Ticker       string `json:"ticker"`
	Version      uint8  `json:"version"`
}

type AssetDetailsRequest struct {
	AssetID string `json:"asset_id"`
}
