package rpcmodel

// SchemaResponse is a JSON schema document.
type SchemaResponse map[string]interface{}

type GenerateSignerResponse struct {
	Mnemonic string `json:"mnemonic"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

type Wallet struct {
	Descriptor string `json:"descriptor"`
	Name       string `json:"name"`
}

type UnloadWalletResponse struct {
	Unloaded Wallet `json:"unloaded"`
}

type ListWalletsResponse struct {
	Wallets []Wallet `json:"wallets"`
}

// Signer is the identity of a loaded signer. External signers only carry
// the fingerprint.
type Signer struct {
	Name        string  `json:"name"`
	ID          *string `json:"id,omitempty"`
	Fingerprint string  `json:"fingerprint"`
	Xpub        *string `json:"xpub,omitempty"`
}

type UnloadSignerResponse struct {
	Unloaded Signer `json:"unloaded"`
}

type ListSignersResponse struct {
	Signers []Signer `json:"signers"`
}

type AddressResponse struct {
	Address string `json:"address"`
	Index   uint32 `json:"index"`
}

type BalanceResponse struct {
	Balance map[string]uint64 `json:"balance"`
}

// PsetResponse carries a base64 encoded partial transaction.
type PsetResponse struct {
	Pset string `json:"pset"`
}

type DescriptorResponse struct {
	Descriptor string `json:"descriptor"`
}

type XpubResponse struct {
	KeyoriginXpub string `json:"keyorigin_xpub"`
}

type BroadcastResponse struct {
	Txid string `json:"txid"`
}

// SignerDetails is a fingerprint along with the name of the loaded signer
// it resolves to, if any.
type SignerDetails struct {
	Name        *string `json:"name"`
	Fingerprint string  `json:"fingerprint"`
}

type WalletDetailsResponse struct {
	Type     string          `json:"type"`
	Signers  []SignerDetails `json:"signers"`
	Warnings string          `json:"warnings"`
}

type WalletPsetDetailsResponse struct {
	HasSignaturesFrom     []SignerDetails `json:"has_signatures_from"`
	MissingSignaturesFrom []SignerDetails `json:"missing_signatures_from"`
	Warnings              string          `json:"warnings"`
}

type ContractEntity struct {
	Domain string `json:"domain"`
}

type ContractResponse struct {
	Entity       ContractEntity `json:"entity"`
	IssuerPubkey string         `json:"issuer_pubkey"`
	Name         string         `json:"name"`
	Precision    uint8          `json:"precision"`
	Ticker       string         `json:"ticker"`
	Version      uint8          `json:"version"`
}

type AssetDetailsResponse struct {
	Name string `json:"name"`
}
