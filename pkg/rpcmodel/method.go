package rpcmodel

import (
	"errors"
	"fmt"
)

// ErrUnknownMethod is returned when parsing a method name that is not
// served by the daemon.
var ErrUnknownMethod = errors.New("unknown method")

// Method is one of the RPC methods served by the daemon.
type Method int

const (
	MethodSchema Method = iota
	MethodGenerateSigner
	MethodVersion
	MethodLoadWallet
	MethodUnloadWallet
	MethodListWallets
	MethodLoadSigner
	MethodUnloadSigner
	MethodListSigners
	MethodAddress
	MethodBalance
	MethodSendMany
	MethodSinglesigDescriptor
	MethodMultisigDescriptor
	MethodXpub
	MethodSign
	MethodBroadcast
	MethodWalletDetails
	MethodWalletCombine
	MethodWalletPsetDetails
	MethodIssue
	MethodContract
	MethodAssetDetails
	MethodStop

	numMethods
)

var methodNames = [numMethods]string{
	MethodSchema:              "schema",
	MethodGenerateSigner:      "generate_signer",
	MethodVersion:             "version",
	MethodLoadWallet:          "load_wallet",
	MethodUnloadWallet:        "unload_wallet",
	MethodListWallets:         "list_wallets",
	MethodLoadSigner:          "load_signer",
	MethodUnloadSigner:        "unload_signer",
	MethodListSigners:         "list_signers",
	MethodAddress:             "address",
	MethodBalance:             "balance",
	MethodSendMany:            "send_many",
	MethodSinglesigDescriptor: "singlesig_descriptor",
	MethodMultisigDescriptor:  "multisig_descriptor",
	MethodXpub:                "xpub",
	MethodSign:                "sign",
	MethodBroadcast:           "broadcast",
	MethodWalletDetails:       "wallet_details",
	MethodWalletCombine:       "wallet_combine",
	MethodWalletPsetDetails:   "wallet_pset_details",
	MethodIssue:               "issue",
	MethodContract:            "contract",
	MethodAssetDetails:        "asset_details",
	MethodStop:                "stop",
}

var methodsByName = func() map[string]Method {
	m := make(map[string]Method, numMethods)
	for i, name := range methodNames {
		m[name] = Method(i)
	}
	return m
}()

// ParseMethod returns the method with the given wire name.
func ParseMethod(name string) (Method, error) {
	m, ok := methodsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	return m, nil
}

// Methods returns all the served methods.
func Methods() []Method {
	list := make([]Method, 0, numMethods)
	for m := Method(0); m < numMethods; m++ {
		list = append(list, m)
	}
	return list
}

func (m Method) String() string {
	if m < 0 || m >= numMethods {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// NewRequest returns a pointer to a zero value of the params type of the
// method.
func (m Method) NewRequest() interface{} {
	switch m {
	case MethodSchema:
		return &SchemaRequest{}
	case MethodLoadWallet:
		return &LoadWalletRequest{}
	case MethodUnloadWallet:
		return &UnloadWalletRequest{}
	case MethodLoadSigner:
		return &LoadSignerRequest{}
	case MethodUnloadSigner:
		return &UnloadSignerRequest{}
	case MethodAddress:
		return &AddressRequest{}
	case MethodBalance:
		return &BalanceRequest{}
	case MethodSendMany:
		return &SendManyRequest{}
	case MethodSinglesigDescriptor:
		return &SinglesigDescriptorRequest{}
	case MethodMultisigDescriptor:
		return &MultisigDescriptorRequest{}
	case MethodXpub:
		return &XpubRequest{}
	case MethodSign:
		return &SignRequest{}
	case MethodBroadcast:
		return &BroadcastRequest{}
	case MethodWalletDetails:
		return &WalletDetailsRequest{}
	case MethodWalletCombine:
		return &WalletCombineRequest{}
	case MethodWalletPsetDetails:
		return &WalletPsetDetailsRequest{}
	case MethodIssue:
		return &IssueRequest{}
	case MethodContract:
		return &ContractRequest{}
	case MethodAssetDetails:
		return &AssetDetailsRequest{}
	default:
		return &Empty{}
	}
}

// NewResponse returns a pointer to a zero value of the result type of the
// method.
func (m Method) NewResponse() interface{} {
	switch m {
	case MethodSchema:
		return &SchemaResponse{}
	case MethodGenerateSigner:
		return &GenerateSignerResponse{}
	case MethodVersion:
		return &VersionResponse{}
	case MethodLoadWallet:
		return &Wallet{}
	case MethodUnloadWallet:
		return &UnloadWalletResponse{}
	case MethodListWallets:
		return &ListWalletsResponse{}
	case MethodLoadSigner:
		return &Signer{}
	case MethodUnloadSigner:
		return &UnloadSignerResponse{}
	case MethodListSigners:
		return &ListSignersResponse{}
	case MethodAddress:
		return &AddressResponse{}
	case MethodBalance:
		return &BalanceResponse{}
	case MethodSendMany, MethodSign, MethodWalletCombine, MethodIssue:
		return &PsetResponse{}
	case MethodSinglesigDescriptor, MethodMultisigDescriptor:
		return &DescriptorResponse{}
	case MethodXpub:
		return &XpubResponse{}
	case MethodBroadcast:
		return &BroadcastResponse{}
	case MethodWalletDetails:
		return &WalletDetailsResponse{}
	case MethodWalletPsetDetails:
		return &WalletPsetDetailsResponse{}
	case MethodContract:
		return &ContractResponse{}
	case MethodAssetDetails:
		return &AssetDetailsResponse{}
	default:
		return &Empty{}
	}
}
