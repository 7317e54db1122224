package domain

import "fmt"

// WalletType is the closed taxonomy of wallet kinds reported to clients.
type WalletType struct {
	kind      ScriptKind
	threshold int
	numKeys   int
}

var (
	// WalletTypeWpkh is a single key pay-to-witness-pubkey-hash wallet.
	WalletTypeWpkh = WalletType{kind: ScriptWpkh}
	// WalletTypeShWpkh is a single key script wrapped witness pubkey hash
	// wallet.
	WalletTypeShWpkh = WalletType{kind: ScriptShWpkh}
	// WalletTypeUnknown is any descriptor the classifier does not recognize,
	// such as taproot or miniscript policies other than plain multisig.
	WalletTypeUnknown = WalletType{kind: ScriptUnknown}
)

// NewWshMultiWalletType returns the type of a threshold-of-numKeys witness
// script hash multisig wallet.
func NewWshMultiWalletType(threshold, numKeys int) WalletType {
	return WalletType{ScriptWshMulti, threshold, numKeys}
}

// Multisig returns threshold and number of keys of a multisig wallet type.
func (t WalletType) Multisig() (threshold, numKeys int, ok bool) {
	if t.kind != ScriptWshMulti {
		return 0, 0, false
	}
	return t.threshold, t.numKeys, true
}

func (t WalletType) String() string {
	switch t.kind {
	case ScriptWpkh:
		return "wpkh"
	case ScriptShWpkh:
		return "sh_wpkh"
	case ScriptWshMulti:
		return fmt.Sprintf("wsh_multi_%dof%d", t.threshold, t.numKeys)
	default:
		return "unknown"
	}
}

// ClassifyDescriptor maps a descriptor to its wallet type. It never fails:
// anything that is not a single key wpkh, a sh-wrapped wpkh or a wsh multi
// is unknown.
func ClassifyDescriptor(descriptor string) WalletType {
	desc, err := ParseDescriptor(descriptor)
	if err != nil {
		return WalletTypeUnknown
	}
	return desc.WalletType()
}

// WalletType classifies the parsed descriptor.
func (d *Descriptor) WalletType() WalletType {
	switch d.Kind {
	case ScriptWpkh:
		return WalletTypeWpkh
	case ScriptShWpkh:
		return WalletTypeShWpkh
	case ScriptWshMulti:
		return NewWshMultiWalletType(d.Threshold, len(d.Keys))
	default:
		return WalletTypeUnknown
	}
}
