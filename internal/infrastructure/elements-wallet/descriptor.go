package elementswallet

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/slip77"
)

const (
	externalChain uint32 = 0
	internalChain uint32 = 1

	// elip151Index is the derivation index of the scripts committed in the
	// elip151 blinding key.
	elip151Index uint32 = 1<<31 - 1
	blindingKeyTag      = "CT-Blinding-Key/1.0"
)

// keyDerivation is the origin of a public key of a derived script.
type keyDerivation struct {
	pubkey      []byte
	fingerprint domain.Fingerprint
	path        domain.DerivationPath
}

// derivedScript is the output script at a chain/index of a descriptor,
// along with what is needed to spend from it.
type derivedScript struct {
	chain         uint32
	index         uint32
	script        []byte
	redeemScript  []byte
	witnessScript []byte
	derivations   []keyDerivation
}

// blindingKeyFunc returns the blinding key pair of an output script.
type blindingKeyFunc func(script []byte) (*btcec.PrivateKey, *btcec.PublicKey, error)

// walletDescriptor binds a parsed descriptor to a network and derives its
// scripts, addresses and blinding keys.
type walletDescriptor struct {
	*domain.Descriptor
	network     *network.Network
	blindingKey blindingKeyFunc
	chains      []uint32
}

func newWalletDescriptor(str string, net *network.Network) (*walletDescriptor, error) {
	desc, err := domain.ParseDescriptor(str)
	if err != nil {
		return nil, err
	}
	if desc.Kind == domain.ScriptUnknown {
		return nil, fmt.Errorf(
			"%w: only wpkh, sh(wpkh), wsh(multi) and wsh(sortedmulti) are supported",
			domain.ErrUnsupportedDescriptor,
		)
	}

	wd := &walletDescriptor{Descriptor: desc, network: net}
	wd.chains = []uint32{externalChain}
	if hasMultipath(desc) {
		wd.chains = append(wd.chains, internalChain)
	}

	if desc.IsConfidential() {
		blindingKey, err := wd.parseBlindingKey(desc.BlindingKey)
		if err != nil {
			return nil, err
		}
		wd.blindingKey = blindingKey
	}

	// Derive once so that malformed keys are reported at load time.
	if _, err := wd.deriveScript(externalChain, 0); err != nil {
		return nil, err
	}
	return wd, nil
}

func hasMultipath(desc *domain.Descriptor) bool {
	for _, k := range desc.Keys {
		if len(k.Multipath) > 1 {
			return true
		}
	}
	return false
}

// isRanged returns whether the descriptor derives a different script per
// index.
func (d *walletDescriptor) isRanged() bool {
	for _, k := range d.Keys {
		if k.Wildcard {
			return true
		}
	}
	return false
}

// changeChain is the chain used for change outputs.
func (d *walletDescriptor) changeChain() uint32 {
	return d.chains[len(d.chains)-1]
}

func (d *walletDescriptor) deriveScript(chain, index uint32) (*derivedScript, error) {
	derivations := make([]keyDerivation, 0, len(d.Keys))
	for _, k := range d.Keys {
		pubkey, path, err := k.Derive(chain, index)
		if err != nil {
			return nil, err
		}
		fp, err := k.MasterFingerprint()
		if err != nil {
			return nil, err
		}
		derivations = append(derivations, keyDerivation{
			pubkey:      pubkey.SerializeCompressed(),
			fingerprint: fp,
			path:        path,
		})
	}

	ds := &derivedScript{chain: chain, index: index, derivations: derivations}
	switch d.Kind {
	case domain.ScriptWpkh:
		ds.script = p2wpkhScript(derivations[0].pubkey)
	case domain.ScriptShWpkh:
		ds.redeemScript = p2wpkhScript(derivations[0].pubkey)
		ds.script = p2shScript(ds.redeemScript)
	case domain.ScriptWshMulti, domain.ScriptWshSortedMulti:
		pubkeys := make([][]byte, 0, len(derivations))
		for _, dd := range derivations {
			pubkeys = append(pubkeys, dd.pubkey)
		}
		if d.Kind == domain.ScriptWshSortedMulti {
			sort.Slice(pubkeys, func(i, j int) bool {
				return bytes.Compare(pubkeys[i], pubkeys[j]) < 0
			})
		}
		witnessScript, err := multisigScript(d.Threshold, pubkeys)
		if err != nil {
			return nil, err
		}
		ds.witnessScript = witnessScript
		ds.script = p2wshScript(witnessScript)
	default:
		return nil, domain.ErrUnsupportedDescriptor
	}
	return ds, nil
}

// address encodes the script at the given chain/index, confidential if the
// descriptor is.
func (d *walletDescriptor) address(ds *derivedScript) (string, error) {
	var blindingPubkey *btcec.PublicKey
	if d.blindingKey != nil {
		_, pubkey, err := d.blindingKey(ds.script)
		if err != nil {
			return "", err
		}
		blindingPubkey = pubkey
	}

	pay, err := payment.FromScript(ds.script, d.network, blindingPubkey)
	if err != nil {
		return "", err
	}
	confidential := blindingPubkey != nil

	switch d.Kind {
	case domain.ScriptWpkh:
		if confidential {
			return pay.ConfidentialWitnessPubKeyHash()
		}
		return pay.WitnessPubKeyHash()
	case domain.ScriptShWpkh:
		if confidential {
			return pay.ConfidentialScriptHash()
		}
		return pay.ScriptHash()
	default:
		if confidential {
			return pay.ConfidentialWitnessScriptHash()
		}
		return pay.WitnessScriptHash()
	}
}

// parseBlindingKey supports slip77(<master key>), elip151 and a hex encoded
// private view key.
func (d *walletDescriptor) parseBlindingKey(str string) (blindingKeyFunc, error) {
	switch {
	case strings.HasPrefix(str, "slip77(") && strings.HasSuffix(str, ")"):
		masterKey, err := hex.DecodeString(strings.TrimSuffix(strings.TrimPrefix(str, "slip77("), ")"))
		if err != nil || len(masterKey) != 32 {
			return nil, fmt.Errorf("%w: invalid slip77 master blinding key", domain.ErrInvalidDescriptor)
		}
		node, err := slip77.FromMasterKey(masterKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDescriptor, err)
		}
		return node.DeriveKey, nil
	case str == "elip151":
		viewKey, err := d.elip151ViewKey()
		if err != nil {
			return nil, err
		}
		return viewKeyFunc(viewKey), nil
	}

	buf, err := hex.DecodeString(str)
	if err != nil || len(buf) != 32 {
		return nil, fmt.Errorf(
			"%w: blinding key must be slip77(<key>), elip151 or a hex private view key",
			domain.ErrUnsupportedDescriptor,
		)
	}
	return viewKeyFunc(buf), nil
}

// elip151ViewKey is the tagged hash of the scripts derived at the last
// unhardened index of every chain.
func (d *walletDescriptor) elip151ViewKey() ([]byte, error) {
	msg := make([]byte, 0)
	for _, chain := range d.chains {
		ds, err := d.deriveScript(chain, elip151Index)
		if err != nil {
			return nil, err
		}
		msg = append(msg, ds.script...)
	}
	hash := chainhash.TaggedHash([]byte(blindingKeyTag), msg)
	return hash[:], nil
}

// viewKeyFunc tweaks the view key with each script so that every address
// has its own blinding key.
func viewKeyFunc(viewKey []byte) blindingKeyFunc {
	return func(script []byte) (*btcec.PrivateKey, *btcec.PublicKey, error) {
		viewPrvkey, viewPubkey := btcec.PrivKeyFromBytes(viewKey)
		tweak := chainhash.TaggedHash(
			[]byte(blindingKeyTag), viewPubkey.SerializeCompressed(), script,
		)

		var k, t btcec.ModNScalar
		k.Set(&viewPrvkey.Key)
		if overflow := t.SetByteSlice(tweak[:]); overflow {
			return nil, nil, fmt.Errorf("invalid blinding key tweak")
		}
		k.Add(&t)
		if k.IsZero() {
			return nil, nil, fmt.Errorf("invalid blinding key tweak")
		}

		buf := k.Bytes()
		prvkey, pubkey := btcec.PrivKeyFromBytes(buf[:])
		return prvkey, pubkey, nil
	}
}

func p2wpkhScript(pubkey []byte) []byte {
	script, _ := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(btcutil.Hash160(pubkey)).
		Script()
	return script
}

func p2shScript(redeemScript []byte) []byte {
	script, _ := txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(redeemScript)).
		AddOp(txscript.OP_EQUAL).
		Script()
	return script
}

func p2wshScript(witnessScript []byte) []byte {
	hash := sha256.Sum256(witnessScript)
	script, _ := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(hash[:]).
		Script()
	return script
}

func multisigScript(threshold int, pubkeys [][]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder().AddInt64(int64(threshold))
	for _, pubkey := range pubkeys {
		builder.AddData(pubkey)
	}
	return builder.
		AddInt64(int64(len(pubkeys))).
		AddOp(txscript.OP_CHECKMULTISIG).
		Script()
}
