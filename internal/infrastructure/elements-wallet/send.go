package elementswallet

import (
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	walletutil "github.com/tdex-network/walletd/pkg/wallet"
	"github.com/vulpemventures/go-elements/address"
	"github.com/vulpemventures/go-elements/confidential"
	"github.com/vulpemventures/go-elements/psetv2"
	"github.com/vulpemventures/go-elements/transaction"
)

const (
	// defaultFeeRate is expressed in sat/kvB.
	defaultFeeRate = 100
	// issuanceSize is the size of the issuance fields of an input.
	issuanceSize = 32 + 32 + 9 + 9
	// maxFeeIterations bounds the rounds of fee estimation and coin
	// selection.
	maxFeeIterations = 10
)

var zeroBlinder = make([]byte, 32)

// recipient is a validated addressee.
type recipient struct {
	asset          string
	amount         uint64
	script         []byte
	blindingPubkey []byte
}

// txRequest is everything needed to build a transaction paying the given
// recipients from the wallet utxos.
type txRequest struct {
	recipients []recipient
	feeRate    float64
	// extraSize accounts for fields not covered by the estimation, like
	// issuances.
	extraSize int
	// extraOutputs are outputs that will be added to the tx but that do not
	// spend wallet funds, like the outputs of an issuance.
	extraOutputs []walletutil.SizeOutput
}

// txPlan is the outcome of coin selection.
type txPlan struct {
	inputs  []utxo
	outputs []psetv2.OutputArgs
	fee     uint64
}

func (w *wallet) parseRecipients(addressees []ports.Addressee) ([]recipient, error) {
	if len(addressees) <= 0 {
		return nil, fmt.Errorf("%w: missing addressees", domain.ErrInvalidAddressee)
	}
	recipients := make([]recipient, 0, len(addressees))
	for i, a := range addressees {
		if a.Satoshi == 0 {
			return nil, fmt.Errorf("%w: addressee %d: amount must be positive", domain.ErrInvalidAddressee, i)
		}
		asset := a.Asset
		if asset == "" {
			asset = w.desc.network.AssetID
		}
		if buf, err := hex.DecodeString(asset); err != nil || len(buf) != 32 {
			return nil, fmt.Errorf("%w: addressee %d: %s", domain.ErrInvalidAddressee, i, domain.ErrInvalidAssetID)
		}
		script, blindingPubkey, err := parseAddress(a.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: addressee %d: %s", domain.ErrInvalidAddressee, i, err)
		}
		recipients = append(recipients, recipient{asset, a.Satoshi, script, blindingPubkey})
	}
	return recipients, nil
}

func parseAddress(addr string) ([]byte, []byte, error) {
	script, err := address.ToOutputScript(addr)
	if err != nil {
		return nil, nil, err
	}
	isConfidential, err := address.IsConfidential(addr)
	if err != nil {
		return nil, nil, err
	}
	if !isConfidential {
		return script, nil, nil
	}
	info, err := address.FromConfidential(addr)
	if err != nil {
		return nil, nil, err
	}
	return script, info.BlindingKey, nil
}

// plan selects the utxos covering the recipients and the fee, and returns
// the inputs and the outputs of the tx, change and fee outputs included.
func (w *wallet) plan(state *walletState, req txRequest) (*txPlan, error) {
	policyAsset := w.desc.network.AssetID

	amounts := make(map[string]uint64)
	assets := make([]string, 0)
	for _, r := range req.recipients {
		if _, ok := amounts[r.asset]; !ok {
			assets = append(assets, r.asset)
		}
		amounts[r.asset] += r.amount
	}

	changeScript, changeBlindingKey, err := w.changeScript(state)
	if err != nil {
		return nil, err
	}

	// Non policy assets do not depend on the fee.
	inputs := make([]utxo, 0)
	changes := make(map[string]uint64)
	for _, asset := range assets {
		if asset == policyAsset {
			continue
		}
		selected, change, err := selectUtxos(state.utxos, asset, amounts[asset], nil)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, selected...)
		changes[asset] = change
	}

	fee := uint64(0)
	for i := 0; i < maxFeeIterations; i++ {
		selected, change, err := selectUtxos(
			state.utxos, policyAsset, amounts[policyAsset]+fee, nil,
		)
		if err != nil {
			return nil, err
		}
		allInputs := append(append([]utxo{}, inputs...), selected...)
		allChanges := copyChanges(changes)
		if change > 0 {
			allChanges[policyAsset] = change
		}

		size := w.estimateSize(allInputs, req, countNonZero(allChanges), changeBlindingKey != nil)
		estimatedFee := feeAmount(size+req.extraSize, req.feeRate)
		if estimatedFee <= fee {
			// Any fee excess goes back into change.
			if excess := fee - estimatedFee; excess > 0 && change > 0 {
				allChanges[policyAsset] += excess
				fee = estimatedFee
			}
			outputs := w.outputs(req.recipients, assets, allChanges, changeScript, changeBlindingKey)
			outputs = append(outputs, psetv2.OutputArgs{Asset: policyAsset, Amount: fee})
			return &txPlan{allInputs, outputs, fee}, nil
		}
		fee = estimatedFee
	}
	return nil, fmt.Errorf("failed to estimate fee amount")
}

func (w *wallet) outputs(
	recipients []recipient, assets []string, changes map[string]uint64,
	changeScript, changeBlindingKey []byte,
) []psetv2.OutputArgs {
	outputs := make([]psetv2.OutputArgs, 0, len(recipients)+len(changes)+1)
	for _, r := range recipients {
		outputs = append(outputs, psetv2.OutputArgs{
			Asset:       r.asset,
			Amount:      r.amount,
			Script:      r.script,
			BlindingKey: r.blindingPubkey,
		})
	}
	changeAssets := append([]string{}, assets...)
	if _, ok := changes[w.desc.network.AssetID]; ok && !contains(assets, w.desc.network.AssetID) {
		changeAssets = append(changeAssets, w.desc.network.AssetID)
	}
	for _, asset := range changeAssets {
		change, ok := changes[asset]
		if !ok || change == 0 {
			continue
		}
		outputs = append(outputs, psetv2.OutputArgs{
			Asset:       asset,
			Amount:      change,
			Script:      changeScript,
			BlindingKey: changeBlindingKey,
		})
	}
	return outputs
}

// changeScript returns the script and blinding public key of the first
// unused address of the change chain.
func (w *wallet) changeScript(state *walletState) ([]byte, []byte, error) {
	chain := w.desc.changeChain()
	ds, err := w.desc.deriveScript(chain, state.nextIndex[chain])
	if err != nil {
		return nil, nil, err
	}
	if w.desc.blindingKey == nil {
		return ds.script, nil, nil
	}
	_, pubkey, err := w.desc.blindingKey(ds.script)
	if err != nil {
		return nil, nil, err
	}
	return ds.script, pubkey.SerializeCompressed(), nil
}

func (w *wallet) estimateSize(
	inputs []utxo, req txRequest, numChanges int, blindedChange bool,
) int {
	ins := make([]walletutil.SizeInput, 0, len(inputs))
	for _, u := range inputs {
		ins = append(ins, w.sizeInput(u))
	}
	outs := make([]walletutil.SizeOutput, 0, len(req.recipients)+numChanges)
	for _, r := range req.recipients {
		outs = append(outs, walletutil.SizeOutput{
			Type:    scriptType(r.script),
			Blinded: len(r.blindingPubkey) > 0,
		})
	}
	outs = append(outs, req.extraOutputs...)
	changeType := w.sizeInput(utxo{}).Type
	for i := 0; i < numChanges; i++ {
		outs = append(outs, walletutil.SizeOutput{Type: changeType, Blinded: blindedChange})
	}
	return walletutil.EstimateTxSize(ins, outs)
}

func (w *wallet) sizeInput(u utxo) walletutil.SizeInput {
	switch w.desc.Kind {
	case domain.ScriptShWpkh:
		return walletutil.SizeInput{Type: walletutil.P2SH_P2WPKH}
	case domain.ScriptWshMulti, domain.ScriptWshSortedMulti:
		// 34 bytes per pubkey plus threshold, n and checkmultisig opcodes.
		scriptLen := 3 + 34*len(w.desc.Keys)
		if u.script != nil {
			scriptLen = len(u.script.witnessScript)
		}
		return walletutil.SizeInput{
			Type:        walletutil.P2WSH,
			WitnessSize: walletutil.MultisigWitnessSize(w.desc.Threshold, scriptLen),
		}
	default:
		return walletutil.SizeInput{Type: walletutil.P2WPKH}
	}
}

func scriptType(script []byte) walletutil.ScriptType {
	switch len(script) {
	case 22:
		return walletutil.P2WPKH
	case 23:
		return walletutil.P2SH_P2WPKH
	case 25:
		return walletutil.P2PKH
	default:
		return walletutil.P2WSH
	}
}

// feeAmount returns the fee for the given virtual size at the given rate
// in sat/kvB, rounded up.
func feeAmount(vsize int, feeRate float64) uint64 {
	fee := decimal.NewFromInt(int64(vsize)).
		Mul(decimal.NewFromFloat(feeRate)).
		Div(decimal.NewFromInt(1000)).
		Ceil()
	return uint64(fee.IntPart())
}

// buildPset creates the partial transaction for the given plan, with all
// the information needed by signers to sign and finalize the wallet inputs.
func (w *wallet) buildPset(plan *txPlan) (*psetv2.Pset, error) {
	ins := make([]psetv2.InputArgs, 0, len(plan.inputs))
	for _, u := range plan.inputs {
		ins = append(ins, psetv2.InputArgs{Txid: u.txid, TxIndex: u.vout})
	}
	ptx, err := psetv2.New(ins, plan.outputs, nil)
	if err != nil {
		return nil, err
	}
	if err := w.updateInputs(ptx, plan.inputs); err != nil {
		return nil, err
	}
	return ptx, nil
}

func (w *wallet) updateInputs(ptx *psetv2.Pset, inputs []utxo) error {
	updater, err := psetv2.NewUpdater(ptx)
	if err != nil {
		return err
	}
	for i, u := range inputs {
		if err := updater.AddInWitnessUtxo(i, u.prevout); err != nil {
			return err
		}
		if u.isConfidential() {
			if err := updater.AddInUtxoRangeProof(i, u.prevout.RangeProof); err != nil {
				return err
			}
		}
		if len(u.script.redeemScript) > 0 {
			if err := updater.AddInRedeemScript(i, u.script.redeemScript); err != nil {
				return err
			}
		}
		if len(u.script.witnessScript) > 0 {
			if err := updater.AddInWitnessScript(i, u.script.witnessScript); err != nil {
				return err
			}
		}
		for _, d := range u.script.derivations {
			if err := updater.AddInBip32Derivation(i, psetv2.DerivationPathWithPubKey{
				PubKey:               d.pubkey,
				MasterKeyFingerprint: d.fingerprint.Uint32(),
				Bip32Path:            d.path,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// blind blinds every output of the pset with a blinding key.
func (w *wallet) blind(ptx *psetv2.Pset, inputs []utxo) error {
	needsBlinding := false
	for i := range ptx.Outputs {
		if len(ptx.Outputs[i].BlindingPubkey) > 0 {
			needsBlinding = true
			break
		}
	}
	if !needsBlinding {
		return nil
	}

	ownedInputs := make([]psetv2.OwnedInput, 0, len(inputs))
	blindingKeys := make([][]byte, 0, len(inputs))
	for i, u := range inputs {
		assetBlinder, valueBlinder := zeroBlinder, zeroBlinder
		if u.isConfidential() {
			assetBlinder, valueBlinder = u.assetBlinder, u.valueBlinder
			key, _, err := w.desc.blindingKey(u.prevout.Script)
			if err != nil {
				return err
			}
			blindingKeys = append(blindingKeys, key.Serialize())
		}
		ownedInputs = append(ownedInputs, psetv2.OwnedInput{
			Index:        uint32(i),
			Value:        u.value,
			Asset:        u.asset,
			ValueBlinder: valueBlinder,
			AssetBlinder: assetBlinder,
		})
	}

	validator := confidential.NewZKPValidator()
	generator := confidential.NewZKPGeneratorFromBlindingKeys(blindingKeys, nil)
	blinder, err := psetv2.NewBlinder(ptx, ownedInputs, validator, generator)
	if err != nil {
		return err
	}
	if err := blinder.BlindLast(nil, nil); err != nil {
		return fmt.Errorf("failed to blind outputs: %w", err)
	}
	return nil
}

func issuanceContract(str string) (*transaction.IssuanceContract, uint, error) {
	if str == "" {
		return nil, 0, nil
	}
	contract, err := domain.ParseContract(str)
	if err != nil {
		return nil, 0, err
	}
	return &transaction.IssuanceContract{
		Name:      contract.Name,
		Ticker:    contract.Ticker,
		Version:   uint(contract.Version),
		Precision: uint(contract.Precision),
		PubKey:    contract.IssuerPubkey,
		Entity: transaction.IssuanceEntity{
			Domain: contract.Entity.Domain,
		},
	}, uint(contract.Precision), nil
}

func copyChanges(changes map[string]uint64) map[string]uint64 {
	m := make(map[string]uint64, len(changes)+1)
	for k, v := range changes {
		m[k] = v
	}
	return m
}

func contains(list []string, str string) bool {
	for _, s := range list {
		if s == str {
			return true
		}
	}
	return false
}

func countNonZero(changes map[string]uint64) int {
	count := 0
	for _, v := range changes {
		if v > 0 {
			count++
		}
	}
	return count
}
