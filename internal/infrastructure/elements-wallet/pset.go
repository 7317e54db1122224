package elementswallet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/vulpemventures/go-elements/psetv2"
)

func (w *wallet) Finalize(
	_ context.Context, ptx *psetv2.Pset,
) (*ports.Transaction, error) {
	if err := psetv2.FinalizeAll(ptx); err != nil {
		return nil, fmt.Errorf("failed to finalize pset: %w", err)
	}
	tx, err := psetv2.Extract(ptx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract tx: %w", err)
	}
	txhex, err := tx.ToHex()
	if err != nil {
		return nil, err
	}
	return &ports.Transaction{Txid: tx.TxHash().String(), Hex: txhex}, nil
}

func (w *wallet) Broadcast(ctx context.Context, tx *ports.Transaction) (string, error) {
	txid, err := w.explorer.BroadcastTransaction(ctx, tx.Hex)
	if err != nil {
		return "", err
	}
	// The wallet state is stale until the next sync.
	w.lock.Lock()
	w.state = nil
	w.lock.Unlock()
	return txid, nil
}

// Combine merges the signatures and the input data of the given psets into
// the first one. All psets must refer to the same unsigned tx.
func (w *wallet) Combine(
	_ context.Context, psets []*psetv2.Pset,
) (*psetv2.Pset, error) {
	if len(psets) <= 0 {
		return nil, fmt.Errorf("missing psets to combine")
	}
	combined := psets[0]
	txid, err := unsignedTxid(combined)
	if err != nil {
		return nil, err
	}

	for n, ptx := range psets[1:] {
		id, err := unsignedTxid(ptx)
		if err != nil {
			return nil, err
		}
		if id != txid {
			return nil, fmt.Errorf("%w: pset %d", domain.ErrPsetMismatch, n+1)
		}
		for i := range ptx.Inputs {
			mergeInput(combined, ptx, i)
		}
	}
	return combined, nil
}

func mergeInput(dst, src *psetv2.Pset, i int) {
	in := src.Inputs[i]
	for _, sig := range in.PartialSigs {
		if !hasPartialSig(dst, i, sig.PubKey) {
			dst.Inputs[i].PartialSigs = append(dst.Inputs[i].PartialSigs, sig)
		}
	}
	for _, d := range in.Bip32Derivation {
		if !hasDerivation(dst, i, d.PubKey) {
			dst.Inputs[i].Bip32Derivation = append(dst.Inputs[i].Bip32Derivation, d)
		}
	}
	if dst.Inputs[i].WitnessUtxo == nil {
		dst.Inputs[i].WitnessUtxo = in.WitnessUtxo
	}
	if dst.Inputs[i].NonWitnessUtxo == nil {
		dst.Inputs[i].NonWitnessUtxo = in.NonWitnessUtxo
	}
	if len(dst.Inputs[i].RedeemScript) <= 0 {
		dst.Inputs[i].RedeemScript = in.RedeemScript
	}
	if len(dst.Inputs[i].WitnessScript) <= 0 {
		dst.Inputs[i].WitnessScript = in.WitnessScript
	}
	if len(dst.Inputs[i].FinalScriptSig) <= 0 {
		dst.Inputs[i].FinalScriptSig = in.FinalScriptSig
	}
	if len(dst.Inputs[i].FinalScriptWitness) <= 0 {
		dst.Inputs[i].FinalScriptWitness = in.FinalScriptWitness
	}
}

// PsetDetails reports, for every wallet signer, whether it signed all the
// inputs it is expected to sign.
func (w *wallet) PsetDetails(
	_ context.Context, ptx *psetv2.Pset,
) (*ports.PsetDetails, error) {
	details := &ports.PsetDetails{
		FingerprintsHas:     make([]domain.Fingerprint, 0),
		FingerprintsMissing: make([]domain.Fingerprint, 0),
	}
	seen := make(map[domain.Fingerprint]struct{})

	for _, fp := range w.Signers() {
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}

		expected, signed := 0, 0
		for i := range ptx.Inputs {
			for _, d := range ptx.Inputs[i].Bip32Derivation {
				if d.MasterKeyFingerprint != fp.Uint32() {
					continue
				}
				expected++
				if hasPartialSig(ptx, i, d.PubKey) {
					signed++
				}
			}
		}
		if expected > 0 && signed == expected {
			details.FingerprintsHas = append(details.FingerprintsHas, fp)
		} else {
			details.FingerprintsMissing = append(details.FingerprintsMissing, fp)
		}
	}
	return details, nil
}

func unsignedTxid(ptx *psetv2.Pset) (string, error) {
	tx, err := ptx.UnsignedTx()
	if err != nil {
		return "", fmt.Errorf("invalid pset: %w", err)
	}
	return tx.TxHash().String(), nil
}

func hasPartialSig(ptx *psetv2.Pset, i int, pubkey []byte) bool {
	for _, sig := range ptx.Inputs[i].PartialSigs {
		if bytes.Equal(sig.PubKey, pubkey) {
			return true
		}
	}
	return false
}

func hasDerivation(ptx *psetv2.Pset, i int, pubkey []byte) bool {
	for _, d := range ptx.Inputs[i].Bip32Derivation {
		if bytes.Equal(d.PubKey, pubkey) {
			return true
		}
	}
	return false
}
