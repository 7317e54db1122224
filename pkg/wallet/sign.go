package wallet

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/psetv2"
)

// SignPset signs every input of the partial transaction that has a bip32
// derivation matching the wallet master fingerprint. Keys that already
// have a partial signature are skipped. It returns the number of
// signatures added.
func (w *Wallet) SignPset(ptx *psetv2.Pset) (int, error) {
	if ptx == nil {
		return 0, ErrNullPset
	}
	fingerprint, err := w.fingerprintUint32()
	if err != nil {
		return 0, err
	}

	tx, err := ptx.UnsignedTx()
	if err != nil {
		return 0, err
	}
	signer, err := psetv2.NewSigner(ptx)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range ptx.Inputs {
		for _, derivation := range ptx.Inputs[i].Bip32Derivation {
			if derivation.MasterKeyFingerprint != fingerprint {
				continue
			}
			if hasPartialSig(ptx, i, derivation.PubKey) {
				continue
			}

			signed, err := w.signInput(
				signer, tx, ptx, i, derivation.Bip32Path, derivation.PubKey,
			)
			if err != nil {
				return count, err
			}
			if signed {
				count++
			}
		}
	}
	return count, nil
}

func (w *Wallet) signInput(
	signer *psetv2.Signer, tx txHasher, ptx *psetv2.Pset, inIndex int,
	path []uint32, expectedPubkey []byte,
) (bool, error) {
	prvkey, pubkey, err := w.DeriveSigningKeyPair(path)
	if err != nil {
		return false, err
	}
	// Same fingerprint but not our key.
	if !bytes.Equal(pubkey.SerializeCompressed(), expectedPubkey) {
		return false, nil
	}

	in := ptx.Inputs[inIndex]
	prevout := in.GetUtxo()
	if prevout == nil {
		return false, fmt.Errorf("input %d: %w", inIndex, ErrMissingPrevout)
	}

	script := in.WitnessScript
	if len(script) <= 0 {
		script = payment.FromPublicKey(pubkey, nil, nil).Script
	}
	sighashType := in.SigHashType
	if sighashType == 0 {
		sighashType = txscript.SigHashAll
	}

	hashForSignature := tx.HashForWitnessV0(inIndex, script, prevout.Value, sighashType)
	signature := ecdsa.Sign(prvkey, hashForSignature[:])
	if !signature.Verify(hashForSignature[:], pubkey) {
		return false, fmt.Errorf(
			"signature verification failed for input %d", inIndex,
		)
	}

	sigWithSigHashType := append(signature.Serialize(), byte(sighashType))
	if err := signer.SignInput(
		inIndex, sigWithSigHashType, pubkey.SerializeCompressed(), nil, nil,
	); err != nil {
		return false, err
	}
	return true, nil
}

type txHasher interface {
	HashForWitnessV0(
		inIndex int, prevoutScript []byte, value []byte, hashType txscript.SigHashType,
	) [32]byte
}

func hasPartialSig(ptx *psetv2.Pset, inIndex int, pubkey []byte) bool {
	for _, sig := range ptx.Inputs[inIndex].PartialSigs {
		if bytes.Equal(sig.PubKey, pubkey) {
			return true
		}
	}
	return false
}
