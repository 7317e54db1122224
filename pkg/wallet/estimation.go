package wallet

import "math"

// ScriptType is the standard template of an input or output script.
type ScriptType int

const (
	P2PKH ScriptType = iota
	P2SH_P2WPKH
	P2WPKH
	P2WSH
)

// SizeInput describes an input for size estimation. WitnessSize is
// required for P2WSH inputs, see MultisigWitnessSize.
type SizeInput struct {
	Type        ScriptType
	WitnessSize int
}

// SizeOutput describes an output for size estimation. Blinded outputs carry
// the commitments and their range and surjection proofs.
type SizeOutput struct {
	Type    ScriptType
	Blinded bool
}

var (
	scriptSigSizeByScriptType = map[ScriptType]int{
		P2PKH:       108, // len + opcode + sig + opcode + pubkey
		P2SH_P2WPKH: 23,  // len + p2wpkh script
		P2WPKH:      1,   // no scriptsig, still len is serialized
		P2WSH:       1,   // no scriptsig
	}
	scriptPubKeySizeByScriptType = map[ScriptType]int{
		P2PKH:       26, // len + opcodes (3) + hash(pubkey) + opcodes (2)
		P2SH_P2WPKH: 24, // len + opcodes (2) + hash(script) + opcode
		P2WPKH:      23, // len + opcodes (2) + hash(script)
		P2WSH:       35, // len + opcodes (2) + hash(script)
	}
)

// EstimateTxSize makes an estimation of the virtual size of a transaction
// with the given inputs and outputs. The fee output, always unblinded, is
// accounted without being listed.
func EstimateTxSize(ins []SizeInput, outs []SizeOutput) int {
	baseSize := calcTxBaseSize(ins, outs)
	totalSize := baseSize + calcTxWitnessSize(ins, outs)

	weight := baseSize*3 + totalSize
	return (weight + 3) / 4
}

// MultisigWitnessSize is the size of the witness of a threshold-of-n
// multisig input with the given witness script length.
func MultisigWitnessSize(threshold, scriptLen int) int {
	if threshold <= 0 {
		threshold = 1
	}
	return 1 + (1+72)*threshold + 1 + varIntSerializeSize(uint64(scriptLen)) + scriptLen
}

func calcTxBaseSize(ins []SizeInput, outs []SizeOutput) int {
	// hash + index + sequence
	inBaseSize := 40
	insSize := 0
	for _, in := range ins {
		insSize += inBaseSize + scriptSigSizeByScriptType[in.Type]
	}

	outsSize := 0
	for _, out := range outs {
		// asset + value + nonce commitments
		outBaseSize := 33 + 33 + 33
		if !out.Blinded {
			// explicit asset + explicit value + empty nonce
			outBaseSize = 33 + 9 + 1
		}
		outsSize += outBaseSize + scriptPubKeySizeByScriptType[out.Type]
	}
	// asset + value + empty script + empty nonce
	outsSize += 33 + 9 + 1 + 1

	return 9 +
		varIntSerializeSize(uint64(len(ins))) +
		varIntSerializeSize(uint64(len(outs)+1)) +
		insSize + outsSize
}

func calcTxWitnessSize(ins []SizeInput, outs []SizeOutput) int {
	insSize := 0
	for _, in := range ins {
		switch in.Type {
		case P2SH_P2WPKH, P2WPKH:
			// len + witness[sig,pubkey] + no issuance proof + no token proof + no pegin
			insSize += 1 + 107 + 1 + 1 + 1
		case P2WSH:
			insSize += in.WitnessSize
		}
	}

	outsSize := 0
	for _, out := range outs {
		if out.Blinded {
			// size(range proof) + proof + size(surjection proof) + proof
			outsSize += 3 + 4174 + 1 + 131
			continue
		}
		outsSize += 1 + 1
	}
	// empty proofs of the fee output
	outsSize += 1 + 1

	return insSize + outsSize
}

func varIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= math.MaxUint16 {
		return 3
	}
	if val <= math.MaxUint32 {
		return 5
	}
	return 9
}
