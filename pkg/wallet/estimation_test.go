package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTxSize(t *testing.T) {
	blinded := func(types ...ScriptType) []SizeOutput {
		outs := make([]SizeOutput, 0, len(types))
		for _, tt := range types {
			outs = append(outs, SizeOutput{Type: tt, Blinded: true})
		}
		return outs
	}

	tests := []struct {
		ins          []SizeInput
		outs         []SizeOutput
		expectedSize int
	}{
		// https://blockstream.info/liquid/tx/3bf5b21f9b5785de089be6dc4963058b4734bf86a9434c9910ad739dbf742eb0
		{
			ins:          []SizeInput{{Type: P2SH_P2WPKH}},
			outs:         blinded(P2SH_P2WPKH, P2SH_P2WPKH),
			expectedSize: 2516,
		},
		// https://blockstream.info/liquid/tx/06d4897d60128cccc588ccd5e1d62eba3d23b154ce8954e6b8057356c9eb9fa0
		{
			ins:          []SizeInput{{Type: P2SH_P2WPKH}, {Type: P2SH_P2WPKH}},
			outs:         blinded(P2WPKH, P2WPKH),
			expectedSize: 2621,
		},
		// https://blockstream.info/liquid/tx/34941db50a2128008451304200e396b64b68120f411f0a4fe0c2f9cef1f9864f
		{
			ins:          []SizeInput{{Type: P2WPKH}, {Type: P2WPKH}, {Type: P2WPKH}},
			outs:         blinded(P2WPKH, P2WPKH, P2WPKH, P2WPKH, P2WPKH),
			expectedSize: 6258,
		},
	}
	for _, tt := range tests {
		size := EstimateTxSize(tt.ins, tt.outs)
		require.GreaterOrEqual(t, size, tt.expectedSize)
	}
}

func TestEstimateTxSizeUnblinded(t *testing.T) {
	ins := []SizeInput{{Type: P2WPKH}}
	blindedSize := EstimateTxSize(ins, []SizeOutput{{Type: P2WPKH, Blinded: true}})
	unblindedSize := EstimateTxSize(ins, []SizeOutput{{Type: P2WPKH}})
	require.Less(t, unblindedSize, blindedSize)
	require.Less(t, unblindedSize, 300)
}

func TestEstimateTxSizeMultisig(t *testing.T) {
	outs := []SizeOutput{{Type: P2WSH, Blinded: true}}
	singlesig := EstimateTxSize([]SizeInput{{Type: P2WPKH}}, outs)
	multisig := EstimateTxSize(
		[]SizeInput{{Type: P2WSH, WitnessSize: MultisigWitnessSize(2, 105)}}, outs,
	)
	require.Greater(t, multisig, singlesig)
}
