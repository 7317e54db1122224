package jade

import (
	"context"
	"fmt"
)

// Commitment is the blinding information of a transaction output that lets
// the device verify the amounts it displays. Unblinded outputs have no
// commitment.
type Commitment struct {
	AssetID         []byte `cbor:"asset_id"`
	Value           uint64 `cbor:"value"`
	AssetGenerator  []byte `cbor:"asset_generator,omitempty"`
	ValueCommitment []byte `cbor:"value_commitment,omitempty"`
	BlindingKey     []byte `cbor:"blinding_key,omitempty"`
	Abf             []byte `cbor:"abf,omitempty"`
	Vbf             []byte `cbor:"vbf,omitempty"`
}

// TxInput describes a transaction input to the device. An input without
// path is not signed.
type TxInput struct {
	IsWitness       bool     `cbor:"is_witness"`
	Script          []byte   `cbor:"script,omitempty"`
	ValueCommitment []byte   `cbor:"value_commitment,omitempty"`
	Path            []uint32 `cbor:"path,omitempty"`
	SigHash         uint8    `cbor:"sighash,omitempty"`
}

// SignTxArgs ...
type SignTxArgs struct {
	Network            string
	Tx                 []byte
	TrustedCommitments []*Commitment
	Inputs             []TxInput
}

func (a SignTxArgs) validate() error {
	if len(a.Tx) <= 0 {
		return fmt.Errorf("missing transaction")
	}
	if len(a.Inputs) <= 0 {
		return fmt.Errorf("missing transaction inputs")
	}
	return nil
}

// SignLiquidTx asks the device to sign the given inputs of an unsigned
// transaction. The user confirms the outputs on the device. It returns one
// signature per input, empty for the inputs without a path.
func (c *Client) SignLiquidTx(ctx context.Context, args SignTxArgs) ([][]byte, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	params := map[string]interface{}{
		"network":             args.Network,
		"txn":                 args.Tx,
		"num_inputs":          len(args.Inputs),
		"trusted_commitments": args.TrustedCommitments,
	}
	var accepted bool
	if err := c.callLocked(ctx, "sign_liquid_tx", params, &accepted); err != nil {
		return nil, err
	}
	if !accepted {
		return nil, fmt.Errorf("transaction rejected by device")
	}

	sigs := make([][]byte, 0, len(args.Inputs))
	for i, in := range args.Inputs {
		var sig []byte
		if err := c.callLocked(ctx, "tx_input", in, &sig); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
