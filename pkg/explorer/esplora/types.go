package esplora

import "github.com/tdex-network/walletd/pkg/explorer"

type esploraTx struct {
	Txid   string   `json:"txid"`
	Status txStatus `json:"status"`
}

type txStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

func (t esploraTx) toStatus() explorer.TxStatus {
	return explorer.TxStatus{
		Txid:        t.Txid,
		Confirmed:   t.Status.Confirmed,
		BlockHeight: t.Status.BlockHeight,
		BlockHash:   t.Status.BlockHash,
		BlockTime:   t.Status.BlockTime,
	}
}
