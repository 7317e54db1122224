package explorer

import (
	"context"
	"errors"

	"github.com/vulpemventures/go-elements/transaction"
)

var (
	// ErrTransactionNotFound is returned when the explorer does not know
	// the requested transaction.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrServiceUnavailable is returned when too many consecutive requests
	// failed and the explorer is temporarily not queried anymore.
	ErrServiceUnavailable = errors.New("explorer service temporarily unavailable")
)

// TxStatus is the confirmation status of a transaction.
type TxStatus struct {
	Txid        string
	Confirmed   bool
	BlockHeight uint32
	BlockHash   string
	BlockTime   int64
}

// Service is the representation of an explorer that allows to fetch the
// history of output scripts, to fetch transactions and to broadcast them.
type Service interface {
	// GetScriptHistory returns the list of all confirmed and unconfirmed txs
	// spending from or sending funds to the given output script.
	GetScriptHistory(ctx context.Context, script []byte) ([]TxStatus, error)
	// GetTransactionHex fetches the transaction in hex format given its hash.
	GetTransactionHex(ctx context.Context, txid string) (string, error)
	// GetTransactions fetches the given txs concurrently and returns them
	// indexed by hash.
	GetTransactions(
		ctx context.Context, txids []string,
	) (map[string]*transaction.Transaction, error)
	// BroadcastTransaction attempts to add the given tx in hex format to the
	// mempool and returns its tx hash.
	BroadcastTransaction(ctx context.Context, txhex string) (string, error)
	// GetBlockHeight returns the current height of the blockchain.
	GetBlockHeight(ctx context.Context) (uint32, error)
}
