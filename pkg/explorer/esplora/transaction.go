package esplora

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/tdex-network/walletd/pkg/explorer"
	"github.com/vulpemventures/go-elements/transaction"
	"golang.org/x/sync/errgroup"
)

// maxConfirmedTxsPerPage is the number of confirmed txs returned by a
// single scripthash history request.
const maxConfirmedTxsPerPage = 25

func (e *esplora) GetScriptHistory(
	ctx context.Context, script []byte,
) ([]explorer.TxStatus, error) {
	hash := sha256.Sum256(script)
	baseURL := fmt.Sprintf("%s/scripthash/%s/txs", e.apiURL, hex.EncodeToString(hash[:]))

	resp, err := e.get(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	page, err := parseTxs(resp)
	if err != nil {
		return nil, err
	}

	history := make([]explorer.TxStatus, 0, len(page))
	history = append(history, page...)

	// The first page holds all the mempool txs plus the first page of
	// confirmed ones, the next pages only confirmed txs.
	confirmed := countConfirmed(page)
	for confirmed == maxConfirmedTxsPerPage {
		lastSeen := history[len(history)-1].Txid
		resp, err := e.get(ctx, fmt.Sprintf("%s/chain/%s", baseURL, lastSeen))
		if err != nil {
			return nil, err
		}
		if page, err = parseTxs(resp); err != nil {
			return nil, err
		}
		history = append(history, page...)
		confirmed = countConfirmed(page)
	}

	return history, nil
}

func (e *esplora) GetTransactionHex(ctx context.Context, txid string) (string, error) {
	return e.get(ctx, fmt.Sprintf("%s/tx/%s/hex", e.apiURL, txid))
}

func (e *esplora) GetTransactions(
	ctx context.Context, txids []string,
) (map[string]*transaction.Transaction, error) {
	lock := &sync.Mutex{}
	txs := make(map[string]*transaction.Transaction, len(txids))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentRequests)
	for _, txid := range txids {
		txid := txid
		eg.Go(func() error {
			txhex, err := e.GetTransactionHex(ctx, txid)
			if err != nil {
				return err
			}
			tx, err := transaction.NewTxFromHex(txhex)
			if err != nil {
				return fmt.Errorf("failed to parse tx %s: %w", txid, err)
			}

			lock.Lock()
			defer lock.Unlock()
			txs[txid] = tx
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (e *esplora) BroadcastTransaction(ctx context.Context, txhex string) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	status, resp, err := e.newHTTPRequest(ctx, http.MethodPost, url, txhex, headers)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("failed to broadcast tx: %s", resp)
	}

	return resp, nil
}

func parseTxs(resp string) ([]explorer.TxStatus, error) {
	var txs []esploraTx
	if err := json.Unmarshal([]byte(resp), &txs); err != nil {
		return nil, fmt.Errorf("failed to parse tx list: %w", err)
	}
	statuses := make([]explorer.TxStatus, 0, len(txs))
	for _, tx := range txs {
		statuses = append(statuses, tx.toStatus())
	}
	return statuses, nil
}

func countConfirmed(txs []explorer.TxStatus) int {
	count := 0
	for _, tx := range txs {
		if tx.Confirmed {
			count++
		}
	}
	return count
}
