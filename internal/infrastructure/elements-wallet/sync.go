package elementswallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/pkg/explorer"
	"github.com/vulpemventures/go-elements/confidential"
	"github.com/vulpemventures/go-elements/elementsutil"
	"github.com/vulpemventures/go-elements/transaction"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentHistoryRequests = 4

// utxo is an unspent output owned by the wallet, already unblinded if
// confidential.
type utxo struct {
	txid         string
	vout         uint32
	asset        string
	value        uint64
	assetBlinder []byte
	valueBlinder []byte
	prevout      *transaction.TxOutput
	script       *derivedScript
	confirmed    bool
}

func (u utxo) key() string {
	return fmt.Sprintf("%s:%d", u.txid, u.vout)
}

func (u utxo) isConfidential() bool {
	return len(u.valueBlinder) > 0
}

// walletState is the result of a sync.
type walletState struct {
	scripts   map[string]*derivedScript
	nextIndex map[uint32]uint32
	utxos     []utxo
}

func (w *wallet) sync(ctx context.Context) (*walletState, error) {
	state := &walletState{
		scripts:   make(map[string]*derivedScript),
		nextIndex: make(map[uint32]uint32),
	}
	history := make(map[string]explorer.TxStatus)

	for _, chain := range w.desc.chains {
		next, err := w.scanChain(ctx, chain, state, history)
		if err != nil {
			return nil, err
		}
		state.nextIndex[chain] = next
	}

	txs, err := w.getTransactions(ctx, history)
	if err != nil {
		return nil, err
	}
	utxos, err := w.findUtxos(txs, history, state.scripts)
	if err != nil {
		return nil, err
	}
	state.utxos = utxos

	log.Debugf(
		"synced descriptor with %d txs and %d utxos", len(txs), len(utxos),
	)
	return state, nil
}

// scanChain fetches the history of the scripts of the given chain, a batch
// of gap limit scripts at a time, until a whole batch is unused. It returns
// the index following the last used one.
func (w *wallet) scanChain(
	ctx context.Context, chain uint32,
	state *walletState, history map[string]explorer.TxStatus,
) (uint32, error) {
	batchSize := uint32(w.gapLimit)
	if !w.desc.isRanged() {
		batchSize = 1
	}

	next := uint32(0)
	for start := uint32(0); ; start += batchSize {
		scripts := make([]*derivedScript, 0, batchSize)
		for i := start; i < start+batchSize; i++ {
			ds, err := w.desc.deriveScript(chain, i)
			if err != nil {
				return 0, err
			}
			state.scripts[hex.EncodeToString(ds.script)] = ds
			scripts = append(scripts, ds)
		}

		histories, err := w.getHistories(ctx, scripts)
		if err != nil {
			return 0, err
		}

		used := false
		for i, txs := range histories {
			if len(txs) <= 0 {
				continue
			}
			used = true
			next = scripts[i].index + 1
			for _, tx := range txs {
				history[tx.Txid] = tx
			}
		}
		if !used || !w.desc.isRanged() || start+batchSize-next >= batchSize {
			return next, nil
		}
	}
}

func (w *wallet) getHistories(
	ctx context.Context, scripts []*derivedScript,
) ([][]explorer.TxStatus, error) {
	histories := make([][]explorer.TxStatus, len(scripts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentHistoryRequests)
	for i, ds := range scripts {
		i, ds := i, ds
		eg.Go(func() error {
			txs, err := w.explorer.GetScriptHistory(ctx, ds.script)
			if err != nil {
				return err
			}
			histories[i] = txs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return histories, nil
}

// getTransactions returns the given txs, from the cache when possible.
// Fetched confirmed txs are added to the cache.
func (w *wallet) getTransactions(
	ctx context.Context, history map[string]explorer.TxStatus,
) (map[string]*transaction.Transaction, error) {
	txs := make(map[string]*transaction.Transaction, len(history))
	missing := make([]string, 0)

	for txid := range history {
		txhex, err := w.cache.get(txid)
		if err != nil {
			return nil, err
		}
		if txhex == "" {
			missing = append(missing, txid)
			continue
		}
		tx, err := transaction.NewTxFromHex(txhex)
		if err != nil {
			return nil, fmt.Errorf("invalid cached tx %s: %w", txid, err)
		}
		txs[txid] = tx
	}
	if len(missing) <= 0 {
		return txs, nil
	}

	fetched, err := w.explorer.GetTransactions(ctx, missing)
	if err != nil {
		return nil, err
	}
	toCache := make([]cachedTx, 0, len(fetched))
	for txid, tx := range fetched {
		txs[txid] = tx
		status := history[txid]
		if !status.Confirmed {
			continue
		}
		txhex, err := tx.ToHex()
		if err != nil {
			return nil, err
		}
		toCache = append(toCache, cachedTx{txid, txhex, status.BlockHeight})
	}
	if err := w.cache.add(toCache...); err != nil {
		log.WithError(err).Warn("failed to cache transactions")
	}
	return txs, nil
}

func (w *wallet) findUtxos(
	txs map[string]*transaction.Transaction,
	history map[string]explorer.TxStatus,
	scripts map[string]*derivedScript,
) ([]utxo, error) {
	spent := make(map[string]struct{})
	for _, tx := range txs {
		for _, in := range tx.Inputs {
			key := fmt.Sprintf("%s:%d", elementsutil.TxIDFromBytes(in.Hash), in.Index)
			spent[key] = struct{}{}
		}
	}

	utxos := make([]utxo, 0)
	for txid, tx := range txs {
		for i, out := range tx.Outputs {
			ds, ok := scripts[hex.EncodeToString(out.Script)]
			if !ok {
				continue
			}
			u := utxo{
				txid:      txid,
				vout:      uint32(i),
				prevout:   out,
				script:    ds,
				confirmed: history[txid].Confirmed,
			}
			if _, ok := spent[u.key()]; ok {
				continue
			}
			if err := w.revealOutput(&u); err != nil {
				log.WithError(err).Warnf("skipping output %s", u.key())
				continue
			}
			utxos = append(utxos, u)
		}
	}
	sort.Slice(utxos, func(i, j int) bool {
		return utxos[i].key() < utxos[j].key()
	})
	return utxos, nil
}

// revealOutput sets the asset, amount and blinders of the given utxo.
func (w *wallet) revealOutput(u *utxo) error {
	out := u.prevout
	if !isConfidentialOutput(out) {
		value, err := elementsutil.ValueFromBytes(out.Value)
		if err != nil {
			return err
		}
		u.asset = assetFromBytes(out.Asset[1:])
		u.value = value
		return nil
	}

	if w.desc.blindingKey == nil {
		return fmt.Errorf("confidential output for a non confidential descriptor")
	}
	key, _, err := w.desc.blindingKey(out.Script)
	if err != nil {
		return err
	}
	unblinded, err := confidential.UnblindOutputWithKey(out, key.Serialize())
	if err != nil {
		return fmt.Errorf("failed to unblind output: %w", err)
	}
	u.asset = assetFromBytes(unblinded.Asset)
	u.value = unblinded.Value
	u.assetBlinder = unblinded.AssetBlindingFactor
	u.valueBlinder = unblinded.ValueBlindingFactor
	return nil
}

func isConfidentialOutput(out *transaction.TxOutput) bool {
	return len(out.Value) == 33 || (len(out.Asset) > 0 && out.Asset[0] != 0x01)
}

// assetFromBytes returns the hex asset id of an asset hash in tx order.
func assetFromBytes(buf []byte) string {
	return hex.EncodeToString(elementsutil.ReverseBytes(append([]byte{}, buf...)))
}
