package elementswallet

import (
	"errors"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

const cacheDir = "cache"

// cachedTx is a confirmed transaction stored in the tx cache. Unconfirmed
// txs are never cached since they can be replaced or dropped.
type cachedTx struct {
	Txid        string
	Hex         string
	BlockHeight uint32
}

// txCache is a badger backed store of confirmed transactions shared by all
// the wallets of a factory.
type txCache struct {
	store *badgerhold.Store
}

func openTxCache(datadir string) (*txCache, error) {
	opts := badger.DefaultOptions(filepath.Join(datadir, cacheDir))
	opts.Logger = nil
	opts.Compression = options.ZSTD

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}
	return &txCache{store}, nil
}

// get returns the hex of the given tx, or an empty string if not cached.
func (c *txCache) get(txid string) (string, error) {
	var tx cachedTx
	if err := c.store.Get(txid, &tx); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return tx.Hex, nil
}

func (c *txCache) add(txs ...cachedTx) error {
	for _, tx := range txs {
		if err := c.store.Upsert(tx.Txid, tx); err != nil {
			return err
		}
	}
	return nil
}

func (c *txCache) count() (uint64, error) {
	return c.store.Count(&cachedTx{}, nil)
}

func (c *txCache) close() error {
	return c.store.Close()
}
