// Package elementswallet implements a watch-only Liquid wallet engine bound
// to an output descriptor. Wallet history is fetched from an esplora
// explorer, confirmed txs are cached on disk.
package elementswallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/explorer"
	"github.com/tdex-network/walletd/pkg/explorer/esplora"
	"github.com/vulpemventures/go-elements/network"
)

const defaultGapLimit = 20

var networks = map[string]*network.Network{
	network.Liquid.Name:  &network.Liquid,
	network.Testnet.Name: &network.Testnet,
	network.Regtest.Name: &network.Regtest,
}

// FactoryOpts ...
type FactoryOpts struct {
	// GapLimit is the number of consecutive unused addresses after which
	// the sync of a chain stops.
	GapLimit                  int
	ExplorerRequestsPerSecond int
	ExplorerTimeout           time.Duration
}

type factory struct {
	opts FactoryOpts

	lock      sync.Mutex
	explorers map[string]explorer.Service
	cache     *txCache
	cacheDir  string
	refs      int

	newExplorer func(opts esplora.ServiceOpts) (explorer.Service, error)
}

// NewFactory returns a ports.WalletFactory. Wallets created with the same
// endpoint share the explorer client and its rate limit.
func NewFactory(opts FactoryOpts) ports.WalletFactory {
	if opts.GapLimit <= 0 {
		opts.GapLimit = defaultGapLimit
	}
	return &factory{
		opts:        opts,
		explorers:   make(map[string]explorer.Service),
		newExplorer: esplora.NewService,
	}
}

func (f *factory) NewWallet(
	_ context.Context, cfg ports.WalletConfig, descriptor string,
) (ports.Wallet, error) {
	net, ok := networks[cfg.Network]
	if !ok {
		return nil, fmt.Errorf("unsupported network %q", cfg.Network)
	}
	desc, err := newWalletDescriptor(descriptor, net)
	if err != nil {
		return nil, err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	explorerSvc, err := f.getExplorer(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := f.acquireCache(cfg.Datadir)
	if err != nil {
		return nil, err
	}

	return newWallet(desc, explorerSvc, cache, f.opts.GapLimit, f.releaseCache), nil
}

func (f *factory) getExplorer(cfg ports.WalletConfig) (explorer.Service, error) {
	key := fmt.Sprintf("%s|%t|%t", cfg.Endpoint, cfg.TLS, cfg.ValidateDomain)
	if svc, ok := f.explorers[key]; ok {
		return svc, nil
	}
	svc, err := f.newExplorer(esplora.ServiceOpts{
		Addr:              cfg.Endpoint,
		TLS:               cfg.TLS,
		ValidateDomain:    cfg.ValidateDomain,
		RequestsPerSecond: f.opts.ExplorerRequestsPerSecond,
		Timeout:           f.opts.ExplorerTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create explorer client: %w", err)
	}
	f.explorers[key] = svc
	return svc, nil
}

// acquireCache opens the tx cache on first use. The cache stays open as
// long as at least one wallet references it.
func (f *factory) acquireCache(datadir string) (*txCache, error) {
	if f.cache != nil {
		if f.cacheDir != datadir {
			return nil, fmt.Errorf("tx cache already open in %s", f.cacheDir)
		}
		f.refs++
		return f.cache, nil
	}
	cache, err := openTxCache(datadir)
	if err != nil {
		return nil, fmt.Errorf("failed to open tx cache: %w", err)
	}
	f.cache, f.cacheDir, f.refs = cache, datadir, 1
	return cache, nil
}

func (f *factory) releaseCache() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.refs--
	if f.refs > 0 || f.cache == nil {
		return nil
	}
	err := f.cache.close()
	f.cache, f.cacheDir = nil, ""
	log.Debug("tx cache closed")
	return err
}
