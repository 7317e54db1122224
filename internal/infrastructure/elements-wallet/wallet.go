package elementswallet

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/explorer"
	walletutil "github.com/tdex-network/walletd/pkg/wallet"
	"github.com/vulpemventures/go-elements/psetv2"
)

type wallet struct {
	desc     *walletDescriptor
	explorer explorer.Service
	cache    *txCache
	gapLimit int
	release  func() error

	lock   sync.Mutex
	state  *walletState
	closed bool
}

func newWallet(
	desc *walletDescriptor, explorerSvc explorer.Service, cache *txCache,
	gapLimit int, release func() error,
) *wallet {
	return &wallet{
		desc:     desc,
		explorer: explorerSvc,
		cache:    cache,
		gapLimit: gapLimit,
		release:  release,
	}
}

func (w *wallet) Descriptor() string {
	return w.desc.String()
}

func (w *wallet) Signers() []domain.Fingerprint {
	fps, err := w.desc.Fingerprints()
	if err != nil {
		// Keys are validated when the wallet is created.
		log.WithError(err).Warn("failed to get descriptor fingerprints")
		return nil
	}
	return fps
}

func (w *wallet) SyncTxs(ctx context.Context) error {
	state, err := w.sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync wallet: %w", err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	w.state = state
	return nil
}

// currentState returns the state of the last sync, syncing if the wallet
// was never synced or if its state is stale.
func (w *wallet) currentState(ctx context.Context) (*walletState, error) {
	w.lock.Lock()
	state := w.state
	w.lock.Unlock()
	if state != nil {
		return state, nil
	}

	if err := w.SyncTxs(ctx); err != nil {
		return nil, err
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.state, nil
}

func (w *wallet) Address(
	ctx context.Context, index *uint32,
) (ports.AddressInfo, error) {
	var i uint32
	switch {
	case !w.desc.isRanged():
		if index != nil && *index != 0 {
			return ports.AddressInfo{}, fmt.Errorf(
				"%w: got %d", domain.ErrIndexNotRanged, *index,
			)
		}
	case index != nil:
		i = *index
	default:
		state, err := w.currentState(ctx)
		if err != nil {
			return ports.AddressInfo{}, err
		}
		i = state.nextIndex[externalChain]
	}

	ds, err := w.desc.deriveScript(externalChain, i)
	if err != nil {
		return ports.AddressInfo{}, err
	}
	addr, err := w.desc.address(ds)
	if err != nil {
		return ports.AddressInfo{}, err
	}
	return ports.AddressInfo{Address: addr, Index: i}, nil
}

// Balance includes unconfirmed utxos. The policy asset is always reported,
// even if zero.
func (w *wallet) Balance(ctx context.Context) (map[string]uint64, error) {
	state, err := w.currentState(ctx)
	if err != nil {
		return nil, err
	}
	balance := map[string]uint64{w.desc.network.AssetID: 0}
	for _, u := range state.utxos {
		balance[u.asset] += u.value
	}
	return balance, nil
}

func (w *wallet) SendMany(
	ctx context.Context, addressees []ports.Addressee, feeRate *float64,
) (*psetv2.Pset, error) {
	recipients, err := w.parseRecipients(addressees)
	if err != nil {
		return nil, err
	}
	rate, err := parseFeeRate(feeRate)
	if err != nil {
		return nil, err
	}
	state, err := w.currentState(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := w.plan(state, txRequest{recipients: recipients, feeRate: rate})
	if err != nil {
		return nil, err
	}
	ptx, err := w.buildPset(plan)
	if err != nil {
		return nil, err
	}
	if err := w.blind(ptx, plan.inputs); err != nil {
		return nil, err
	}

	log.Debugf(
		"created pset with %d inputs, %d outputs and fee %d",
		len(plan.inputs), len(plan.outputs), plan.fee,
	)
	return ptx, nil
}

// IssueAsset creates a pset issuing a new asset, and optionally its
// reissuance token, in the first input. The fee is paid with the policy
// asset.
func (w *wallet) IssueAsset(
	ctx context.Context, args ports.IssueArgs,
) (*psetv2.Pset, error) {
	if args.SatoshiAsset == 0 {
		return nil, fmt.Errorf("%w: asset amount must be positive", domain.ErrInvalidAddressee)
	}
	contract, precision, err := issuanceContract(args.Contract)
	if err != nil {
		return nil, err
	}
	rate, err := parseFeeRate(args.FeeRate)
	if err != nil {
		return nil, err
	}
	state, err := w.currentState(ctx)
	if err != nil {
		return nil, err
	}

	assetAddress, tokenAddress := args.AddressAsset, args.AddressToken
	if assetAddress == "" || (tokenAddress == "" && args.SatoshiToken > 0) {
		addr, err := w.Address(ctx, nil)
		if err != nil {
			return nil, err
		}
		if assetAddress == "" {
			assetAddress = addr.Address
		}
		if tokenAddress == "" {
			tokenAddress = addr.Address
		}
	}

	issuanceAddresses := []string{assetAddress}
	if args.SatoshiToken > 0 {
		issuanceAddresses = append(issuanceAddresses, tokenAddress)
	}
	extraOutputs := make([]walletutil.SizeOutput, 0, len(issuanceAddresses))
	for _, addr := range issuanceAddresses {
		script, blindingKey, err := parseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddressee, err)
		}
		extraOutputs = append(extraOutputs, walletutil.SizeOutput{
			Type:    scriptType(script),
			Blinded: len(blindingKey) > 0,
		})
	}

	plan, err := w.plan(state, txRequest{
		feeRate:      rate,
		extraSize:    issuanceSize,
		extraOutputs: extraOutputs,
	})
	if err != nil {
		return nil, err
	}
	ptx, err := w.buildPset(plan)
	if err != nil {
		return nil, err
	}

	updater, err := psetv2.NewUpdater(ptx)
	if err != nil {
		return nil, err
	}
	issuance := psetv2.AddInIssuanceArgs{
		Precision:    precision,
		Contract:     contract,
		AssetAmount:  args.SatoshiAsset,
		AssetAddress: assetAddress,
	}
	if args.SatoshiToken > 0 {
		issuance.TokenAmount = args.SatoshiToken
		issuance.TokenAddress = tokenAddress
	}
	if err := updater.AddInIssuance(0, issuance); err != nil {
		return nil, fmt.Errorf("failed to add issuance: %w", err)
	}
	if err := w.blind(ptx, plan.inputs); err != nil {
		return nil, err
	}
	return ptx, nil
}

func (w *wallet) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.state = nil
	return w.release()
}

func parseFeeRate(feeRate *float64) (float64, error) {
	if feeRate == nil {
		return defaultFeeRate, nil
	}
	if *feeRate <= 0 {
		return 0, domain.ErrInvalidFeeRate
	}
	return *feeRate, nil
}
