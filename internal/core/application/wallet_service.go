package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/vulpemventures/go-elements/psetv2"
)

func (s *Service) LoadWallet(
	ctx context.Context, req rpcmodel.LoadWalletRequest,
) (*rpcmodel.Wallet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if req.Name == "" {
		return nil, domain.ErrEmptyName
	}
	if _, err := s.state.wallets.Get(req.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNameAlreadyExists, req.Name)
	}

	wallet, err := s.cfg.WalletFactory.NewWallet(
		ctx, s.cfg.walletConfig(), req.Descriptor,
	)
	if err != nil {
		return nil, err
	}
	if err := s.state.wallets.Insert(req.Name, wallet); err != nil {
		wallet.Close()
		return nil, err
	}

	log.Debugf("loaded wallet %s", req.Name)
	return &rpcmodel.Wallet{Descriptor: req.Descriptor, Name: req.Name}, nil
}

func (s *Service) UnloadWallet(
	_ context.Context, req rpcmodel.UnloadWalletRequest,
) (*rpcmodel.UnloadWalletResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.state.wallets.Remove(req.Name)
	if err != nil {
		return nil, err
	}
	if err := wallet.Close(); err != nil {
		log.WithError(err).Warnf("failed to close wallet %s", req.Name)
	}

	log.Debugf("unloaded wallet %s", req.Name)
	return &rpcmodel.UnloadWalletResponse{
		Unloaded: rpcmodel.Wallet{Descriptor: wallet.Descriptor(), Name: req.Name},
	}, nil
}

func (s *Service) ListWallets(
	_ context.Context, _ rpcmodel.Empty,
) (*rpcmodel.ListWalletsResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entries := s.state.wallets.List()
	wallets := make([]rpcmodel.Wallet, 0, len(entries))
	for _, e := range entries {
		wallets = append(wallets, rpcmodel.Wallet{
			Descriptor: e.Value.Descriptor(),
			Name:       e.Name,
		})
	}
	return &rpcmodel.ListWalletsResponse{Wallets: wallets}, nil
}

func (s *Service) Address(
	ctx context.Context, req rpcmodel.AddressRequest,
) (*rpcmodel.AddressResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.syncedWallet(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	addr, err := wallet.Address(ctx, req.Index)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.AddressResponse{Address: addr.Address, Index: addr.Index}, nil
}

func (s *Service) Balance(
	ctx context.Context, req rpcmodel.BalanceRequest,
) (*rpcmodel.BalanceResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.syncedWallet(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	balance, err := wallet.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.BalanceResponse{Balance: balance}, nil
}

func (s *Service) SendMany(
	ctx context.Context, req rpcmodel.SendManyRequest,
) (*rpcmodel.PsetResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.syncedWallet(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	addressees := make([]ports.Addressee, 0, len(req.Addressees))
	for _, a := range req.Addressees {
		addressees = append(addressees, ports.Addressee{
			Satoshi: a.Satoshi,
			Address: a.Address,
			Asset:   a.Asset,
		})
	}
	pset, err := wallet.SendMany(ctx, addressees, req.FeeRate)
	if err != nil {
		return nil, err
	}
	return psetResponse(pset)
}

func (s *Service) Issue(
	ctx context.Context, req rpcmodel.IssueRequest,
) (*rpcmodel.PsetResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.syncedWallet(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	pset, err := wallet.IssueAsset(ctx, ports.IssueArgs{
		SatoshiAsset: req.SatoshiAsset,
		AddressAsset: stringOrEmpty(req.AddressAsset),
		SatoshiToken: req.SatoshiToken,
		AddressToken: stringOrEmpty(req.AddressToken),
		Contract:     stringOrEmpty(req.Contract),
		FeeRate:      req.FeeRate,
	})
	if err != nil {
		return nil, err
	}
	return psetResponse(pset)
}

func (s *Service) Broadcast(
	ctx context.Context, req rpcmodel.BroadcastRequest,
) (*rpcmodel.BroadcastResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.state.wallets.Get(req.Name)
	if err != nil {
		return nil, err
	}
	pset, err := parsePset(req.Pset)
	if err != nil {
		return nil, err
	}
	tx, err := wallet.Finalize(ctx, pset)
	if err != nil {
		return nil, err
	}

	if !req.DryRun {
		if _, err := wallet.Broadcast(ctx, tx); err != nil {
			return nil, err
		}
		log.Debugf("wallet %s broadcasted tx %s", req.Name, tx.Txid)
	}
	return &rpcmodel.BroadcastResponse{Txid: tx.Txid}, nil
}

// WalletDetails classifies the wallet descriptor and resolves its signers.
// Unlike WalletPsetDetails, it also reports duplicated fingerprints among
// the wallet signers.
func (s *Service) WalletDetails(
	_ context.Context, req rpcmodel.WalletDetailsRequest,
) (*rpcmodel.WalletDetailsResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.state.wallets.Get(req.Name)
	if err != nil {
		return nil, err
	}
	resolver, err := s.fingerprintResolver()
	if err != nil {
		return nil, err
	}

	fingerprints := wallet.Signers()
	if !domain.HasUniqueFingerprints(fingerprints) {
		resolver.AddDuplicateWarning(domain.WarningDuplicateWalletSigners)
	}

	return &rpcmodel.WalletDetailsResponse{
		Type:     domain.ClassifyDescriptor(wallet.Descriptor()).String(),
		Signers:  resolveSigners(resolver, fingerprints),
		Warnings: resolver.JoinedWarnings(),
	}, nil
}

func (s *Service) WalletCombine(
	ctx context.Context, req rpcmodel.WalletCombineRequest,
) (*rpcmodel.PsetResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.state.wallets.Get(req.Name)
	if err != nil {
		return nil, err
	}
	if len(req.Pset) <= 0 {
		return nil, paramError(ErrMissingPsets)
	}

	psets := make([]*psetv2.Pset, 0, len(req.Pset))
	for _, str := range req.Pset {
		pset, err := parsePset(str)
		if err != nil {
			return nil, err
		}
		psets = append(psets, pset)
	}

	pset, err := wallet.Combine(ctx, psets)
	if err != nil {
		return nil, err
	}
	return psetResponse(pset)
}

func (s *Service) WalletPsetDetails(
	ctx context.Context, req rpcmodel.WalletPsetDetailsRequest,
) (*rpcmodel.WalletPsetDetailsResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.state.wallets.Get(req.Name)
	if err != nil {
		return nil, err
	}
	pset, err := parsePset(req.Pset)
	if err != nil {
		return nil, err
	}
	details, err := wallet.PsetDetails(ctx, pset)
	if err != nil {
		return nil, err
	}
	resolver, err := s.fingerprintResolver()
	if err != nil {
		return nil, err
	}

	return &rpcmodel.WalletPsetDetailsResponse{
		HasSignaturesFrom:     resolveSigners(resolver, details.FingerprintsHas),
		MissingSignaturesFrom: resolveSigners(resolver, details.FingerprintsMissing),
		Warnings:              resolver.JoinedWarnings(),
	}, nil
}

// syncedWallet returns the named wallet after a synchronization pass.
func (s *Service) syncedWallet(ctx context.Context, name string) (ports.Wallet, error) {
	wallet, err := s.state.wallets.Get(name)
	if err != nil {
		return nil, err
	}
	if err := wallet.SyncTxs(ctx); err != nil {
		return nil, fmt.Errorf("failed to sync wallet %s: %w", name, err)
	}
	return wallet, nil
}

func resolveSigners(
	resolver *domain.FingerprintResolver, fingerprints []domain.Fingerprint,
) []rpcmodel.SignerDetails {
	signers := make([]rpcmodel.SignerDetails, 0, len(fingerprints))
	for _, fp := range fingerprints {
		signers = append(signers, rpcmodel.SignerDetails{
			Name:        resolver.Resolve(fp),
			Fingerprint: fp.String(),
		})
	}
	return signers
}

func psetResponse(pset *psetv2.Pset) (*rpcmodel.PsetResponse, error) {
	str, err := pset.ToBase64()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize pset: %w", err)
	}
	return &rpcmodel.PsetResponse{Pset: str}, nil
}

func stringOrEmpty(str *string) string {
	if str == nil {
		return ""
	}
	return *str
}
