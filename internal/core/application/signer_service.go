package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

// GenerateSigner returns a fresh mnemonic without loading any signer.
func (s *Service) GenerateSigner(
	_ context.Context, _ rpcmodel.Empty,
) (*rpcmodel.GenerateSignerResponse, error) {
	mnemonic, err := s.cfg.SignerFactory.NewMnemonic()
	if err != nil {
		return nil, err
	}
	return &rpcmodel.GenerateSignerResponse{Mnemonic: mnemonic}, nil
}

func (s *Service) LoadSigner(
	ctx context.Context, req rpcmodel.LoadSignerRequest,
) (*rpcmodel.Signer, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if req.Name == "" {
		return nil, domain.ErrEmptyName
	}
	if _, err := s.state.signers.Get(req.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNameAlreadyExists, req.Name)
	}

	var signer appSigner
	switch req.Kind {
	case SignerKindSoftware:
		if req.Mnemonic == nil {
			return nil, paramError(ErrMissingMnemonic)
		}
		sg, err := s.cfg.SignerFactory.NewSoftwareSigner(
			*req.Mnemonic, s.cfg.isMainnet(),
		)
		if err != nil {
			return nil, paramError(err)
		}
		signer = availableSigner{sg}
	case SignerKindSerial:
		sg, err := s.cfg.SignerFactory.NewSerialSigner(ctx, s.cfg.Network.Name)
		if err != nil {
			return nil, err
		}
		signer = availableSigner{sg}
	case SignerKindExternal:
		if req.Fingerprint == nil {
			return nil, paramError(ErrMissingFingerprint)
		}
		fp, err := domain.ParseFingerprint(*req.Fingerprint)
		if err != nil {
			return nil, err
		}
		signer = externalSigner{fp}
	default:
		return nil, paramErrorf("%w, got %q", ErrInvalidSignerKind, req.Kind)
	}

	info, err := signerInfo(req.Name, signer)
	if err != nil {
		closeSigner(signer)
		return nil, err
	}
	if err := s.state.signers.Insert(req.Name, signer); err != nil {
		closeSigner(signer)
		return nil, err
	}

	log.Debugf("loaded %s signer %s", req.Kind, req.Name)
	return info, nil
}

func (s *Service) UnloadSigner(
	_ context.Context, req rpcmodel.UnloadSignerRequest,
) (*rpcmodel.UnloadSignerResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	signer, err := s.state.signers.Get(req.Name)
	if err != nil {
		return nil, err
	}
	info, err := signerInfo(req.Name, signer)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck
	s.state.signers.Remove(req.Name)
	if err := closeSigner(signer); err != nil {
		log.WithError(err).Warnf("failed to close signer %s", req.Name)
	}

	log.Debugf("unloaded signer %s", req.Name)
	return &rpcmodel.UnloadSignerResponse{Unloaded: *info}, nil
}

func (s *Service) ListSigners(
	_ context.Context, _ rpcmodel.Empty,
) (*rpcmodel.ListSignersResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entries := s.state.signers.List()
	signers := make([]rpcmodel.Signer, 0, len(entries))
	for _, e := range entries {
		info, err := signerInfo(e.Name, e.Value)
		if err != nil {
			return nil, err
		}
		signers = append(signers, *info)
	}
	return &rpcmodel.ListSignersResponse{Signers: signers}, nil
}

func (s *Service) SinglesigDescriptor(
	_ context.Context, req rpcmodel.SinglesigDescriptorRequest,
) (*rpcmodel.DescriptorResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	signer, err := s.getAvailableSigner(req.Name)
	if err != nil {
		return nil, err
	}
	variant, err := domain.ParseSinglesigVariant(req.SinglesigKind)
	if err != nil {
		return nil, err
	}
	blinding, err := domain.ParseBlindingKeyVariant(req.DescriptorBlindingKey)
	if err != nil {
		return nil, err
	}

	descriptor, err := domain.NewSinglesigDescriptor(signer, variant, blinding)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.DescriptorResponse{Descriptor: descriptor}, nil
}

// MultisigDescriptor builds a descriptor out of the given key origin xpubs.
// It does not access the loaded signers.
func (s *Service) MultisigDescriptor(
	_ context.Context, req rpcmodel.MultisigDescriptorRequest,
) (*rpcmodel.DescriptorResponse, error) {
	variant, err := domain.ParseMultisigVariant(req.MultisigKind)
	if err != nil {
		return nil, err
	}
	blinding, err := domain.ParseBlindingKeyVariant(req.DescriptorBlindingKey)
	if err != nil {
		return nil, err
	}

	keys := make([]domain.KeyOriginXpub, 0, len(req.KeyoriginXpubs))
	for _, str := range req.KeyoriginXpubs {
		key, err := domain.ParseKeyOriginXpub(str)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *key)
	}

	descriptor, err := domain.NewMultisigDescriptor(req.Threshold, keys, variant, blinding)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.DescriptorResponse{Descriptor: descriptor}, nil
}

func (s *Service) Xpub(
	_ context.Context, req rpcmodel.XpubRequest,
) (*rpcmodel.XpubResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	signer, err := s.getAvailableSigner(req.Name)
	if err != nil {
		return nil, err
	}
	bip, err := domain.ParseBipVariant(req.XpubKind)
	if err != nil {
		return nil, err
	}
	key, err := domain.NewKeyOriginXpub(signer, bip)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.XpubResponse{KeyoriginXpub: key.String()}, nil
}

// Sign adds the signatures of the named signer to the given pset. External
// signers are rejected before the pset is parsed.
func (s *Service) Sign(
	ctx context.Context, req rpcmodel.SignRequest,
) (*rpcmodel.PsetResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	signer, err := s.getAvailableSigner(req.Name)
	if err != nil {
		return nil, err
	}
	pset, err := parsePset(req.Pset)
	if err != nil {
		return nil, err
	}

	count, err := signer.Sign(ctx, pset)
	if err != nil {
		return nil, err
	}
	log.Debugf("signer %s added %d signatures", req.Name, count)

	return psetResponse(pset)
}
