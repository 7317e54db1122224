package application

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/vulpemventures/go-elements/psetv2"
)

// sessionState is everything shared between requests. It must be accessed
// only while holding Service.lock.
type sessionState struct {
	wallets *domain.Registry[ports.Wallet]
	signers *domain.Registry[appSigner]
	assets  *domain.AssetCache
}

// Service serves the daemon methods over the loaded wallets and signers.
// Every method accessing the session state holds the service lock for its
// whole duration, wallet synchronizations included, therefore requests are
// serialized.
type Service struct {
	cfg Config

	lock  sync.Mutex
	state *sessionState
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Service{
		cfg: cfg,
		state: &sessionState{
			wallets: domain.NewRegistry[ports.Wallet](),
			signers: domain.NewRegistry[appSigner](),
			assets:  domain.NewAssetCache(cfg.Network),
		},
	}, nil
}

// Close releases every loaded wallet and signer.
func (s *Service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, e := range s.state.wallets.List() {
		if err := e.Value.Close(); err != nil {
			log.WithError(err).Warnf("failed to close wallet %s", e.Name)
		}
		//nolint:errcheck
		s.state.wallets.Remove(e.Name)
	}
	for _, e := range s.state.signers.List() {
		if err := closeSigner(e.Value); err != nil {
			log.WithError(err).Warnf("failed to close signer %s", e.Name)
		}
		//nolint:errcheck
		s.state.signers.Remove(e.Name)
	}
}

func (s *Service) getAvailableSigner(name string) (ports.Signer, error) {
	signer, err := s.state.signers.Get(name)
	if err != nil {
		return nil, err
	}
	switch sg := signer.(type) {
	case availableSigner:
		return sg.Signer, nil
	case externalSigner:
		return nil, fmt.Errorf("%w: %s", ErrSignerNotAvailable, name)
	default:
		panic(fmt.Sprintf("unexpected signer type %T", signer))
	}
}

// fingerprintResolver returns a resolver over a snapshot of the loaded
// signers.
func (s *Service) fingerprintResolver() (*domain.FingerprintResolver, error) {
	entries := s.state.signers.List()
	signers := make([]domain.NamedFingerprint, 0, len(entries))
	for _, e := range entries {
		fp, err := signerFingerprint(e.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to get fingerprint of signer %s: %w", e.Name, err)
		}
		signers = append(signers, domain.NamedFingerprint{Name: e.Name, Fingerprint: fp})
	}
	return domain.NewFingerprintResolver(signers), nil
}

func parsePset(str string) (*psetv2.Pset, error) {
	pset, err := psetv2.NewPsetFromBase64(str)
	if err != nil {
		return nil, paramError(fmt.Errorf("%w: %s", ErrInvalidPset, err))
	}
	return pset, nil
}
