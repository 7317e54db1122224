package application

import (
	"context"
	"encoding/json"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

// Schema returns the JSON schema of the params or the result of another
// method.
func (s *Service) Schema(
	_ context.Context, req rpcmodel.SchemaRequest,
) (*rpcmodel.SchemaResponse, error) {
	method, err := rpcmodel.ParseMethod(req.Method)
	if err != nil {
		return nil, paramError(err)
	}
	direction, err := rpcmodel.ParseDirection(string(req.Direction))
	if err != nil {
		return nil, paramError(err)
	}

	buf, err := rpcmodel.Schema(method, direction)
	if err != nil {
		return nil, err
	}
	schema := rpcmodel.SchemaResponse{}
	if err := json.Unmarshal(buf, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func (s *Service) Version(
	_ context.Context, _ rpcmodel.Empty,
) (*rpcmodel.VersionResponse, error) {
	return &rpcmodel.VersionResponse{Version: s.cfg.Version}, nil
}

// Contract validates the given contract and returns it.
func (s *Service) Contract(
	_ context.Context, req rpcmodel.ContractRequest,
) (*rpcmodel.ContractResponse, error) {
	c, err := domain.NewContract(
		req.Domain, req.IssuerPubkey, req.Name, req.Precision, req.Ticker, req.Version,
	)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.ContractResponse{
		Entity:       rpcmodel.ContractEntity{Domain: c.Entity.Domain},
		IssuerPubkey: c.IssuerPubkey,
		Name:         c.Name,
		Precision:    c.Precision,
		Ticker:       c.Ticker,
		Version:      c.Version,
	}, nil
}

func (s *Service) AssetDetails(
	_ context.Context, req rpcmodel.AssetDetailsRequest,
) (*rpcmodel.AssetDetailsResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	asset, err := s.state.assets.Get(req.AssetID)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.AssetDetailsResponse{Name: asset.Name}, nil
}

// Stop always returns ErrStop, the transport is in charge of replying and
// then shutting down.
func (s *Service) Stop(_ context.Context, _ rpcmodel.Empty) (*rpcmodel.Empty, error) {
	return nil, ErrStop
}
