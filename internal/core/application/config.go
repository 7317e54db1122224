package application

import (
	"fmt"

	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/vulpemventures/go-elements/network"
)

type Config struct {
	Network        *network.Network
	Datadir        string
	ExplorerAddr   string
	TLS            bool
	ValidateDomain bool
	Version        string

	WalletFactory ports.WalletFactory
	SignerFactory ports.SignerFactory
}

func (c Config) Validate() error {
	if c.Network == nil {
		return fmt.Errorf("missing network")
	}
	if len(c.Datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}
	if len(c.ExplorerAddr) <= 0 {
		return fmt.Errorf("missing explorer address")
	}
	if c.WalletFactory == nil {
		return fmt.Errorf("missing wallet factory")
	}
	if c.SignerFactory == nil {
		return fmt.Errorf("missing signer factory")
	}
	return nil
}

func (c Config) walletConfig() ports.WalletConfig {
	return ports.WalletConfig{
		Network:        c.Network.Name,
		Endpoint:       c.ExplorerAddr,
		TLS:            c.TLS,
		ValidateDomain: c.ValidateDomain,
		Datadir:        c.Datadir,
	}
}

func (c Config) isMainnet() bool {
	return c.Network.Name == network.Liquid.Name
}
