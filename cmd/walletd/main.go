package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tdex-network/walletd/internal/config"
	"github.com/tdex-network/walletd/internal/core/application"
	elementswallet "github.com/tdex-network/walletd/internal/infrastructure/elements-wallet"
	"github.com/tdex-network/walletd/internal/infrastructure/signer"
	jsonrpcinterface "github.com/tdex-network/walletd/internal/interfaces/jsonrpc"
	"github.com/tdex-network/walletd/pkg/stats"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:           "walletd",
		Short:         "Liquid wallet and signer daemon",
		Long:          "walletd manages watch-only Liquid wallets and their signers through a JSON-RPC 2.0 interface",
		Version:       formatVersion(),
		RunE:          action,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flagKeys = []string{
		config.NetworkKey,
		config.DatadirKey,
		config.RPCAddrKey,
		config.RPCWorkersKey,
		config.RPCMaxConnectionsKey,
		config.ExplorerAddrKey,
		config.GapLimitKey,
		config.JadeSerialPortKey,
		config.LogLevelKey,
		config.EnableMetricsKey,
	}
)

func init() {
	flags := app.Flags()
	flags.String("network", "", "the Liquid network, one of liquid, testnet, regtest")
	flags.String("datadir", "", "the directory where the daemon stores its data")
	flags.String("rpc-addr", "", "the <host:port> the JSON-RPC interface listens on")
	flags.Int("rpc-workers", 0, "the max number of requests served concurrently")
	flags.Int("rpc-max-connections", 0, "the max number of open connections")
	flags.String("explorer-addr", "", "the <host[:port]>[/path] of the esplora instance")
	flags.Int("gap-limit", 0, "the number of consecutive unused addresses that stop a sync")
	flags.String("jade-serial-port", "", "the serial device of the Jade, autodetected if empty")
	flags.Int("log-level", 0, "the logging level in range [0, 6]")
	flags.Bool("enable-metrics", false, "expose prometheus metrics on /metrics")
}

func main() {
	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func action(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(cmd.Flags(), flagKeys...); err != nil {
		return err
	}
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.GetBool(config.EnableProfilerKey) {
		stats.EnableMemoryStatistics(
			ctx, config.GetDuration(config.StatsIntervalKey),
			filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
	}

	signerFactory := signer.NewFactory(signer.FactoryOpts{
		SerialPort:   config.GetString(config.JadeSerialPortKey),
		PinServerURL: config.GetString(config.JadePinServerURLKey),
	})
	walletFactory := elementswallet.NewFactory(elementswallet.FactoryOpts{
		GapLimit:                  config.GetInt(config.GapLimitKey),
		ExplorerRequestsPerSecond: config.GetInt(config.ExplorerRequestsPerSecondKey),
		ExplorerTimeout:           config.GetDuration(config.ExplorerTimeoutKey),
	})

	server, err := jsonrpcinterface.NewServer(jsonrpcinterface.ServerOpts{
		Addr:           config.GetString(config.RPCAddrKey),
		Workers:        config.GetInt(config.RPCWorkersKey),
		MaxConnections: config.GetInt(config.RPCMaxConnectionsKey),
		EnableMetrics:  config.GetBool(config.EnableMetricsKey),
		AppConfig: application.Config{
			Network:        config.GetNetwork(),
			Datadir:        config.GetDatadir(),
			ExplorerAddr:   config.GetString(config.ExplorerAddrKey),
			TLS:            config.GetBool(config.TLSKey),
			ValidateDomain: config.GetBool(config.ValidateDomainKey),
			Version:        version,
			WalletFactory:  walletFactory,
			SignerFactory:  signerFactory,
		},
	})
	if err != nil {
		return err
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	log.Infof("walletd %s started on network %s", version, config.GetString(config.NetworkKey))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-sigChan:
		log.Info("shutting down daemon")
		if err := server.Stop(); err != nil {
			log.WithError(err).Warn("error while stopping daemon")
		}
	case <-server.Done():
	}

	if err := server.Wait(); err != nil {
		return err
	}
	log.Info("exiting")
	return nil
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
