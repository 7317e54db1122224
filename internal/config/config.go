package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vulpemventures/go-elements/network"
)

const (
	// NetworkKey is the Liquid network the daemon runs on, one of liquid,
	// testnet and regtest.
	NetworkKey = "NETWORK"
	// DatadirKey is the local data directory to store the internal state of
	// the daemon.
	DatadirKey = "DATADIR"
	// RPCAddrKey is the address <host:port> the JSON-RPC interface listens on.
	RPCAddrKey = "RPC_ADDR"
	// RPCWorkersKey is the max number of requests served concurrently.
	RPCWorkersKey = "RPC_WORKERS"
	// RPCMaxConnectionsKey is the max number of open connections, websockets
	// included.
	RPCMaxConnectionsKey = "RPC_MAX_CONNECTIONS"
	// ExplorerAddrKey is the <host[:port]>[/path] of the esplora instance
	// used to sync wallets and broadcast transactions.
	ExplorerAddrKey = "EXPLORER_ADDR"
	// TLSKey enables https towards the explorer.
	TLSKey = "TLS"
	// ValidateDomainKey enables the verification of the explorer TLS
	// certificate.
	ValidateDomainKey = "VALIDATE_DOMAIN"
	// ExplorerRequestsPerSecondKey is the max number of requests per second
	// sent to the explorer.
	ExplorerRequestsPerSecondKey = "EXPLORER_REQUESTS_PER_SECOND"
	// ExplorerTimeoutKey is the timeout of any explorer HTTP request.
	ExplorerTimeoutKey = "EXPLORER_TIMEOUT"
	// GapLimitKey is the number of consecutive unused addresses after which
	// the wallet sync stops.
	GapLimitKey = "GAP_LIMIT"
	// JadeSerialPortKey is the serial device of the Jade hardware signer.
	// If empty, the device is looked up among the connected ones.
	JadeSerialPortKey = "JADE_SERIAL_PORT"
	// JadePinServerURLKey is the blind oracle used to unlock the Jade.
	JadePinServerURLKey = "JADE_PIN_SERVER_URL"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// EnableMetricsKey exposes prometheus metrics on the /metrics path of the
	// RPC interface.
	EnableMetricsKey = "ENABLE_METRICS"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic runtime statistics
	StatsIntervalKey = "STATS_INTERVAL"

	CacheLocation    = "cache"
	ProfilerLocation = "stats"

	defaultNetwork        = "liquid"
	defaultWorkers        = 4
	defaultMaxConnections = 256
	defaultGapLimit       = 20
	defaultPinServer      = "https://jadepin.blockstream.com"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("walletd", false)

	networks = map[string]*network.Network{
		"liquid":  &network.Liquid,
		"testnet": &network.Testnet,
		"regtest": &network.Regtest,
	}
	defaultRPCAddrs = map[string]string{
		"liquid":  "127.0.0.1:32110",
		"testnet": "127.0.0.1:32111",
		"regtest": "127.0.0.1:32112",
	}
	defaultExplorerAddrs = map[string]string{
		"liquid":  "blockstream.info/liquid/api",
		"testnet": "blockstream.info/liquidtestnet/api",
		"regtest": "localhost:3001",
	}
)

func init() {
	vip = viper.New()
}

// BindFlags makes the given command line flags override the environment.
// Flag names are the lowercase, dash separated version of the keys.
func BindFlags(flags *pflag.FlagSet, keys ...string) error {
	for _, key := range keys {
		name := flagName(key)
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %s", name)
		}
		if err := vip.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func InitConfig() error {
	vip.SetEnvPrefix("WALLETD")
	vip.AutomaticEnv()

	vip.SetDefault(NetworkKey, defaultNetwork)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(RPCWorkersKey, defaultWorkers)
	vip.SetDefault(RPCMaxConnectionsKey, defaultMaxConnections)
	vip.SetDefault(ValidateDomainKey, true)
	vip.SetDefault(ExplorerRequestsPerSecondKey, 10)
	vip.SetDefault(ExplorerTimeoutKey, 30*time.Second)
	vip.SetDefault(GapLimitKey, defaultGapLimit)
	vip.SetDefault(JadePinServerURLKey, defaultPinServer)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(EnableMetricsKey, false)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600*time.Second)

	net := GetString(NetworkKey)
	if _, ok := networks[net]; !ok {
		return fmt.Errorf(
			"error while validating config: unknown network %s, must be one of liquid, testnet, regtest",
			net,
		)
	}
	vip.SetDefault(RPCAddrKey, defaultRPCAddrs[net])
	vip.SetDefault(ExplorerAddrKey, defaultExplorerAddrs[net])
	vip.SetDefault(TLSKey, net != "regtest")

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetNetwork returns the configured network. It must be called after
// InitConfig.
func GetNetwork() *network.Network {
	return networks[GetString(NetworkKey)]
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}
	if len(GetString(RPCAddrKey)) <= 0 {
		return fmt.Errorf("missing rpc address")
	}
	if GetInt(RPCWorkersKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", RPCWorkersKey)
	}
	if GetInt(RPCMaxConnectionsKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", RPCMaxConnectionsKey)
	}
	if len(GetString(ExplorerAddrKey)) <= 0 {
		return fmt.Errorf("missing explorer address")
	}
	if GetInt(ExplorerRequestsPerSecondKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", ExplorerRequestsPerSecondKey)
	}
	if GetDuration(ExplorerTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be a positive duration", ExplorerTimeoutKey)
	}
	if GetInt(GapLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", GapLimitKey)
	}
	if lvl := GetInt(LogLevelKey); lvl < 0 || lvl > 6 {
		return fmt.Errorf("%s must be in range [0, 6]", LogLevelKey)
	}
	if GetBool(EnableProfilerKey) && GetDuration(StatsIntervalKey) <= 0 {
		return fmt.Errorf("%s must be a positive duration", StatsIntervalKey)
	}
	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, CacheLocation)); err != nil {
		return err
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func flagName(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}
