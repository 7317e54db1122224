package esplora

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/walletd/pkg/circuitbreaker"
	"github.com/tdex-network/walletd/pkg/explorer"
	"go.uber.org/ratelimit"
)

const (
	defaultRequestsPerSecond = 10
	defaultTimeout           = 30 * time.Second
	// maxConcurrentRequests limits the number of txs fetched in parallel.
	maxConcurrentRequests = 8
)

// ServiceOpts ...
type ServiceOpts struct {
	// Addr is the <host[:port]>[/path] of the esplora REST API. A URL with
	// scheme is accepted as well, in which case TLS is ignored.
	Addr              string
	TLS               bool
	ValidateDomain    bool
	RequestsPerSecond int
	Timeout           time.Duration
}

func (o ServiceOpts) validate() error {
	if len(o.Addr) <= 0 {
		return fmt.Errorf("missing explorer address")
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func (o ServiceOpts) apiURL() string {
	addr := strings.TrimSuffix(o.Addr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if o.TLS {
		return "https://" + addr
	}
	return "http://" + addr
}

type esplora struct {
	apiURL  string
	client  *http.Client
	limiter ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
}

// NewService returns a new esplora service as an explorer.Service interface.
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = defaultRequestsPerSecond
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	//nolint:gosec
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !opts.ValidateDomain}

	return &esplora{
		apiURL:  opts.apiURL(),
		client:  &http.Client{Timeout: timeout, Transport: transport},
		limiter: ratelimit.New(rps),
		cb:      circuitbreaker.NewCircuitBreaker("esplora"),
	}, nil
}
