// Package jade implements a client for the Blockstream Jade hardware signer
// speaking the CBOR RPC protocol over a serial connection.
package jade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	log "github.com/sirupsen/logrus"
)

const (
	// NetworkLiquid ...
	NetworkLiquid = "liquid"
	// NetworkTestnet ...
	NetworkTestnet = "testnet-liquid"
	// NetworkRegtest ...
	NetworkRegtest = "localtest-liquid"

	// DefaultPinServerURL is the Blockstream pin server.
	DefaultPinServerURL = "https://jadepin.blockstream.com"

	defaultHTTPTimeout = 30 * time.Second
)

var (
	// ErrClosed is returned when calling a closed client.
	ErrClosed = errors.New("jade connection is closed")
	// ErrMismatchingID is returned when the device replies to another request.
	ErrMismatchingID = errors.New("jade response id does not match request id")
	// ErrAuthFailed is returned when the pin server handshake does not end
	// with the device unlocked.
	ErrAuthFailed = errors.New("jade user authentication failed")
)

// decMode decodes nested maps with string keys so that pin server payloads
// can be relayed as JSON.
var decMode, _ = cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
}.DecMode()

// Error is an error returned by the device.
type Error struct {
	Code    int    `cbor:"code"`
	Message string `cbor:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jade error %d: %s", e.Code, e.Message)
}

type request struct {
	ID     string      `cbor:"id"`
	Method string      `cbor:"method"`
	Params interface{} `cbor:"params,omitempty"`
}

type response struct {
	ID     string          `cbor:"id"`
	Result cbor.RawMessage `cbor:"result,omitempty"`
	Error  *Error          `cbor:"error,omitempty"`
}

// Client sends requests to a Jade device one at a time.
type Client struct {
	lock         sync.Mutex
	enc          *cbor.Encoder
	dec          *cbor.Decoder
	closer       io.Closer
	httpClient   *http.Client
	pinServerURL string
	nextID       uint64
	closed       bool
}

// ClientOpts ...
type ClientOpts struct {
	// PinServerURL overrides the base URL of the pin server requests issued by
	// the device during authentication.
	PinServerURL string
	HTTPClient   *http.Client
}

// NewClient returns a client talking over the given connection. The
// connection is closed by Close if it implements io.Closer.
func NewClient(conn io.ReadWriter, opts ClientOpts) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	closer, _ := conn.(io.Closer)
	return &Client{
		enc:          cbor.NewEncoder(conn),
		dec:          decMode.NewDecoder(conn),
		closer:       closer,
		httpClient:   httpClient,
		pinServerURL: opts.PinServerURL,
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// VersionInfo is the subset of the device info used by the client.
type VersionInfo struct {
	Version  string `cbor:"JADE_VERSION"`
	State    string `cbor:"JADE_STATE"`
	Networks string `cbor:"JADE_NETWORKS"`
}

// IsUnlocked returns whether the device is ready to serve requests.
func (v VersionInfo) IsUnlocked() bool {
	return v.State == "READY"
}

// GetVersionInfo returns the device firmware version and state.
func (c *Client) GetVersionInfo(ctx context.Context) (*VersionInfo, error) {
	info := &VersionInfo{}
	if err := c.call(ctx, "get_version_info", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetXpub returns the extended public key at the given path.
func (c *Client) GetXpub(
	ctx context.Context, network string, path []uint32,
) (string, error) {
	params := map[string]interface{}{
		"network": network,
		"path":    path,
	}
	var xpub string
	if err := c.call(ctx, "get_xpub", params, &xpub); err != nil {
		return "", err
	}
	return xpub, nil
}

// GetMasterBlindingKey returns the slip77 master blinding key.
func (c *Client) GetMasterBlindingKey(ctx context.Context) ([]byte, error) {
	params := map[string]interface{}{"only_if_silent": false}
	var key []byte
	if err := c.call(ctx, "get_master_blinding_key", params, &key); err != nil {
		return nil, err
	}
	return key, nil
}

func (c *Client) call(
	ctx context.Context, method string, params, result interface{},
) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.callLocked(ctx, method, params, result)
}

func (c *Client) callLocked(
	ctx context.Context, method string, params, result interface{},
) error {
	if c.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.nextID++
	id := strconv.FormatUint(c.nextID, 10)
	log.Tracef("jade: sending request %s %s", id, method)

	if err := c.enc.Encode(request{id, method, params}); err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}

	resp := response{}
	if err := c.dec.Decode(&resp); err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.ID != id {
		return ErrMismatchingID
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) <= 0 {
		return nil
	}
	if err := decMode.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}
