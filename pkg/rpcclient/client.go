// Package rpcclient provides a JSON-RPC 2.0 client for walletd.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

const defaultTimeout = 2 * time.Minute

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a new RPC client targeting the given address, either in
// host:port form or as a full URL.
func New(addr string) *Client {
	return NewWithTimeout(addr, defaultTimeout)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	endpoint := addr
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      string      `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// CallRaw invokes a JSON-RPC method and returns the raw result.
func (c *Client) CallRaw(
	ctx context.Context, method string, params interface{},
) (json.RawMessage, error) {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      uuid.NewString(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	if rpcResp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request id %q", rpcResp.ID, req.ID)
	}
	return rpcResp.Result, nil
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided
// pointer. If result is nil, the response result is discarded.
func (c *Client) Call(
	ctx context.Context, method rpcmodel.Method, params, result interface{},
) error {
	raw, err := c.CallRaw(ctx, method.String(), params)
	if err != nil {
		return err
	}
	if result != nil && raw != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var res rpcmodel.VersionResponse
	if err := c.Call(ctx, rpcmodel.MethodVersion, nil, &res); err != nil {
		return "", err
	}
	return res.Version, nil
}

func (c *Client) LoadWallet(
	ctx context.Context, name, descriptor string,
) (*rpcmodel.Wallet, error) {
	var res rpcmodel.Wallet
	req := rpcmodel.LoadWalletRequest{Name: name, Descriptor: descriptor}
	if err := c.Call(ctx, rpcmodel.MethodLoadWallet, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListWallets(ctx context.Context) ([]rpcmodel.Wallet, error) {
	var res rpcmodel.ListWalletsResponse
	if err := c.Call(ctx, rpcmodel.MethodListWallets, nil, &res); err != nil {
		return nil, err
	}
	return res.Wallets, nil
}

func (c *Client) LoadSigner(
	ctx context.Context, req rpcmodel.LoadSignerRequest,
) (*rpcmodel.Signer, error) {
	var res rpcmodel.Signer
	if err := c.Call(ctx, rpcmodel.MethodLoadSigner, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Schema(
	ctx context.Context, method string, direction rpcmodel.Direction,
) (rpcmodel.SchemaResponse, error) {
	var res rpcmodel.SchemaResponse
	req := rpcmodel.SchemaRequest{Method: method, Direction: direction}
	if err := c.Call(ctx, rpcmodel.MethodSchema, req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Stop asks the server to shut down.
func (c *Client) Stop(ctx context.Context) error {
	return c.Call(ctx, rpcmodel.MethodStop, nil, nil)
}
