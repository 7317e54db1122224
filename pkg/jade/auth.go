package jade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	log "github.com/sirupsen/logrus"
)

// maxAuthSteps bounds the number of pin server round trips of a single
// authentication.
const maxAuthSteps = 10

type httpRequest struct {
	Params struct {
		URLs   []string               `cbor:"urls"`
		Method string                 `cbor:"method"`
		Accept string                 `cbor:"accept"`
		Data   map[string]interface{} `cbor:"data"`
	} `cbor:"params"`
	OnReply string `cbor:"on-reply"`
}

type authReply struct {
	HTTPRequest *httpRequest `cbor:"http_request"`
}

// AuthUser unlocks the device for the given network. The user enters the pin
// on the device, which then drives a handshake with the pin server relayed
// by the client. It returns once the device reports to be unlocked.
func (c *Client) AuthUser(ctx context.Context, network string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	params := map[string]interface{}{
		"network": network,
		"epoch":   time.Now().Unix(),
	}
	method := "auth_user"

	for i := 0; i < maxAuthSteps; i++ {
		var raw cbor.RawMessage
		if err := c.callLocked(ctx, method, params, &raw); err != nil {
			return err
		}
		if len(raw) <= 0 {
			return ErrAuthFailed
		}

		var done bool
		if err := decMode.Unmarshal(raw, &done); err == nil {
			if !done {
				return ErrAuthFailed
			}
			return nil
		}

		reply := authReply{}
		if err := decMode.Unmarshal(raw, &reply); err != nil {
			return fmt.Errorf("unexpected auth_user result: %w", err)
		}
		if reply.HTTPRequest == nil {
			return ErrAuthFailed
		}

		pinServerReply, err := c.relayHTTPRequest(ctx, reply.HTTPRequest)
		if err != nil {
			return err
		}
		method, params = reply.HTTPRequest.OnReply, pinServerReply
	}
	return ErrAuthFailed
}

func (c *Client) relayHTTPRequest(
	ctx context.Context, req *httpRequest,
) (map[string]interface{}, error) {
	var lastErr error
	for _, rawURL := range req.Params.URLs {
		if strings.HasSuffix(rawURL, ".onion") || strings.Contains(rawURL, ".onion/") {
			continue
		}
		reqURL, err := c.rewritePinServerURL(rawURL)
		if err != nil {
			lastErr = err
			continue
		}

		reply, err := c.postJSON(ctx, reqURL, req.Params.Data)
		if err != nil {
			log.WithError(err).Debugf("jade: pin server request to %s failed", reqURL)
			lastErr = err
			continue
		}
		return reply, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no usable pin server url")
	}
	return nil, fmt.Errorf("%w: %s", ErrAuthFailed, lastErr)
}

func (c *Client) rewritePinServerURL(rawURL string) (string, error) {
	if c.pinServerURL == "" {
		return rawURL, nil
	}
	deviceURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(c.pinServerURL)
	if err != nil {
		return "", err
	}
	return base.JoinPath(deviceURL.Path).String(), nil
}

func (c *Client) postJSON(
	ctx context.Context, reqURL string, data map[string]interface{},
) (map[string]interface{}, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, reqURL, bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pin server error %d: %s", resp.StatusCode, buf)
	}

	reply := map[string]interface{}{}
	if err := json.Unmarshal(buf, &reply); err != nil {
		return nil, fmt.Errorf("invalid pin server reply: %w", err)
	}
	return reply, nil
}
