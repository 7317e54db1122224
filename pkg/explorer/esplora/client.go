package esplora

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/walletd/pkg/explorer"
)

type httpResponse struct {
	status int
	body   string
}

// newHTTPRequest performs the request once the rate limiter allows it.
// Transport failures and server errors are accounted by the circuit
// breaker, client errors are returned as a status to the caller.
func (e *esplora) newHTTPRequest(
	ctx context.Context, method, url, body string, header map[string]string,
) (int, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	e.limiter.Take()

	res, err := e.cb.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		for key, value := range header {
			req.Header.Set(key, value)
		}

		rs, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer rs.Body.Close()

		buf, err := io.ReadAll(rs.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		resp := &httpResponse{rs.StatusCode, strings.TrimSpace(string(buf))}
		if rs.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("explorer error %d: %s", resp.status, resp.body)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, "", explorer.ErrServiceUnavailable
		}
		return 0, "", err
	}

	resp := res.(*httpResponse)
	return resp.status, resp.body, nil
}

func (e *esplora) get(ctx context.Context, url string) (string, error) {
	status, resp, err := e.newHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", explorer.ErrTransactionNotFound, resp)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("explorer error %d: %s", status, resp)
	}
	return resp, nil
}
