// Package recharge provides the HTTP client for the Recharge billing API.
package recharge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seasonalbox/boxsync/config"
	"github.com/seasonalbox/boxsync/internal/domain/model"
)

const maxResponseBodyBytes = 256 * 1024 // billing list endpoints can be chatty

// APIError is returned when the billing API answers with a non-2xx status.
// The truncated response body is kept for quarantine records and job results.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billing api status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth a retry. Client errors
// other than 429 indicate a bad request and retrying would not help.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOptions configures the billing client.
type ClientOptions struct {
	Config     config.RechargeConfig
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client executes billing API calls described by model.RechargeQuery values.
type Client struct {
	base   string
	token  string
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a billing client from configuration.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Config.APIBase == "" {
		return nil, errors.New("billing api base is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Config.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(opts.Config.APIBase, "/"),
		token:  opts.Config.APIToken,
		http:   hc,
		logger: logger.With("component", "recharge_client"),
	}, nil
}

// Do executes a single billing API call and returns the raw JSON response.
func (c *Client) Do(ctx context.Context, q model.RechargeQuery) (json.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.base + q.Path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if len(q.Params) > 0 {
		values := u.Query()
		for k, v := range q.Params {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(q.Method), u.String(), bytesReader(q.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Recharge-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if len(q.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	body, readErr := readLimitedBody(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = fmt.Errorf("close response body: %w", closeErr)
	}
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.RawMessage(body), nil
}

func bytesReader(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}

func readLimitedBody(body io.Reader) ([]byte, error) {
	limited := io.LimitReader(body, maxResponseBodyBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(data) > maxResponseBodyBytes {
		data = data[:maxResponseBodyBytes]
	}
	return data, nil
}
