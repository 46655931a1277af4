package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/internal/retry"
	"github.com/Chapsvision-dev/volume-backup-client/internal/version"
)

// TokenSource supplies the X-Auth-Token value for each request.
type TokenSource interface {
	Acquire(ctx context.Context) (string, error)
}

// Options configures the HTTP transport.
type Options struct {
	// Endpoint is the service base URL, e.g. https://volume.example.com/v2/<project>.
	Endpoint string
	// Tokens is optional; without it no X-Auth-Token header is sent.
	Tokens TokenSource
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	// Retry applies to GET requests only. Zero value means a single attempt.
	Retry retry.Options
}

// Client is the net/http implementation of Transport. It is safe for
// concurrent use.
type Client struct {
	endpoint  string
	tokens    TokenSource
	http      *http.Client
	userAgent string
	ro        retry.Options
}

var _ Transport = (*Client)(nil)

// NewClient validates opts and returns a transport.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("rest: endpoint is required")
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	ro := opts.Retry
	if ro.MaxAttempts <= 0 {
		ro = retry.None
	}

	return &Client{
		endpoint:  endpoint,
		tokens:    opts.Tokens,
		http:      hc,
		userAgent: ua,
		ro:        ro,
	}, nil
}

// Create POSTs body to path and returns the responseKey member.
func (c *Client) Create(ctx context.Context, path string, body any, responseKey string) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	return extractKey(resp, responseKey)
}

// Get reads a single resource.
func (c *Client) Get(ctx context.Context, path, responseKey string) (json.RawMessage, error) {
	resp, err := c.doIdempotent(ctx, path)
	if err != nil {
		return nil, err
	}
	return extractKey(resp, responseKey)
}

// List reads a collection; the responseKey member must be a JSON array.
func (c *Client) List(ctx context.Context, path, responseKey string) ([]json.RawMessage, error) {
	resp, err := c.doIdempotent(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := extractKey(resp, responseKey)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list: %v", ErrMalformedResponse, responseKey, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// Delete issues a DELETE and discards any response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) doIdempotent(ctx context.Context, path string) ([]byte, error) {
	var out []byte
	attempt := 0
	err := retry.Do(ctx, c.ro, isRetryable, func(ctx context.Context) error {
		attempt++
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			log.Debug().Err(err).Str("action", "rest_get").Str("path", path).
				Int("attempt", attempt).Msg("attempt failed")
			return err
		}
		out = body
		return nil
	})
	return out, err
}

// do performs exactly one round trip.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := c.endpoint + "/" + strings.TrimLeft(path, "/")

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		// Never log the token content.
		token, err := c.tokens.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}
		req.Header.Set("X-Auth-Token", token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	log.Debug().
		Str("action", "rest_call").
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("elapsed_ms", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        url,
			Message:    faultMessage(data),
		}
	}
	return data, nil
}

func extractKey(body []byte, key string) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body, expected %q", ErrMalformedResponse, key)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, key)
	}
	return raw, nil
}

// isRetryable: timeouts, transport failures, 408, 429 and 5xx.
func isRetryable(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, ErrTransport) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests ||
			he.StatusCode == http.StatusRequestTimeout ||
			(he.StatusCode >= 500 && he.StatusCode <= 599)
	}
	return false
}
