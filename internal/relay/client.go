package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 15 * time.Second

// Client talks to a remote message store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithRetry sets the retry policy. nil disables retries.
func WithRetry(cfg *RetryConfig) Option {
	return func(c *Client) {
		if cfg == nil {
			cfg = &RetryConfig{}
		}
		c.retry = cfg
	}
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the store at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid store URL %q", baseURL)
	}

	c := &Client{
		baseURL:    u.String(),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retry:      DefaultRetryConfig(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the store URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send stores data and returns the id it can be received with.
func (c *Client) Send(ctx context.Context, data string) (string, error) {
	req := sendRequest{EncryptedPayload: payload{VisualData: data}}
	var resp sendResponse
	if err := c.do(ctx, http.MethodPost, "/send", req, &resp, retryAny); err != nil {
		return "", err
	}
	if resp.MsgID == "" {
		return "", fmt.Errorf("store returned no message id")
	}
	return resp.MsgID, nil
}

// Receive fetches the data stored under id. The store forgets it afterwards,
// so a request that may have reached the store is never repeated.
func (c *Client) Receive(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrNotFound
	}
	var resp payload
	if err := c.do(ctx, http.MethodGet, "/receive/"+url.PathEscape(id), nil, &resp, retryUnserved); err != nil {
		return "", err
	}
	return resp.VisualData, nil
}

// retryFilter narrows which failures the retry policy may repeat. status is
// 0 when err is set.
type retryFilter func(err error, status int) bool

func retryAny(error, int) bool { return true }

// retryUnserved accepts only failures where the store cannot have handled
// the request: a refused dial or an explicit 429/503.
func retryUnserved(err error, status int) bool {
	if err != nil {
		var opErr *net.OpError
		return errors.As(err, &opErr) && opErr.Op == "dial"
	}
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, retryable retryFilter) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	endpoint := c.baseURL + path
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if data != nil {
			bodyReader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		status := 0
		if err == nil {
			status = resp.StatusCode
		}

		if (err != nil || status >= 400) && ctx.Err() == nil &&
			retryable(err, status) && c.retry.ShouldRetry(attempt, status) {
			if resp != nil {
				resp.Body.Close()
			}
			c.logger.Warn("store request failed, retrying", "url", endpoint, "attempt", attempt+1, "status", status, "error", err)
			if werr := c.retry.Wait(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &NetworkError{Err: err, URL: endpoint, Attempt: attempt + 1}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return parseErrorResponse(resp)
		}
		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		case errResp.Detail != nil:
			return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprint(errResp.Detail)}
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// IsUnavailable reports whether err means the store could not be reached
// or kept failing server-side.
func IsUnavailable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}
