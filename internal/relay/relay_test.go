package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/illarion/varicrypt/internal/storage"
)

func fastRetry() *RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "relay.varicrypt"), storage.DefaultTTL)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(NewHandler(store, nil))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithRetry(fastRetry()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, c
}

func TestSendReceive(t *testing.T) {
	ctx := context.Background()
	_, c := newTestServer(t)

	id, err := c.Send(ctx, "a0b1c2d3")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id == "" {
		t.Fatal("Send() returned empty id")
	}

	got, err := c.Receive(ctx, id)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got != "a0b1c2d3" {
		t.Errorf("Receive() = %q, want a0b1c2d3", got)
	}

	if _, err := c.Receive(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Second Receive() error = %v, want ErrNotFound", err)
	}
	if _, err := c.Receive(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Receive(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestSymbolPayloadSurvivesTransport(t *testing.T) {
	ctx := context.Background()
	_, c := newTestServer(t)

	text := "ΑΒΓ☀☁∑∫xyz09"
	id, err := c.Send(ctx, text)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got, err := c.Receive(ctx, id)
	if err != nil || got != text {
		t.Errorf("Receive() = %q, %v", got, err)
	}
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", "hello", http.StatusBadRequest},
		{"missing payload", `{}`, http.StatusBadRequest},
		{"blank payload", `{"encrypted_payload":{"visual_data":"  "}}`, http.StatusBadRequest},
		{"too large", `{"encrypted_payload":{"visual_data":"` + strings.Repeat("a", MaxPayloadBytes) + `"}}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/send", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/send")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /send status = %d, want 405", resp.StatusCode)
	}
}

func TestClientRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "waking up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"msg_id":"m-1"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(fastRetry()))
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.Send(context.Background(), "ff")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != "m-1" || calls.Load() != 3 {
		t.Errorf("id = %q after %d calls", id, calls.Load())
	}
}

func TestClientGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"upstream down"}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, WithRetry(fastRetry()))
	_, err := c.Send(context.Background(), "ff")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 502 || apiErr.Message != "upstream down" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !IsUnavailable(err) {
		t.Error("IsUnavailable() = false for 502")
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want 4", calls.Load())
	}
}

func TestReceiveNotRepeatedAfterAmbiguousFailure(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// The first call may have consumed the message
				if calls.Add(1) == 1 {
					w.WriteHeader(status)
					return
				}
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			}))
			defer srv.Close()

			c, _ := New(srv.URL, WithRetry(fastRetry()))
			_, err := c.Receive(context.Background(), "abc")

			if errors.Is(err, ErrNotFound) {
				t.Fatalf("lost response reported as not found: %v", err)
			}
			if !IsUnavailable(err) {
				t.Errorf("IsUnavailable() = false for %v", err)
			}
			if calls.Load() != 1 {
				t.Errorf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestReceiveRetriesUnserved(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(status)
					return
				}
				w.Write([]byte(`{"visual_data":"ff"}`))
			}))
			defer srv.Close()

			c, _ := New(srv.URL, WithRetry(fastRetry()))
			got, err := c.Receive(context.Background(), "abc")
			if err != nil {
				t.Fatalf("Receive() error = %v", err)
			}
			if got != "ff" || calls.Load() != 2 {
				t.Errorf("Receive() = %q after %d calls", got, calls.Load())
			}
		})
	}
}

func TestRetryUnserved(t *testing.T) {
	dial := &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	read := &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}}

	tests := []struct {
		err    error
		status int
		want   bool
	}{
		{dial, 0, true},
		{read, 0, false},
		{io.ErrUnexpectedEOF, 0, false},
		{nil, http.StatusTooManyRequests, true},
		{nil, http.StatusServiceUnavailable, true},
		{nil, http.StatusInternalServerError, false},
		{nil, http.StatusBadGateway, false},
		{nil, http.StatusGatewayTimeout, false},
	}
	for _, tt := range tests {
		if got := retryUnserved(tt.err, tt.status); got != tt.want {
			t.Errorf("retryUnserved(%v, %d) = %v, want %v", tt.err, tt.status, got, tt.want)
		}
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, _ := New(addr, WithRetry(nil))
	_, err := c.Send(context.Background(), "ff")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
	if netErr.Attempt != 1 {
		t.Errorf("Attempt = %d, want 1", netErr.Attempt)
	}
	if !IsUnavailable(err) {
		t.Error("IsUnavailable() = false for network error")
	}
}

func TestClientContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour
	c, _ := New(srv.URL, WithRetry(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Send(ctx, "ff"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "relay.example", "ftp://relay.example", "http://"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) should fail", u)
		}
	}
	c, err := New("https://relay.example/")
	if err != nil || c.BaseURL() != "https://relay.example" {
		t.Errorf("New() = %v, %v", c, err)
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{404, ErrNotFound, true},
		{404, storage.ErrNotFound, true},
		{429, ErrRateLimited, true},
		{400, ErrBadRequest, true},
		{422, ErrBadRequest, true},
		{500, ErrNotFound, false},
		{404, ErrRateLimited, false},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status}
		if got := errors.Is(err, tt.target); got != tt.want {
			t.Errorf("errors.Is(%d, %v) = %v, want %v", tt.status, tt.target, got, tt.want)
		}
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		name       string
		attempt    int
		statusCode int
		expected   bool
	}{
		{"network failure", 0, 0, true},
		{"retryable 503", 2, 503, true},
		{"max attempts reached", 3, 503, false},
		{"non-retryable 404", 0, 404, false},
		{"non-retryable 400", 0, 400, false},
		{"retryable 429", 0, 429, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ShouldRetry(tt.attempt, tt.statusCode); got != tt.expected {
				t.Errorf("ShouldRetry(%d, %d) = %v, want %v", tt.attempt, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2.0}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 20; i++ {
		if d := cfg.Delay(0); d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("Delay with jitter out of range: %v", d)
		}
	}
}
