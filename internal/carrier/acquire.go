package carrier

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	CanonicalSize   = 500                // Side of every acquired carrier
	DefaultTimeout  = 5 * time.Second    // Per-source fetch timeout
	DefaultAttempts = 3                  // Distinct sources tried per Acquire
	DefaultSeed     = 0x7661726963727970 // Seed of the generated fallback
	maxImageBytes   = 16 << 20
)

// DefaultSources are public endpoints that return a random image.
var DefaultSources = []string{
	"https://picsum.photos/500/500",
	"https://loremflickr.com/500/500/nebula",
	"https://picsum.photos/seed/varicrypt/500/500",
}

// Acquirer supplies a carrier image when the caller has none.
type Acquirer struct {
	Sources  []string
	Timeout  time.Duration
	Attempts int
	Seed     uint64
	Client   *http.Client
	Logger   *slog.Logger

	next atomic.Uint32
}

// NewAcquirer creates an Acquirer with the default sources and limits.
func NewAcquirer(logger *slog.Logger) *Acquirer {
	return &Acquirer{
		Sources:  DefaultSources,
		Timeout:  DefaultTimeout,
		Attempts: DefaultAttempts,
		Seed:     DefaultSeed,
		Logger:   logger,
	}
}

// Acquire fetches a remote image, starting one source further along the
// list on every call, and falls back to Generate when every attempt fails.
// The result is always CanonicalSize×CanonicalSize.
func (a *Acquirer) Acquire(ctx context.Context) (*ImageCarrier, error) {
	log := a.logger()

	if n := len(a.Sources); n > 0 {
		start := int(a.next.Add(1)-1) % n
		attempts := min(a.attempts(), n)

		for i := 0; i < attempts; i++ {
			src := a.Sources[(start+i)%n]
			img, err := a.fetch(ctx, src)
			if err != nil {
				log.Warn("carrier source failed", "source", src, "attempt", i+1, "error", err)
				if ctx.Err() != nil {
					break
				}
				continue
			}
			log.Debug("carrier fetched", "source", src, "size", img.Bounds().Size())
			return NewImageCarrier(Resize(img, CanonicalSize, CanonicalSize)), nil
		}
	}

	log.Info("using generated carrier")
	img := Generate(a.Seed, CanonicalSize, CanonicalSize)
	if img == nil {
		return nil, ErrAcquisitionFailed
	}
	return &ImageCarrier{img: img}, nil
}

func (a *Acquirer) fetch(ctx context.Context, url string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := a.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return img, nil
}

func (a *Acquirer) attempts() int {
	if a.Attempts <= 0 {
		return DefaultAttempts
	}
	return a.Attempts
}

func (a *Acquirer) timeout() time.Duration {
	if a.Timeout <= 0 {
		return DefaultTimeout
	}
	return a.Timeout
}

func (a *Acquirer) client() *http.Client {
	if a.Client == nil {
		return http.DefaultClient
	}
	return a.Client
}

func (a *Acquirer) logger() *slog.Logger {
	if a.Logger == nil {
		return discardLogger
	}
	return a.Logger
}
