package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ewaste-depot/cpu-catalog/internal/resilience"
)

// DefaultUserAgent identifies the sync bot to source servers.
const DefaultUserAgent = "Mozilla/5.0 (cpu-catalog-sync bot)"

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	MaxBodyBytes      int64
	// InitialBackoff is the first retry delay; zero keeps the default policy.
	InitialBackoff time.Duration
}

// AdaptiveLimiter is a per-host token bucket that halves its rate whenever
// the host answers 429 and recovers by 20% per success, never exceeding the
// configured rate nor dropping below a quarter of it.
type AdaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	max     rate.Limit
	min     rate.Limit
	current rate.Limit
}

// NewAdaptiveLimiter creates a limiter starting at r events per second.
func NewAdaptiveLimiter(r rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(r, burst),
		max:     r,
		min:     r / 4,
		current: r,
	}
}

// Wait blocks until the limiter allows one request.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate back toward its maximum.
func (a *AdaptiveLimiter) OnSuccess() {
	a.set(a.Limit() * 1.2)
}

// OnRateLimit halves the rate after a 429.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.set(a.Limit() * 0.5)
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *AdaptiveLimiter) set(r rate.Limit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r = min(max(r, a.min), a.max)
	a.current = r
	a.limiter.SetLimit(r)
}

// HTTPFetcher implements Fetcher over net/http with per-host rate limiting
// and retry of transient failures.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *AdaptiveLimiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		burst := max(int(f.opts.RequestsPerSecond), 1)
		lim = NewAdaptiveLimiter(rate.Limit(f.opts.RequestsPerSecond), burst)
		f.limiters[host] = lim
	}
	return lim
}

// FetchText downloads rawURL and returns its text. The result of a non-2xx
// response or a failed request is a *FetchError.
func (f *HTTPFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	log := zap.L().With(zap.String("component", "fetcher"), zap.String("url", rawURL))
	log.Info("fetch")

	policy := resilience.Policy{
		Attempts:       f.opts.MaxRetries,
		InitialBackoff: f.opts.InitialBackoff,
		Retryable:      resilience.IsTransient,
		OnRetry:        resilience.LogRetry("fetcher", rawURL),
	}
	return resilience.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return f.fetchOnce(ctx, rawURL)
	})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	lim := f.limiterFor(rawURL)
	if err := lim.Wait(ctx); err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		lim.OnRateLimit()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if kind := DetectBlock(resp, head); kind != BlockNone {
			return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status, Block: kind, Err: ErrBlocked}
		}
		fe := &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			fe.Err = resilience.NewTransientError(fmt.Errorf("unexpected status %s", resp.Status), resp.StatusCode)
		}
		return "", fe
	}
	lim.OnSuccess()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	if int64(len(data)) > f.opts.MaxBodyBytes {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status, Err: ErrBodyTooLarge}
	}
	if kind := DetectBlock(resp, data); kind != BlockNone {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status, Block: kind, Err: ErrBlocked}
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		text, err := HTMLToText(bytes.NewReader(data))
		if err != nil {
			return "", &FetchError{URL: rawURL, Err: err}
		}
		return text, nil
	}
	return string(data), nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}
