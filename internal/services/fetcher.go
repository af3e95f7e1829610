package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/rsx/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 5 * time.Minute
	defaultRate    = 2.0
)

// HTTPFetcher downloads artifacts over HTTP with rate limiting.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	headers *shared.CurlHeaders
}

// NewFetcher builds an [HTTPFetcher] from cfg. When cfg.Auth is set the
// underlying client carries a client-credentials token source and attaches
// a bearer token to every request.
func NewFetcher(cfg FetcherConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Auth != nil {
		cc := clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}
		client = cc.Client(context.Background())
		client.Timeout = cfg.Timeout
	}

	return &HTTPFetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		headers: cfg.Headers,
	}
}

// Fetch downloads url into dest. The body streams straight to disk, so
// archives larger than memory are fine. A partial file is removed on
// failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (*FetchResult, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: waiting for rate limiter", shared.ErrTimeout)
		}
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.headers != nil {
		f.headers.Apply(req.Header)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", shared.ErrTimeout, url)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", shared.ErrDownloadFailed, url, resp.Status)
	}

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create download directory: %w", err)
		}
	}

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(dest)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", shared.ErrTimeout, url)
		}
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return &FetchResult{Path: dest, SizeBytes: n, Status: resp.StatusCode}, nil
}
