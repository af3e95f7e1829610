package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/rsx/internal/shared"
)

func TestFetcher(t *testing.T) {
	t.Run("downloads to nested destination", func(t *testing.T) {
		payload := []byte("userId,movieId,rating\n1,10,4.0\n")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(payload)
		}))
		defer server.Close()

		dest := filepath.Join(t.TempDir(), "raw", "ml-small", "ratings.csv")
		fetcher := NewFetcher(FetcherConfig{})

		result, err := fetcher.Fetch(context.Background(), server.URL, dest)
		if err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if result.Path != dest {
			t.Errorf("expected path %s, got %s", dest, result.Path)
		}
		if result.SizeBytes != int64(len(payload)) {
			t.Errorf("expected %d bytes, got %d", len(payload), result.SizeBytes)
		}
		if result.Status != http.StatusOK {
			t.Errorf("expected status 200, got %d", result.Status)
		}

		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("failed to read downloaded file: %v", err)
		}
		if string(data) != string(payload) {
			t.Errorf("expected %q, got %q", payload, data)
		}
	})

	t.Run("fails on non-200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer server.Close()

		dest := filepath.Join(t.TempDir(), "archive.zip")
		fetcher := NewFetcher(FetcherConfig{})

		if _, err := fetcher.Fetch(context.Background(), server.URL, dest); !errors.Is(err, shared.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Errorf("expected no file at %s", dest)
		}
	})

	t.Run("removes partial file on truncated body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "1024")
			w.Write([]byte("short"))
		}))
		defer server.Close()

		dest := filepath.Join(t.TempDir(), "archive.zip")
		fetcher := NewFetcher(FetcherConfig{})

		if _, err := fetcher.Fetch(context.Background(), server.URL, dest); err == nil {
			t.Fatal("expected error for truncated body")
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Errorf("expected partial file to be removed")
		}
	})

	t.Run("replays captured headers", func(t *testing.T) {
		var gotCookie, gotAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			gotAgent = r.Header.Get("User-Agent")
			w.Write([]byte("ok"))
		}))
		defer server.Close()

		headers := &shared.CurlHeaders{
			Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
			Cookie:  "session=abc123",
		}
		fetcher := NewFetcher(FetcherConfig{Headers: headers})

		dest := filepath.Join(t.TempDir(), "gated.zip")
		if _, err := fetcher.Fetch(context.Background(), server.URL, dest); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if gotCookie != "session=abc123" {
			t.Errorf("expected cookie to be replayed, got %q", gotCookie)
		}
		if gotAgent != "Mozilla/5.0" {
			t.Errorf("expected user agent to be replayed, got %q", gotAgent)
		}
	})

	t.Run("attaches client credentials token", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse token request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"access_token": "fixture-token",
				"token_type":   "Bearer",
			})
		}))
		defer tokenServer.Close()

		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher := NewFetcher(FetcherConfig{
			Auth: &AuthConfig{
				TokenURL:     tokenServer.URL,
				ClientID:     "client-id",
				ClientSecret: "client-secret",
			},
		})

		dest := filepath.Join(t.TempDir(), "gated.zip")
		if _, err := fetcher.Fetch(context.Background(), server.URL, dest); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if gotAuth != "Bearer fixture-token" {
			t.Errorf("expected bearer token on request, got %q", gotAuth)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fetcher := NewFetcher(FetcherConfig{})
		if _, err := fetcher.Fetch(ctx, server.URL, filepath.Join(t.TempDir(), "x.zip")); err == nil {
			t.Fatal("expected error for canceled context")
		}
	})

	t.Run("rate limits successive requests", func(t *testing.T) {
		var hits int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			fmt.Fprintf(w, "hit %d", hits)
		}))
		defer server.Close()

		fetcher := NewFetcher(FetcherConfig{RequestsPerSecond: 50, Burst: 1})
		dir := t.TempDir()

		start := time.Now()
		for i := 0; i < 3; i++ {
			dest := filepath.Join(dir, fmt.Sprintf("part-%d", i))
			if _, err := fetcher.Fetch(context.Background(), server.URL, dest); err != nil {
				t.Fatalf("failed to fetch %d: %v", i, err)
			}
		}

		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("expected rate limiter to space requests, finished in %v", elapsed)
		}
		if hits != 3 {
			t.Errorf("expected 3 requests, got %d", hits)
		}
	})
}

func TestFetcherDefaults(t *testing.T) {
	fetcher := NewFetcher(FetcherConfig{})
	if fetcher.client.Timeout != defaultTimeout {
		t.Errorf("expected default timeout %v, got %v", defaultTimeout, fetcher.client.Timeout)
	}
	if fetcher.limiter.Limit() != defaultRate {
		t.Errorf("expected default rate %v, got %v", defaultRate, fetcher.limiter.Limit())
	}
	if fetcher.limiter.Burst() != 1 {
		t.Errorf("expected default burst 1, got %d", fetcher.limiter.Burst())
	}
}
