// package services retrieves datasource artifacts over HTTP
//
// rate-limited, with optional OAuth2 client credentials or captured headers
package services

import (
	"context"
	"time"

	"github.com/desertthunder/rsx/internal/shared"
)

// Fetcher retrieves a remote artifact to a local file.
type Fetcher interface {
	// Fetch downloads url into dest, creating parent directories as
	// needed. The destination is not left behind on failure.
	Fetch(ctx context.Context, url, dest string) (*FetchResult, error)
}

// FetchResult describes a completed download.
type FetchResult struct {
	Path      string // local path the artifact was written to
	SizeBytes int64  // bytes written
	Status    int    // HTTP status of the final response
}

// AuthConfig configures an OAuth2 client-credentials token source for
// datasources that gate downloads behind a machine token.
type AuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// FetcherConfig tunes an [HTTPFetcher]. The zero value gets conservative
// defaults: a five minute timeout and two requests per second.
type FetcherConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Headers           *shared.CurlHeaders // replayed on every request when set
	Auth              *AuthConfig         // client-credentials token source when set
}
