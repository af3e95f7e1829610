package shared

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:    "single header with single quotes",
			curlCmd: `curl -H 'Authorization: Bearer token123' https://example.com/ml-latest.zip`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token123",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H "Accept: application/zip" -H "Authorization: Bearer token" https://example.com/ml-latest.zip`,
			wantHeaders: map[string]string{
				"Accept":        "application/zip",
				"Authorization": "Bearer token",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'ka_sessionid=abc123' https://example.com/download`,
			wantHeaders: map[string]string{},
			wantCookie:  "ka_sessionid=abc123",
			wantErr:     false,
		},
		{
			name:    "cookie header is excluded from regular headers",
			curlCmd: `curl -H 'Cookie: ka_sessionid=abc123' -H 'Accept: */*' https://example.com/download`,
			wantHeaders: map[string]string{
				"Accept": "*/*",
			},
			wantCookie: "ka_sessionid=abc123",
			wantErr:    false,
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl -H 'Authorization: Bearer token' \
-H 'Accept: application/zip' \
https://example.com/ml-latest.zip`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token",
				"Accept":        "application/zip",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://example.com/ml-latest.zip`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand([]byte(tc.curlCmd))

			if (err != nil) != tc.wantErr {
				t.Errorf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
				return
			}

			if tc.wantErr {
				return
			}

			if result == nil {
				t.Fatal("ParseCurlCommand() returned nil result")
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}

			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		tmpDir := t.TempDir()
		curlFile := filepath.Join(tmpDir, "curl.sh")

		curlCmd := `curl -H 'Authorization: Bearer token123' -H 'Accept: application/zip' https://example.com/ml-latest.zip`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}

		if len(result.Headers) != 2 {
			t.Errorf("ParseCurlFile() headers count = %v, want 2", len(result.Headers))
		}

		if result.Headers["Authorization"] != "Bearer token123" {
			t.Errorf("ParseCurlFile() Authorization = %v, want %v", result.Headers["Authorization"], "Bearer token123")
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := ParseCurlFile("/nonexistent/file.sh")
		if err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})
}

func TestCurlHeadersApply(t *testing.T) {
	parsed := &CurlHeaders{
		Headers: map[string]string{
			"Authorization": "Bearer token123",
			"Accept":        "application/zip",
		},
		Cookie: "ka_sessionid=abc123",
	}

	h := make(http.Header)
	parsed.Apply(h)

	if got := h.Get("Authorization"); got != "Bearer token123" {
		t.Errorf("Apply() Authorization = %v, want Bearer token123", got)
	}

	if got := h.Get("Cookie"); got != "ka_sessionid=abc123" {
		t.Errorf("Apply() Cookie = %v, want ka_sessionid=abc123", got)
	}
}
