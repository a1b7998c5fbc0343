package shared

import (
	"errors"
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
		wantURL     string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'x-access-token: abc123' https://subs.example.com/getchannels`,
			wantHeaders: map[string]string{"x-access-token": "abc123"},
			wantURL:     "https://subs.example.com/getchannels",
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "x-access-token: abc123" https://subs.example.com`,
			wantHeaders: map[string]string{"x-access-token": "abc123"},
			wantURL:     "https://subs.example.com",
		},
		{
			name:    "long header flag",
			curlCmd: `curl 'http://localhost:3087/getchannels?page=1' --header 'Accept: application/json' --header 'x-access-token: tok'`,
			wantHeaders: map[string]string{
				"Accept":         "application/json",
				"x-access-token": "tok",
			},
			wantURL: "http://localhost:3087/getchannels?page=1",
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'session=abc123' https://subs.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123",
			wantURL:     "https://subs.example.com",
		},
		{
			name:    "cookie header is excluded from regular headers",
			curlCmd: `curl -H 'Cookie: session=abc123' -H 'x-access-token: tok' https://subs.example.com`,
			wantHeaders: map[string]string{
				"x-access-token": "tok",
			},
			wantCookie: "session=abc123",
			wantURL:    "https://subs.example.com",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://subs.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
			wantURL:     "https://subs.example.com",
		},
		{
			name: "multiline browser copy",
			curlCmd: `curl 'http://localhost:3087/updatechannels' \
  -H 'accept: application/json' \
  -H 'referer: http://localhost:3087/channels' \
  -H 'x-access-token: d2e1' \
  --data-raw '{"add":[],"remove":["https://www.youtube.com/@x"]}'`,
			wantHeaders: map[string]string{
				"accept":         "application/json",
				"referer":        "http://localhost:3087/channels",
				"x-access-token": "d2e1",
			},
			wantURL: "http://localhost:3087/updatechannels",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://subs.example.com`,
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
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}

			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("got %d headers, want %d: %v", len(result.Headers), len(tc.wantHeaders), result.Headers)
			}
			for k, v := range tc.wantHeaders {
				if result.Headers[k] != v {
					t.Errorf("header %q = %q, want %q", k, result.Headers[k], v)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %q, want %q", result.Cookie, tc.wantCookie)
			}

			if result.URL != tc.wantURL {
				t.Errorf("url = %q, want %q", result.URL, tc.wantURL)
			}
		})
	}
}

func TestCurlRequest(t *testing.T) {
	t.Run("SessionToken", func(t *testing.T) {
		req, err := ParseCurlCommand(`curl -H 'X-Access-Token: tok-1' http://localhost:3087/getchannels`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tok, err := req.SessionToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "tok-1" {
			t.Errorf("expected tok-1, got %s", tok)
		}

		if got := req.BaseURL(); got != "http://localhost:3087" {
			t.Errorf("expected base URL http://localhost:3087, got %s", got)
		}
	})

	t.Run("SessionToken Missing", func(t *testing.T) {
		req, err := ParseCurlCommand(`curl -H 'accept: */*' http://localhost:3087`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := req.SessionToken(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("ParseCurlFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "request.sh")
		content := "curl 'http://localhost:3087/getchannels' \\\n  -H 'x-access-token: from-file'\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write curl file: %v", err)
		}

		req, err := ParseCurlFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok, _ := req.SessionToken(); tok != "from-file" {
			t.Errorf("expected from-file, got %s", tok)
		}
	})

	t.Run("ParseCurlFile Missing", func(t *testing.T) {
		if _, err := ParseCurlFile(filepath.Join(t.TempDir(), "nope.sh")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
