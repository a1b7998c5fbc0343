// Utilities for importing a session from a cURL command copied out of browser devtools.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlDataRe   = regexp.MustCompile(`--data[\w-]*\s+(?:'[^']*'|"[^"]*")`)
	curlURLRe    = regexp.MustCompile(`https?://[^\s'"]+`)
)

// CurlRequest is the subset of a cURL invocation needed to reuse a browser session.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(path string) (*CurlRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts the target URL, headers and cookie from a cURL command.
func ParseCurlCommand(curlCmd string) (*CurlRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\r\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")

	req := &CurlRequest{Headers: make(map[string]string)}

	bare := curlHeaderRe.ReplaceAllString(curlCmd, " ")
	bare = curlCookieRe.ReplaceAllString(bare, " ")
	bare = curlDataRe.ReplaceAllString(bare, " ")
	req.URL = curlURLRe.FindString(bare)

	var headerCookie string
	for _, m := range curlHeaderRe.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(m[1:]...), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRe.FindStringSubmatch(curlCmd); m != nil {
		req.Cookie = firstNonEmpty(m[1:]...)
	}
	if req.Cookie == "" {
		req.Cookie = headerCookie
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return req, nil
}

// Header looks a header up case-insensitively.
func (c *CurlRequest) Header(name string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// SessionToken returns the backend session token carried by the request.
func (c *CurlRequest) SessionToken() (string, error) {
	if tok := c.Header(SessionHeader); tok != "" {
		return tok, nil
	}
	return "", fmt.Errorf("%w: no %s header in curl command", ErrMissingCredentials, SessionHeader)
}

// BaseURL returns scheme://host of the captured request, or "" when no URL was found.
func (c *CurlRequest) BaseURL() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
