// Package channelurl canonicalizes user-supplied channel references.
//
// Every channel the queue tracks is identified by the string [Normalize] returns,
// so two inputs naming the same channel always collapse to one identity:
//
//	Normalize("foo")                                      // https://www.youtube.com/@foo
//	Normalize("youtube.com/@Foo/videos")                  // https://www.youtube.com/@Foo
//	Normalize("http://m.youtube.com/channel/UC123?x=1")   // https://www.youtube.com/channel/UC123
//
// The package also owns the sub-folder keys the backend uses for its download layout.
package channelurl

import (
	"net/url"
	"regexp"
	"strings"
)

const canonicalBase = "https://www.youtube.com"

var (
	handleRe      = regexp.MustCompile(`^@[\w.-]+$`)
	handlePathRe  = regexp.MustCompile(`^/@([^/]+)(/.*)?$`)
	channelPathRe = regexp.MustCompile(`^/(c|channel)/([^/]+)(/.*)?$`)
)

// Normalize maps a bare handle or a channel URL onto its canonical form.
//
// The second result is false when the input is empty, names a non-channel page,
// or points at a host other than youtube.com (and its subdomains) or youtu.be.
// Query strings, fragments and trailing path segments are discarded; path case is kept.
func Normalize(input string) (string, bool) {
	s := strings.TrimRight(strings.TrimSpace(input), "/")
	if s == "" {
		return "", false
	}

	if !strings.ContainsAny(s, "./") {
		if !strings.HasPrefix(s, "@") {
			s = "@" + s
		}
		if !handleRe.MatchString(s) {
			return "", false
		}
		return canonicalBase + "/" + s, true
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || !isChannelHost(u.Hostname()) {
		return "", false
	}

	path := u.EscapedPath()
	if m := handlePathRe.FindStringSubmatch(path); m != nil {
		return canonicalBase + "/@" + m[1], true
	}
	if m := channelPathRe.FindStringSubmatch(path); m != nil {
		return canonicalBase + "/" + m[1] + "/" + m[2], true
	}
	return "", false
}

func isChannelHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") || host == "youtu.be"
}

// MatchesFilter reports whether a channel's name or URL contains filter, ignoring case.
// A blank filter matches everything.
func MatchesFilter(name, url, filter string) bool {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), f) || strings.Contains(strings.ToLower(url), f)
}
