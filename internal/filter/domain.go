// Package filter holds the URL classification logic: domain keys, the
// allow/block evaluation engine and the safe-search rewriter. Everything here
// is pure and operates on a settings snapshot.
package filter

import (
	"errors"
	"net/url"
	"strings"
)

// ExtractDomain returns the domain key for rawURL: the lowercased host with a
// leading "www." removed. It returns "" when rawURL does not parse, is not
// http(s), or has no host.
func ExtractDomain(rawURL string) string {
	u, err := parseHTTP(rawURL)
	if err != nil {
		return ""
	}
	return DomainKey(u.Hostname())
}

// DomainKey canonicalizes a bare host or list entry into a domain key
func DomainKey(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// NormalizeURL returns the canonical string form of an http(s) URL, or ""
// for anything the engine should ignore.
func NormalizeURL(rawURL string) string {
	u, err := parseHTTP(rawURL)
	if err != nil {
		return ""
	}
	return u.String()
}

var (
	errNotHTTP = errors.New("not an http(s) url")
	errNoHost  = errors.New("url has no host")
)

func parseHTTP(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errNotHTTP
	}
	if u.Hostname() == "" {
		return nil, errNoHost
	}
	return u, nil
}
