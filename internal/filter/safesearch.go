package filter

import (
	"net/url"
	"strings"

	"kindklick/internal/models"
)

// searchEngine describes the query parameter that forces strict filtering
// on a search engine. Hosts match the domain itself or any subdomain.
type searchEngine struct {
	Name   string
	Domain string
	Param  string
	Value  string
}

// YouTube restricted mode needs a header or cookie, not a query parameter,
// so it has no entry here even though settings carry the flag.
var searchEngines = []searchEngine{
	{Name: "google", Domain: "google.com", Param: "safe", Value: "active"},
	{Name: "bing", Domain: "bing.com", Param: "adlt", Value: "strict"},
}

// Redirect is a safe-search rewrite instruction
type Redirect struct {
	URL    string
	Engine string
}

// RewriteSafeSearch returns the URL the browser should be sent to so the
// search engine enforces strict results. ok is false when safe search is
// off, the URL is not a known search page, or it is already enforced.
func RewriteSafeSearch(rawURL string, s *models.Settings) (Redirect, bool) {
	if s == nil || !s.SafeSearch.Enabled {
		return Redirect{}, false
	}

	u, err := parseHTTP(rawURL)
	if err != nil {
		return Redirect{}, false
	}

	host := strings.ToLower(u.Hostname())
	path := u.Path
	if path == "" {
		path = "/"
	}
	if path != "/" && path != "/search" {
		return Redirect{}, false
	}

	for _, e := range searchEngines {
		if !matchDomain(host, e.Domain) {
			continue
		}
		if u.Query().Get(e.Param) == e.Value {
			return Redirect{}, false
		}
		u.RawQuery = setQueryParam(u.RawQuery, e.Param, e.Value)
		return Redirect{URL: u.String(), Engine: e.Name}, true
	}
	return Redirect{}, false
}

// setQueryParam sets key=value in rawQuery while keeping every other pair in
// its original position and encoding. Duplicate keys collapse to one.
func setQueryParam(rawQuery, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)

	var parts []string
	replaced := false
	if rawQuery != "" {
		for _, p := range strings.Split(rawQuery, "&") {
			k, _, _ := strings.Cut(p, "=")
			if uk, err := url.QueryUnescape(k); err == nil && uk == key {
				if !replaced {
					parts = append(parts, pair)
					replaced = true
				}
				continue
			}
			parts = append(parts, p)
		}
	}
	if !replaced {
		parts = append(parts, pair)
	}
	return strings.Join(parts, "&")
}

// matchDomain checks if host is domain or a subdomain of it.
// "www.google.com" matches "google.com"; "notgoogle.com" does not.
func matchDomain(host, domain string) bool {
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}
