package filter

import (
	"slices"
	"strings"
)

// ParseDomainLines turns a newline separated text block into list entries.
// Lines are trimmed and lowercased; blank lines and anything that looks like
// a full URL are dropped.
func ParseDomainLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		d := strings.ToLower(strings.TrimSpace(line))
		if d == "" || strings.Contains(d, "://") {
			continue
		}
		out = append(out, d)
	}
	return out
}

// CleanDomainList applies the ParseDomainLines rules to an already split list
func CleanDomainList(list []string) []string {
	return ParseDomainLines(strings.Join(list, "\n"))
}

// containsDomain reports whether list holds domain after key normalization
func containsDomain(list []string, domain string) bool {
	return slices.ContainsFunc(list, func(d string) bool {
		return DomainKey(d) == domain
	})
}
