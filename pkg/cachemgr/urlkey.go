package cachemgr

import (
	"net/url"
	"sort"
	"strings"
)

// blocklistedPrefixes are paths never eligible for caching regardless of
// namespace, per the health/telemetry/auth exclusion rule.
var blocklistedPrefixes = []string{"/healthz", "/readyz", "/telemetry", "/auth"}

// IsBlocklisted reports whether path must never be cached.
func IsBlocklisted(path string, extra []string) bool {
	for _, p := range blocklistedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, p := range extra {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CanonicalURL sorts query parameters and drops the fragment, so two
// requests differing only in parameter order or a trailing fragment share
// one cache entry.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	first := true
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			if !first {
				sb.WriteByte('&')
			}
			first = false
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	u.RawQuery = sb.String()
	return u.String()
}
