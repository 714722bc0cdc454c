// Package cachemgr implements the read cache: TTL + strict LRU + per-namespace
// byte budget enforcement, with stale-while-revalidate semantics on read.
package cachemgr

import (
	"strings"
	"time"
)

// Namespace groups cached entries under a shared TTL and eviction budget.
type Namespace struct {
	Name        string
	TTL         time.Duration
	BudgetBytes int64
}

// DefaultNamespaces are registered automatically by New unless overridden.
func DefaultNamespaces() []Namespace {
	return []Namespace{
		{Name: "documents", TTL: 7 * 24 * time.Hour, BudgetBytes: 50 * 1024 * 1024},
		{Name: "lists", TTL: 24 * time.Hour, BudgetBytes: 15 * 1024 * 1024},
	}
}

// Key identifies one cached response. Two Keys with different header casing
// or query parameter ordering must canonicalize to the same string via
// CanonicalURL before reaching here.
type Key struct {
	AuthScope    string
	Namespace    string
	CanonicalURL string
}

// Entry is a single cached response, persisted as-is.
type Entry struct {
	Key          Key       `json:"key"`
	Body         []byte    `json:"body"`
	StatusCode   int       `json:"statusCode"`
	ContentType  string    `json:"contentType,omitempty"`
	CacheControl string    `json:"cacheControl,omitempty"`
	CachedAt     time.Time `json:"cachedAt"`
	LastUsedAt   time.Time `json:"lastUsedAt"`
	ByteSize     int64     `json:"byteSize"`
}

// noStore reports whether the response's Cache-Control header forbids
// storage. Directive matching is case-insensitive and ignores other
// directives that may appear alongside it (e.g. "no-store, max-age=0").
func (e Entry) noStore() bool {
	for _, directive := range strings.Split(e.CacheControl, ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-store") {
			return true
		}
	}
	return false
}

// isFresh reports whether the entry is within its namespace's TTL.
func (e Entry) isFresh(ttl time.Duration) bool {
	return time.Since(e.CachedAt) < ttl
}
