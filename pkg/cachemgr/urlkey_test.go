package cachemgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalURLSortsQueryParams(t *testing.T) {
	a := CanonicalURL("https://api.example.com/documents?b=2&a=1")
	b := CanonicalURL("https://api.example.com/documents?a=1&b=2")
	assert.Equal(t, a, b)
}

func TestCanonicalURLDropsFragment(t *testing.T) {
	a := CanonicalURL("https://api.example.com/documents#section")
	b := CanonicalURL("https://api.example.com/documents")
	assert.Equal(t, a, b)
}

func TestIsBlocklistedMatchesDefaultPrefixes(t *testing.T) {
	assert.True(t, IsBlocklisted("/healthz", nil))
	assert.True(t, IsBlocklisted("/auth/login", nil))
	assert.False(t, IsBlocklisted("/documents/1", nil))
}

func TestIsBlocklistedMatchesExtraPrefixes(t *testing.T) {
	assert.True(t, IsBlocklisted("/internal/metrics", []string{"/internal"}))
}
