package cachemgr

import (
	"context"
	"testing"
	"time"

	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/cachemgr/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker() *breaker.Breaker {
	return breaker.New(breaker.Config{
		OpenThreshold:  3,
		OpenCooldown:   50 * time.Millisecond,
		CloseSuccesses: 1,
		BackoffBase:    5 * time.Millisecond,
		BackoffCap:     50 * time.Millisecond,
	}, nil)
}

func TestGetMissInvokesFetcher(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	calls := 0
	fetch := func(ctx context.Context) (*Entry, error) {
		calls++
		return &Entry{Key: key, Body: []byte("hi"), StatusCode: 200}, nil
	}

	entry, err := m.Get(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(entry.Body))
	assert.Equal(t, 1, calls)
}

func TestGetFreshHitSkipsFetcher(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("hi"), StatusCode: 200}))

	calls := 0
	fetch := func(ctx context.Context) (*Entry, error) {
		calls++
		return &Entry{Key: key, Body: []byte("refetched"), StatusCode: 200}, nil
	}

	entry, err := m.Get(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(entry.Body))
	assert.Equal(t, 0, calls)
}

func TestGetStaleHitRevalidatesInBackground(t *testing.T) {
	s := store.NewNullStore()
	nsWithShortTTL := []Namespace{{Name: "documents", TTL: time.Millisecond, BudgetBytes: 1024}}
	m := New(s, testBreaker(), nsWithShortTTL, nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("stale"), StatusCode: 200}))
	time.Sleep(5 * time.Millisecond)

	fetched := make(chan struct{}, 1)
	fetch := func(ctx context.Context) (*Entry, error) {
		fetched <- struct{}{}
		return &Entry{Key: key, Body: []byte("fresh"), StatusCode: 200}, nil
	}

	entry, err := m.Get(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(entry.Body))

	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("expected background revalidation to invoke fetcher")
	}
}

func TestPutRejectsNonOKStatus(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("x"), StatusCode: 404}))

	_, found, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutRejectsNoStoreResponse(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("x"), StatusCode: 200, CacheControl: "no-store"}))

	_, found, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutAcceptsOtherCacheControlDirectives(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("x"), StatusCode: 200, CacheControl: "max-age=60"}))

	_, found, err := s.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPutRejectsBlocklistedPath(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/healthz"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("x"), StatusCode: 200}))

	_, found, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutEvictsLRUUntilWithinBudget(t *testing.T) {
	s := store.NewNullStore()
	ns := []Namespace{{Name: "documents", TTL: time.Hour, BudgetBytes: 10}}
	m := New(s, testBreaker(), ns, nil, nil)

	for i := 0; i < 5; i++ {
		key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: string(rune('a' + i))}
		require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("abcd"), StatusCode: 200}))
	}

	entries, err := s.ListNamespace("tenant-1", "documents")
	require.NoError(t, err)

	var total int64
	for _, e := range entries {
		total += e.ByteSize
	}
	assert.LessOrEqual(t, total, int64(10))
}

func TestInvalidateURLDropsEntryAcrossNamespaces(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key, Body: []byte("x"), StatusCode: 200}))

	m.InvalidateURL("tenant-1", "/documents/1")

	_, found, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPurgeScopeRemovesAllEntriesForScope(t *testing.T) {
	s := store.NewNullStore()
	m := New(s, testBreaker(), DefaultNamespaces(), nil, nil)

	key1 := Key{AuthScope: "tenant-1", Namespace: "documents", CanonicalURL: "/documents/1"}
	key2 := Key{AuthScope: "tenant-2", Namespace: "documents", CanonicalURL: "/documents/1"}
	require.NoError(t, m.Put(context.Background(), Entry{Key: key1, Body: []byte("x"), StatusCode: 200}))
	require.NoError(t, m.Put(context.Background(), Entry{Key: key2, Body: []byte("x"), StatusCode: 200}))

	require.NoError(t, m.PurgeScope("tenant-1"))

	_, found1, _ := s.Get(key1)
	_, found2, _ := s.Get(key2)
	assert.False(t, found1)
	assert.True(t, found2)
}
