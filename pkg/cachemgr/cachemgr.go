package cachemgr

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/internal/telemetry"
	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/metrics"
)

// Store is the persistence contract the Manager depends on. Defined here
// (rather than importing pkg/cachemgr/store) to avoid an import cycle.
type Store interface {
	Put(entry *Entry) error
	Get(key Key) (*Entry, bool, error)
	Delete(key Key) error
	ListNamespace(authScope, namespace string) ([]*Entry, error)
	PurgeScope(authScope string) error
	Close() error
}

// Fetcher performs the actual network fetch used to populate or revalidate
// a cache entry on miss or stale-hit.
type Fetcher func(ctx context.Context) (*Entry, error)

// lruNode tracks one in-process LRU list position, keyed by the entry's
// composite key string, the same small list+map structure the teacher's
// memory cache keeps for its hot working set.
type lruNode struct {
	keyStr string
	key    Key
	size   int64
}

// Manager is the read cache: TTL + strict LRU + per-namespace byte budget.
type Manager struct {
	store          Store
	breaker        *breaker.Breaker
	namespaces     map[string]Namespace
	blocklistExtra []string
	mu             sync.Mutex
	lru            *list.List
	lruIndex       map[string]*list.Element
	namespaceBytes map[string]int64

	hits   map[string]*atomic.Int64
	misses map[string]*atomic.Int64
	statMu sync.Mutex

	metrics metrics.CacheMetrics
}

// NamespaceStats reports one namespace's occupancy and hit rate, surfaced
// by the read API so operators can see why an origin keeps getting hit.
type NamespaceStats struct {
	Namespace   string  `json:"namespace"`
	ByteSize    int64   `json:"byteSize"`
	BudgetBytes int64   `json:"budgetBytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hitRate"`
}

// New constructs a Manager with the given namespaces (falling back to
// DefaultNamespaces if empty) backed by store. m may be nil, in which case
// metric collection is skipped.
func New(store Store, b *breaker.Breaker, namespaces []Namespace, blocklistExtra []string, m metrics.CacheMetrics) *Manager {
	if len(namespaces) == 0 {
		namespaces = DefaultNamespaces()
	}
	nsMap := make(map[string]Namespace, len(namespaces))
	for _, ns := range namespaces {
		nsMap[ns.Name] = ns
	}
	return &Manager{
		store:          store,
		breaker:        b,
		namespaces:     nsMap,
		blocklistExtra: blocklistExtra,
		lru:            list.New(),
		lruIndex:       make(map[string]*list.Element),
		namespaceBytes: make(map[string]int64),
		hits:           make(map[string]*atomic.Int64),
		misses:         make(map[string]*atomic.Int64),
		metrics:        m,
	}
}

// counter returns the atomic hit or miss counter for namespace, creating it
// on first use.
func (m *Manager) counter(set map[string]*atomic.Int64, namespace string) *atomic.Int64 {
	m.statMu.Lock()
	defer m.statMu.Unlock()
	c, ok := set[namespace]
	if !ok {
		c = &atomic.Int64{}
		set[namespace] = c
	}
	return c
}

// Stats reports byte usage, configured budget, and hit rate per namespace.
func (m *Manager) Stats() []NamespaceStats {
	m.mu.Lock()
	usage := make(map[string]int64, len(m.namespaceBytes))
	for ns, b := range m.namespaceBytes {
		usage[ns] = b
	}
	m.mu.Unlock()

	m.statMu.Lock()
	defer m.statMu.Unlock()

	names := make(map[string]struct{}, len(m.namespaces))
	for name := range m.namespaces {
		names[name] = struct{}{}
	}
	for name := range usage {
		names[name] = struct{}{}
	}
	for name := range m.hits {
		names[name] = struct{}{}
	}
	for name := range m.misses {
		names[name] = struct{}{}
	}

	stats := make([]NamespaceStats, 0, len(names))
	for name := range names {
		var hits, misses int64
		if c, ok := m.hits[name]; ok {
			hits = c.Load()
		}
		if c, ok := m.misses[name]; ok {
			misses = c.Load()
		}
		var rate float64
		if total := hits + misses; total > 0 {
			rate = float64(hits) / float64(total)
		}
		stats = append(stats, NamespaceStats{
			Namespace:   name,
			ByteSize:    usage[name],
			BudgetBytes: m.namespaces[name].BudgetBytes,
			Hits:        hits,
			Misses:      misses,
			HitRate:     rate,
		})
	}
	return stats
}

// Get serves a request per the stale-while-revalidate contract: fresh hits
// return immediately; stale hits return immediately but schedule a
// background revalidation guarded by the breaker; misses await fetch.
func (m *Manager) Get(ctx context.Context, key Key, fetch Fetcher) (*Entry, error) {
	ctx, span := telemetry.StartCacheSpan(ctx, telemetry.SpanCacheLookup, key.Namespace, key.CanonicalURL)
	defer span.End()

	ns, ok := m.namespaces[key.Namespace]
	if !ok {
		ns = Namespace{Name: key.Namespace, TTL: 0, BudgetBytes: 0}
	}

	entry, found, err := m.store.Get(key)
	if err != nil {
		return nil, err
	}

	if found {
		m.touch(key, entry.ByteSize)
		if entry.isFresh(ns.TTL) {
			m.counter(m.hits, key.Namespace).Add(1)
			if m.metrics != nil {
				m.metrics.RecordHit(key.Namespace)
			}
			logger.DebugCtx(ctx, "cache hit", logger.Component("cachemgr"), logger.CacheNamespace(key.Namespace), logger.CacheKey(key.CanonicalURL), logger.CacheHit(true))
			return entry, nil
		}

		m.counter(m.hits, key.Namespace).Add(1)
		if m.metrics != nil {
			m.metrics.RecordHit(key.Namespace)
		}
		logger.DebugCtx(ctx, "cache stale", logger.Component("cachemgr"), logger.CacheNamespace(key.Namespace), logger.CacheKey(key.CanonicalURL), logger.CacheStale(true))
		if m.breaker.Allow() {
			go m.revalidate(context.WithoutCancel(ctx), key, fetch)
		}
		return entry, nil
	}

	m.counter(m.misses, key.Namespace).Add(1)
	if m.metrics != nil {
		m.metrics.RecordMiss(key.Namespace)
	}
	logger.DebugCtx(ctx, "cache miss", logger.Component("cachemgr"), logger.CacheNamespace(key.Namespace), logger.CacheKey(key.CanonicalURL), logger.CacheHit(false))
	fresh, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		if err := m.Put(ctx, *fresh); err != nil {
			return fresh, err
		}
	}
	return fresh, nil
}

func (m *Manager) revalidate(ctx context.Context, key Key, fetch Fetcher) {
	fresh, err := fetch(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "background revalidation failed", logger.Component("cachemgr"), logger.Err(err))
		return
	}
	if fresh != nil {
		_ = m.Put(ctx, *fresh)
	}
}

// Put stores an entry, rejecting blocklisted paths, no-store responses,
// and non-200 statuses, then runs eviction until the namespace is within
// budget.
func (m *Manager) Put(ctx context.Context, entry Entry) error {
	ctx, span := telemetry.StartCacheSpan(ctx, telemetry.SpanCacheWrite, entry.Key.Namespace, entry.Key.CanonicalURL)
	defer span.End()

	if IsBlocklisted(entry.Key.CanonicalURL, m.blocklistExtra) {
		return nil
	}
	if entry.StatusCode != 200 {
		return nil
	}
	if entry.noStore() {
		return nil
	}

	entry.CachedAt = time.Now()
	entry.LastUsedAt = entry.CachedAt
	entry.ByteSize = int64(len(entry.Body))

	if err := m.store.Put(&entry); err != nil {
		return err
	}
	m.touch(entry.Key, entry.ByteSize)

	ns, ok := m.namespaces[entry.Key.Namespace]
	if !ok || ns.BudgetBytes <= 0 {
		return nil
	}

	evicted := m.evictUntilWithinBudget(ctx, entry.Key.AuthScope, ns)
	if evicted > 0 {
		logger.DebugCtx(ctx, "cache evicted entries", logger.Component("cachemgr"), logger.CacheNamespace(ns.Name), logger.Evicted(evicted))
	}
	return nil
}

// touch updates the in-process LRU ordering; it does not itself persist.
func (m *Manager) touch(key Key, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ks := key.AuthScope + "\x00" + key.Namespace + "\x00" + key.CanonicalURL
	if el, exists := m.lruIndex[ks]; exists {
		m.namespaceBytes[key.Namespace] -= el.Value.(*lruNode).size
		m.lru.MoveToFront(el)
		el.Value.(*lruNode).size = size
	} else {
		el := m.lru.PushFront(&lruNode{keyStr: ks, key: key, size: size})
		m.lruIndex[ks] = el
	}
	m.namespaceBytes[key.Namespace] += size
	if m.metrics != nil {
		m.metrics.SetNamespaceBytes(key.Namespace, m.namespaceBytes[key.Namespace])
	}
}

func (m *Manager) untrack(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ks := key.AuthScope + "\x00" + key.Namespace + "\x00" + key.CanonicalURL
	if el, exists := m.lruIndex[ks]; exists {
		m.namespaceBytes[key.Namespace] -= el.Value.(*lruNode).size
		m.lru.Remove(el)
		delete(m.lruIndex, ks)
	}
}

// evictUntilWithinBudget evicts least-recently-used entries belonging to
// namespace ns until the namespace's tracked byte size is within budget.
// Entries from other namespaces are never touched by one namespace's
// eviction; within the namespace the budget and LRU order span all auth
// scopes.
func (m *Manager) evictUntilWithinBudget(ctx context.Context, authScope string, ns Namespace) int {
	evicted := 0
	for {
		m.mu.Lock()
		if m.namespaceBytes[ns.Name] <= ns.BudgetBytes {
			m.mu.Unlock()
			break
		}

		var victim *lruNode
		for el := m.lru.Back(); el != nil; el = el.Prev() {
			node := el.Value.(*lruNode)
			if node.key.Namespace == ns.Name {
				victim = node
				m.lru.Remove(el)
				delete(m.lruIndex, node.keyStr)
				m.namespaceBytes[ns.Name] -= node.size
				break
			}
		}
		m.mu.Unlock()

		if victim == nil {
			break
		}
		if err := m.store.Delete(victim.key); err != nil {
			logger.ErrorCtx(ctx, "failed to evict cache entry", logger.Component("cachemgr"), logger.Err(err))
			break
		}
		if m.metrics != nil {
			m.metrics.RecordEviction(ns.Name, "budget")
		}
		evicted++
	}
	return evicted
}

// InvalidateURL drops the cached entry for a canonical URL across all
// namespaces, called by the replay queue after a successful write.
func (m *Manager) InvalidateURL(authScope, rawURL string) {
	canonical := CanonicalURL(rawURL)
	for name := range m.namespaces {
		key := Key{AuthScope: authScope, Namespace: name, CanonicalURL: canonical}
		if err := m.store.Delete(key); err == nil {
			m.untrack(key)
		}
	}
}

// Invalidate removes every cached entry for authScope+namespace matching
// predicate.
func (m *Manager) Invalidate(authScope, namespace string, predicate func(Entry) bool) error {
	entries, err := m.store.ListNamespace(authScope, namespace)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if predicate == nil || predicate(*e) {
			if err := m.store.Delete(e.Key); err != nil {
				return err
			}
			m.untrack(e.Key)
		}
	}
	return nil
}

// PurgeScope removes every cached entry for authScope, used on auth change.
func (m *Manager) PurgeScope(authScope string) error {
	if err := m.store.PurgeScope(authScope); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for el := m.lru.Front(); el != nil; {
		next := el.Next()
		node := el.Value.(*lruNode)
		if node.key.AuthScope == authScope {
			m.namespaceBytes[node.key.Namespace] -= node.size
			m.lru.Remove(el)
			delete(m.lruIndex, node.keyStr)
		}
		el = next
	}
	return nil
}
