package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/offlinefoundation/core/pkg/cachemgr"
)

// NullStore is an in-memory Store used in tests, mirroring the teacher's
// null-persister pattern used elsewhere in this module.
type NullStore struct {
	mu      sync.Mutex
	entries map[string]*cachemgr.Entry
}

// NewNullStore returns an in-memory Store with no durability guarantee.
func NewNullStore() *NullStore {
	return &NullStore{entries: make(map[string]*cachemgr.Entry)}
}

func keyString(k cachemgr.Key) string {
	return k.AuthScope + "\x00" + k.Namespace + "\x00" + k.CanonicalURL
}

func (n *NullStore) Put(entry *cachemgr.Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	clone := *entry
	n.entries[keyString(entry.Key)] = &clone
	return nil
}

func (n *NullStore) Get(key cachemgr.Key) (*cachemgr.Entry, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, found := n.entries[keyString(key)]
	return e, found, nil
}

func (n *NullStore) Delete(key cachemgr.Key) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, keyString(key))
	return nil
}

func (n *NullStore) ListNamespace(authScope, namespace string) ([]*cachemgr.Entry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var results []*cachemgr.Entry
	for _, e := range n.entries {
		if e.Key.AuthScope == authScope && e.Key.Namespace == namespace {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].LastUsedAt.Before(results[j].LastUsedAt) })
	return results, nil
}

func (n *NullStore) PurgeScope(authScope string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	prefix := authScope + "\x00"
	for k := range n.entries {
		if strings.HasPrefix(k, prefix) {
			delete(n.entries, k)
		}
	}
	return nil
}

func (n *NullStore) Close() error { return nil }
