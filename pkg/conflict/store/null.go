package store

import (
	"sort"
	"sync"

	"github.com/offlinefoundation/core/pkg/conflict"
)

// NullStore is an in-memory Store used in tests.
type NullStore struct {
	mu      sync.Mutex
	records map[string]*conflict.ConflictRecord
}

// NewNullStore returns an in-memory Store with no durability guarantee.
func NewNullStore() *NullStore {
	return &NullStore{records: make(map[string]*conflict.ConflictRecord)}
}

func (n *NullStore) Put(rec *conflict.ConflictRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	clone := *rec
	n.records[rec.ID] = &clone
	return nil
}

func (n *NullStore) Get(id string) (*conflict.ConflictRecord, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, found := n.records[id]
	return r, found, nil
}

func (n *NullStore) ListByStatus(status conflict.Status) ([]*conflict.ConflictRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var results []*conflict.ConflictRecord
	for _, r := range n.records {
		if r.Status == status {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.Before(results[j].CreatedAt) })
	return results, nil
}

func (n *NullStore) Delete(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.records, id)
	return nil
}

func (n *NullStore) Close() error { return nil }
