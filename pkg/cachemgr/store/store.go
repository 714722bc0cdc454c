// Package store provides the durable backing store for the cache manager,
// sharing the badger/v4 database instance with the conflict store but under
// its own key prefix.
package store

import (
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/offlinefoundation/core/pkg/cachemgr"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
)

// Store persists cache entries and supports namespace-scoped enumeration
// for LRU eviction and purge.
type Store interface {
	Put(entry *cachemgr.Entry) error
	Get(key cachemgr.Key) (*cachemgr.Entry, bool, error)
	Delete(key cachemgr.Key) error
	ListNamespace(authScope, namespace string) ([]*cachemgr.Entry, error)
	PurgeScope(authScope string) error
	Close() error
}

func entryKey(k cachemgr.Key) []byte {
	return []byte(fmt.Sprintf("cache:%s:%s:%s", k.AuthScope, k.Namespace, k.CanonicalURL))
}

func namespacePrefix(authScope, namespace string) []byte {
	return []byte(fmt.Sprintf("cache:%s:%s:", authScope, namespace))
}

func scopePrefix(authScope string) []byte {
	return []byte(fmt.Sprintf("cache:%s:", authScope))
}

// BadgerStore is the production Store, backed by an embedded badger/v4
// database shared with the conflict store but addressed through its own
// "cache:" key prefix.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at dir.
func Open(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to open cache store", err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenWithDB wraps an already-open badger database, used when the cache
// manager and conflict store share a single embedded instance.
func OpenWithDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Put(entry *cachemgr.Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to encode cache entry", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.Key), data)
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to persist cache entry", err)
	}
	return nil
}

func (s *BadgerStore) Get(key cachemgr.Key) (*cachemgr.Entry, bool, error) {
	var entry *cachemgr.Entry
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			decoded, err := decodeEntry(val)
			if err != nil {
				return err
			}
			entry = decoded
			return nil
		})
	})
	if err != nil {
		return nil, false, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to read cache entry", err)
	}
	return entry, found, nil
}

func (s *BadgerStore) Delete(key cachemgr.Key) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(key))
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to delete cache entry", err)
	}
	return nil
}

func (s *BadgerStore) ListNamespace(authScope, namespace string) ([]*cachemgr.Entry, error) {
	return s.scan(namespacePrefix(authScope, namespace))
}

func (s *BadgerStore) PurgeScope(authScope string) error {
	entries, err := s.scan(scopePrefix(authScope))
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			if err := txn.Delete(entryKey(e.Key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to purge scope", err)
	}
	return nil
}

func (s *BadgerStore) scan(prefix []byte) ([]*cachemgr.Entry, error) {
	var results []*cachemgr.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				entry, err := decodeEntry(val)
				if err != nil {
					return err
				}
				results = append(results, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to scan cache entries", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].LastUsedAt.Before(results[j].LastUsedAt) })
	return results, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
