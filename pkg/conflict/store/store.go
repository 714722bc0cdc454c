// Package store provides the persistence backends for conflict records.
// Badger is the default (shared embedded instance, own key prefix); a
// PostgreSQL/GORM variant is available for deployments that already run
// the relational control-plane stack.
package store

import (
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/offlinefoundation/core/pkg/conflict"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
)

// Store persists ConflictRecords.
type Store interface {
	Put(rec *conflict.ConflictRecord) error
	Get(id string) (*conflict.ConflictRecord, bool, error)
	ListByStatus(status conflict.Status) ([]*conflict.ConflictRecord, error)
	Delete(id string) error
	Close() error
}

func recordKey(id string) []byte {
	return []byte("conflict:" + id)
}

// BadgerStore is the default Store, sharing the embedded instance used by
// the cache manager under the "conflict:" key prefix.
type BadgerStore struct {
	db *badger.DB
}

// OpenWithDB wraps an already-open badger database.
func OpenWithDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Put(rec *conflict.ConflictRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to encode conflict record", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), data)
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to persist conflict record", err)
	}
	return nil
}

func (s *BadgerStore) Get(id string) (*conflict.ConflictRecord, bool, error) {
	var rec *conflict.ConflictRecord
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			decoded, err := decodeRecord(val)
			if err != nil {
				return err
			}
			rec = decoded
			return nil
		})
	})
	if err != nil {
		return nil, false, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to read conflict record", err)
	}
	return rec, found, nil
}

func (s *BadgerStore) ListByStatus(status conflict.Status) ([]*conflict.ConflictRecord, error) {
	var results []*conflict.ConflictRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("conflict:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				if rec.Status == status {
					results = append(results, rec)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to list conflict records", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.Before(results[j].CreatedAt) })
	return results, nil
}

func (s *BadgerStore) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to delete conflict record", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
