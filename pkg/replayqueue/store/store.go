// Package store provides the durable backing store for the write replay
// queue. It is adapted from the teacher's WAL persister shape: a narrow
// interface plus a null implementation for tests, backed in production by
// an embedded badger/v4 instance.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
	"github.com/offlinefoundation/core/pkg/replayqueue"
)

// Store persists replay queue operations and maintains the secondary
// index used to scan pending operations in (authScope, nextAttemptAt) order.
type Store interface {
	Put(op *replayqueue.Operation) error
	Get(id string) (*replayqueue.Operation, bool, error)
	Delete(id string) error
	ListByStatus(status replayqueue.Status) ([]*replayqueue.Operation, error)
	ListPending(authScope string) ([]*replayqueue.Operation, error)
	Close() error
}

// keyOp is the primary key for an operation record: op:<id>.
func keyOp(id string) []byte {
	return []byte("op:" + id)
}

// keyPendingIdx is the secondary index key ordering pending operations by
// (authScope, nextAttemptAt, id). Badger's lexical key ordering serves the
// "pending ordered by (nextAttemptAt asc, enqueuedAt asc)" invariant
// directly once the timestamp is zero-padded to a fixed width.
func keyPendingIdx(authScope string, nextAttemptAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("idx:pending:%s:%020d:%s", authScope, nextAttemptAt.UnixNano(), id))
}

func keyPendingPrefix(authScope string) []byte {
	return []byte("idx:pending:" + authScope + ":")
}

// BadgerStore is the production Store backed by an embedded badger/v4
// database, mirroring the primary-key + secondary-index pattern used for
// directory listings in the metadata store.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at dir.
func Open(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to open replay queue store", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Put(op *replayqueue.Operation) error {
	data, err := encodeOperation(op)
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to encode operation", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if existing, found, _ := s.getLocked(txn, op.ID); found {
			if existing.Status == replayqueue.StatusPending {
				_ = txn.Delete(keyPendingIdx(existing.AuthScope, existing.NextAttemptAt, existing.ID))
			}
		}

		if err := txn.Set(keyOp(op.ID), data); err != nil {
			return err
		}

		if op.Status == replayqueue.StatusPending {
			if err := txn.Set(keyPendingIdx(op.AuthScope, op.NextAttemptAt, op.ID), []byte{}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to persist operation", err)
	}
	return nil
}

func (s *BadgerStore) getLocked(txn *badger.Txn, id string) (*replayqueue.Operation, bool, error) {
	item, err := txn.Get(keyOp(id))
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var op *replayqueue.Operation
	err = item.Value(func(val []byte) error {
		decoded, err := decodeOperation(val)
		if err != nil {
			return err
		}
		op = decoded
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return op, true, nil
}

func (s *BadgerStore) Get(id string) (*replayqueue.Operation, bool, error) {
	var op *replayqueue.Operation
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		o, f, err := s.getLocked(txn, id)
		op, found = o, f
		return err
	})
	if err != nil {
		return nil, false, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to read operation", err)
	}
	return op, found, nil
}

func (s *BadgerStore) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		op, found, err := s.getLocked(txn, id)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if op.Status == replayqueue.StatusPending {
			_ = txn.Delete(keyPendingIdx(op.AuthScope, op.NextAttemptAt, op.ID))
		}
		return txn.Delete(keyOp(id))
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to delete operation", err)
	}
	return nil
}

// ListByStatus scans every operation record and returns those matching
// status. Used for operator introspection (queue list), not the hot drain
// path, so a full scan is acceptable.
func (s *BadgerStore) ListByStatus(status replayqueue.Status) ([]*replayqueue.Operation, error) {
	var results []*replayqueue.Operation

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("op:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				op, err := decodeOperation(val)
				if err != nil {
					return err
				}
				if op.Status == status {
					results = append(results, op)
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
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to list operations", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].EnqueuedAt.Before(results[j].EnqueuedAt) })
	return results, nil
}

// ListPending returns pending operations for authScope ordered by
// (nextAttemptAt asc, enqueuedAt asc), using the secondary index prefix
// scan rather than a full table scan.
func (s *BadgerStore) ListPending(authScope string) ([]*replayqueue.Operation, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPendingPrefix(authScope)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := string(it.Item().Key())
			parts := strings.Split(key, ":")
			ids = append(ids, parts[len(parts)-1])
		}
		return nil
	})
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to scan pending index", err)
	}

	ops := make([]*replayqueue.Operation, 0, len(ids))
	for _, id := range ids {
		op, found, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if found {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// NullStore is an in-memory, non-durable Store used in tests.
type NullStore struct {
	mu  sync.Mutex
	ops map[string]*replayqueue.Operation
}

// NewNullStore returns an in-memory Store with no durability guarantee.
func NewNullStore() *NullStore {
	return &NullStore{ops: make(map[string]*replayqueue.Operation)}
}

func (n *NullStore) Put(op *replayqueue.Operation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	clone := *op
	n.ops[op.ID] = &clone
	return nil
}

func (n *NullStore) Get(id string) (*replayqueue.Operation, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	op, found := n.ops[id]
	return op, found, nil
}

func (n *NullStore) Delete(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.ops, id)
	return nil
}

func (n *NullStore) ListByStatus(status replayqueue.Status) ([]*replayqueue.Operation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var results []*replayqueue.Operation
	for _, op := range n.ops {
		if op.Status == status {
			results = append(results, op)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].EnqueuedAt.Before(results[j].EnqueuedAt) })
	return results, nil
}

func (n *NullStore) ListPending(authScope string) ([]*replayqueue.Operation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var results []*replayqueue.Operation
	for _, op := range n.ops {
		if op.AuthScope == authScope && op.Status == replayqueue.StatusPending {
			results = append(results, op)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].NextAttemptAt.Equal(results[j].NextAttemptAt) {
			return results[i].EnqueuedAt.Before(results[j].EnqueuedAt)
		}
		return results[i].NextAttemptAt.Before(results[j].NextAttemptAt)
	})
	return results, nil
}

func (n *NullStore) Close() error { return nil }
