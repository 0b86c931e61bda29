// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/danielhkuo/poll-warden/models"
)

// DefaultRetention is how long archived records are kept before pruning.
const DefaultRetention = 30 * 24 * time.Hour

const (
	activePrefix  = "active/"
	archivePrefix = "archive/"
)

// Store is the durable keyed store for poll records, partitioned into an
// active and an archive set within one badger database. A single store-wide
// mutex serializes every read-modify-write sequence; correctness over
// throughput, poll volume is low.
type Store struct {
	db        *badger.DB
	retention time.Duration
	logger    *slog.Logger

	mu sync.Mutex
}

// New wraps an open badger database. A zero retention falls back to
// DefaultRetention.
func New(db *badger.DB, retention time.Duration, logger *slog.Logger) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, retention: retention, logger: logger}
}

func activeKey(id string) []byte  { return []byte(activePrefix + id) }
func archiveKey(id string) []byte { return []byte(archivePrefix + id) }

// Save writes the full record to the active partition.
func (s *Store) Save(rec *models.PollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(activeKey(rec.ID), rec)
}

// Load reads a record from the active partition. A missing record is not an
// error; it returns (nil, nil).
func (s *Store) Load(id string) (*models.PollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(activeKey(id))
}

// LoadArchived reads a record from the archive partition, nil if absent.
func (s *Store) LoadArchived(id string) (*models.PollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(archiveKey(id))
}

// Has reports whether the id exists in either partition. Poll ids must be
// unique across both.
func (s *Store) Has(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range [][]byte{activeKey(id), archiveKey(id)} {
		err := s.db.View(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			return err
		})
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return false, fmt.Errorf("failed to check record %s: %w", id, err)
		}
	}
	return false, nil
}

// Update loads the active record, applies fn, and writes the result back,
// all under the store lock. If fn returns false the record is returned
// unmodified without a write. Returns (nil, nil) if the record is absent.
func (s *Store) Update(id string, fn func(*models.PollRecord) bool) (*models.PollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.get(activeKey(id))
	if err != nil || rec == nil {
		return nil, err
	}
	if !fn(rec) {
		return rec, nil
	}
	if err := s.put(activeKey(id), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Archive moves the record from the active to the archive partition and
// stamps ArchivedAt. Afterwards it prunes archived records older than the
// retention window; pruning failures are logged, never raised.
func (s *Store) Archive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec, err := s.get(activeKey(id))
	if err != nil {
		return err
	}
	if rec != nil {
		rec.ArchivedAt = &now
		err = s.db.Update(func(txn *badger.Txn) error {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(archiveKey(id), data); err != nil {
				return err
			}
			return txn.Delete(activeKey(id))
		})
		if err != nil {
			return fmt.Errorf("failed to archive record %s: %w", id, err)
		}
	}

	if err := s.prune(now); err != nil {
		s.logger.Error("archive pruning failed", "error", err)
	}
	return nil
}

// ListActive returns every record in the active partition.
func (s *Store) ListActive() ([]*models.PollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []*models.PollRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(activePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec models.PollRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active records: %w", err)
	}
	return recs, nil
}

// prune deletes archived records whose ArchivedAt is older than the
// retention window. Caller holds the lock.
func (s *Store) prune(now time.Time) error {
	cutoff := now.Add(-s.retention)
	var stale [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(archivePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec models.PollRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				continue // unreadable archive entries are left in place
			}
			if rec.ArchivedAt != nil && rec.ArchivedAt.Before(cutoff) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range stale {
		key := key
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			return err
		}
		s.logger.Info("pruned archived poll", "key", string(key))
	}
	return nil
}

func (s *Store) put(key []byte, rec *models.PollRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) get(key []byte) (*models.PollRecord, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", string(key), err)
	}
	var rec models.PollRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", string(key), err)
	}
	return &rec, nil
}
