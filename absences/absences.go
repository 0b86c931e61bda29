// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package absences

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/danielhkuo/poll-warden/models"
)

const keyPrefix = "absence/"

// Registry counts missed-vote events per user, independent of any single
// poll. It shares the badger database with the record store under its own
// key prefix.
type Registry struct {
	db *badger.DB
	mu sync.Mutex
}

func New(db *badger.DB) *Registry {
	return &Registry{db: db}
}

func key(userID string) []byte { return []byte(keyPrefix + userID) }

// RecordMiss upserts the user's absence record: the counter increments and
// the descriptive fields are refreshed on every call, even when the record
// already existed.
func (r *Registry) RecordMiss(userID, displayName, context string) (*models.AbsenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &models.AbsenceRecord{UserID: userID}
	}

	now := time.Now().UTC()
	rec.DisplayName = displayName
	rec.Context = context
	rec.MissedVotes++
	rec.LastMissedAt = &now

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode absence record: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(userID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write absence record: %w", err)
	}
	return rec, nil
}

// Get returns one user's absence record, nil if absent.
func (r *Registry) Get(userID string) (*models.AbsenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(userID)
}

// List returns all absence records ordered by user id.
func (r *Registry) List() ([]*models.AbsenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []*models.AbsenceRecord
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec models.AbsenceRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list absence records: %w", err)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].UserID < recs[j].UserID })
	return recs, nil
}

// ResetUser removes one user's record, reporting whether it existed.
func (r *Registry) ResetUser(userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(userID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(userID))
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete absence record: %w", err)
	}
	return true, nil
}

// ResetAll clears every absence record unconditionally.
func (r *Registry) ResetAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enumerate absence records: %w", err)
	}

	for _, k := range keys {
		k := k
		err := r.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(k)
		})
		if err != nil {
			return fmt.Errorf("failed to clear absence records: %w", err)
		}
	}
	return nil
}

func (r *Registry) get(userID string) (*models.AbsenceRecord, error) {
	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(userID))
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
		return nil, fmt.Errorf("failed to read absence record: %w", err)
	}
	var rec models.AbsenceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode absence record: %w", err)
	}
	return &rec, nil
}
