// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package absences

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestRecordMissUpserts(t *testing.T) {
	reg := openTestRegistry(t)

	rec, err := reg.RecordMiss("u1", "Alice", "guild-1")
	if err != nil {
		t.Fatalf("RecordMiss failed: %v", err)
	}
	if rec.MissedVotes != 1 {
		t.Errorf("Expected counter 1, got %d", rec.MissedVotes)
	}
	if rec.LastMissedAt == nil {
		t.Error("Expected last-missed timestamp")
	}

	// Second miss increments and refreshes descriptive fields
	rec, err = reg.RecordMiss("u1", "Alice Renamed", "guild-2")
	if err != nil {
		t.Fatalf("RecordMiss failed: %v", err)
	}
	if rec.MissedVotes != 2 {
		t.Errorf("Expected counter 2, got %d", rec.MissedVotes)
	}
	if rec.DisplayName != "Alice Renamed" || rec.Context != "guild-2" {
		t.Errorf("Descriptive fields not refreshed: %+v", rec)
	}

	stored, err := reg.Get("u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.MissedVotes != 2 {
		t.Errorf("Persisted counter = %d, want 2", stored.MissedVotes)
	}
}

func TestResetUser(t *testing.T) {
	reg := openTestRegistry(t)
	reg.RecordMiss("u1", "Alice", "g")

	existed, err := reg.ResetUser("u1")
	if err != nil {
		t.Fatalf("ResetUser failed: %v", err)
	}
	if !existed {
		t.Error("Expected reset of existing record to report true")
	}

	existed, err = reg.ResetUser("u1")
	if err != nil {
		t.Fatalf("ResetUser failed: %v", err)
	}
	if existed {
		t.Error("Expected reset of missing record to report false")
	}

	rec, _ := reg.Get("u1")
	if rec != nil {
		t.Error("Record should be gone after reset")
	}
}

func TestResetAllAndList(t *testing.T) {
	reg := openTestRegistry(t)
	reg.RecordMiss("u2", "Bob", "g")
	reg.RecordMiss("u1", "Alice", "g")

	recs, err := reg.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 2 || recs[0].UserID != "u1" || recs[1].UserID != "u2" {
		t.Errorf("Expected sorted [u1 u2], got %+v", recs)
	}

	if err := reg.ResetAll(); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}
	recs, err = reg.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected empty registry, got %+v", recs)
	}
}
