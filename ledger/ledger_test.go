// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/poll-warden/db"
	"github.com/danielhkuo/poll-warden/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "polls.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return New(conn)
}

func testPoll(id string, endsAt *time.Time) *models.PollRecord {
	return &models.PollRecord{
		ID:        id,
		Question:  "Lunch?",
		Options:   []string{"Pizza", "Sushi"},
		CreatedBy: "alice",
		CreatedAt: time.Now().UTC(),
		Status:    models.StatusOpen,
		Multiple:  true,
		EndsAt:    endsAt,
		Votes:     map[string][]string{},
	}
}

func TestAddVoteDeduplicates(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CreatePoll(testPoll("p1", nil)); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	inserted, err := store.AddVote("p1", "bob", "Pizza")
	if err != nil {
		t.Fatalf("AddVote failed: %v", err)
	}
	if !inserted {
		t.Error("First insert should report a new row")
	}

	inserted, err = store.AddVote("p1", "bob", "Pizza")
	if err != nil {
		t.Fatalf("Duplicate AddVote must not error: %v", err)
	}
	if inserted {
		t.Error("Duplicate insert should report no new row")
	}

	counts, err := store.CountVotes("p1")
	if err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	if counts["Pizza"] != 1 {
		t.Errorf("Expected 1 Pizza vote, got %d", counts["Pizza"])
	}
}

func TestRemoveVote(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CreatePoll(testPoll("p1", nil)); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	if _, err := store.AddVote("p1", "bob", "Pizza"); err != nil {
		t.Fatalf("AddVote failed: %v", err)
	}
	if err := store.RemoveVote("p1", "bob", "Pizza"); err != nil {
		t.Fatalf("RemoveVote failed: %v", err)
	}

	counts, err := store.CountVotes("p1")
	if err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	if counts["Pizza"] != 0 {
		t.Errorf("Expected 0 Pizza votes after removal, got %d", counts["Pizza"])
	}

	// Removing an absent row is a no-op
	if err := store.RemoveVote("p1", "bob", "Pizza"); err != nil {
		t.Errorf("Removing absent vote must not error: %v", err)
	}
}

func TestGetVotes(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CreatePoll(testPoll("p1", nil)); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	for _, v := range []struct{ user, option string }{
		{"bob", "Pizza"},
		{"carol", "Pizza"},
		{"carol", "Sushi"},
	} {
		if _, err := store.AddVote("p1", v.user, v.option); err != nil {
			t.Fatalf("AddVote(%s, %s) failed: %v", v.user, v.option, err)
		}
	}

	votes, err := store.GetVotes("p1")
	if err != nil {
		t.Fatalf("GetVotes failed: %v", err)
	}

	if len(votes["Pizza"]) != 2 {
		t.Errorf("Expected 2 Pizza voters, got %v", votes["Pizza"])
	}
	if len(votes["Sushi"]) != 1 || votes["Sushi"][0] != "carol" {
		t.Errorf("Expected Sushi voter carol, got %v", votes["Sushi"])
	}
}

func TestFetchOpenPollsWithDeadline(t *testing.T) {
	store := setupTestStore(t)
	deadline := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	// Open with deadline: included
	if err := store.CreatePoll(testPoll("with-deadline", &deadline)); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	// Open without deadline: excluded
	if err := store.CreatePoll(testPoll("no-deadline", nil)); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	// Closed with deadline: excluded
	closed := testPoll("closed", &deadline)
	if err := store.CreatePoll(closed); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	if err := store.UpdateStatus("closed", models.StatusClosed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	polls, err := store.FetchOpenPollsWithDeadline()
	if err != nil {
		t.Fatalf("FetchOpenPollsWithDeadline failed: %v", err)
	}

	if len(polls) != 1 {
		t.Fatalf("Expected exactly 1 open poll with deadline, got %d", len(polls))
	}
	if polls[0].ID != "with-deadline" {
		t.Errorf("Expected poll with-deadline, got %s", polls[0].ID)
	}
	if !polls[0].EndsAt.Equal(deadline) {
		t.Errorf("Deadline round-trip mismatch: want %v, got %v", deadline, polls[0].EndsAt)
	}
}

func TestSetAlertSent(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CreatePoll(testPoll("p1", nil)); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	if err := store.SetAlertSent("p1", true); err != nil {
		t.Fatalf("SetAlertSent failed: %v", err)
	}
}

func TestRebuild(t *testing.T) {
	store := setupTestStore(t)

	// Seed the ledger with rows that the rebuild must replace.
	stale := testPoll("stale", nil)
	if err := store.CreatePoll(stale); err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	if _, err := store.AddVote("stale", "bob", "Pizza"); err != nil {
		t.Fatalf("AddVote failed: %v", err)
	}

	rec := testPoll("p1", nil)
	rec.Votes = map[string][]string{
		"bob":   {"Pizza"},
		"carol": {"Pizza", "Sushi"},
	}

	if err := store.Rebuild([]*models.PollRecord{rec}); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if _, err := store.CountVotes("stale"); err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	staleCounts, _ := store.CountVotes("stale")
	if len(staleCounts) != 0 {
		t.Errorf("Stale poll votes should be gone, got %v", staleCounts)
	}

	counts, err := store.CountVotes("p1")
	if err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	if counts["Pizza"] != 2 || counts["Sushi"] != 1 {
		t.Errorf("Rebuilt counts wrong: %v", counts)
	}
}
