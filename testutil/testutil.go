// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/poll-warden/db"
	"github.com/danielhkuo/poll-warden/engine"
	"github.com/danielhkuo/poll-warden/ledger"
	"github.com/danielhkuo/poll-warden/models"
	"github.com/danielhkuo/poll-warden/notify"
	"github.com/danielhkuo/poll-warden/records"
)

// OpenBadger opens a throwaway in-memory badger database.
func OpenBadger(t *testing.T) *badger.DB {
	t.Helper()

	bdb, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { bdb.Close() })
	return bdb
}

// OpenLedger opens a fresh sqlite-backed ledger with the full schema.
func OpenLedger(t *testing.T) *ledger.Store {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "polls.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return ledger.New(conn)
}

// NewEngine wires a full engine over fresh test stores.
func NewEngine(t *testing.T) (*engine.Engine, *records.Store, *ledger.Store) {
	t.Helper()

	recs := records.New(OpenBadger(t), 0, slog.Default())
	led := OpenLedger(t)
	return engine.New(recs, led, slog.Default()), recs, led
}

// SavePoll persists a hand-built record through both stores, bypassing
// Create so tests can control deadlines precisely.
func SavePoll(t *testing.T, recs *records.Store, led *ledger.Store, rec *models.PollRecord) {
	t.Helper()

	if err := recs.Save(rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if err := led.CreatePoll(rec); err != nil {
		t.Fatalf("Failed to mirror poll row: %v", err)
	}
}

// MakePoll builds an open two-option poll record. endsIn <= 0 means no
// deadline; negative values are allowed via MakeExpiredPoll instead.
func MakePoll(id string, endsIn time.Duration) *models.PollRecord {
	now := time.Now().UTC()
	rec := &models.PollRecord{
		ID:        id,
		Question:  "Lunch?",
		Options:   []string{"Pizza", "Sushi"},
		CreatedBy: "alice",
		CreatedAt: now,
		Status:    models.StatusOpen,
		Multiple:  true,
		Votes:     map[string][]string{},
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		MessageID: "msg-1",
	}
	if endsIn > 0 {
		endsAt := now.Add(endsIn)
		rec.EndsAt = &endsAt
	}
	return rec
}

// MakeExpiredPoll builds an open poll whose deadline passed expiredFor ago.
func MakeExpiredPoll(id string, expiredFor time.Duration) *models.PollRecord {
	rec := MakePoll(id, 0)
	createdAt := time.Now().UTC().Add(-expiredFor - time.Hour)
	endsAt := time.Now().UTC().Add(-expiredFor)
	rec.CreatedAt = createdAt
	rec.EndsAt = &endsAt
	return rec
}

// FakeNotifier records every delivery for later assertions.
type FakeNotifier struct {
	mu       sync.Mutex
	Channel  []string
	User     []string
	FailWith error
}

func (f *FakeNotifier) SendToChannel(ctx context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.Channel = append(f.Channel, text)
	return nil
}

func (f *FakeNotifier) SendToUser(ctx context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.User = append(f.User, userID)
	return nil
}

func (f *FakeNotifier) ChannelMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Channel...)
}

func (f *FakeNotifier) UserMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.User...)
}

// FakeRenderer counts render calls; Panic makes every call panic, for
// task isolation tests.
type FakeRenderer struct {
	mu    sync.Mutex
	Calls int
	Panic bool
}

func (f *FakeRenderer) RenderPoll(ctx context.Context, rec *models.PollRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Panic {
		panic("renderer exploded")
	}
	f.Calls++
	return nil
}

func (f *FakeRenderer) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// FakeRoster serves a fixed member list.
type FakeRoster struct {
	Members []notify.Member
}

func (f *FakeRoster) MembersWithRoles(ctx context.Context, guildID string, roleIDs []string) ([]notify.Member, error) {
	return f.Members, nil
}
