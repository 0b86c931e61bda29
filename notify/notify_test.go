// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"testing"
	"time"

	"github.com/danielhkuo/poll-warden/models"
)

func TestGateCheck(t *testing.T) {
	now := time.Now()
	gate := NewGate(600 * time.Second)

	tests := []struct {
		name          string
		lastNotify    int64
		wantOK        bool
		wantRemaining time.Duration
	}{
		{"never notified", 0, true, 0},
		{"just notified", now.Unix(), false, 600 * time.Second},
		{"100s into cooldown", now.Add(-100 * time.Second).Unix(), false, 500 * time.Second},
		{"cooldown elapsed", now.Add(-600 * time.Second).Unix(), true, 0},
		{"long past cooldown", now.Add(-2 * time.Hour).Unix(), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, ok := gate.Check(tt.lastNotify, now)
			if ok != tt.wantOK {
				t.Errorf("Check() ok = %v, want %v", ok, tt.wantOK)
			}
			// Unix truncation can cost up to a second
			diff := remaining - tt.wantRemaining
			if diff < -time.Second || diff > time.Second {
				t.Errorf("Check() remaining = %v, want ~%v", remaining, tt.wantRemaining)
			}
		})
	}
}

func TestGateDefaultCooldown(t *testing.T) {
	gate := NewGate(0)
	if gate.Cooldown != DefaultCooldown {
		t.Errorf("Expected default cooldown %v, got %v", DefaultCooldown, gate.Cooldown)
	}
}

func TestAbsentees(t *testing.T) {
	rec := &models.PollRecord{
		Votes: map[string][]string{
			"alice": {"A"},
		},
	}

	members := []Member{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
		{ID: "robo", DisplayName: "Robo", Bot: true},
	}

	missing := Absentees(rec, members)
	if len(missing) != 1 {
		t.Fatalf("Expected 1 absentee, got %d", len(missing))
	}
	if missing[0].ID != "bob" {
		t.Errorf("Expected bob to be absent, got %s", missing[0].ID)
	}
}
