// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"testing"
	"time"
)

func TestEffectivelyOpen(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name   string
		status string
		endsAt *time.Time
		want   bool
	}{
		{"open with future deadline", StatusOpen, &future, true},
		{"open with no deadline", StatusOpen, nil, true},
		{"open past deadline", StatusOpen, &past, false},
		{"open exactly at deadline", StatusOpen, &now, false},
		{"closed with future deadline", StatusClosed, &future, false},
		{"closed with no deadline", StatusClosed, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &PollRecord{Status: tt.status, EndsAt: tt.endsAt}
			if got := rec.EffectivelyOpen(now); got != tt.want {
				t.Errorf("EffectivelyOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasVoted(t *testing.T) {
	rec := &PollRecord{
		Votes: map[string][]string{
			"alice": {"A"},
			"bob":   {},
		},
	}

	if !rec.HasVoted("alice") {
		t.Error("Expected alice to have voted")
	}
	if rec.HasVoted("bob") {
		t.Error("Empty selection set should not count as voted")
	}
	if rec.HasVoted("carol") {
		t.Error("Unknown user should not count as voted")
	}
}

func TestNewPollID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewPollID()
		if len(id) != 8 {
			t.Fatalf("Expected 8-character ID, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}
