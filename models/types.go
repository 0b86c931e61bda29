// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Poll status constants
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Vote outcome constants. These are the only outcomes exposed past the
// engine boundary; internal error categories never leak into them.
const (
	OutcomeOK     = "ok"
	OutcomeClosed = "closed"
)

// Vote action constants
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
	ActionNone    = ""
)

// Close reason constants
const (
	CloseReasonAuto    = "auto"
	CloseReasonManual  = "manual"
	CloseReasonExpired = "expired"
)

// Option count limits enforced at poll creation
const (
	MinOptions = 2
	MaxOptions = 5
)

// PollRecord is the authoritative representation of one poll. It is stored
// whole in the record store; the relational ledger mirrors only derived rows.
type PollRecord struct {
	ID              string     `json:"poll_id"`
	Question        string     `json:"question"`
	Options         []string   `json:"options"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	Status          string     `json:"status"`
	Multiple        bool       `json:"multiple"`
	DurationMinutes int        `json:"duration_minutes"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	NotifyRoles     []string   `json:"notify_roles"`
	AlertSent       bool       `json:"alert_sent"`
	LastNotifyTs    int64      `json:"last_notify_ts,omitempty"`

	// Votes maps a user id to that user's ordered option selections.
	// Users with no selections are absent from the map entirely.
	Votes map[string][]string `json:"votes"`

	// Opaque location of the live poll message; consumed by the external
	// renderer, never interpreted here.
	GuildID   string `json:"guild_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`

	// ArchivedAt anchors retention pruning. Set when the record moves to
	// the archive partition, nil while active.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Expired reports whether the poll has a deadline that has already passed.
func (p *PollRecord) Expired(now time.Time) bool {
	return p.EndsAt != nil && !now.Before(*p.EndsAt)
}

// EffectivelyOpen is the single source of truth for "can this poll still
// accept votes". Both the vote path and the scheduler tasks consult it.
func (p *PollRecord) EffectivelyOpen(now time.Time) bool {
	return p.Status == StatusOpen && !p.Expired(now)
}

// HasVoted reports whether the user holds at least one selection.
func (p *PollRecord) HasVoted(userID string) bool {
	return len(p.Votes[userID]) > 0
}

// HasOption reports whether option is one of the poll's declared options.
func (p *PollRecord) HasOption(option string) bool {
	return slices.Contains(p.Options, option)
}

// AbsenceRecord tracks missed-vote events for one user across all polls.
// The counter is monotonic; only an explicit operator reset clears it.
type AbsenceRecord struct {
	UserID       string     `json:"user_id"`
	DisplayName  string     `json:"display_name"`
	Context      string     `json:"context"`
	MissedVotes  int        `json:"missed_votes"`
	LastMissedAt *time.Time `json:"last_missed,omitempty"`
}

// NewPollID returns a short random poll identifier (8 hex characters).
func NewPollID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
