// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/danielhkuo/poll-warden/ledger"
	"github.com/danielhkuo/poll-warden/models"
	"github.com/danielhkuo/poll-warden/records"
)

var (
	ErrQuestionRequired = errors.New("question is required")
	ErrOptionCount      = errors.New("between 2 and 5 options are required")
	ErrOptionEmpty      = errors.New("options must be non-empty")
	ErrOptionDuplicate  = errors.New("options must be unique")
	ErrUnknownOption    = errors.New("option is not part of this poll")
)

// Engine is the poll state machine. It writes through to the record store
// (authoritative, failures propagate) and mirrors votes into the ledger
// (projection, failures logged).
type Engine struct {
	records *records.Store
	ledger  *ledger.Store
	logger  *slog.Logger
}

func New(recs *records.Store, led *ledger.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{records: recs, ledger: led, logger: logger}
}

// CreateParams carries everything needed to open a new poll.
type CreateParams struct {
	Question        string
	Options         []string
	CreatedBy       string
	Multiple        bool
	DurationMinutes int
	NotifyRoles     []string

	// Opaque message location for the rendering layer.
	GuildID   string
	ChannelID string
	MessageID string
}

func validateOptions(options []string) error {
	if len(options) < models.MinOptions || len(options) > models.MaxOptions {
		return ErrOptionCount
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if opt == "" {
			return ErrOptionEmpty
		}
		if seen[opt] {
			return ErrOptionDuplicate
		}
		seen[opt] = true
	}
	return nil
}

// Create opens a new poll and persists it. The record write is required;
// the ledger row is mirrored best-effort.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*models.PollRecord, error) {
	if p.Question == "" {
		return nil, ErrQuestionRequired
	}
	if err := validateOptions(p.Options); err != nil {
		return nil, err
	}

	// Ids must be unique across active and archived polls combined.
	var id string
	for attempt := 0; ; attempt++ {
		id = models.NewPollID()
		exists, err := e.records.Has(id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		if attempt >= 4 {
			return nil, fmt.Errorf("failed to allocate unique poll id")
		}
	}

	now := time.Now().UTC()
	var endsAt *time.Time
	if p.DurationMinutes > 0 {
		v := now.Add(time.Duration(p.DurationMinutes) * time.Minute)
		endsAt = &v
	}

	rec := &models.PollRecord{
		ID:              id,
		Question:        p.Question,
		Options:         slices.Clone(p.Options),
		CreatedBy:       p.CreatedBy,
		CreatedAt:       now,
		Status:          models.StatusOpen,
		Multiple:        p.Multiple,
		DurationMinutes: p.DurationMinutes,
		EndsAt:          endsAt,
		NotifyRoles:     slices.Clone(p.NotifyRoles),
		AlertSent:       false,
		Votes:           map[string][]string{},
		GuildID:         p.GuildID,
		ChannelID:       p.ChannelID,
		MessageID:       p.MessageID,
	}

	if err := e.records.Save(rec); err != nil {
		return nil, err
	}
	if err := e.ledger.CreatePoll(rec); err != nil {
		e.logger.Warn("ledger poll insert failed", "poll_id", id, "error", err)
	}

	e.logger.Info("poll created", "poll_id", id, "creator", p.CreatedBy, "ends_at", endsAt)
	return rec, nil
}

// Get loads a poll from the active partition, nil if absent.
func (e *Engine) Get(id string) (*models.PollRecord, error) {
	return e.records.Load(id)
}

// RegisterVote toggles one user's selection of option.
//
// A missing or closed poll yields OutcomeClosed with ActionNone. A poll
// whose deadline has already elapsed is lazily expired: closed, archived,
// and reported as OutcomeClosed regardless of whether any scheduler task
// has fired. Errors are returned only for required record writes.
func (e *Engine) RegisterVote(ctx context.Context, pollID, userID, option string) (*models.PollRecord, string, string, error) {
	rec, err := e.records.Load(pollID)
	if err != nil {
		return nil, "", models.ActionNone, err
	}
	if rec == nil {
		return nil, models.OutcomeClosed, models.ActionNone, nil
	}

	now := time.Now().UTC()
	if rec.Expired(now) {
		closed, err := e.Close(ctx, pollID, models.CloseReasonExpired)
		if err != nil {
			return nil, "", models.ActionNone, err
		}
		return closed, models.OutcomeClosed, models.ActionNone, nil
	}
	if rec.Status != models.StatusOpen {
		return rec, models.OutcomeClosed, models.ActionNone, nil
	}
	if !rec.HasOption(option) {
		return rec, "", models.ActionNone, fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}

	outcome := models.OutcomeClosed
	action := models.ActionNone
	updated, err := e.records.Update(pollID, func(r *models.PollRecord) bool {
		// Re-validate freshness under the store lock.
		if !r.EffectivelyOpen(now) {
			return false
		}
		outcome = models.OutcomeOK
		action = toggleVote(r, userID, option)
		return true
	})
	if err != nil {
		return nil, "", models.ActionNone, err
	}
	if updated == nil {
		return nil, models.OutcomeClosed, models.ActionNone, nil
	}
	if outcome != models.OutcomeOK {
		return updated, models.OutcomeClosed, models.ActionNone, nil
	}

	// Mirror the transition into the ledger. Duplicate rows and other
	// ledger failures are benign: the record store already holds truth.
	switch action {
	case models.ActionAdded:
		if _, err := e.ledger.AddVote(pollID, userID, option); err != nil {
			e.logger.Warn("ledger vote insert failed", "poll_id", pollID, "user_id", userID, "error", err)
		}
	case models.ActionRemoved:
		if err := e.ledger.RemoveVote(pollID, userID, option); err != nil {
			e.logger.Warn("ledger vote delete failed", "poll_id", pollID, "user_id", userID, "error", err)
		}
	}

	e.logger.Info("vote registered", "poll_id", pollID, "user_id", userID, "option", option, "action", action)
	return updated, outcome, action, nil
}

// toggleVote applies the per-user toggle rule and returns the action taken.
func toggleVote(rec *models.PollRecord, userID, option string) string {
	if rec.Votes == nil {
		rec.Votes = map[string][]string{}
	}
	votes := rec.Votes[userID]

	if rec.Multiple {
		if i := slices.Index(votes, option); i >= 0 {
			votes = slices.Delete(votes, i, i+1)
			if len(votes) == 0 {
				delete(rec.Votes, userID)
			} else {
				rec.Votes[userID] = votes
			}
			return models.ActionRemoved
		}
		rec.Votes[userID] = append(votes, option)
		return models.ActionAdded
	}

	// Single-choice: re-picking the current selection clears it, anything
	// else overwrites it.
	if len(votes) > 0 && votes[0] == option {
		delete(rec.Votes, userID)
		return models.ActionRemoved
	}
	rec.Votes[userID] = []string{option}
	return models.ActionAdded
}

// ComputeResults tallies votes per option from the authoritative record.
// Every declared option is present, zero-voted ones included.
func (e *Engine) ComputeResults(rec *models.PollRecord) map[string]int {
	counts := make(map[string]int, len(rec.Options))
	for _, opt := range rec.Options {
		counts[opt] = 0
	}
	for _, selections := range rec.Votes {
		for _, opt := range selections {
			if _, ok := counts[opt]; ok {
				counts[opt]++
			}
		}
	}
	return counts
}

// Close is the single idempotent closure operation: flips status, mirrors
// it into the ledger, and archives the record. Whichever path first
// observes expiry (vote, scheduler, manual) funnels through here.
// Returns (nil, nil) if the poll does not exist.
func (e *Engine) Close(ctx context.Context, pollID, reason string) (*models.PollRecord, error) {
	changed := false
	rec, err := e.records.Update(pollID, func(r *models.PollRecord) bool {
		if r.Status == models.StatusClosed {
			return false
		}
		r.Status = models.StatusClosed
		changed = true
		return true
	})
	if err != nil || rec == nil {
		return rec, err
	}
	if !changed {
		return rec, nil
	}

	if err := e.ledger.UpdateStatus(pollID, models.StatusClosed); err != nil {
		e.logger.Warn("ledger status update failed", "poll_id", pollID, "error", err)
	}
	if err := e.records.Archive(pollID); err != nil {
		return rec, err
	}

	e.logger.Info("poll closed", "poll_id", pollID, "reason", reason)
	return rec, nil
}

// SetStatus forces a status transition; closing archives the poll. Used
// for manual admin close. Closed polls stay closed.
func (e *Engine) SetStatus(ctx context.Context, pollID, status string) (*models.PollRecord, error) {
	if status == models.StatusClosed {
		return e.Close(ctx, pollID, models.CloseReasonManual)
	}

	rec, err := e.records.Update(pollID, func(r *models.PollRecord) bool {
		if r.Status == models.StatusClosed {
			return false
		}
		r.Status = status
		return true
	})
	if err != nil || rec == nil {
		return rec, err
	}
	if err := e.ledger.UpdateStatus(pollID, rec.Status); err != nil {
		e.logger.Warn("ledger status update failed", "poll_id", pollID, "error", err)
	}
	return rec, nil
}

// MarkAlertSent persists the single-fire reminder guard.
func (e *Engine) MarkAlertSent(pollID string) (*models.PollRecord, error) {
	rec, err := e.records.Update(pollID, func(r *models.PollRecord) bool {
		if r.AlertSent {
			return false
		}
		r.AlertSent = true
		return true
	})
	if err != nil || rec == nil {
		return rec, err
	}
	if err := e.ledger.SetAlertSent(pollID, true); err != nil {
		e.logger.Warn("ledger alert flag update failed", "poll_id", pollID, "error", err)
	}
	return rec, nil
}

// MarkNotified stamps the manual-notification cooldown anchor.
func (e *Engine) MarkNotified(pollID string, now time.Time) (*models.PollRecord, error) {
	return e.records.Update(pollID, func(r *models.PollRecord) bool {
		r.LastNotifyTs = now.Unix()
		return true
	})
}

// FetchOpenPollsWithDeadline exposes the scheduler resume query.
func (e *Engine) FetchOpenPollsWithDeadline() ([]ledger.OpenPoll, error) {
	return e.ledger.FetchOpenPollsWithDeadline()
}

// GetVotesByOption exposes the ledger's audit view of one poll's votes.
func (e *Engine) GetVotesByOption(pollID string) (map[string][]string, error) {
	return e.ledger.GetVotes(pollID)
}

// CountVotesByOption exposes the ledger's per-option counts.
func (e *Engine) CountVotesByOption(pollID string) (map[string]int, error) {
	return e.ledger.CountVotes(pollID)
}

// RebuildLedger re-derives the ledger projection from the active records.
func (e *Engine) RebuildLedger() error {
	recs, err := e.records.ListActive()
	if err != nil {
		return err
	}
	return e.ledger.Rebuild(recs)
}
