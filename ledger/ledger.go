// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/poll-warden/models"
)

// Store is the relational vote ledger: a denormalized, independently
// queryable mirror of the record store's vote data. It is a derived
// projection, never the source of truth for current vote state; the engine
// treats every write here as best-effort.
type Store struct {
	db *sql.DB
}

// OpenPoll is one row of the scheduler resume query.
type OpenPoll struct {
	ID     string
	EndsAt time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreatePoll inserts the poll row mirroring a freshly created record.
func (s *Store) CreatePoll(rec *models.PollRecord) error {
	options, err := json.Marshal(rec.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	var endsAt *string
	if rec.EndsAt != nil {
		v := rec.EndsAt.UTC().Format(time.RFC3339Nano)
		endsAt = &v
	}

	alertSent := 0
	if rec.AlertSent {
		alertSent = 1
	}

	_, err = s.db.Exec(`
		INSERT INTO polls (
			poll_id, guild_id, channel_id, message_id,
			question, options, created_by,
			status, created_at, ends_at, alert_sent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.ID, rec.GuildID, rec.ChannelID, rec.MessageID,
		rec.Question, string(options), rec.CreatedBy,
		rec.Status, rec.CreatedAt.UTC().Format(time.RFC3339Nano), endsAt, alertSent)
	if err != nil {
		return fmt.Errorf("failed to insert poll row: %w", err)
	}
	return nil
}

// UpdateStatus mirrors a status transition into the poll row.
func (s *Store) UpdateStatus(pollID, status string) error {
	_, err := s.db.Exec(`UPDATE polls SET status = $1 WHERE poll_id = $2`, status, pollID)
	if err != nil {
		return fmt.Errorf("failed to update poll status: %w", err)
	}
	return nil
}

// SetAlertSent mirrors the reminder flag into the poll row.
func (s *Store) SetAlertSent(pollID string, sent bool) error {
	flag := 0
	if sent {
		flag = 1
	}
	_, err := s.db.Exec(`UPDATE polls SET alert_sent = $1 WHERE poll_id = $2`, flag, pollID)
	if err != nil {
		return fmt.Errorf("failed to update alert flag: %w", err)
	}
	return nil
}

// AddVote inserts one vote row. Returns false when the row already existed;
// the composite primary key makes repeated inserts a benign no-op.
func (s *Store) AddVote(pollID, userID, option string) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO votes (poll_id, user_id, option)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, pollID, userID, option)
	if err != nil {
		return false, fmt.Errorf("failed to insert vote row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// RemoveVote deletes one vote row. Deleting an absent row is a no-op.
func (s *Store) RemoveVote(pollID, userID, option string) error {
	_, err := s.db.Exec(`
		DELETE FROM votes
		WHERE poll_id = $1 AND user_id = $2 AND option = $3
	`, pollID, userID, option)
	if err != nil {
		return fmt.Errorf("failed to delete vote row: %w", err)
	}
	return nil
}

// GetVotes returns the audit view of one poll's votes as option -> user ids.
func (s *Store) GetVotes(pollID string) (map[string][]string, error) {
	rows, err := s.db.Query(`
		SELECT option, user_id FROM votes
		WHERE poll_id = $1
		ORDER BY option, user_id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := make(map[string][]string)
	for rows.Next() {
		var option, userID string
		if err := rows.Scan(&option, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan vote row: %w", err)
		}
		votes[option] = append(votes[option], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}

// CountVotes returns option -> vote count for one poll. Options with no
// rows are absent; callers wanting zero-filled results use the engine's
// ComputeResults over the authoritative record instead.
func (s *Store) CountVotes(pollID string) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT option, COUNT(*) FROM votes
		WHERE poll_id = $1
		GROUP BY option
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var option string
		var count int
		if err := rows.Scan(&option, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[option] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return counts, nil
}

// FetchOpenPollsWithDeadline returns every open poll carrying a deadline.
// The scheduler uses this on startup to re-derive task delays from the
// persisted absolute deadlines.
func (s *Store) FetchOpenPollsWithDeadline() ([]OpenPoll, error) {
	rows, err := s.db.Query(`
		SELECT poll_id, ends_at FROM polls
		WHERE status = $1 AND ends_at IS NOT NULL
	`, models.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open polls: %w", err)
	}
	defer rows.Close()

	var polls []OpenPoll
	for rows.Next() {
		var id, endsAt string
		if err := rows.Scan(&id, &endsAt); err != nil {
			return nil, fmt.Errorf("failed to scan open poll row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, endsAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deadline for poll %s: %w", id, err)
		}
		polls = append(polls, OpenPoll{ID: id, EndsAt: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open polls: %w", err)
	}
	return polls, nil
}

// Rebuild wipes the ledger and re-derives it from the authoritative
// records. The record store is the source of truth; this restores the
// projection after any divergence.
func (s *Store) Rebuild(recs []*models.PollRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM votes`); err != nil {
		return fmt.Errorf("failed to clear votes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM polls`); err != nil {
		return fmt.Errorf("failed to clear polls: %w", err)
	}

	for _, rec := range recs {
		options, err := json.Marshal(rec.Options)
		if err != nil {
			return fmt.Errorf("failed to encode options for poll %s: %w", rec.ID, err)
		}
		var endsAt *string
		if rec.EndsAt != nil {
			v := rec.EndsAt.UTC().Format(time.RFC3339Nano)
			endsAt = &v
		}
		alertSent := 0
		if rec.AlertSent {
			alertSent = 1
		}
		_, err = tx.Exec(`
			INSERT INTO polls (
				poll_id, guild_id, channel_id, message_id,
				question, options, created_by,
				status, created_at, ends_at, alert_sent
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, rec.ID, rec.GuildID, rec.ChannelID, rec.MessageID,
			rec.Question, string(options), rec.CreatedBy,
			rec.Status, rec.CreatedAt.UTC().Format(time.RFC3339Nano), endsAt, alertSent)
		if err != nil {
			return fmt.Errorf("failed to rebuild poll row %s: %w", rec.ID, err)
		}

		for userID, selections := range rec.Votes {
			for _, option := range selections {
				_, err := tx.Exec(`
					INSERT INTO votes (poll_id, user_id, option)
					VALUES ($1, $2, $3)
					ON CONFLICT DO NOTHING
				`, rec.ID, userID, option)
				if err != nil {
					return fmt.Errorf("failed to rebuild vote row: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rebuild: %w", err)
	}
	return nil
}
