// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the vote ledger.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are stored as RFC 3339 TEXT so the same DDL works on both
// sqlite and postgres.
const schema = `
-- Polls (projection of the authoritative record store)
CREATE TABLE IF NOT EXISTS polls (
    poll_id TEXT PRIMARY KEY,
    guild_id TEXT,
    channel_id TEXT,
    message_id TEXT,
    question TEXT NOT NULL,
    options TEXT NOT NULL,
    created_by TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    ends_at TEXT,
    alert_sent INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_polls_status ON polls(status);

-- Votes (composite key naturally deduplicates)
CREATE TABLE IF NOT EXISTS votes (
    poll_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    option TEXT NOT NULL,
    PRIMARY KEY (poll_id, user_id, option)
);

CREATE INDEX IF NOT EXISTS idx_votes_poll_id ON votes(poll_id);
`
