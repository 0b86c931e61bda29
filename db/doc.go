// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles ledger database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - polls: one row per poll, options serialized as an encoded list,
    alert_sent as an integer flag
  - votes: one row per (poll_id, user_id, option); the composite primary
    key deduplicates repeated inserts

The DDL is portable across sqlite and postgres: timestamps are RFC 3339
TEXT columns and no dialect-specific defaults are used.
*/
package db
