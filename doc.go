// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Poll Warden service.

Poll Warden runs time-bounded group polls: it opens polls with a fixed
deadline, collects toggleable votes, reminds members who have not voted,
closes polls at the deadline, and tracks missed-vote counts per member.

# Starting the Service

	go run main.go

Or with an explicit ledger:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run main.go

# Configuration

Optional settings (all have defaults):

  - PORT (-p): Metrics listen port (default: 3318)
  - DATA_DIR (-data): Record store directory (default: data)
  - DATABASE_URL (-d): Ledger connection string (default: <DATA_DIR>/polls.db)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - RETENTION_DAYS (-retention-days): Archived poll retention (default: 30)
  - REFRESH_MINUTES (-refresh-minutes): Live display refresh interval (default: 1)
  - NOTIFY_COOLDOWN_SECONDS (-notify-cooldown): Manual ping cooldown (default: 600)
  - ABSENTEE_CHANNEL_ID (-absentee-channel): Post-close summary channel (optional)

# Architecture

The service is organized around an engine with injected collaborators:

  - engine: Poll lifecycle (create, vote, close, results)
  - records: Authoritative poll storage (badger, active/archive partitions)
  - ledger: Queryable vote projection (sqlite or postgres)
  - scheduler: Per-poll deadline, reminder, and refresh tasks
  - absences: Missed-vote counters per member
  - notify: Delivery interfaces and the manual-ping cooldown gate
  - models: Shared record types
  - db: Ledger schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
