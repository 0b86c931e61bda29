// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Metrics listen port (default: 3318)
  - DataDir: Directory holding the record store (default: data)
  - DatabaseURL: Ledger connection string (default: <DataDir>/polls.db for sqlite; required for postgres)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - RetentionDays: Days archived polls are kept (default: 30)
  - RefreshMinutes: Minutes between live display refreshes (default: 1)
  - NotifyCooldownSeconds: Cooldown between manual absentee pings (default: 600)
  - AbsenteeChannelID: Channel for post-close absentee summaries (optional)

# Environment Variables

Flags fall back to environment variables:

	PORT                    → -p
	DATA_DIR                → -data
	DATABASE_URL            → -d
	DATABASE_TYPE           → -t
	RETENTION_DAYS          → -retention-days
	REFRESH_MINUTES         → -refresh-minutes
	NOTIFY_COOLDOWN_SECONDS → -notify-cooldown
	ABSENTEE_CHANNEL_ID     → -absentee-channel

CLI flags take precedence over environment variables.
*/
package cliparse
