// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port                  int
	DataDir               string
	DatabaseURL           string
	DatabaseType          string
	RetentionDays         int
	RefreshMinutes        int
	NotifyCooldownSeconds int
	AbsenteeChannelID     string
}

// ParseFlags validates flags and applies environment fallbacks
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("poll-warden", flag.ContinueOnError)

	// Core config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Metrics listen port")
	fs.StringVar(&cfg.DataDir, "data", "", "Data directory for the record store")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Ledger database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Ledger database type (sqlite or postgres)")

	// Tunables
	fs.IntVar(&cfg.RetentionDays, "retention-days", 0, "Days to keep archived polls")
	fs.IntVar(&cfg.RefreshMinutes, "refresh-minutes", 0, "Minutes between live display refreshes")
	fs.IntVar(&cfg.NotifyCooldownSeconds, "notify-cooldown", 0, "Seconds between manual absentee pings")
	fs.StringVar(&cfg.AbsenteeChannelID, "absentee-channel", "", "Channel for post-close absentee summaries")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("DATA_DIR")
		if cfg.DataDir == "" {
			cfg.DataDir = "data"
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = filepath.Join(cfg.DataDir, "polls.db")
	}

	var err error
	if cfg.RetentionDays == 0 {
		if cfg.RetentionDays, err = intEnv("RETENTION_DAYS"); err != nil {
			return Config{}, err
		}
		if cfg.RetentionDays == 0 {
			cfg.RetentionDays = 30
		}
	}
	if cfg.RetentionDays < 0 {
		return Config{}, errors.New("retention days must be positive")
	}

	if cfg.RefreshMinutes == 0 {
		if cfg.RefreshMinutes, err = intEnv("REFRESH_MINUTES"); err != nil {
			return Config{}, err
		}
		if cfg.RefreshMinutes == 0 {
			cfg.RefreshMinutes = 1
		}
	}

	if cfg.NotifyCooldownSeconds == 0 {
		if cfg.NotifyCooldownSeconds, err = intEnv("NOTIFY_COOLDOWN_SECONDS"); err != nil {
			return Config{}, err
		}
		if cfg.NotifyCooldownSeconds == 0 {
			cfg.NotifyCooldownSeconds = 600
		}
	}

	if cfg.AbsenteeChannelID == "" {
		cfg.AbsenteeChannelID = os.Getenv("ABSENTEE_CHANNEL_ID")
	}

	return cfg, nil
}

func intEnv(name string) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + name + " env variable")
	}
	return n, nil
}
