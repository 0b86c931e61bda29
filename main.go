// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/poll-warden/absences"
	"github.com/danielhkuo/poll-warden/cliparse"
	"github.com/danielhkuo/poll-warden/db"
	"github.com/danielhkuo/poll-warden/engine"
	"github.com/danielhkuo/poll-warden/ledger"
	"github.com/danielhkuo/poll-warden/notify"
	"github.com/danielhkuo/poll-warden/records"
	"github.com/danielhkuo/poll-warden/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open the record store
	bdb, err := badger.Open(badger.DefaultOptions(filepath.Join(cfg.DataDir, "records")).WithLogger(nil))
	if err != nil {
		slog.Error("record store open failed", "error", err)
		os.Exit(1)
	}
	defer bdb.Close()

	// Connect the ledger. Driver names: modernc registers "sqlite",
	// lib/pq registers "postgres", matching the config values.
	dbConn, err := sql.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Wire the engine and its collaborators
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	recs := records.New(bdb, retention, slog.Default())
	led := ledger.New(dbConn)
	eng := engine.New(recs, led, slog.Default())
	registry := absences.New(bdb)

	// Stand-in delivery sinks until a chat adapter is registered
	sink := notify.LogSink{Logger: slog.Default()}
	sched := scheduler.New(eng, registry, sink, sink, sink, scheduler.Config{
		RefreshInterval:   time.Duration(cfg.RefreshMinutes) * time.Minute,
		NotifyCooldown:    time.Duration(cfg.NotifyCooldownSeconds) * time.Second,
		AbsenteeChannelID: cfg.AbsenteeChannelID,
	}, slog.Default())

	// Rebuild the vote ledger from the authoritative records, then re-arm
	// deadline tasks for every open poll
	if err := eng.RebuildLedger(); err != nil {
		slog.Error("ledger rebuild failed", "error", err)
		os.Exit(1)
	}
	if err := sched.Resume(context.Background()); err != nil {
		slog.Error("resume failed", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	sched.Stop()
}
