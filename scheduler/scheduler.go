// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/poll-warden/absences"
	"github.com/danielhkuo/poll-warden/engine"
	"github.com/danielhkuo/poll-warden/notify"
)

// DefaultRefreshInterval is how often the live poll display is re-rendered.
const DefaultRefreshInterval = time.Minute

// ErrPollClosed is returned by NotifyAbsentees when the poll is missing or
// no longer accepting votes.
var ErrPollClosed = errors.New("poll is closed or missing")

// Config carries the scheduler's tunables.
type Config struct {
	// RefreshInterval between live display re-renders. Zero means
	// DefaultRefreshInterval.
	RefreshInterval time.Duration

	// NotifyCooldown between manual absentee pings. Zero means
	// notify.DefaultCooldown.
	NotifyCooldown time.Duration

	// AbsenteeChannelID receives the post-close missing-votes summary.
	// Empty disables the summary.
	AbsenteeChannelID string
}

// Scheduler supervises the per-poll background tasks: auto-close at the
// deadline, a single-fire reminder at 25% of lifetime remaining, and a
// periodic display refresh. Tasks are anchored to the persisted absolute
// deadline, so delays survive process restarts; every wake reloads the
// record rather than trusting state captured at spawn time.
type Scheduler struct {
	engine   *engine.Engine
	registry *absences.Registry
	renderer notify.Renderer
	notifier notify.Notifier
	roster   notify.Roster
	gate     notify.Gate
	cfg      Config
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	tasks map[string]context.CancelFunc
}

func New(
	eng *engine.Engine,
	registry *absences.Registry,
	renderer notify.Renderer,
	notifier notify.Notifier,
	roster notify.Roster,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		engine:   eng,
		registry: registry,
		renderer: renderer,
		notifier: notifier,
		roster:   roster,
		gate:     notify.NewGate(cfg.NotifyCooldown),
		cfg:      cfg,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		tasks:    map[string]context.CancelFunc{},
	}
}

// Resume re-spawns tasks for every persisted open poll with a deadline.
// Delays are recomputed from the current wall clock against the persisted
// deadline, never from the original duration: a poll already past its
// deadline closes on the first wake instead of waiting a full duration.
func (s *Scheduler) Resume(ctx context.Context) error {
	polls, err := s.engine.FetchOpenPollsWithDeadline()
	if err != nil {
		return err
	}
	for _, p := range polls {
		s.Track(p.ID)
	}
	s.logger.Info("resumed open polls", "count", len(polls))
	return nil
}

// Track spawns the three tasks for one poll. Tracking an already tracked
// poll cancels and replaces its tasks.
func (s *Scheduler) Track(pollID string) {
	s.mu.Lock()
	if cancel, ok := s.tasks[pollID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.tasks[pollID] = cancel
	s.mu.Unlock()

	s.spawn(ctx, "auto_close", pollID, s.autoClose)
	s.spawn(ctx, "reminder", pollID, s.remind)
	s.spawn(ctx, "refresh", pollID, s.refresh)
}

// Cancel proactively stops the tasks of one poll, e.g. on poll deletion.
// Tasks also exit on their own when they observe terminal state on wake.
func (s *Scheduler) Cancel(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.tasks[pollID]; ok {
		cancel()
		delete(s.tasks, pollID)
	}
}

// Stop cancels every task and waits for them to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// spawn runs one task goroutine with failure isolation: a panic or error
// in one task is logged and counted but never reaches its siblings or the
// process.
func (s *Scheduler) spawn(ctx context.Context, name, pollID string, fn func(context.Context, string) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				taskFailures.WithLabelValues(name).Inc()
				s.logger.Error("poll task crashed", "task", name, "poll_id", pollID, "panic", r)
			}
		}()
		if err := fn(ctx, pollID); err != nil && !errors.Is(err, context.Canceled) {
			taskFailures.WithLabelValues(name).Inc()
			s.logger.Error("poll task failed", "task", name, "poll_id", pollID, "error", err)
		}
	}()
}

// sleepUntil blocks until the instant t or context cancellation.
func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
