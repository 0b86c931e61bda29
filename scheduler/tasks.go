// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/poll-warden/models"
	"github.com/danielhkuo/poll-warden/notify"
)

// autoClose suspends until the poll's deadline, then closes and archives
// it. Exits silently when the poll disappeared or was closed manually in
// the meantime.
func (s *Scheduler) autoClose(ctx context.Context, pollID string) error {
	rec, err := s.engine.Get(pollID)
	if err != nil {
		return err
	}
	if rec == nil || rec.EndsAt == nil {
		return nil
	}

	if err := sleepUntil(ctx, *rec.EndsAt); err != nil {
		return nil
	}

	// Re-validate against the latest persisted state.
	rec, err = s.engine.Get(pollID)
	if err != nil {
		return err
	}
	if rec == nil || rec.Status != models.StatusOpen {
		return nil
	}

	closed, err := s.engine.Close(ctx, pollID, models.CloseReasonAuto)
	if err != nil {
		return err
	}
	if closed == nil {
		return nil
	}
	pollsClosed.WithLabelValues(models.CloseReasonAuto).Inc()

	s.processAbsentees(ctx, closed)

	if err := s.renderer.RenderPoll(ctx, closed); err != nil {
		s.logger.Error("close render failed", "poll_id", pollID, "error", err)
	}
	return nil
}

// remind fires the one-shot pre-deadline reminder at 25% of the poll's
// lifetime remaining. The persisted AlertSent flag makes the fire
// idempotent across restarts.
func (s *Scheduler) remind(ctx context.Context, pollID string) error {
	rec, err := s.engine.Get(pollID)
	if err != nil {
		return err
	}
	if rec == nil || rec.EndsAt == nil || len(rec.NotifyRoles) == 0 || rec.AlertSent {
		return nil
	}

	total := rec.EndsAt.Sub(rec.CreatedAt)
	alertAt := rec.EndsAt.Add(-total / 4)
	if err := sleepUntil(ctx, alertAt); err != nil {
		return nil
	}

	rec, err = s.engine.Get(pollID)
	if err != nil {
		return err
	}
	if rec == nil || rec.Status != models.StatusOpen || rec.AlertSent {
		return nil
	}

	members, err := s.roster.MembersWithRoles(ctx, rec.GuildID, rec.NotifyRoles)
	if err != nil {
		s.logger.Error("roster lookup failed", "poll_id", pollID, "error", err)
		return nil
	}
	targets := notify.Absentees(rec, members)
	if len(targets) == 0 {
		return nil
	}

	text := fmt.Sprintf("Poll reminder — time is running out!\n%s", mentionList(targets))
	if err := s.notifier.SendToChannel(ctx, rec.ChannelID, text); err != nil {
		s.logger.Error("reminder channel send failed", "poll_id", pollID, "error", err)
	}
	for _, m := range targets {
		dm := fmt.Sprintf("Poll reminder\nTime is running out to vote on:\n%s", rec.Question)
		if err := s.notifier.SendToUser(ctx, m.ID, dm); err != nil {
			// Per-member delivery is best-effort
			continue
		}
	}

	if _, err := s.engine.MarkAlertSent(pollID); err != nil {
		return err
	}
	remindersSent.Inc()
	s.logger.Info("poll reminder sent", "poll_id", pollID, "targets", len(targets))
	return nil
}

// refresh re-renders the live poll display every interval until the poll
// is gone, closed, or within one interval of its deadline.
func (s *Scheduler) refresh(ctx context.Context, pollID string) error {
	interval := s.cfg.RefreshInterval

	for {
		rec, err := s.engine.Get(pollID)
		if err != nil {
			return err
		}
		if rec == nil || rec.Status != models.StatusOpen || rec.EndsAt == nil {
			return nil
		}

		remaining := time.Until(*rec.EndsAt)
		if remaining <= interval {
			return nil
		}

		if err := s.renderer.RenderPoll(ctx, rec); err != nil {
			s.logger.Error("poll refresh failed", "poll_id", pollID, "error", err)
		} else {
			refreshRenders.Inc()
			s.logger.Info("poll display refreshed", "poll_id", pollID, "remaining", remaining.Round(time.Second))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// processAbsentees records a missed vote for every role-holding non-voter
// and posts the post-close summary. All delivery is best-effort.
func (s *Scheduler) processAbsentees(ctx context.Context, rec *models.PollRecord) {
	if len(rec.NotifyRoles) == 0 {
		return
	}

	members, err := s.roster.MembersWithRoles(ctx, rec.GuildID, rec.NotifyRoles)
	if err != nil {
		s.logger.Error("roster lookup failed", "poll_id", rec.ID, "error", err)
		return
	}
	missing := notify.Absentees(rec, members)

	for _, m := range missing {
		if _, err := s.registry.RecordMiss(m.ID, m.DisplayName, rec.GuildID); err != nil {
			s.logger.Error("absence upsert failed", "poll_id", rec.ID, "user_id", m.ID, "error", err)
		}
	}

	if len(missing) == 0 || s.cfg.AbsenteeChannelID == "" {
		return
	}
	text := fmt.Sprintf("Poll closed — missing votes\n%s\n\nAbsent:\n%s", rec.Question, mentionList(missing))
	if err := s.notifier.SendToChannel(ctx, s.cfg.AbsenteeChannelID, text); err != nil {
		s.logger.Error("absentee summary send failed", "poll_id", rec.ID, "error", err)
	}
}

// NotifyAbsentees is the manual absentee ping, guarded by the cooldown
// gate. It returns the number of members notified and, when within the
// cooldown, the remaining wait (with zero members notified).
func (s *Scheduler) NotifyAbsentees(ctx context.Context, pollID string) (int, time.Duration, error) {
	rec, err := s.engine.Get(pollID)
	if err != nil {
		return 0, 0, err
	}
	now := time.Now().UTC()
	if rec == nil || !rec.EffectivelyOpen(now) {
		return 0, 0, ErrPollClosed
	}

	if remaining, ok := s.gate.Check(rec.LastNotifyTs, now); !ok {
		return 0, remaining, nil
	}

	members, err := s.roster.MembersWithRoles(ctx, rec.GuildID, rec.NotifyRoles)
	if err != nil {
		return 0, 0, err
	}
	targets := notify.Absentees(rec, members)
	if len(targets) == 0 {
		return 0, 0, nil
	}

	text := fmt.Sprintf("Poll reminder — please vote:\n%s", mentionList(targets))
	if err := s.notifier.SendToChannel(ctx, rec.ChannelID, text); err != nil {
		s.logger.Error("manual notify send failed", "poll_id", pollID, "error", err)
	}

	if _, err := s.engine.MarkNotified(pollID, now); err != nil {
		return len(targets), 0, err
	}
	return len(targets), 0, nil
}

func mentionList(members []notify.Member) string {
	mentions := make([]string, len(members))
	for i, m := range members {
		mentions[i] = "<@" + m.ID + ">"
	}
	return strings.Join(mentions, " ")
}
