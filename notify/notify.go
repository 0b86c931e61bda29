// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/poll-warden/models"
)

// Member is one chat-platform member as seen through the Roster.
type Member struct {
	ID          string
	DisplayName string
	Bot         bool
}

// Notifier delivers text to the chat platform. Callers treat every failure
// as best-effort: log and continue, never propagate.
type Notifier interface {
	SendToChannel(ctx context.Context, channelID, text string) error
	SendToUser(ctx context.Context, userID, text string) error
}

// Renderer updates a poll's visual representation (embed, buttons,
// countdown). Implemented by the external rendering layer.
type Renderer interface {
	RenderPoll(ctx context.Context, rec *models.PollRecord) error
}

// Roster resolves the members holding any of the given notify roles.
type Roster interface {
	MembersWithRoles(ctx context.Context, guildID string, roleIDs []string) ([]Member, error)
}

// DefaultCooldown is the minimum gap between manual absentee pings.
const DefaultCooldown = 600 * time.Second

// Gate enforces the cooldown between manual absentee notifications.
type Gate struct {
	Cooldown time.Duration
}

// NewGate returns a gate with the given cooldown, or DefaultCooldown when
// zero or negative.
func NewGate(cooldown time.Duration) Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return Gate{Cooldown: cooldown}
}

// Check reports whether a manual notification may proceed. lastNotify is
// the unix-seconds anchor from the poll record (zero means never). When
// within cooldown it returns the remaining wait and false.
func (g Gate) Check(lastNotify int64, now time.Time) (time.Duration, bool) {
	if lastNotify == 0 {
		return 0, true
	}
	elapsed := now.Sub(time.Unix(lastNotify, 0))
	if elapsed < g.Cooldown {
		return g.Cooldown - elapsed, false
	}
	return 0, true
}

// Absentees filters members down to role holders who have not voted.
// Bots never count as absent.
func Absentees(rec *models.PollRecord, members []Member) []Member {
	var missing []Member
	for _, m := range members {
		if m.Bot {
			continue
		}
		if !rec.HasVoted(m.ID) {
			missing = append(missing, m)
		}
	}
	return missing
}

// LogSink is a stand-in collaborator that logs instead of delivering.
// Wired by main until a chat adapter registers real implementations.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) SendToChannel(ctx context.Context, channelID, text string) error {
	l.Logger.Info("channel message", "channel_id", channelID, "text", text)
	return nil
}

func (l LogSink) SendToUser(ctx context.Context, userID, text string) error {
	l.Logger.Info("user message", "user_id", userID, "text", text)
	return nil
}

func (l LogSink) RenderPoll(ctx context.Context, rec *models.PollRecord) error {
	l.Logger.Info("render poll", "poll_id", rec.ID, "status", rec.Status)
	return nil
}

func (l LogSink) MembersWithRoles(ctx context.Context, guildID string, roleIDs []string) ([]Member, error) {
	return nil, nil
}
