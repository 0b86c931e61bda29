// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain types shared by every other package.

# Domain Types

  - PollRecord: authoritative poll state, stored whole in the record store
  - AbsenceRecord: per-user missed-vote counter

# Constants

Poll status:

	StatusOpen   = "open"
	StatusClosed = "closed"

Vote outcomes (the only results exposed to callers):

	OutcomeOK     = "ok"
	OutcomeClosed = "closed"

Vote actions:

	ActionAdded   = "added"
	ActionRemoved = "removed"
	ActionNone    = ""

Close reasons:

	CloseReasonAuto    = "auto"
	CloseReasonManual  = "manual"
	CloseReasonExpired = "expired"

# Lifecycle Predicates

EffectivelyOpen is the single expiry check used by both the vote path and
the scheduler tasks, so lazy expiration and scheduled closing can never
disagree about whether a poll still accepts votes.
*/
package models
