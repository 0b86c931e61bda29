// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine implements the poll state machine.

# Operations

  - Create: validate options (2-5, non-empty, unique), stamp the deadline,
    persist, mirror to the ledger
  - RegisterVote: per-user toggle with lazy expiration
  - ComputeResults: option tallies including zero-voted options
  - SetStatus / Close: manual and automatic closure, archival
  - MarkAlertSent / MarkNotified: persisted scheduler and cooldown guards

# Vote Toggle Rules

Multi-choice polls toggle the chosen option in and out of the user's set.
Single-choice polls clear the selection when the current choice is
re-picked and overwrite it otherwise - never append.

# Outcomes

Callers see only "ok" or "closed" plus an action tag ("added",
"removed"). A missing poll is reported as closed with no record. Internal
error categories stay behind the engine boundary; only required record
writes surface as errors.

# Lazy Expiration

A vote against a poll whose deadline has elapsed closes and archives it
on the spot, independent of the scheduler. Closure always funnels through
the single idempotent Close operation, so the vote path and the scheduler
can race without double-closing.
*/
package engine
