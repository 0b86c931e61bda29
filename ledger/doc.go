// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the relational mirror of the record store's vote data.

Two tables back it: polls (one row per poll) and votes (one row per
poll/user/option, deduplicated by the composite primary key). The record
store is authoritative; the ledger exists for independent audit queries
(GetVotes, CountVotes) and the scheduler's resume query
(FetchOpenPollsWithDeadline).

Because the ledger is a projection, every engine write to it is
best-effort: a duplicate insert is a benign no-op and other failures are
logged by the caller rather than propagated. Rebuild restores the whole
projection from the authoritative records after any divergence.

The store works against sqlite (default) or postgres, selected by the
database type in configuration, exactly like the upstream quickly-pick
service.
*/
package ledger
