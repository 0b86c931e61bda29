// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package records is the durable keyed store for poll records.

Records live in one badger database under two key prefixes:

	active/<poll_id>   polls still accepting votes
	archive/<poll_id>  closed polls awaiting retention pruning

Save, Load, Update, and Archive serialize under a single store-wide mutex.
Archive stamps ArchivedAt and then prunes archived records older than the
retention window (default 30 days) on a best-effort basis; pruning errors
are logged and never surfaced to the caller.

A missing record is a valid negative result: Load returns (nil, nil).
*/
package records
