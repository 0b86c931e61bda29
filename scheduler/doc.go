// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler runs the per-poll background tasks.

Every tracked poll gets three goroutines: an auto-close task that fires at
the persisted deadline, a one-shot reminder at 25% of the poll's lifetime
remaining, and a periodic display refresh that exits once the remaining
time drops below one interval. Tasks always reload the record on wake and
exit quietly when the poll is gone or already terminal, so they are safe
to re-arm after a restart via Resume.

The scheduler also hosts the manual absentee ping (NotifyAbsentees),
rate-limited by the notify cooldown gate.
*/
package scheduler
