// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package absences tracks missed-vote counters per user.

Records live under the absence/ key prefix in the shared badger database.
RecordMiss upserts: the counter is monotonic while the descriptive fields
(display name, context, last-missed timestamp) are refreshed to the latest
known values on every call. Counters survive until an explicit operator
reset (ResetUser or ResetAll).
*/
package absences
