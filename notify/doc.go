// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify defines the boundary to the chat platform and the cooldown
gate for manual absentee pings.

The engine and scheduler never talk to a chat platform directly; they
consume the Notifier, Renderer, and Roster interfaces declared here. All
delivery failures are best-effort for the caller: logged and swallowed.

Gate.Check implements the manual-notification cooldown: a second attempt
within the window is rejected with the exact remaining wait.
*/
package notify
