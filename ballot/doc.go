// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot implements the voter-facing ballot lifecycle.

A voter confirms participation once per election, is checked for
eligibility, is issued (or resumes) a ballot bound to a scope, and submits
a validated vote set exactly once.

# Scope

SSG ballots cover the whole election. Departmental ballots cover a single
position, so a departmental voter holds one ballot per position. Scope
windows come from the election's date and HH:MM times, optionally
overridden per position.

# Expiry

Expiry is never stored. An in-progress ballot is expired when the server
clock reaches its close_time. Expired ballots are deleted lazily on the
next resume and replaced if the window is still open.

# Concurrency

Partial unique indexes on (voter_id, election_id, scope_key) allow at most
one in-progress and one submitted ballot per scope. Issuance retries a
bounded number of times when a concurrent writer wins; submission is
guarded by a conditional status update and is not retried.
*/
package ballot
