// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connections

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(db.TypePostgres, "postgres://...")

sqlite connections are limited to one open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL is portable between both drivers.

# Tables

  - department, voter: the voter directory
  - election, position, partylist, candidate: election setup
  - participation: one row per voter per election
  - ballot: voting attempts, close_time fixed at issue
  - vote: selections on submitted ballots

# Relationships

	election 1──* position 1──* candidate
	election 1──* participation
	election 1──* ballot 1──* vote

# Ballot Uniqueness

Two partial unique indexes on ballot(voter_id, election_id, scope_key), one
for in-progress and one for submitted rows, allow at most one of each per
voter and scope. Issuance and submission races surface as unique violations;
IsUniqueViolation and IsTransient classify them for both drivers.
*/
package db
