// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	// One statement per Exec so the same DDL runs on postgres and sqlite.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

const schema = `
-- Departments
CREATE TABLE IF NOT EXISTS department (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

-- Voters
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    department_id TEXT NOT NULL REFERENCES department(id),
    is_registered BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_class_officer BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_voter_department_id ON voter(department_id);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    year INTEGER NOT NULL,
    election_type TEXT NOT NULL CHECK (election_type IN ('ssg', 'departmental')),
    department_id TEXT REFERENCES department(id),
    is_draft BOOLEAN NOT NULL DEFAULT TRUE,
    election_date TEXT,
    ballot_open_time TEXT,
    ballot_close_time TEXT,
    requires_officer BOOLEAN NOT NULL DEFAULT FALSE
);

-- Positions
CREATE TABLE IF NOT EXISTS position (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_name TEXT NOT NULL,
    position_order INTEGER NOT NULL DEFAULT 0,
    max_votes INTEGER NOT NULL DEFAULT 1 CHECK (max_votes >= 1),
    max_candidates INTEGER NOT NULL DEFAULT 1,
    ballot_open_time TEXT,
    ballot_close_time TEXT
);

CREATE INDEX IF NOT EXISTS idx_position_election_id ON position(election_id);

-- Partylists
CREATE TABLE IF NOT EXISTS partylist (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL REFERENCES voter(id),
    partylist_id TEXT REFERENCES partylist(id),
    candidate_number INTEGER NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_candidate_position_id ON candidate(position_id);

-- Participation (one per voter per election)
CREATE TABLE IF NOT EXISTS participation (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL REFERENCES voter(id),
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    status TEXT NOT NULL CHECK (status IN ('confirmed')),
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    confirmed_at TIMESTAMP NOT NULL,
    submitted_at TIMESTAMP,
    UNIQUE (voter_id, election_id)
);

-- Ballots. scope_key is the position id for position-scoped ballots and ''
-- for election-scoped ones, so the partial unique indexes never see NULLs.
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL REFERENCES voter(id),
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT REFERENCES position(id) ON DELETE CASCADE,
    scope_key TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('in-progress', 'submitted')),
    close_time TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    submitted_at TIMESTAMP,
    receipt TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_ballot_in_progress
    ON ballot(voter_id, election_id, scope_key) WHERE status = 'in-progress';
CREATE UNIQUE INDEX IF NOT EXISTS uq_ballot_submitted
    ON ballot(voter_id, election_id, scope_key) WHERE status = 'submitted';
CREATE INDEX IF NOT EXISTS idx_ballot_election_id ON ballot(election_id);

-- Votes
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    cast_at TIMESTAMP NOT NULL,
    UNIQUE (ballot_id, position_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
CREATE INDEX IF NOT EXISTS idx_vote_election_id ON vote(election_id)
`
