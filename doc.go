// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ssg-ballot API server.

ssg-ballot runs the ballot lifecycle of student government elections:
eligibility checks, participation, ballot issuance with per-ballot close
times, submission, and tallying.

# Starting the Server

	DATABASE_URL=postgres://... ADMIN_KEY_SALT=... VOTER_TOKEN_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t sqlite -d "file:ballot.db" -tz Asia/Manila

A .env file in the working directory is loaded when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - ADMIN_KEY_SALT (-admin-salt): secret for admin key HMAC
  - VOTER_TOKEN_SECRET (-token-secret): secret for voter session tokens

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - ELECTION_TZ (-tz): zone election times are read in (default: UTC)
  - NATS_URL (-nats): publish ballot events to NATS
  - BALLOT_ISSUE_RETRIES, BALLOT_RETRY_BACKOFF: issuance conflict retries
  - DEBUG (-debug): debug logging

Logs are text on a terminal and JSON otherwise.

# Architecture

  - ballot: the ballot lifecycle service
  - timing: voting windows and phases
  - handlers: HTTP request handlers
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, voter sessions, JSON helpers
  - models: request, response and domain types
  - auth: IDs, admin keys and voter tokens
  - events: ballot event publishing
  - db: connections and schema
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
