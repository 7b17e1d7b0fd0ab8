// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Voter, Election, Position, Candidate: read from the election directory
  - Participation: a voter's one-time opt-in to an election
  - Ballot: one voting attempt with its own close time
  - Vote: a (position, candidate) selection on a submitted ballot
  - Eligibility: can_vote plus a reason code when refused

# Request Types

  - StartBallotRequest: position_id (departmental elections only)
  - SubmitBallotRequest: votes
  - UpdateWindowRequest: election_date, ballot_open_time, ballot_close_time

# Response Types

  - BallotStatusResponse: standing of a voter in a ballot scope
  - StartBallotResponse, SubmitBallotResponse
  - PreviewBallotResponse: positions with active candidates
  - ResultsResponse: per-position tallies
  - ErrorResponse: error, message, code, details

# Constants

Ballot status:

	BallotInProgress = "in-progress"
	BallotSubmitted  = "submitted"
	BallotExpired    = "expired" // derived when close_time has passed

Election type:

	ElectionSSG          = "ssg"
	ElectionDepartmental = "departmental"

Election status (draft, upcoming, active, completed) is never stored; see
package timing.
*/
package models
