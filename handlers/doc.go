// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ballot API.

# Handler Types

Each handler wraps the ballot service:

  - BallotHandler: ballot status, start/resume, preview, submission
  - ParticipationHandler: participation confirmation and status
  - ResultsHandler: tallies and ballot counts
  - ElectionAdminHandler: election and position window updates

	ballotHandler := handlers.NewBallotHandler(svc)

# Voter Flow

	POST /elections/{electionID}/participation → Confirm
	POST /elections/{electionID}/ballots       → StartBallot (issue or resume)
	POST /ballots/{ballotID}/submit            → SubmitBallot

Voter operations run behind middleware.RequireVoter and need the
X-Voter-Token header.

# Errors

Service errors are mapped by writeServiceError to a status and a stable
code in ErrorResponse.Code:

	400 VALIDATION_FAILED, BAD_SCOPE, BAD_REQUEST
	401 UNAUTHORIZED
	403 INELIGIBLE, NOT_PARTICIPATING
	404 NOT_FOUND
	409 BALLOT_NOT_YET_OPEN, BALLOT_WINDOW_CLOSED, ALREADY_SUBMITTED,
	    ELECTION_NOT_OPEN_FOR_PARTICIPATION, RESULTS_SEALED, CONFLICT

CONFLICT responses carry Retry-After.

# Admin Operations

Window updates and early result reads require the election's X-Admin-Key.
*/
package handlers
