// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ballot API.

# Route Registration

NewRouter builds the ballot service and returns a configured http.ServeMux:

	mux, err := router.NewRouter(db, cfg, ballot.Options{Publisher: pub})

# Endpoints

Health:

	GET /health

Voter session (requires X-Voter-Token):

	POST /elections/{electionID}/participation - Confirm participation
	GET  /elections/{electionID}/participation - Participation status
	GET  /elections/{electionID}/ballot-status - Ballot status for a scope
	POST /elections/{electionID}/ballots       - Start or resume a ballot
	POST /ballots/{ballotID}/submit            - Submit votes

Public:

	GET /elections/{electionID}/preview      - Positions and candidates
	GET /elections/{electionID}/results      - Tallies (completed only)
	GET /elections/{electionID}/ballot-count - Submitted ballots

Admin (requires X-Admin-Key):

	PUT /elections/{electionID}/window - Election date and ballot window
	PUT /positions/{positionID}/window - Position window override

Every route is wrapped in middleware.WithLogging.
*/
package router
