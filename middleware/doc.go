// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs completion with status and duration_ms; 5xx responses log at error
level.

# Voter Sessions

RequireVoter validates the X-Voter-Token header and stores the voter ID in
the request context:

	voter := middleware.RequireVoter(cfg.VoterTokenSecret)
	mux.HandleFunc("POST /elections/{electionID}/ballots", voter(h.StartBallot))

	voterID, _ := middleware.VoterID(r.Context())

# CORS Middleware

Enable cross-origin requests from the configured frontend origins
(-cors-origins or CORS_ORIGINS):

	server := http.Server{
		Handler: middleware.CORS(cfg.CORSOrigins)(mux),
	}

A listed origin is echoed with credentials; "*" allows any origin without
credentials. Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, X-Voter-Token. Preflights from
other origins get 403.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.CodedError(w, http.StatusConflict, "BALLOT_WINDOW_CLOSED", msg, nil)

# Client IP Extraction

	ip := middleware.GetClientIP(r)
*/
package middleware
