// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/middleware"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeBallotNotYetOpen   = "BALLOT_NOT_YET_OPEN"
	CodeBallotWindowClosed = "BALLOT_WINDOW_CLOSED"
	CodeAlreadySubmitted   = "ALREADY_SUBMITTED"
	CodeNotParticipating   = "NOT_PARTICIPATING"
	CodeElectionNotOpen    = "ELECTION_NOT_OPEN_FOR_PARTICIPATION"
	CodeIneligible         = "INELIGIBLE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeBadScope           = "BAD_SCOPE"
	CodeResultsSealed      = "RESULTS_SEALED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL"
)

// Seconds a client waits before retrying after CodeConflict.
const retryAfterConflict = "1"

// writeServiceError maps a ballot service error onto an HTTP response.
// Unknown errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ballot.ValidationError
	var ierr *ballot.IneligibleError
	var werr *ballot.WindowError

	switch {
	case errors.As(err, &verr):
		middleware.CodedError(w, http.StatusBadRequest, CodeValidationFailed, verr.Err.Error(), verr.Problems)
	case errors.Is(err, ballot.ErrBadScope):
		middleware.CodedError(w, http.StatusBadRequest, CodeBadScope, err.Error(), nil)
	case errors.As(err, &ierr):
		middleware.CodedError(w, http.StatusForbidden, CodeIneligible, ierr.Eligibility.Reason,
			[]string{ierr.Eligibility.Code})
	case errors.Is(err, ballot.ErrNotParticipating):
		middleware.CodedError(w, http.StatusForbidden, CodeNotParticipating,
			"Confirm participation before voting", nil)
	case errors.Is(err, ballot.ErrNotFound):
		middleware.CodedError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.As(err, &werr):
		code := CodeBallotWindowClosed
		if errors.Is(werr, ballot.ErrBallotNotYetOpen) {
			code = CodeBallotNotYetOpen
		}
		middleware.CodedError(w, http.StatusConflict, code, werr.Error(), nil)
	case errors.Is(err, ballot.ErrElectionNotOpenForParticipation):
		middleware.CodedError(w, http.StatusConflict, CodeElectionNotOpen, err.Error(), nil)
	case errors.Is(err, ballot.ErrAlreadySubmitted):
		middleware.CodedError(w, http.StatusConflict, CodeAlreadySubmitted, "Ballot already submitted", nil)
	case errors.Is(err, ballot.ErrConflict):
		slog.Warn("ballot conflict not resolved by retries", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", retryAfterConflict)
		middleware.CodedError(w, http.StatusConflict, CodeConflict, "Please try again", nil)
	case errors.Is(err, ballot.ErrResultsSealed):
		middleware.CodedError(w, http.StatusConflict, CodeResultsSealed, "Results are hidden until the election is completed", nil)
	default:
		slog.Error("ballot operation failed", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.CodedError(w, http.StatusInternalServerError, CodeInternal, "Database error", nil)
	}
}

// voterID returns the authenticated voter or writes a 401.
func voterID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.VoterID(r.Context())
	if !ok {
		middleware.CodedError(w, http.StatusUnauthorized, CodeUnauthorized, "X-Voter-Token header required", nil)
	}
	return id, ok
}

// pathValue reads a required path parameter or writes a 400.
func pathValue(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		middleware.CodedError(w, http.StatusBadRequest, CodeBadRequest, name+" is required", nil)
	}
	return v, v != ""
}
