// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/models"
)

type BallotHandler struct {
	svc *ballot.Service
}

func NewBallotHandler(svc *ballot.Service) *BallotHandler {
	return &BallotHandler{svc: svc}
}

// BallotStatus handles GET /elections/{electionID}/ballot-status?position_id=
func (h *BallotHandler) BallotStatus(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterID(w, r)
	if !ok {
		return
	}
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	resp, err := h.svc.BallotStatus(r.Context(), voter, electionID, r.URL.Query().Get("position_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// StartBallot handles POST /elections/{electionID}/ballots
// Returns the voter's existing ballot for the scope, or issues a new one.
func (h *BallotHandler) StartBallot(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterID(w, r)
	if !ok {
		return
	}
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	// The body is optional; SSG ballots need no position.
	var req models.StartBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.CodedError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON", nil)
		return
	}
	if req.PositionID == "" {
		req.PositionID = r.URL.Query().Get("position_id")
	}

	b, err := h.svc.StartOrResume(r.Context(), voter, electionID, req.PositionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StartBallotResponse{Ballot: b})
}

// PreviewBallot handles GET /elections/{electionID}/preview?position_id=
func (h *BallotHandler) PreviewBallot(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	positions, err := h.svc.Preview(r.Context(), electionID, r.URL.Query().Get("position_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PreviewBallotResponse{Positions: positions})
}

// SubmitBallot handles POST /ballots/{ballotID}/submit
func (h *BallotHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterID(w, r)
	if !ok {
		return
	}
	ballotID, ok := pathValue(w, r, "ballotID")
	if !ok {
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON", nil)
		return
	}

	b, err := h.svc.Submit(r.Context(), voter, ballotID, req.Votes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		Success:     true,
		BallotID:    b.ID,
		SubmittedAt: *b.SubmittedAt,
		Receipt:     *b.Receipt,
	})
}
