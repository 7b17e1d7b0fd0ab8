// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ssg-ballot/auth"
	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/cliparse"
	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/models"
)

type ResultsHandler struct {
	svc *ballot.Service
	cfg cliparse.Config
}

func NewResultsHandler(svc *ballot.Service, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{svc: svc, cfg: cfg}
}

// GetResults handles GET /elections/{electionID}/results
// Returns 409 RESULTS_SEALED until the election is completed. A valid
// X-Admin-Key for the election unseals them early.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	unseal := false
	if key := r.Header.Get(middleware.HeaderAdminKey); key != "" {
		if err := auth.ValidateAdminKey(electionID, key, h.cfg.AdminKeySalt); err != nil {
			middleware.CodedError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid admin key", nil)
			return
		}
		unseal = true
	}

	res, err := h.svc.Results(r.Context(), electionID, unseal)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if unseal {
		slog.Info("results read with admin key", "election_id", electionID, "status", res.ElectionStatus)
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// GetBallotCount handles GET /elections/{electionID}/ballot-count
// Returns the number of ballots submitted (visible even while open)
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	n, err := h.svc.BallotCount(r.Context(), electionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BallotCountResponse{
		ElectionID:  electionID,
		BallotCount: n,
	})
}
