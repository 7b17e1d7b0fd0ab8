// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/models"
)

type ParticipationHandler struct {
	svc *ballot.Service
}

func NewParticipationHandler(svc *ballot.Service) *ParticipationHandler {
	return &ParticipationHandler{svc: svc}
}

// Confirm handles POST /elections/{electionID}/participation
// Confirming twice returns the original record.
func (h *ParticipationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterID(w, r)
	if !ok {
		return
	}
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	p, err := h.svc.ConfirmParticipation(r.Context(), voter, electionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ConfirmParticipationResponse{Participation: p})
}

// Status handles GET /elections/{electionID}/participation
func (h *ParticipationHandler) Status(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterID(w, r)
	if !ok {
		return
	}
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}

	p, err := h.svc.Participation(r.Context(), voter, electionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := models.ParticipationStatusResponse{}
	if p != nil {
		resp.HasParticipated = true
		resp.HasVoted = p.HasVoted
		if p.HasVoted {
			resp.VotedPositions, err = h.svc.VotedPositions(r.Context(), voter, electionID)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
		}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
