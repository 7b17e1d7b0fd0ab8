// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/ssg-ballot/auth"
	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/cliparse"
	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/models"
)

// ElectionAdminHandler serves the window configuration endpoints. Every
// request needs the election's X-Admin-Key.
type ElectionAdminHandler struct {
	svc *ballot.Service
	cfg cliparse.Config
}

func NewElectionAdminHandler(svc *ballot.Service, cfg cliparse.Config) *ElectionAdminHandler {
	return &ElectionAdminHandler{svc: svc, cfg: cfg}
}

func (h *ElectionAdminHandler) authorize(w http.ResponseWriter, r *http.Request, electionID string) bool {
	key := r.Header.Get(middleware.HeaderAdminKey)
	if key == "" {
		middleware.CodedError(w, http.StatusUnauthorized, CodeUnauthorized, "X-Admin-Key header required", nil)
		return false
	}
	if err := auth.ValidateAdminKey(electionID, key, h.cfg.AdminKeySalt); err != nil {
		middleware.CodedError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid admin key", nil)
		return false
	}
	return true
}

// UpdateElectionWindow handles PUT /elections/{electionID}/window
func (h *ElectionAdminHandler) UpdateElectionWindow(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathValue(w, r, "electionID")
	if !ok {
		return
	}
	if !h.authorize(w, r, electionID) {
		return
	}

	var req models.UpdateWindowRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON", nil)
		return
	}

	e, err := h.svc.UpdateElectionWindow(r.Context(), electionID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status, phase, err := h.svc.ElectionStatus(r.Context(), electionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UpdateElectionWindowResponse{
		Election:       e,
		ElectionStatus: status,
		Window:         phase,
	})
}

// UpdatePositionWindow handles PUT /positions/{positionID}/window
// The admin key is checked against the position's election.
func (h *ElectionAdminHandler) UpdatePositionWindow(w http.ResponseWriter, r *http.Request) {
	positionID, ok := pathValue(w, r, "positionID")
	if !ok {
		return
	}

	p, err := h.svc.Position(r.Context(), positionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.authorize(w, r, p.ElectionID) {
		return
	}

	var req models.UpdateWindowRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON", nil)
		return
	}

	p, err = h.svc.UpdatePositionWindow(r.Context(), positionID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UpdatePositionWindowResponse{Position: p})
}
