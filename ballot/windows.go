// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
)

// parseWindowRequest validates HH:MM values and close > open. Empty strings
// clear a time.
func parseWindowRequest(req models.UpdateWindowRequest) (openTime, closeTime *timing.Clock, problems []string) {
	var err error
	if openTime, err = timing.ParseOptionalClock(req.BallotOpenTime); err != nil {
		problems = append(problems, "ballot_open_time: "+err.Error())
	}
	if closeTime, err = timing.ParseOptionalClock(req.BallotCloseTime); err != nil {
		problems = append(problems, "ballot_close_time: "+err.Error())
	}
	return openTime, closeTime, problems
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UpdateElectionWindow stores a new election date and ballot window. Issued
// in-progress ballots pick up a later close time on their next resume; an
// earlier one never shortens them.
func (s *Service) UpdateElectionWindow(ctx context.Context, electionID string, req models.UpdateWindowRequest) (models.Election, error) {
	e, err := s.dir.Election(ctx, electionID)
	if err != nil {
		return models.Election{}, err
	}

	openTime, closeTime, problems := parseWindowRequest(req)
	if err := timing.ValidateWindow(openTime, closeTime); err != nil {
		problems = append(problems, err.Error())
	}
	if req.ElectionDate != nil && *req.ElectionDate != "" {
		if _, err := timing.ParseDate(*req.ElectionDate, s.opts.Location); err != nil {
			problems = append(problems, "election_date: "+err.Error())
		}
	}
	if len(problems) > 0 {
		return models.Election{}, &ValidationError{Err: ErrInvalidWindow, Problems: problems}
	}

	date := e.ElectionDate
	if req.ElectionDate != nil {
		date = nullable(*req.ElectionDate)
	}

	// Positions inherit whichever times they leave unset, so each one must
	// still resolve to a valid window under the new election times.
	if e.IsDepartmental() {
		updated := e
		updated.ElectionDate = date
		updated.BallotOpenTime = nullable(req.BallotOpenTime)
		updated.BallotCloseTime = nullable(req.BallotCloseTime)
		base, err := s.electionWindow(updated)
		if err != nil {
			return models.Election{}, err
		}
		positions, err := s.dir.Positions(ctx, electionID)
		if err != nil {
			return models.Election{}, err
		}
		for _, p := range positions {
			eff, err := positionWindow(base, p)
			if err != nil {
				return models.Election{}, err
			}
			if err := timing.ValidateWindow(eff.Open, eff.Close); err != nil {
				problems = append(problems, fmt.Sprintf("position %s: %v", p.PositionName, err))
			}
		}
		if len(problems) > 0 {
			return models.Election{}, &ValidationError{Err: ErrInvalidWindow, Problems: problems}
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE election
		SET election_date = $1, ballot_open_time = $2, ballot_close_time = $3
		WHERE id = $4
	`, date, nullable(req.BallotOpenTime), nullable(req.BallotCloseTime), electionID); err != nil {
		return models.Election{}, fmt.Errorf("failed to update election window: %w", err)
	}

	slog.Info("election window updated", "election_id", electionID,
		"date", deref(date), "open", req.BallotOpenTime, "close", req.BallotCloseTime)
	return s.dir.Election(ctx, electionID)
}

// UpdatePositionWindow stores a position-level override. The pair is
// validated as it will resolve, with the election's times filling gaps.
func (s *Service) UpdatePositionWindow(ctx context.Context, positionID string, req models.UpdateWindowRequest) (models.Position, error) {
	p, err := s.dir.Position(ctx, positionID)
	if err != nil {
		return models.Position{}, err
	}
	e, err := s.dir.Election(ctx, p.ElectionID)
	if err != nil {
		return models.Position{}, err
	}
	if !e.IsDepartmental() {
		return models.Position{}, fmt.Errorf("%w: positions of an SSG election share the election window", ErrBadScope)
	}

	openTime, closeTime, problems := parseWindowRequest(req)
	if req.ElectionDate != nil {
		problems = append(problems, "election_date cannot be set on a position")
	}
	if len(problems) == 0 {
		base, err := s.electionWindow(e)
		if err != nil {
			return models.Position{}, err
		}
		eff := base.Override(openTime, closeTime)
		if err := timing.ValidateWindow(eff.Open, eff.Close); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return models.Position{}, &ValidationError{Err: ErrInvalidWindow, Problems: problems}
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE position SET ballot_open_time = $1, ballot_close_time = $2 WHERE id = $3
	`, nullable(req.BallotOpenTime), nullable(req.BallotCloseTime), positionID); err != nil {
		return models.Position{}, fmt.Errorf("failed to update position window: %w", err)
	}

	slog.Info("position window updated", "position_id", positionID,
		"open", req.BallotOpenTime, "close", req.BallotCloseTime)
	return s.dir.Position(ctx, positionID)
}
