// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akamensky/base58"

	"github.com/danielhkuo/ssg-ballot/auth"
	"github.com/danielhkuo/ssg-ballot/db"
	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
)

// Submit validates a vote set and finalizes the ballot. Votes, the ballot
// transition and the participation flag are written in one transaction.
func (s *Service) Submit(ctx context.Context, voterID, ballotID string, votes []models.Vote) (models.Ballot, error) {
	now := s.now()

	b, err := scanBallot(s.db.QueryRowContext(ctx,
		`SELECT `+ballotColumns+` FROM ballot WHERE id = $1`, ballotID))
	if errors.Is(err, sql.ErrNoRows) || (err == nil && b.VoterID != voterID) {
		return models.Ballot{}, fmt.Errorf("ballot %s: %w", ballotID, ErrNotFound)
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query ballot: %w", err)
	}

	if b.Status == models.BallotSubmitted {
		return models.Ballot{}, ErrAlreadySubmitted
	}
	// Re-checked here: a ballot can expire between issuance and submit.
	if expired(b, now) {
		return models.Ballot{}, &WindowError{
			Err:   ErrBallotWindowClosed,
			Phase: timing.Phase{State: timing.StateClosed, ClosesAt: b.CloseTime},
			Now:   now,
		}
	}

	if err := s.validateVotes(ctx, b, votes); err != nil {
		return models.Ballot{}, err
	}

	submittedAt := now.UTC()
	receipt := receiptCode(b.ID, submittedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The status guard makes concurrent submissions of one ballot race on a
	// single row update; the loser sees zero rows.
	res, err := tx.ExecContext(ctx, `
		UPDATE ballot
		SET status = $1, submitted_at = $2, receipt = $3
		WHERE id = $4 AND status = $5
	`, models.BallotSubmitted, submittedAt, receipt, b.ID, models.BallotInProgress)
	if db.IsUniqueViolation(err) {
		return models.Ballot{}, ErrAlreadySubmitted
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to finalize ballot: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Ballot{}, fmt.Errorf("failed to finalize ballot: %w", err)
	} else if n == 0 {
		return models.Ballot{}, ErrAlreadySubmitted
	}

	for _, v := range votes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vote (id, ballot_id, election_id, position_id, candidate_id, cast_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, auth.NewID(), b.ID, b.ElectionID, v.PositionID, v.CandidateID, submittedAt); err != nil {
			return models.Ballot{}, fmt.Errorf("failed to insert vote: %w", err)
		}
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE participation
		SET has_voted = $1, submitted_at = $2
		WHERE voter_id = $3 AND election_id = $4
	`, true, submittedAt, voterID, b.ElectionID)
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to update participation: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Ballot{}, fmt.Errorf("failed to update participation: %w", err)
	} else if n == 0 {
		return models.Ballot{}, ErrNotParticipating
	}

	if err := tx.Commit(); err != nil {
		if db.IsTransient(err) {
			return models.Ballot{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return models.Ballot{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	b.Status = models.BallotSubmitted
	b.SubmittedAt = &submittedAt
	b.Receipt = &receipt

	slog.Info("ballot submitted", "ballot_id", b.ID, "election_id", b.ElectionID, "votes", len(votes))
	s.publish(ctx, events.Event{
		Subject:    events.SubjectBallotSubmitted,
		ElectionID: b.ElectionID,
		PositionID: deref(b.PositionID),
		VoterID:    voterID,
		BallotID:   b.ID,
		At:         submittedAt,
	})

	return b, nil
}

// validateVotes checks the whole vote set and reports every problem found.
func (s *Service) validateVotes(ctx context.Context, b models.Ballot, votes []models.Vote) error {
	if len(votes) == 0 {
		return &ValidationError{Err: ErrInvalidVotes, Problems: []string{"at least one vote is required"}}
	}

	var positions []models.Position
	if b.PositionID != nil {
		p, err := s.dir.Position(ctx, *b.PositionID)
		if err != nil {
			return err
		}
		positions = []models.Position{p}
	} else {
		var err error
		positions, err = s.dir.Positions(ctx, b.ElectionID)
		if err != nil {
			return err
		}
	}

	onBallot := make(map[string]models.Position, len(positions))
	for _, p := range positions {
		onBallot[p.ID] = p
	}

	var problems []string
	roster := make(map[string]map[string]models.Candidate)
	seen := make(map[models.Vote]bool)
	perPosition := make(map[string]int)
	var order []string

	for _, v := range votes {
		p, ok := onBallot[v.PositionID]
		if !ok {
			problems = append(problems, fmt.Sprintf("position %s is not on this ballot", v.PositionID))
			continue
		}
		if seen[v] {
			problems = append(problems, fmt.Sprintf("duplicate vote for candidate %s in %s", v.CandidateID, p.PositionName))
			continue
		}
		seen[v] = true

		candidates, ok := roster[p.ID]
		if !ok {
			list, err := s.dir.Candidates(ctx, p.ID)
			if err != nil {
				return err
			}
			candidates = make(map[string]models.Candidate, len(list))
			for _, c := range list {
				candidates[c.ID] = c
			}
			roster[p.ID] = candidates
		}

		c, ok := candidates[v.CandidateID]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("candidate %s is not running for %s", v.CandidateID, p.PositionName))
		case !c.IsActive:
			problems = append(problems, fmt.Sprintf("candidate %s is no longer active", c.Name))
		}

		if perPosition[p.ID] == 0 {
			order = append(order, p.ID)
		}
		perPosition[p.ID]++
	}

	for _, id := range order {
		p := onBallot[id]
		if n := perPosition[id]; n > p.MaxVotes {
			problems = append(problems, fmt.Sprintf("%s allows at most %d vote(s), got %d", p.PositionName, p.MaxVotes, n))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Err: ErrInvalidVotes, Problems: problems}
	}
	return nil
}

// receiptCode is a short code a voter can quote to confirm their ballot was
// recorded. It reveals nothing about the votes.
func receiptCode(ballotID string, submittedAt time.Time) string {
	sum := sha256.Sum256([]byte(ballotID + "|" + submittedAt.Format(time.RFC3339Nano)))
	return base58.Encode(sum[:12])
}
