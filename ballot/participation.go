// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/ssg-ballot/auth"
	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
)

// ConfirmParticipation records a voter's one-time opt-in to an election.
// Confirming again returns the existing record unchanged.
func (s *Service) ConfirmParticipation(ctx context.Context, voterID, electionID string) (models.Participation, error) {
	existing, err := s.Participation(ctx, voterID, electionID)
	if err != nil {
		return models.Participation{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	voter, err := s.dir.Voter(ctx, voterID)
	if err != nil {
		return models.Participation{}, err
	}
	e, err := s.dir.Election(ctx, electionID)
	if err != nil {
		return models.Participation{}, err
	}
	sc, err := s.electionScope(e)
	if err != nil {
		return models.Participation{}, err
	}

	elig, err := s.checkEligibility(ctx, voter, sc, false)
	if err != nil {
		return models.Participation{}, err
	}
	if !elig.CanVote {
		return models.Participation{}, &IneligibleError{Eligibility: elig}
	}

	now := s.now()
	phase := sc.phase(now)
	if phase.State != timing.StateScheduled && phase.State != timing.StateOpen {
		return models.Participation{}, fmt.Errorf("%w: election is %s", ErrElectionNotOpenForParticipation, phase.State)
	}

	// The unique (voter_id, election_id) constraint collapses concurrent
	// confirmations onto one row.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO participation (id, voter_id, election_id, status, has_voted, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (voter_id, election_id) DO NOTHING
	`, auth.NewID(), voterID, electionID, models.ParticipationConfirmed, false, now.UTC())
	if err != nil {
		return models.Participation{}, fmt.Errorf("failed to insert participation: %w", err)
	}

	created, err := s.Participation(ctx, voterID, electionID)
	if err != nil {
		return models.Participation{}, err
	}
	if created == nil {
		return models.Participation{}, fmt.Errorf("participation for voter %s vanished after insert", voterID)
	}

	if n, _ := res.RowsAffected(); n == 1 {
		slog.Info("participation confirmed", "election_id", electionID, "voter_id", voterID)
		s.publish(ctx, events.Event{
			Subject:    events.SubjectParticipationConfirmed,
			ElectionID: electionID,
			VoterID:    voterID,
			At:         now.UTC(),
		})
	}

	return *created, nil
}

// Participation returns the voter's participation record, or nil if the
// voter has not confirmed.
func (s *Service) Participation(ctx context.Context, voterID, electionID string) (*models.Participation, error) {
	var p models.Participation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, voter_id, election_id, status, has_voted, confirmed_at, submitted_at
		FROM participation
		WHERE voter_id = $1 AND election_id = $2
	`, voterID, electionID).Scan(
		&p.ID, &p.VoterID, &p.ElectionID, &p.Status, &p.HasVoted, &p.ConfirmedAt, &p.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query participation: %w", err)
	}
	return &p, nil
}

// VotedPositions returns the positions the voter has submitted a
// position-scoped ballot for, in submission order.
func (s *Service) VotedPositions(ctx context.Context, voterID, electionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id FROM ballot
		WHERE voter_id = $1 AND election_id = $2 AND status = $3 AND position_id IS NOT NULL
		ORDER BY submitted_at, id
	`, voterID, electionID, models.BallotSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to query voted positions: %w", err)
	}
	defer rows.Close()

	var positions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan voted position: %w", err)
		}
		positions = append(positions, id)
	}
	return positions, rows.Err()
}
