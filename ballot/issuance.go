// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/ssg-ballot/auth"
	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const ballotColumns = `
	id, voter_id, election_id, position_id, status, close_time, created_at, submitted_at, receipt`

func scanBallot(row interface{ Scan(...any) error }) (models.Ballot, error) {
	var b models.Ballot
	err := row.Scan(
		&b.ID, &b.VoterID, &b.ElectionID, &b.PositionID, &b.Status,
		&b.CloseTime, &b.CreatedAt, &b.SubmittedAt, &b.Receipt,
	)
	return b, err
}

// expired reports whether an in-progress ballot has passed its deadline.
// This comparison is the only authority on expiry.
func expired(b models.Ballot, now time.Time) bool {
	return b.Status == models.BallotInProgress && !now.Before(b.CloseTime)
}

// present fills in the derived expiry fields for a response.
func present(b models.Ballot, now time.Time) models.Ballot {
	if expired(b, now) {
		b.IsExpired = true
		b.Status = models.BallotExpired
	}
	return b
}

// scopeBallots returns the submitted and in-progress ballots a voter holds in
// a scope. The partial unique indexes guarantee at most one of each.
func scopeBallots(ctx context.Context, q queryer, voterID string, sc scope) (submitted, inProgress *models.Ballot, err error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+ballotColumns+`
		FROM ballot
		WHERE voter_id = $1 AND election_id = $2 AND scope_key = $3
	`, voterID, sc.election.ID, sc.key())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		switch b.Status {
		case models.BallotSubmitted:
			submitted = &b
		case models.BallotInProgress:
			inProgress = &b
		}
	}
	return submitted, inProgress, rows.Err()
}

// StartOrResume returns the voter's ballot for a scope, creating one if the
// window is open. A submitted ballot is returned as-is; callers route it to a
// receipt view. An expired in-progress ballot is discarded and replaced when
// the window is still open.
func (s *Service) StartOrResume(ctx context.Context, voterID, electionID, positionID string) (models.Ballot, error) {
	voter, err := s.dir.Voter(ctx, voterID)
	if err != nil {
		return models.Ballot{}, err
	}
	sc, err := s.resolveScope(ctx, electionID, positionID)
	if err != nil {
		return models.Ballot{}, err
	}

	elig, err := s.checkEligibility(ctx, voter, sc, true)
	if err != nil {
		return models.Ballot{}, err
	}
	alreadyVoted := elig.Code == ReasonAlreadyVoted
	if !elig.CanVote && !alreadyVoted {
		return models.Ballot{}, &IneligibleError{Eligibility: elig}
	}

	p, err := s.Participation(ctx, voterID, electionID)
	if err != nil {
		return models.Ballot{}, err
	}
	if p == nil {
		return models.Ballot{}, ErrNotParticipating
	}

	for attempt := 0; ; attempt++ {
		b, err := s.issueOnce(ctx, voterID, sc, alreadyVoted)
		if err == nil || !errors.Is(err, ErrConflict) {
			return b, err
		}
		if attempt >= s.opts.IssueRetries {
			slog.Warn("ballot issuance conflict, retries exhausted",
				"election_id", electionID, "voter_id", voterID, "attempts", attempt+1)
			return models.Ballot{}, err
		}

		slog.Info("ballot issuance conflict, retrying",
			"election_id", electionID, "voter_id", voterID, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return models.Ballot{}, ctx.Err()
		case <-time.After(s.opts.RetryBackoff):
		}
	}
}

// issueOnce runs one issuance attempt in a single transaction.
func (s *Service) issueOnce(ctx context.Context, voterID string, sc scope, alreadyVoted bool) (models.Ballot, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Ballot{}, conflict(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	submitted, inProgress, err := scopeBallots(ctx, tx, voterID, sc)
	if err != nil {
		return models.Ballot{}, conflict(err)
	}

	if submitted != nil {
		return *submitted, nil
	}

	phase := sc.phase(now)

	if inProgress != nil {
		if !expired(*inProgress, now) {
			b := *inProgress
			// Deadlines only ever move later.
			if phase.State == timing.StateOpen && phase.ClosesAt.After(b.CloseTime) {
				if _, err := tx.ExecContext(ctx, `
					UPDATE ballot SET close_time = $1 WHERE id = $2 AND status = $3
				`, phase.ClosesAt.UTC(), b.ID, models.BallotInProgress); err != nil {
					return models.Ballot{}, conflict(fmt.Errorf("failed to extend ballot: %w", err))
				}
				slog.Info("ballot deadline extended", "ballot_id", b.ID, "close_time", phase.ClosesAt)
				b.CloseTime = phase.ClosesAt.UTC()
			}
			if err := tx.Commit(); err != nil {
				return models.Ballot{}, conflict(fmt.Errorf("failed to commit transaction: %w", err))
			}
			return b, nil
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM ballot WHERE id = $1 AND status = $2
		`, inProgress.ID, models.BallotInProgress); err != nil {
			return models.Ballot{}, conflict(fmt.Errorf("failed to delete expired ballot: %w", err))
		}
		slog.Info("expired ballot discarded", "ballot_id", inProgress.ID, "election_id", sc.election.ID)
	}

	if alreadyVoted {
		if err := tx.Commit(); err != nil {
			return models.Ballot{}, conflict(fmt.Errorf("failed to commit transaction: %w", err))
		}
		return models.Ballot{}, ErrAlreadySubmitted
	}

	if phase.State != timing.StateOpen {
		werr := &WindowError{Err: ErrBallotWindowClosed, Phase: phase, Now: now}
		if phase.State == timing.StateScheduled || phase.State == timing.StateNotScheduled {
			werr.Err = ErrBallotNotYetOpen
		}
		// Keep the discard of an expired ballot even though issuance is refused.
		if err := tx.Commit(); err != nil {
			return models.Ballot{}, conflict(fmt.Errorf("failed to commit transaction: %w", err))
		}
		return models.Ballot{}, werr
	}

	b := models.Ballot{
		ID:         auth.NewID(),
		VoterID:    voterID,
		ElectionID: sc.election.ID,
		PositionID: sc.positionID(),
		Status:     models.BallotInProgress,
		CloseTime:  phase.ClosesAt.UTC(),
		CreatedAt:  now.UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ballot (id, voter_id, election_id, position_id, scope_key, status, close_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.VoterID, b.ElectionID, b.PositionID, sc.key(), b.Status, b.CloseTime, b.CreatedAt); err != nil {
		return models.Ballot{}, conflict(fmt.Errorf("failed to insert ballot: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return models.Ballot{}, conflict(fmt.Errorf("failed to commit transaction: %w", err))
	}

	slog.Info("ballot issued", "ballot_id", b.ID, "election_id", b.ElectionID, "scope", sc.key(), "close_time", b.CloseTime)
	s.publish(ctx, events.Event{
		Subject:    events.SubjectBallotIssued,
		ElectionID: b.ElectionID,
		PositionID: sc.key(),
		VoterID:    voterID,
		BallotID:   b.ID,
		At:         b.CreatedAt,
	})

	return b, nil
}

// BallotStatus summarizes a voter's standing in a scope for the voting page.
func (s *Service) BallotStatus(ctx context.Context, voterID, electionID, positionID string) (models.BallotStatusResponse, error) {
	voter, err := s.dir.Voter(ctx, voterID)
	if err != nil {
		return models.BallotStatusResponse{}, err
	}
	sc, err := s.resolveScope(ctx, electionID, positionID)
	if err != nil {
		return models.BallotStatusResponse{}, err
	}

	elig, err := s.checkEligibility(ctx, voter, sc, true)
	if err != nil {
		return models.BallotStatusResponse{}, err
	}
	p, err := s.Participation(ctx, voterID, electionID)
	if err != nil {
		return models.BallotStatusResponse{}, err
	}
	submitted, inProgress, err := scopeBallots(ctx, s.db, voterID, sc)
	if err != nil {
		return models.BallotStatusResponse{}, err
	}

	es, err := s.electionScope(sc.election)
	if err != nil {
		return models.BallotStatusResponse{}, err
	}

	now := s.now()
	phase := sc.phase(now)
	electionPhase := es.phase(now)

	resp := models.BallotStatusResponse{
		HasVoted:         elig.Code == ReasonAlreadyVoted || submitted != nil,
		HasParticipated:  p != nil,
		VoterEligibility: &elig,
		ElectionStatus:   timing.DeriveElectionStatus(sc.election.IsDraft, electionPhase),
		Window:           phase,
		SecondsRemaining: phase.SecondsRemaining(),
	}
	resp.CanVote = elig.CanVote && p != nil && phase.State == timing.StateOpen && !resp.HasVoted

	switch {
	case submitted != nil:
		b := present(*submitted, now)
		resp.Ballot = &b
		resp.SecondsRemaining = 0
	case inProgress != nil:
		b := present(*inProgress, now)
		resp.Ballot = &b
		if !b.IsExpired {
			resp.SecondsRemaining = int64(b.CloseTime.Sub(now) / time.Second)
		}
	}

	return resp, nil
}
