// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/ssg-ballot/models"
)

// Eligibility reason codes
const (
	ReasonNotRegistered   = "not_registered"
	ReasonInactive        = "inactive"
	ReasonWrongDepartment = "wrong_department"
	ReasonAlreadyVoted    = "already_voted"
	ReasonNotClassOfficer = "not_class_officer"
)

var eligible = models.Eligibility{CanVote: true}

func ineligible(code, reason string) models.Eligibility {
	return models.Eligibility{CanVote: false, Code: code, Reason: reason}
}

// CanVote reports whether a voter may vote in an election (or, for
// departmental elections, a position). Ineligibility is a normal result,
// not an error; errors are reserved for lookups that fail.
func (s *Service) CanVote(ctx context.Context, voterID, electionID, positionID string) (models.Eligibility, error) {
	voter, err := s.dir.Voter(ctx, voterID)
	if err != nil {
		return models.Eligibility{}, err
	}
	sc, err := s.resolveScope(ctx, electionID, positionID)
	if err != nil {
		return models.Eligibility{}, err
	}
	return s.checkEligibility(ctx, voter, sc, true)
}

// checkEligibility evaluates the rules in order; the first failure wins.
// With checkVoted false the already-voted rule is skipped, which is what
// participation confirmation wants.
func (s *Service) checkEligibility(ctx context.Context, voter models.Voter, sc scope, checkVoted bool) (models.Eligibility, error) {
	if !voter.IsRegistered {
		return ineligible(ReasonNotRegistered, "You are not registered to vote."), nil
	}
	if !voter.IsActive {
		return ineligible(ReasonInactive, "Your voter record is inactive."), nil
	}

	if sc.election.IsDepartmental() {
		if sc.election.DepartmentID == nil || *sc.election.DepartmentID != voter.DepartmentID {
			return ineligible(ReasonWrongDepartment, "This election is only open to students of another department."), nil
		}
	}

	if checkVoted {
		voted, err := s.hasVoted(ctx, voter.ID, sc)
		if err != nil {
			return models.Eligibility{}, err
		}
		if voted {
			if sc.position != nil {
				return ineligible(ReasonAlreadyVoted, "You have already voted for "+sc.position.PositionName+"."), nil
			}
			return ineligible(ReasonAlreadyVoted, "You have already voted in this election."), nil
		}
	}

	if sc.election.RequiresOfficer && !voter.IsClassOfficer {
		return ineligible(ReasonNotClassOfficer, "Only class officers may vote in this election."), nil
	}

	return eligible, nil
}

// hasVoted checks for a submitted ballot in scope. For election-wide scope
// the participation flag also counts; for a position scope it does not,
// since a departmental voter submits one ballot per position.
func (s *Service) hasVoted(ctx context.Context, voterID string, sc scope) (bool, error) {
	var submitted bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ballot
			WHERE voter_id = $1 AND election_id = $2 AND scope_key = $3 AND status = $4
		)
	`, voterID, sc.election.ID, sc.key(), models.BallotSubmitted).Scan(&submitted)
	if err != nil {
		return false, fmt.Errorf("failed to query submitted ballot: %w", err)
	}
	if submitted || sc.position != nil {
		return submitted, nil
	}

	var hasVoted bool
	err = s.db.QueryRowContext(ctx, `
		SELECT has_voted FROM participation WHERE voter_id = $1 AND election_id = $2
	`, voterID, sc.election.ID).Scan(&hasVoted)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query participation: %w", err)
	}
	return hasVoted, nil
}
