// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"

	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
)

// Results tallies submitted votes per candidate. Results stay sealed until
// the election is completed unless unseal is set (admin access).
func (s *Service) Results(ctx context.Context, electionID string, unseal bool) (models.ResultsResponse, error) {
	status, _, err := s.ElectionStatus(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	if status != timing.StatusCompleted && !unseal {
		return models.ResultsResponse{}, ErrResultsSealed
	}

	total, err := s.BallotCount(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	counts, err := s.voteCounts(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	positions, err := s.dir.Positions(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	tallies := make([]models.PositionTally, 0, len(positions))
	for _, p := range positions {
		candidates, err := s.dir.Candidates(ctx, p.ID)
		if err != nil {
			return models.ResultsResponse{}, err
		}
		pt := models.PositionTally{
			PositionID:   p.ID,
			PositionName: p.PositionName,
			MaxVotes:     p.MaxVotes,
			Candidates:   make([]models.CandidateTally, 0, len(candidates)),
		}
		for _, c := range candidates {
			// Withdrawn candidates are listed only if they hold votes.
			if !c.IsActive && counts[c.ID] == 0 {
				continue
			}
			pt.Candidates = append(pt.Candidates, models.CandidateTally{
				CandidateID:     c.ID,
				CandidateNumber: c.CandidateNumber,
				Name:            c.Name,
				PartylistName:   c.PartylistName,
				Votes:           counts[c.ID],
			})
		}
		tallies = append(tallies, pt)
	}

	return models.ResultsResponse{
		ElectionID:     electionID,
		ElectionStatus: status,
		TotalBallots:   total,
		Positions:      tallies,
	}, nil
}

func (s *Service) voteCounts(ctx context.Context, electionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.candidate_id, COUNT(*)
		FROM vote v
		JOIN ballot b ON b.id = v.ballot_id
		WHERE v.election_id = $1 AND b.status = $2
		GROUP BY v.candidate_id
	`, electionID, models.BallotSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// BallotCount is the number of submitted ballots. It is public while voting
// is open; per-candidate counts are not.
func (s *Service) BallotCount(ctx context.Context, electionID string) (int, error) {
	if _, err := s.dir.Election(ctx, electionID); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ballot WHERE election_id = $1 AND status = $2
	`, electionID, models.BallotSubmitted).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}
