// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"

	"github.com/danielhkuo/ssg-ballot/models"
)

// Preview returns what a voter will see on the ballot: positions in
// position_order, each with its active candidates in candidate_number order.
// With a position id only that position is returned.
func (s *Service) Preview(ctx context.Context, electionID, positionID string) ([]models.PositionPreview, error) {
	e, err := s.dir.Election(ctx, electionID)
	if err != nil {
		return nil, err
	}

	var positions []models.Position
	if positionID != "" {
		p, err := s.dir.Position(ctx, positionID)
		if err != nil {
			return nil, err
		}
		if p.ElectionID != e.ID {
			return nil, fmt.Errorf("position %s in election %s: %w", positionID, electionID, ErrNotFound)
		}
		positions = []models.Position{p}
	} else {
		positions, err = s.dir.Positions(ctx, e.ID)
		if err != nil {
			return nil, err
		}
	}

	previews := make([]models.PositionPreview, 0, len(positions))
	for _, p := range positions {
		all, err := s.dir.Candidates(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		active := make([]models.Candidate, 0, len(all))
		for _, c := range all {
			if c.IsActive {
				active = append(active, c)
			}
		}
		previews = append(previews, models.PositionPreview{Position: p, Candidates: active})
	}
	return previews, nil
}
