// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/ssg-ballot/models"
)

// Directory reads the records owned by the registration and election
// management services. The ballot core never writes them.
type Directory interface {
	Voter(ctx context.Context, id string) (models.Voter, error)
	Election(ctx context.Context, id string) (models.Election, error)
	Position(ctx context.Context, id string) (models.Position, error)
	// Positions returns an election's positions ordered by position_order.
	Positions(ctx context.Context, electionID string) ([]models.Position, error)
	// Candidates returns every candidate of a position, active or not,
	// ordered by candidate_number.
	Candidates(ctx context.Context, positionID string) ([]models.Candidate, error)
}

// SQLDirectory reads directory records from the shared database.
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) Voter(ctx context.Context, id string) (models.Voter, error) {
	var v models.Voter
	err := d.db.QueryRowContext(ctx, `
		SELECT id, student_id, first_name, last_name, department_id,
		       is_registered, is_active, is_class_officer
		FROM voter
		WHERE id = $1
	`, id).Scan(
		&v.ID, &v.StudentID, &v.FirstName, &v.LastName, &v.DepartmentID,
		&v.IsRegistered, &v.IsActive, &v.IsClassOfficer,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Voter{}, fmt.Errorf("voter %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to query voter: %w", err)
	}
	return v, nil
}

func (d *SQLDirectory) Election(ctx context.Context, id string) (models.Election, error) {
	var e models.Election
	err := d.db.QueryRowContext(ctx, `
		SELECT id, title, year, election_type, department_id, is_draft,
		       election_date, ballot_open_time, ballot_close_time, requires_officer
		FROM election
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Title, &e.Year, &e.Type, &e.DepartmentID, &e.IsDraft,
		&e.ElectionDate, &e.BallotOpenTime, &e.BallotCloseTime, &e.RequiresOfficer,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, fmt.Errorf("election %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}

const positionColumns = `
	id, election_id, position_name, position_order, max_votes, max_candidates,
	ballot_open_time, ballot_close_time`

func scanPosition(row interface{ Scan(...any) error }) (models.Position, error) {
	var p models.Position
	err := row.Scan(
		&p.ID, &p.ElectionID, &p.PositionName, &p.PositionOrder, &p.MaxVotes, &p.MaxCandidates,
		&p.BallotOpenTime, &p.BallotCloseTime,
	)
	return p, err
}

func (d *SQLDirectory) Position(ctx context.Context, id string) (models.Position, error) {
	p, err := scanPosition(d.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM position WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Position{}, fmt.Errorf("position %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Position{}, fmt.Errorf("failed to query position: %w", err)
	}
	return p, nil
}

func (d *SQLDirectory) Positions(ctx context.Context, electionID string) ([]models.Position, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM position WHERE election_id = $1 ORDER BY position_order, id`,
		electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (d *SQLDirectory) Candidates(ctx context.Context, positionID string) ([]models.Candidate, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.id, c.position_id, c.candidate_number, v.first_name, v.last_name,
		       c.partylist_id, p.name, c.is_active
		FROM candidate c
		JOIN voter v ON v.id = c.voter_id
		LEFT JOIN partylist p ON p.id = c.partylist_id
		WHERE c.position_id = $1
		ORDER BY c.candidate_number, c.id
	`, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		var first, last string
		if err := rows.Scan(
			&c.ID, &c.PositionID, &c.CandidateNumber, &first, &last,
			&c.PartylistID, &c.PartylistName, &c.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.Name = models.Voter{FirstName: first, LastName: last}.DisplayName()
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
