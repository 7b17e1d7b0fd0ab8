// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/ssg-ballot/timing"
)

// Election type constants
const (
	ElectionSSG          = "ssg"
	ElectionDepartmental = "departmental"
)

// Ballot status constants. BallotExpired is derived, never stored.
const (
	BallotInProgress = "in-progress"
	BallotSubmitted  = "submitted"
	BallotExpired    = "expired"
)

// Participation status constants
const (
	ParticipationConfirmed = "confirmed"
)

// Domain types

type Voter struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DepartmentID   string `json:"department_id"`
	IsRegistered   bool   `json:"is_registered"`
	IsActive       bool   `json:"is_active"`
	IsClassOfficer bool   `json:"is_class_officer"`
}

func (v Voter) DisplayName() string {
	return v.FirstName + " " + v.LastName
}

type Election struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Year            int     `json:"year"`
	Type            string  `json:"election_type"`
	DepartmentID    *string `json:"department_id,omitempty"`
	IsDraft         bool    `json:"-"`
	ElectionDate    *string `json:"election_date,omitempty"`
	BallotOpenTime  *string `json:"ballot_open_time,omitempty"`
	BallotCloseTime *string `json:"ballot_close_time,omitempty"`
	RequiresOfficer bool    `json:"requires_officer"`
}

func (e Election) IsDepartmental() bool {
	return e.Type == ElectionDepartmental
}

type Position struct {
	ID              string  `json:"id"`
	ElectionID      string  `json:"election_id"`
	PositionName    string  `json:"position_name"`
	PositionOrder   int     `json:"position_order"`
	MaxVotes        int     `json:"max_votes"`
	MaxCandidates   int     `json:"max_candidates"`
	BallotOpenTime  *string `json:"ballot_open_time,omitempty"`
	BallotCloseTime *string `json:"ballot_close_time,omitempty"`
}

type Candidate struct {
	ID              string  `json:"id"`
	PositionID      string  `json:"position_id"`
	CandidateNumber int     `json:"candidate_number"`
	Name            string  `json:"name"`
	PartylistID     *string `json:"partylist_id,omitempty"`
	PartylistName   *string `json:"partylist_name,omitempty"`
	IsActive        bool    `json:"is_active"`
}

type Participation struct {
	ID          string     `json:"id"`
	VoterID     string     `json:"voter_id"`
	ElectionID  string     `json:"election_id"`
	Status      string     `json:"status"`
	HasVoted    bool       `json:"has_voted"`
	ConfirmedAt time.Time  `json:"confirmed_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

type Ballot struct {
	ID          string     `json:"id"`
	VoterID     string     `json:"-"` // Never expose in JSON
	ElectionID  string     `json:"election_id"`
	PositionID  *string    `json:"position_id,omitempty"`
	Status      string     `json:"ballot_status"`
	CloseTime   time.Time  `json:"ballot_close_time"`
	IsExpired   bool       `json:"is_expired"`
	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Receipt     *string    `json:"receipt,omitempty"`
}

// Vote is a single (position, candidate) selection on a ballot.
type Vote struct {
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
}

// Eligibility is the structured outcome of an eligibility check.
type Eligibility struct {
	CanVote bool   `json:"can_vote"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type PositionPreview struct {
	Position   Position    `json:"position"`
	Candidates []Candidate `json:"candidates"`
}

// Tally types

type CandidateTally struct {
	CandidateID     string  `json:"candidate_id"`
	CandidateNumber int     `json:"candidate_number"`
	Name            string  `json:"name"`
	PartylistName   *string `json:"partylist_name,omitempty"`
	Votes           int     `json:"votes"`
}

type PositionTally struct {
	PositionID   string           `json:"position_id"`
	PositionName string           `json:"position_name"`
	MaxVotes     int              `json:"max_votes"`
	Candidates   []CandidateTally `json:"candidates"`
}

// Request types

type StartBallotRequest struct {
	PositionID string `json:"position_id"`
}

type SubmitBallotRequest struct {
	Votes []Vote `json:"votes"`
}

type UpdateWindowRequest struct {
	ElectionDate    *string `json:"election_date,omitempty"`
	BallotOpenTime  string  `json:"ballot_open_time"`
	BallotCloseTime string  `json:"ballot_close_time"`
}

// Response types

type BallotStatusResponse struct {
	HasVoted         bool         `json:"has_voted"`
	CanVote          bool         `json:"can_vote"`
	HasParticipated  bool         `json:"has_participated"`
	Ballot           *Ballot      `json:"ballot,omitempty"`
	VoterEligibility *Eligibility `json:"voter_eligibility,omitempty"`
	ElectionStatus   string       `json:"election_status"`
	Window           timing.Phase `json:"window"`
	SecondsRemaining int64        `json:"seconds_remaining"`
}

type StartBallotResponse struct {
	Ballot Ballot `json:"ballot"`
}

type PreviewBallotResponse struct {
	Positions []PositionPreview `json:"positions"`
}

type SubmitBallotResponse struct {
	Success     bool      `json:"success"`
	BallotID    string    `json:"ballot_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Receipt     string    `json:"receipt"`
}

type ConfirmParticipationResponse struct {
	Participation Participation `json:"participation"`
}

// ParticipationStatusResponse reports election-level participation. HasVoted
// turns true on the voter's first submission; in a departmental election
// VotedPositions lists every position already voted for.
type ParticipationStatusResponse struct {
	HasParticipated bool     `json:"has_participated"`
	HasVoted        bool     `json:"has_voted"`
	VotedPositions  []string `json:"voted_positions,omitempty"`
}

type ResultsResponse struct {
	ElectionID     string          `json:"election_id"`
	ElectionStatus string          `json:"election_status"`
	TotalBallots   int             `json:"total_ballots"`
	Positions      []PositionTally `json:"positions"`
}

// Error response

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

type BallotCountResponse struct {
	ElectionID  string `json:"election_id"`
	BallotCount int    `json:"ballot_count"`
}

type UpdateElectionWindowResponse struct {
	Election       Election     `json:"election"`
	ElectionStatus string       `json:"election_status"`
	Window         timing.Phase `json:"window"`
}

type UpdatePositionWindowResponse struct {
	Position Position `json:"position"`
}
