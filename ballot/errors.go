// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/ssg-ballot/db"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
	"github.com/dustin/go-humanize"
)

var (
	ErrNotFound                        = errors.New("not found")
	ErrBadScope                        = errors.New("invalid ballot scope")
	ErrIneligible                      = errors.New("voter is not eligible")
	ErrNotParticipating                = errors.New("voter has not confirmed participation")
	ErrElectionNotOpenForParticipation = errors.New("election is not open for participation")
	ErrBallotNotYetOpen                = errors.New("ballot not yet open")
	ErrBallotWindowClosed              = errors.New("ballot window closed")
	ErrAlreadySubmitted                = errors.New("ballot already submitted")
	ErrConflict                        = errors.New("concurrent ballot update")
	ErrInvalidVotes                    = errors.New("invalid vote set")
	ErrInvalidWindow                   = errors.New("invalid voting window")
	ErrResultsSealed                   = errors.New("results are sealed until the election is completed")
)

// IneligibleError carries the structured eligibility outcome that caused an
// operation to be refused.
type IneligibleError struct {
	Eligibility models.Eligibility
}

func (e *IneligibleError) Error() string {
	return "voter is not eligible: " + e.Eligibility.Reason
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// WindowError is a terminal timing refusal: ErrBallotNotYetOpen or
// ErrBallotWindowClosed.
type WindowError struct {
	Err   error
	Phase timing.Phase
	Now   time.Time
}

func (e *WindowError) Error() string {
	switch {
	case e.Phase.State == timing.StateNotScheduled:
		return e.Err.Error() + ": the election has not been scheduled"
	case errors.Is(e.Err, ErrBallotNotYetOpen):
		return e.Err.Error() + ": ballots open " + humanize.RelTime(e.Phase.OpensAt, e.Now, "ago", "from now")
	case !e.Phase.ClosesAt.IsZero():
		return e.Err.Error() + ": ballots closed " + humanize.RelTime(e.Phase.ClosesAt, e.Now, "ago", "from now")
	}
	return e.Err.Error()
}

func (e *WindowError) Unwrap() error { return e.Err }

// ValidationError lists every problem found in a request. Nothing is written
// when one is returned.
type ValidationError struct {
	Err      error
	Problems []string
}

func (e *ValidationError) Error() string {
	return e.Err.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// conflict maps driver-level uniqueness and lock failures onto ErrConflict so
// the issuance retry loop can tell them apart from real failures.
func conflict(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) || db.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
