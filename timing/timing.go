// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timing

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidClock  = errors.New("invalid time of day")
	ErrInvalidDate   = errors.New("invalid election date")
	ErrCloseNotAfter = errors.New("close time must be after open time")
)

// Phase states
const (
	StateNotScheduled = "not_scheduled"
	StateScheduled    = "scheduled"
	StateOpen         = "open"
	StateClosed       = "closed"
)

// Derived election statuses
const (
	StatusDraft     = "draft"
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a strict "HH:MM" string in [00:00, 23:59].
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, ok1 := twoDigits(s[0:2])
	m, ok2 := twoDigits(s[3:5])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// ParseOptionalClock returns nil for an empty string.
func ParseOptionalClock(s string) (*Clock, error) {
	if s == "" {
		return nil, nil
	}
	c, err := ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseDate parses a "YYYY-MM-DD" election date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ValidateWindow checks a configured open/close pair. Either may be absent.
func ValidateWindow(open, close *Clock) error {
	if open != nil && close != nil && close.minutes() <= open.minutes() {
		return fmt.Errorf("%w: open %s, close %s", ErrCloseNotAfter, open, close)
	}
	return nil
}

// Window is the configured voting window of an election or position.
type Window struct {
	// Date is midnight of the election day in the election's location.
	// A zero Date means the election has not been scheduled.
	Date  time.Time
	Open  *Clock
	Close *Clock
}

// Override returns a copy of w with any non-nil position-level times applied.
func (w Window) Override(open, close *Clock) Window {
	if open != nil {
		w.Open = open
	}
	if close != nil {
		w.Close = close
	}
	return w
}

// Bounds returns the absolute open and close instants. Without configured
// times the window spans the whole calendar day.
func (w Window) Bounds() (opensAt, closesAt time.Time, ok bool) {
	if w.Date.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	y, mo, d := w.Date.Date()
	loc := w.Date.Location()

	opensAt = time.Date(y, mo, d, 0, 0, 0, 0, loc)
	if w.Open != nil {
		opensAt = time.Date(y, mo, d, w.Open.Hour, w.Open.Minute, 0, 0, loc)
	}
	closesAt = time.Date(y, mo, d+1, 0, 0, 0, 0, loc)
	if w.Close != nil {
		closesAt = time.Date(y, mo, d, w.Close.Hour, w.Close.Minute, 0, 0, loc)
	}
	return opensAt, closesAt, true
}

// Phase is the resolved state of a window at one instant.
type Phase struct {
	State    string        `json:"phase"`
	OpensAt  time.Time     `json:"opens_at,omitzero"`
	ClosesAt time.Time     `json:"closes_at,omitzero"`
	OpensIn  time.Duration `json:"-"`
	ClosesIn time.Duration `json:"-"`
}

// SecondsRemaining is the countdown a client shows: seconds until open while
// scheduled, seconds until close while open, zero otherwise.
func (p Phase) SecondsRemaining() int64 {
	switch p.State {
	case StateScheduled:
		return int64(p.OpensIn / time.Second)
	case StateOpen:
		return int64(p.ClosesIn / time.Second)
	}
	return 0
}

// Resolve computes the phase of w at now. Open is [opensAt, closesAt).
func Resolve(now time.Time, w Window) Phase {
	opensAt, closesAt, ok := w.Bounds()
	if !ok {
		return Phase{State: StateNotScheduled}
	}

	p := Phase{OpensAt: opensAt, ClosesAt: closesAt}
	switch {
	case now.Before(opensAt):
		p.State = StateScheduled
		p.OpensIn = opensAt.Sub(now)
	case now.Before(closesAt):
		p.State = StateOpen
		p.ClosesIn = closesAt.Sub(now)
	default:
		p.State = StateClosed
	}
	return p
}

// DeriveElectionStatus maps a resolved election phase onto the election
// status shown to users. Status is never stored.
func DeriveElectionStatus(isDraft bool, p Phase) string {
	if isDraft {
		return StatusDraft
	}
	switch p.State {
	case StateScheduled:
		return StatusUpcoming
	case StateOpen:
		return StatusActive
	case StateClosed:
		return StatusCompleted
	}
	return StatusDraft
}
