// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/timing"
)

// Options configures a Service. Zero values get defaults.
type Options struct {
	// Location is where election dates and HH:MM times are interpreted.
	Location *time.Location
	// IssueRetries bounds how often issuance is retried after a conflict.
	IssueRetries int
	RetryBackoff time.Duration
	// Now is the authoritative clock. Client clocks are never consulted.
	Now       func() time.Time
	Publisher events.Publisher
}

// Service implements the ballot lifecycle: eligibility, participation,
// issuance, submission, preview, and tallying.
type Service struct {
	db   *sql.DB
	dir  Directory
	opts Options
}

func NewService(db *sql.DB, dir Directory, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.IssueRetries < 0 {
		opts.IssueRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	return &Service{db: db, dir: dir, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now()
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.opts.Publisher.Publish(ctx, ev); err != nil {
		// Events are advisory; the database is authoritative.
		slog.Warn("failed to publish event", "subject", ev.Subject, "error", err)
	}
}

// scope is the unit a ballot is issued against: a whole election, or one
// position of a departmental election.
type scope struct {
	election models.Election
	position *models.Position
	window   timing.Window
}

func (sc scope) key() string {
	if sc.position == nil {
		return ""
	}
	return sc.position.ID
}

func (sc scope) positionID() *string {
	if sc.position == nil {
		return nil
	}
	id := sc.position.ID
	return &id
}

// phase resolves the scope's window at now. Draft elections are never open.
func (sc scope) phase(now time.Time) timing.Phase {
	if sc.election.IsDraft {
		return timing.Phase{State: timing.StateNotScheduled}
	}
	return timing.Resolve(now, sc.window)
}

// electionWindow builds the election-wide window from stored configuration.
func (s *Service) electionWindow(e models.Election) (timing.Window, error) {
	var w timing.Window
	if e.ElectionDate != nil && *e.ElectionDate != "" {
		d, err := timing.ParseDate(*e.ElectionDate, s.opts.Location)
		if err != nil {
			return timing.Window{}, fmt.Errorf("election %s: %w", e.ID, err)
		}
		w.Date = d
	}
	openTime, err := timing.ParseOptionalClock(deref(e.BallotOpenTime))
	if err != nil {
		return timing.Window{}, fmt.Errorf("election %s open time: %w", e.ID, err)
	}
	closeTime, err := timing.ParseOptionalClock(deref(e.BallotCloseTime))
	if err != nil {
		return timing.Window{}, fmt.Errorf("election %s close time: %w", e.ID, err)
	}
	w.Open, w.Close = openTime, closeTime
	return w, nil
}

// positionWindow applies a position's own times over the election window.
func positionWindow(base timing.Window, p models.Position) (timing.Window, error) {
	openTime, err := timing.ParseOptionalClock(deref(p.BallotOpenTime))
	if err != nil {
		return timing.Window{}, fmt.Errorf("position %s open time: %w", p.ID, err)
	}
	closeTime, err := timing.ParseOptionalClock(deref(p.BallotCloseTime))
	if err != nil {
		return timing.Window{}, fmt.Errorf("position %s close time: %w", p.ID, err)
	}
	return base.Override(openTime, closeTime), nil
}

// electionScope is the election-wide scope regardless of election type.
// Used for participation and derived election status.
func (s *Service) electionScope(e models.Election) (scope, error) {
	w, err := s.electionWindow(e)
	if err != nil {
		return scope{}, err
	}
	return scope{election: e, window: w}, nil
}

// resolveScope loads the election (and position) a ballot request targets
// and enforces the scope rules: SSG ballots cover the whole election,
// departmental ballots cover exactly one position.
func (s *Service) resolveScope(ctx context.Context, electionID, positionID string) (scope, error) {
	e, err := s.dir.Election(ctx, electionID)
	if err != nil {
		return scope{}, err
	}
	sc, err := s.electionScope(e)
	if err != nil {
		return scope{}, err
	}

	if !e.IsDepartmental() {
		if positionID != "" {
			return scope{}, fmt.Errorf("%w: position_id is only valid for departmental elections", ErrBadScope)
		}
		return sc, nil
	}

	if positionID == "" {
		return scope{}, fmt.Errorf("%w: position_id is required for departmental elections", ErrBadScope)
	}
	p, err := s.dir.Position(ctx, positionID)
	if err != nil {
		return scope{}, err
	}
	if p.ElectionID != e.ID {
		return scope{}, fmt.Errorf("position %s in election %s: %w", positionID, electionID, ErrNotFound)
	}
	sc.window, err = positionWindow(sc.window, p)
	if err != nil {
		return scope{}, err
	}
	sc.position = &p
	return sc, nil
}

// ElectionStatus returns the derived status of an election at now.
func (s *Service) ElectionStatus(ctx context.Context, electionID string) (string, timing.Phase, error) {
	e, err := s.dir.Election(ctx, electionID)
	if err != nil {
		return "", timing.Phase{}, err
	}
	sc, err := s.electionScope(e)
	if err != nil {
		return "", timing.Phase{}, err
	}
	p := sc.phase(s.now())
	return timing.DeriveElectionStatus(e.IsDraft, p), p, nil
}

// Position exposes the directory lookup for handlers that need a
// position's election before authorizing a request.
func (s *Service) Position(ctx context.Context, positionID string) (models.Position, error) {
	return s.dir.Position(ctx, positionID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
