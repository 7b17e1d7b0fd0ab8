// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package events publishes ballot lifecycle events for downstream consumers
// such as the live turnout dashboard and the audit log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	nats "github.com/nats-io/nats.go"
)

// Subjects
const (
	SubjectParticipationConfirmed = "ssg.participation.confirmed"
	SubjectBallotIssued           = "ssg.ballot.issued"
	SubjectBallotSubmitted        = "ssg.ballot.submitted"
)

// Event is the JSON payload of every published message. Votes are never
// included; only the fact that a ballot changed state.
type Event struct {
	Subject    string    `json:"-"`
	ElectionID string    `json:"election_id"`
	PositionID string    `json:"position_id,omitempty"`
	VoterID    string    `json:"voter_id"`
	BallotID   string    `json:"ballot_id,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes events as JSON on a core NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// ConnectNATS dials url and returns a publisher that owns the connection.
func ConnectNATS(url string, drainTimeout time.Duration) (*NATSPublisher, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("ssg-ballot"),
		nats.DrainTimeout(drainTimeout),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.Error("async NATS error", "error", err, "subject", s.Subject)
			} else {
				slog.Error("async NATS error outside subscription", "error", err)
			}
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event for subject %s: %w", ev.Subject, err)
	}
	if err := p.conn.Publish(ev.Subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", ev.Subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Recorder keeps published events in memory. Used in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns the number of recorded events on subject.
func (r *Recorder) Count(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Subject == subject {
			n++
		}
	}
	return n
}
