// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/cliparse"
	"github.com/danielhkuo/ssg-ballot/handlers"
	"github.com/danielhkuo/ssg-ballot/middleware"
)

// NewRouter builds the ballot service from db and cfg and registers every
// route. opts supplies the clock and event publisher; Location, retries and
// backoff default to cfg when unset.
func NewRouter(db *sql.DB, cfg cliparse.Config, opts ballot.Options) (*http.ServeMux, error) {
	if opts.Location == nil {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		opts.Location = loc
	}
	if opts.IssueRetries == 0 {
		opts.IssueRetries = cfg.IssueRetries
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = cfg.RetryBackoff
	}
	svc := ballot.NewService(db, ballot.NewSQLDirectory(db), opts)

	mux := http.NewServeMux()

	// Initialize handlers
	ballotHandler := handlers.NewBallotHandler(svc)
	participationHandler := handlers.NewParticipationHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc, cfg)
	adminHandler := handlers.NewElectionAdminHandler(svc, cfg)

	voter := middleware.RequireVoter(cfg.VoterTokenSecret)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Participation (voter session)
	mux.HandleFunc("POST /elections/{electionID}/participation", middleware.WithLogging(voter(participationHandler.Confirm)))
	mux.HandleFunc("GET /elections/{electionID}/participation", middleware.WithLogging(voter(participationHandler.Status)))

	// Ballot lifecycle (voter session)
	mux.HandleFunc("GET /elections/{electionID}/ballot-status", middleware.WithLogging(voter(ballotHandler.BallotStatus)))
	mux.HandleFunc("POST /elections/{electionID}/ballots", middleware.WithLogging(voter(ballotHandler.StartBallot)))
	mux.HandleFunc("POST /ballots/{ballotID}/submit", middleware.WithLogging(voter(ballotHandler.SubmitBallot)))

	// Public reads
	mux.HandleFunc("GET /elections/{electionID}/preview", middleware.WithLogging(ballotHandler.PreviewBallot))
	mux.HandleFunc("GET /elections/{electionID}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /elections/{electionID}/ballot-count", middleware.WithLogging(resultsHandler.GetBallotCount))

	// Window administration (X-Admin-Key)
	mux.HandleFunc("PUT /elections/{electionID}/window", middleware.WithLogging(adminHandler.UpdateElectionWindow))
	mux.HandleFunc("PUT /positions/{positionID}/window", middleware.WithLogging(adminHandler.UpdatePositionWindow))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ssg-ballot API v1"))
	})

	return mux, nil
}
