// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/cliparse"
	"github.com/danielhkuo/ssg-ballot/db"
	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/router"
)

const (
	shutdownTimeout  = 10 * time.Second
	natsDrainTimeout = 5 * time.Second
)

// setupLogger uses text output on a terminal and JSON otherwise.
func setupLogger(debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Debug)

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Event publisher
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL, natsDrainTimeout)
		if err != nil {
			slog.Error("NATS connection failed", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		publisher = nc
		slog.Info("Publishing ballot events", "url", cfg.NATSURL)
	}

	// Create router
	mux, err := router.NewRouter(dbConn, cfg, ballot.Options{Publisher: publisher})
	if err != nil {
		slog.Error("router setup failed", "error", err)
		os.Exit(1)
	}

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(cfg.CORSOrigins)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		// Wait for Ctrl-C signal, then let in-flight submissions finish
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "timezone", cfg.Timezone)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
		return
	}
	<-stopped
	slog.Info("Server closed")
}
