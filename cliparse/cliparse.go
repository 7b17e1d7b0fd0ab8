// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string
	// VoterTokenSecret signs voter session tokens.
	VoterTokenSecret string
	// Timezone is where election dates and HH:MM window times are read.
	Timezone string
	NATSURL  string
	// CORSOrigins lists the browser origins allowed to call the API. "*"
	// allows any origin without credentials.
	CORSOrigins []string

	IssueRetries int
	RetryBackoff time.Duration
	Debug        bool
}

// Location resolves Timezone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ELECTION_TZ %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseFlags validates flags and fills gaps from the environment. A .env
// file (or the one named by -env) is loaded first; variables already set
// in the process environment win over it.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string
	var corsOrigins string
	retries := -1

	fs := flag.NewFlagSet("ssg-ballot", flag.ContinueOnError)

	fs.StringVar(&envFile, "env", ".env", "Dotenv file to load if present")

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.NATSURL, "nats", "", "NATS server URL for ballot events (optional)")
	fs.StringVar(&cfg.Timezone, "tz", "", "IANA timezone for election windows")
	fs.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated browser origins allowed by CORS")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.VoterTokenSecret, "token-secret", "", "Voter token signing secret (prefer env)")

	// Issuance tuning
	fs.IntVar(&retries, "issue-retries", -1, "Ballot issuance retries after a conflict")
	fs.DurationVar(&cfg.RetryBackoff, "retry-backoff", 0, "Delay between issuance retries")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("invalid database type %q (want sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.NATSURL == "" {
		cfg.NATSURL = os.Getenv("NATS_URL")
	}
	if cfg.Timezone == "" {
		cfg.Timezone = os.Getenv("ELECTION_TZ")
	}
	if corsOrigins == "" {
		corsOrigins = os.Getenv("CORS_ORIGINS")
	}
	cfg.CORSOrigins = splitList(corsOrigins)
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}

	if retries < 0 {
		if s := os.Getenv("BALLOT_ISSUE_RETRIES"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return Config{}, errors.New("invalid BALLOT_ISSUE_RETRIES env variable")
			}
			retries = n
		} else {
			retries = 2 // default
		}
	}
	cfg.IssueRetries = retries

	if cfg.RetryBackoff == 0 {
		if s := os.Getenv("BALLOT_RETRY_BACKOFF"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid BALLOT_RETRY_BACKOFF env variable")
			}
			cfg.RetryBackoff = d
		} else {
			cfg.RetryBackoff = 50 * time.Millisecond
		}
	}

	if !cfg.Debug {
		cfg.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.VoterTokenSecret == "" {
		cfg.VoterTokenSecret = os.Getenv("VOTER_TOKEN_SECRET")
	}
	if cfg.VoterTokenSecret == "" {
		return Config{}, errors.New("VOTER_TOKEN_SECRET required")
	}

	return cfg, nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads a dotenv file without overriding existing variables.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
