// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p              PORT                  Server port (default 3318)
	-d              DATABASE_URL          Database URL (required)
	-t              DATABASE_TYPE         sqlite or postgres (default sqlite)
	-admin-salt     ADMIN_KEY_SALT        Admin key HMAC secret (required)
	-token-secret   VOTER_TOKEN_SECRET    Voter token signing secret (required)
	-tz             ELECTION_TZ           Timezone for election windows (default UTC)
	-nats           NATS_URL              Ballot event bus (optional)
	-issue-retries  BALLOT_ISSUE_RETRIES  Issuance retries on conflict (default 2)
	-retry-backoff  BALLOT_RETRY_BACKOFF  Delay between retries (default 50ms)
	-debug          DEBUG                 Debug logging
	-env                                  Dotenv file (default .env)

CLI flags take precedence over environment variables, and the process
environment takes precedence over the dotenv file.
*/
package cliparse
