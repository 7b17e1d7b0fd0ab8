// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides voter session tokens, election admin keys, and IDs.

# Voter Tokens

Voter sessions are HS256 JWTs whose subject is the voter ID. They are sent in
the X-Voter-Token header:

	token, err := auth.IssueVoterToken(voterID, secret, 8*time.Hour, time.Now())
	voterID, err := auth.ParseVoterToken(token, secret)

Parsing requires a known issuer, an expiry, and the HS256 algorithm.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same election ID and salt always produce the same key. This allows
validation without storing the key in the database.

# ID Generation

Record IDs are UUIDv7 strings, so they sort by creation time:

	id := auth.NewID()
*/
package auth
