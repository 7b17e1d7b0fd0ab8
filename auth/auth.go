// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "ssg-ballot"

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid voter token")
)

// NewID returns a time-ordered UUIDv7 string, falling back to a random v4
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// GenerateAdminKey creates an HMAC-based admin key for an election
// This is deterministic and verifiable
func GenerateAdminKey(electionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(electionID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the election
func ValidateAdminKey(electionID, adminKey, salt string) error {
	expected := GenerateAdminKey(electionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// IssueVoterToken signs a session token whose subject is the voter ID.
// Sessions are created by the account service; this is used by it and by tests.
func IssueVoterToken(voterID, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   voterID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign voter token: %w", err)
	}
	return signed, nil
}

// ParseVoterToken validates a session token and returns the voter ID
func ParseVoterToken(token, secret string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
