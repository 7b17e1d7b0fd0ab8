// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/ssg-ballot/auth"
	"github.com/danielhkuo/ssg-ballot/cliparse"
	"github.com/danielhkuo/ssg-ballot/db"
	"github.com/danielhkuo/ssg-ballot/models"
)

// SetupTestDB creates a fresh sqlite database with the full schema in the
// test's temp dir. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := "file:" + filepath.Join(t.TempDir(), "ballot.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := db.Open(db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     db.TypeSQLite,
		AdminKeySalt:     "test-admin-salt",
		VoterTokenSecret: "test-voter-secret",
		Timezone:         "UTC",
		IssueRetries:     2,
		RetryBackoff:     time.Millisecond,
	}
}

// VoterToken issues a session token for voterID signed with the test config.
func VoterToken(t *testing.T, cfg cliparse.Config, voterID string) string {
	t.Helper()

	token, err := auth.IssueVoterToken(voterID, cfg.VoterTokenSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue voter token: %v", err)
	}
	return token
}

// AdminKey returns the admin key for an election under the test config.
func AdminKey(cfg cliparse.Config, electionID string) string {
	return auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
}

// CreateTestDepartment inserts a department and returns its ID
func CreateTestDepartment(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	id := auth.NewID()
	if _, err := db.Exec(`INSERT INTO department (id, name) VALUES ($1, $2)`, id, name); err != nil {
		t.Fatalf("Failed to create test department: %v", err)
	}
	return id
}

// VoterOpts tweaks a test voter. The zero value is a registered, active,
// non-officer voter.
type VoterOpts struct {
	Unregistered bool
	Inactive     bool
	ClassOfficer bool
}

// CreateTestVoter inserts a voter in a department and returns its ID
func CreateTestVoter(t *testing.T, db *sql.DB, departmentID, lastName string, opts VoterOpts) string {
	t.Helper()

	id := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO voter (id, student_id, first_name, last_name, department_id,
		                   is_registered, is_active, is_class_officer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, "S-"+id, "Test", lastName, departmentID, !opts.Unregistered, !opts.Inactive, opts.ClassOfficer)
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return id
}

// ElectionOpts describes a test election. Empty Date leaves it unscheduled;
// empty Open/Close leave the window at the whole day.
type ElectionOpts struct {
	Type            string
	DepartmentID    string
	Date            string
	Open            string
	Close           string
	Draft           bool
	RequiresOfficer bool
}

// CreateTestElection inserts an election and returns its ID
func CreateTestElection(t *testing.T, db *sql.DB, opts ElectionOpts) string {
	t.Helper()

	if opts.Type == "" {
		opts.Type = models.ElectionSSG
	}

	id := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO election (id, title, year, election_type, department_id, is_draft,
		                      election_date, ballot_open_time, ballot_close_time, requires_officer)
		VALUES ($1, 'Test Election', 2025, $2, $3, $4, $5, $6, $7, $8)
	`, id, opts.Type, nullable(opts.DepartmentID), opts.Draft,
		nullable(opts.Date), nullable(opts.Open), nullable(opts.Close), opts.RequiresOfficer)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// PositionOpts describes a test position. MaxVotes defaults to 1.
type PositionOpts struct {
	Name     string
	Order    int
	MaxVotes int
	Open     string
	Close    string
}

// CreateTestPosition inserts a position and returns its ID
func CreateTestPosition(t *testing.T, db *sql.DB, electionID string, opts PositionOpts) string {
	t.Helper()

	if opts.MaxVotes == 0 {
		opts.MaxVotes = 1
	}
	if opts.Name == "" {
		opts.Name = "Position"
	}

	id := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO position (id, election_id, position_name, position_order, max_votes, max_candidates,
		                      ballot_open_time, ballot_close_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, electionID, opts.Name, opts.Order, opts.MaxVotes, opts.MaxVotes+2,
		nullable(opts.Open), nullable(opts.Close))
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}
	return id
}

// CreateTestPartylist inserts a partylist and returns its ID
func CreateTestPartylist(t *testing.T, db *sql.DB, electionID, name string) string {
	t.Helper()

	id := auth.NewID()
	if _, err := db.Exec(`INSERT INTO partylist (id, election_id, name) VALUES ($1, $2, $3)`,
		id, electionID, name); err != nil {
		t.Fatalf("Failed to create test partylist: %v", err)
	}
	return id
}

// CreateTestCandidate inserts an active candidate backed by voterID and
// returns its ID. partylistID may be empty.
func CreateTestCandidate(t *testing.T, db *sql.DB, electionID, positionID, voterID, partylistID string, number int) string {
	t.Helper()

	id := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO candidate (id, election_id, position_id, voter_id, partylist_id, candidate_number, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, electionID, positionID, voterID, nullable(partylistID), number, true)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return id
}

// DeactivateTestCandidate marks a candidate withdrawn
func DeactivateTestCandidate(t *testing.T, db *sql.DB, candidateID string) {
	t.Helper()

	if _, err := db.Exec(`UPDATE candidate SET is_active = $1 WHERE id = $2`, false, candidateID); err != nil {
		t.Fatalf("Failed to deactivate test candidate: %v", err)
	}
}

// ConfirmTestParticipation inserts a participation row directly
func ConfirmTestParticipation(t *testing.T, db *sql.DB, voterID, electionID string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO participation (id, voter_id, election_id, status, has_voted, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, auth.NewID(), voterID, electionID, models.ParticipationConfirmed, false, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to confirm test participation: %v", err)
	}
}

// InsertTestBallot writes an in-progress ballot row directly, bypassing
// issuance. scopeKey is "" for election scope or the position ID.
func InsertTestBallot(t *testing.T, db *sql.DB, voterID, electionID, scopeKey string, closeTime time.Time) string {
	t.Helper()

	id := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO ballot (id, voter_id, election_id, position_id, scope_key, status, close_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, voterID, electionID, nullable(scopeKey), scopeKey, models.BallotInProgress,
		closeTime.UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to insert test ballot: %v", err)
	}
	return id
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()

	var n int
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
