// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/ssg-ballot/ballot"
	"github.com/danielhkuo/ssg-ballot/cliparse"
	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/testutil"
)

const electionDay = "2025-06-01"

// testServer mirrors the production routes over a fresh database with a
// settable clock.
type testServer struct {
	db  *sql.DB
	cfg cliparse.Config
	svc *ballot.Service
	rec *events.Recorder
	mux *http.ServeMux

	mu  sync.Mutex
	now time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		db:  testutil.SetupTestDB(t),
		cfg: testutil.GetTestConfig(),
		rec: &events.Recorder{},
	}
	s.setClock(t, "07:00:00")
	s.svc = ballot.NewService(s.db, ballot.NewSQLDirectory(s.db), ballot.Options{
		Location:     time.UTC,
		IssueRetries: s.cfg.IssueRetries,
		RetryBackoff: s.cfg.RetryBackoff,
		Now:          s.clock,
		Publisher:    s.rec,
	})

	bh := NewBallotHandler(s.svc)
	ph := NewParticipationHandler(s.svc)
	rh := NewResultsHandler(s.svc, s.cfg)
	ah := NewElectionAdminHandler(s.svc, s.cfg)
	voter := middleware.RequireVoter(s.cfg.VoterTokenSecret)

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST /elections/{electionID}/participation", voter(ph.Confirm))
	s.mux.HandleFunc("GET /elections/{electionID}/participation", voter(ph.Status))
	s.mux.HandleFunc("GET /elections/{electionID}/ballot-status", voter(bh.BallotStatus))
	s.mux.HandleFunc("POST /elections/{electionID}/ballots", voter(bh.StartBallot))
	s.mux.HandleFunc("POST /ballots/{ballotID}/submit", voter(bh.SubmitBallot))
	s.mux.HandleFunc("GET /elections/{electionID}/preview", bh.PreviewBallot)
	s.mux.HandleFunc("GET /elections/{electionID}/results", rh.GetResults)
	s.mux.HandleFunc("GET /elections/{electionID}/ballot-count", rh.GetBallotCount)
	s.mux.HandleFunc("PUT /elections/{electionID}/window", ah.UpdateElectionWindow)
	s.mux.HandleFunc("PUT /positions/{positionID}/window", ah.UpdatePositionWindow)
	return s
}

func (s *testServer) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// setClock moves the server clock to a time of day on election day (UTC).
func (s *testServer) setClock(t *testing.T, hhmmss string) {
	t.Helper()

	now, err := time.Parse(time.RFC3339, electionDay+"T"+hhmmss+"Z")
	if err != nil {
		t.Fatalf("Bad clock %q: %v", hhmmss, err)
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// do sends a request through the mux. voterID, when set, is sent as a
// signed session token.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, voterID string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	h := map[string]string{}
	for k, v := range headers {
		h[k] = v
	}
	if voterID != "" {
		h[middleware.HeaderVoterToken] = testutil.VoterToken(t, s.cfg, voterID)
	}

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, h))
	return w
}

// election is an SSG election on election day from 08:00 to 17:00 with a
// single-seat President position, two candidates and one voter who has not
// yet confirmed participation.
type election struct {
	departmentID string
	id           string
	positionID   string
	voterID      string
	c1, c2       string
}

func (s *testServer) ssgElection(t *testing.T) election {
	t.Helper()

	var e election
	e.departmentID = testutil.CreateTestDepartment(t, s.db, "Engineering")
	e.id = testutil.CreateTestElection(t, s.db, testutil.ElectionOpts{
		Date:  electionDay,
		Open:  "08:00",
		Close: "17:00",
	})
	e.positionID = testutil.CreateTestPosition(t, s.db, e.id, testutil.PositionOpts{Name: "President"})
	e.c1 = s.candidate(t, e.departmentID, e.id, e.positionID, 1)
	e.c2 = s.candidate(t, e.departmentID, e.id, e.positionID, 2)
	e.voterID = testutil.CreateTestVoter(t, s.db, e.departmentID, "Voter", testutil.VoterOpts{})
	return e
}

func (s *testServer) candidate(t *testing.T, departmentID, electionID, positionID string, number int) string {
	t.Helper()

	v := testutil.CreateTestVoter(t, s.db, departmentID, "Candidate", testutil.VoterOpts{})
	return testutil.CreateTestCandidate(t, s.db, electionID, positionID, v, "", number)
}

func assertCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	testutil.AssertStatus(t, w, status)
	var resp struct {
		Code    string   `json:"code"`
		Details []string `json:"details"`
	}
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != code {
		t.Errorf("Expected code %s, got %s", code, resp.Code)
	}
}
