// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ssg-ballot/events"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/testutil"
)

const electionDay = "2025-06-01"

// harness wires a Service to a fresh sqlite database and a settable clock.
type harness struct {
	db  *sql.DB
	svc *Service
	rec *events.Recorder

	mu    sync.Mutex
	now   time.Time
	onNow func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		db:  testutil.SetupTestDB(t),
		rec: &events.Recorder{},
	}
	h.svc = NewService(h.db, NewSQLDirectory(h.db), Options{
		Location:     time.UTC,
		IssueRetries: 2,
		RetryBackoff: time.Millisecond,
		Now:          h.clock,
		Publisher:    h.rec,
	})
	h.at(t, "07:00:00")
	return h
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	now, hook := h.now, h.onNow
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	return now
}

// at sets the clock to a time of day on election day, in UTC.
func (h *harness) at(t *testing.T, hhmmss string) time.Time {
	t.Helper()

	now, err := time.Parse(time.RFC3339, electionDay+"T"+hhmmss+"Z")
	require.NoError(t, err)
	h.mu.Lock()
	h.now = now
	h.mu.Unlock()
	return now
}

func dayAt(hour, minute, sec int) time.Time {
	return time.Date(2025, 6, 1, hour, minute, sec, 0, time.UTC)
}

// ssgFixture is an SSG election on election day from 08:00 to 17:00 with
// one confirmed voter and a single-seat position with two candidates.
type ssgFixture struct {
	departmentID string
	electionID   string
	positionID   string
	voterID      string
	c1, c2       string
}

func (h *harness) ssg(t *testing.T) ssgFixture {
	t.Helper()

	var f ssgFixture
	f.departmentID = testutil.CreateTestDepartment(t, h.db, "Engineering")
	f.electionID = testutil.CreateTestElection(t, h.db, testutil.ElectionOpts{
		Date:  electionDay,
		Open:  "08:00",
		Close: "17:00",
	})
	f.positionID = testutil.CreateTestPosition(t, h.db, f.electionID, testutil.PositionOpts{
		Name: "President", MaxVotes: 1,
	})
	f.c1 = h.candidate(t, f.departmentID, f.electionID, f.positionID, "", 1)
	f.c2 = h.candidate(t, f.departmentID, f.electionID, f.positionID, "", 2)

	f.voterID = testutil.CreateTestVoter(t, h.db, f.departmentID, "Voter", testutil.VoterOpts{})
	testutil.ConfirmTestParticipation(t, h.db, f.voterID, f.electionID)
	return f
}

// candidate creates a candidate along with the voter record behind it.
func (h *harness) candidate(t *testing.T, departmentID, electionID, positionID, partylistID string, number int) string {
	t.Helper()

	v := testutil.CreateTestVoter(t, h.db, departmentID, "Candidate", testutil.VoterOpts{})
	return testutil.CreateTestCandidate(t, h.db, electionID, positionID, v, partylistID, number)
}

// start issues a ballot and fails the test on error.
func (h *harness) start(t *testing.T, voterID, electionID, positionID string) models.Ballot {
	t.Helper()

	b, err := h.svc.StartOrResume(context.Background(), voterID, electionID, positionID)
	require.NoError(t, err)
	return b
}

func (h *harness) ballots(t *testing.T, voterID string) int {
	t.Helper()
	return testutil.CountRows(t, h.db, "ballot", "voter_id = $1", voterID)
}
