// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/ssg-ballot/middleware"
	"github.com/danielhkuo/ssg-ballot/models"
	"github.com/danielhkuo/ssg-ballot/testutil"
	"github.com/danielhkuo/ssg-ballot/timing"
)

func TestStartBallot(t *testing.T) {
	s := newTestServer(t)
	e := s.ssgElection(t)
	path := "/elections/" + e.id + "/ballots"

	t.Run("missing token", func(t *testing.T) {
		w := s.do(t, "POST", path, nil, "", nil)
		assertCode(t, w, http.StatusUnauthorized, CodeUnauthorized)
	})

	t.Run("not participating", func(t *testing.T) {
		s.setClock(t, "09:00:00")
		w := s.do(t, "POST", path, nil, e.voterID, nil)
		assertCode(t, w, http.StatusForbidden, CodeNotParticipating)
	})

	testutil.ConfirmTestParticipation(t, s.db, e.voterID, e.id)

	t.Run("before window opens", func(t *testing.T) {
		s.setClock(t, "07:59:59")
		w := s.do(t, "POST", path, nil, e.voterID, nil)
		assertCode(t, w, http.StatusConflict, CodeBallotNotYetOpen)
	})

	var first models.StartBallotResponse
	t.Run("issues ballot", func(t *testing.T) {
		s.setClock(t, "09:00:00")
		w := s.do(t, "POST", path, nil, e.voterID, nil)
		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertJSON(t, w, &first)

		if first.Ballot.ID == "" {
			t.Fatal("Expected ballot ID")
		}
		if first.Ballot.Status != models.BallotInProgress {
			t.Errorf("Expected status %s, got %s", models.BallotInProgress, first.Ballot.Status)
		}
		if first.Ballot.CloseTime.Hour() != 17 {
			t.Errorf("Expected close time 17:00, got %v", first.Ballot.CloseTime)
		}
		if first.Ballot.PositionID != nil {
			t.Error("SSG ballot should not carry a position")
		}
	})

	t.Run("resume returns same ballot", func(t *testing.T) {
		s.setClock(t, "10:30:00")
		w := s.do(t, "POST", path, nil, e.voterID, nil)
		testutil.AssertStatus(t, w, http.StatusOK)

		var again models.StartBallotResponse
		testutil.AssertJSON(t, w, &again)
		if again.Ballot.ID != first.Ballot.ID {
			t.Errorf("Expected resumed ballot %s, got %s", first.Ballot.ID, again.Ballot.ID)
		}
		if n := testutil.CountRows(t, s.db, "ballot", "voter_id = $1", e.voterID); n != 1 {
			t.Errorf("Expected 1 ballot row, got %d", n)
		}
	})

	t.Run("position on SSG election", func(t *testing.T) {
		w := s.do(t, "POST", path, models.StartBallotRequest{PositionID: e.positionID}, e.voterID, nil)
		assertCode(t, w, http.StatusBadRequest, CodeBadScope)
	})

	t.Run("after window closes", func(t *testing.T) {
		s.setClock(t, "17:00:00")
		w := s.do(t, "POST", path, nil, e.voterID, nil)
		assertCode(t, w, http.StatusConflict, CodeBallotWindowClosed)
	})

	t.Run("unknown election", func(t *testing.T) {
		s.setClock(t, "09:00:00")
		w := s.do(t, "POST", "/elections/nope/ballots", nil, e.voterID, nil)
		assertCode(t, w, http.StatusNotFound, CodeNotFound)
	})
}

func TestStartBallotIneligible(t *testing.T) {
	s := newTestServer(t)
	e := s.ssgElection(t)
	s.setClock(t, "09:00:00")

	inactive := testutil.CreateTestVoter(t, s.db, e.departmentID, "Gone", testutil.VoterOpts{Inactive: true})
	testutil.ConfirmTestParticipation(t, s.db, inactive, e.id)

	w := s.do(t, "POST", "/elections/"+e.id+"/ballots", nil, inactive, nil)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != CodeIneligible {
		t.Errorf("Expected code %s, got %s", CodeIneligible, resp.Code)
	}
	if len(resp.Details) != 1 || resp.Details[0] != "inactive" {
		t.Errorf("Expected details [inactive], got %v", resp.Details)
	}
}

func TestStartBallotDepartmentalPosition(t *testing.T) {
	s := newTestServer(t)
	s.setClock(t, "09:00:00")

	dept := testutil.CreateTestDepartment(t, s.db, "Nursing")
	electionID := testutil.CreateTestElection(t, s.db, testutil.ElectionOpts{
		Type:         models.ElectionDepartmental,
		DepartmentID: dept,
		Date:         electionDay,
		Open:         "08:00",
		Close:        "17:00",
	})
	governor := testutil.CreateTestPosition(t, s.db, electionID, testutil.PositionOpts{
		Name: "Governor", Open: "08:00", Close: "12:00",
	})
	s.candidate(t, dept, electionID, governor, 1)
	voter := testutil.CreateTestVoter(t, s.db, dept, "Voter", testutil.VoterOpts{})
	testutil.ConfirmTestParticipation(t, s.db, voter, electionID)

	t.Run("position required", func(t *testing.T) {
		w := s.do(t, "POST", "/elections/"+electionID+"/ballots", nil, voter, nil)
		assertCode(t, w, http.StatusBadRequest, CodeBadScope)
	})

	t.Run("position from query", func(t *testing.T) {
		w := s.do(t, "POST", "/elections/"+electionID+"/ballots?position_id="+governor, nil, voter, nil)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.StartBallotResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Ballot.PositionID == nil || *resp.Ballot.PositionID != governor {
			t.Errorf("Expected ballot for position %s, got %v", governor, resp.Ballot.PositionID)
		}
		if resp.Ballot.CloseTime.Hour() != 12 {
			t.Errorf("Expected position close time 12:00, got %v", resp.Ballot.CloseTime)
		}
	})
}

func TestSubmitBallot(t *testing.T) {
	s := newTestServer(t)
	e := s.ssgElection(t)
	testutil.ConfirmTestParticipation(t, s.db, e.voterID, e.id)
	s.setClock(t, "09:00:00")

	w := s.do(t, "POST", "/elections/"+e.id+"/ballots", nil, e.voterID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var started models.StartBallotResponse
	testutil.AssertJSON(t, w, &started)
	submitPath := "/ballots/" + started.Ballot.ID + "/submit"

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", submitPath, strings.NewReader("{\"votes\": ["))
		req.Header.Set(middleware.HeaderVoterToken, testutil.VoterToken(t, s.cfg, e.voterID))
		w := httptest.NewRecorder()
		s.mux.ServeHTTP(w, req)
		assertCode(t, w, http.StatusBadRequest, CodeBadRequest)
	})

	t.Run("over max votes", func(t *testing.T) {
		body := models.SubmitBallotRequest{Votes: []models.Vote{
			{PositionID: e.positionID, CandidateID: e.c1},
			{PositionID: e.positionID, CandidateID: e.c2},
		}}
		w := s.do(t, "POST", submitPath, body, e.voterID, nil)
		testutil.AssertStatus(t, w, http.StatusBadRequest)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Code != CodeValidationFailed {
			t.Errorf("Expected code %s, got %s", CodeValidationFailed, resp.Code)
		}
		if len(resp.Details) == 0 {
			t.Error("Expected itemized validation details")
		}
	})

	t.Run("other voter", func(t *testing.T) {
		other := testutil.CreateTestVoter(t, s.db, e.departmentID, "Other", testutil.VoterOpts{})
		body := models.SubmitBallotRequest{Votes: []models.Vote{{PositionID: e.positionID, CandidateID: e.c1}}}
		w := s.do(t, "POST", submitPath, body, other, nil)
		assertCode(t, w, http.StatusNotFound, CodeNotFound)
	})

	var receipt models.SubmitBallotResponse
	t.Run("valid submission", func(t *testing.T) {
		s.setClock(t, "09:05:00")
		body := models.SubmitBallotRequest{Votes: []models.Vote{{PositionID: e.positionID, CandidateID: e.c1}}}
		w := s.do(t, "POST", submitPath, body, e.voterID, nil)
		testutil.AssertStatus(t, w, http.StatusCreated)
		testutil.AssertJSON(t, w, &receipt)

		if !receipt.Success || receipt.BallotID != started.Ballot.ID {
			t.Errorf("Unexpected response: %+v", receipt)
		}
		if receipt.Receipt == "" {
			t.Error("Expected receipt code")
		}
		if n := testutil.CountRows(t, s.db, "vote", "ballot_id = $1", started.Ballot.ID); n != 1 {
			t.Errorf("Expected 1 vote row, got %d", n)
		}
		if n := testutil.CountRows(t, s.db, "participation", "voter_id = $1 AND has_voted = $2", e.voterID, true); n != 1 {
			t.Error("Expected participation to be marked as voted")
		}
	})

	t.Run("resubmit", func(t *testing.T) {
		body := models.SubmitBallotRequest{Votes: []models.Vote{{PositionID: e.positionID, CandidateID: e.c2}}}
		w := s.do(t, "POST", submitPath, body, e.voterID, nil)
		assertCode(t, w, http.StatusConflict, CodeAlreadySubmitted)
	})

	t.Run("start after submit returns submitted ballot", func(t *testing.T) {
		w := s.do(t, "POST", "/elections/"+e.id+"/ballots", nil, e.voterID, nil)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.StartBallotResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Ballot.Status != models.BallotSubmitted {
			t.Errorf("Expected submitted ballot, got %s", resp.Ballot.Status)
		}
		if resp.Ballot.Receipt == nil || *resp.Ballot.Receipt != receipt.Receipt {
			t.Error("Expected the original receipt on the resumed ballot")
		}
	})
}

func TestSubmitBallotAfterClose(t *testing.T) {
	s := newTestServer(t)
	e := s.ssgElection(t)
	testutil.ConfirmTestParticipation(t, s.db, e.voterID, e.id)

	s.setClock(t, "16:59:00")
	w := s.do(t, "POST", "/elections/"+e.id+"/ballots", nil, e.voterID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var started models.StartBallotResponse
	testutil.AssertJSON(t, w, &started)

	s.setClock(t, "17:00:05")
	body := models.SubmitBallotRequest{Votes: []models.Vote{{PositionID: e.positionID, CandidateID: e.c1}}}
	w = s.do(t, "POST", "/ballots/"+started.Ballot.ID+"/submit", body, e.voterID, nil)
	testutil.AssertStatus(t, w, http.StatusConflict)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != CodeBallotWindowClosed {
		t.Errorf("Expected code %s, got %s", CodeBallotWindowClosed, resp.Code)
	}
	if !strings.Contains(resp.Message, "ago") {
		t.Errorf("Expected relative close time in message, got %q", resp.Message)
	}
	if n := testutil.CountRows(t, s.db, "vote", ""); n != 0 {
		t.Errorf("Expected no votes recorded, got %d", n)
	}
}

func TestBallotStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	e := s.ssgElection(t)
	path := "/elections/" + e.id + "/ballot-status"

	s.setClock(t, "09:00:00")
	w := s.do(t, "GET", path, nil, e.voterID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var before models.BallotStatusResponse
	testutil.AssertJSON(t, w, &before)
	if before.HasParticipated || before.CanVote {
		t.Errorf("Expected no participation and no vote, got %+v", before)
	}
	if before.ElectionStatus != timing.StatusActive {
		t.Errorf("Expected status %s, got %s", timing.StatusActive, before.ElectionStatus)
	}

	testutil.ConfirmTestParticipation(t, s.db, e.voterID, e.id)
	s.do(t, "POST", "/elections/"+e.id+"/ballots", nil, e.voterID, nil)

	w = s.do(t, "GET", path, nil, e.voterID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var after models.BallotStatusResponse
	testutil.AssertJSON(t, w, &after)
	if !after.CanVote || !after.HasParticipated {
		t.Errorf("Expected voter able to vote, got %+v", after)
	}
	if after.Ballot == nil {
		t.Fatal("Expected in-progress ballot in status")
	}
	if after.SecondsRemaining != 8*3600 {
		t.Errorf("Expected 28800 seconds remaining, got %d", after.SecondsRemaining)
	}
}

func TestPreviewBallotEndpoint(t *testing.T) {
	s := newTestServer(t)
	e := s.ssgElection(t)
	vp := testutil.CreateTestPosition(t, s.db, e.id, testutil.PositionOpts{Name: "Vice President", Order: 1})
	s.candidate(t, e.departmentID, e.id, vp, 1)

	w := s.do(t, "GET", "/elections/"+e.id+"/preview", nil, "", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var all models.PreviewBallotResponse
	testutil.AssertJSON(t, w, &all)
	if len(all.Positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(all.Positions))
	}
	if all.Positions[0].Position.PositionName != "President" {
		t.Errorf("Expected President first, got %s", all.Positions[0].Position.PositionName)
	}
	if len(all.Positions[0].Candidates) != 2 {
		t.Errorf("Expected 2 candidates, got %d", len(all.Positions[0].Candidates))
	}

	w = s.do(t, "GET", "/elections/"+e.id+"/preview?position_id="+vp, nil, "", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var one models.PreviewBallotResponse
	testutil.AssertJSON(t, w, &one)
	if len(one.Positions) != 1 || one.Positions[0].Position.ID != vp {
		t.Errorf("Expected only the requested position, got %+v", one.Positions)
	}

	w = s.do(t, "GET", "/elections/missing/preview", nil, "", nil)
	assertCode(t, w, http.StatusNotFound, CodeNotFound)
}
