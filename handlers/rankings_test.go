// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
	"github.com/danielhkuo/reelrank/ranking"
	"github.com/danielhkuo/reelrank/testutil"
)

// serve runs h behind the bearer-token middleware
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.WithUser(testutil.TestTokenSalt, h)(w, req)
	return w
}

func newRankingHandler(db *sql.DB) *RankingHandler {
	engine := ranking.NewEngine(
		ranking.NewSQLStore(db),
		ranking.NewSessionManager(time.Hour),
		ranking.WithWatchlist(NewWatchlistHandler(db)),
	)
	return NewRankingHandler(db, engine)
}

func addMovie(t *testing.T, h *RankingHandler, token, movieID string) (int, models.RankResponse) {
	t.Helper()
	req := testutil.MakeRequest("POST", "/rankings", models.AddMovieRequest{
		MovieID: movieID,
		Title:   "Movie " + movieID,
	}, testutil.Bearer(token))
	w := serve(h.AddMovie, req)

	var resp models.RankResponse
	if w.Code < 300 {
		testutil.AssertJSON(t, w, &resp)
	}
	return w.Code, resp
}

func compare(t *testing.T, h http.HandlerFunc, path, token, preferred, sessionToken string) (int, models.RankResponse) {
	t.Helper()
	req := testutil.MakeRequest("POST", path, models.CompareRequest{
		PreferredMovieID: preferred,
		SessionToken:     sessionToken,
	}, testutil.Bearer(token))
	w := serve(h, req)

	var resp models.RankResponse
	if w.Code < 300 {
		testutil.AssertJSON(t, w, &resp)
	}
	return w.Code, resp
}

func assertOrder(t *testing.T, db *sql.DB, userID string, want ...string) {
	t.Helper()
	got := testutil.RankOrder(t, db, userID)
	if len(got) != len(want) {
		t.Fatalf("Expected order %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}

func TestAddMovie_EmptyList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")

	code, resp := addMovie(t, h, token, "A")
	if code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", code)
	}
	if resp.Status != models.StatusAdded || resp.Rank != 1 {
		t.Errorf("Expected added at rank 1, got %+v", resp)
	}
	if resp.SessionToken != "" || resp.CompareWith != nil {
		t.Errorf("Expected no session for an empty list, got %+v", resp)
	}

	assertOrder(t, db, userID, "A")
}

func TestAddMovie_CompareFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A")

	code, resp := addMovie(t, h, token, "B")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if resp.Status != models.StatusCompare || resp.CompareWith == nil || resp.CompareWith.MovieID != "A" {
		t.Fatalf("Expected comparison against A, got %+v", resp)
	}

	code, resp = compare(t, h.Compare, "/rankings/compare", token, "B", resp.SessionToken)
	if code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", code)
	}
	if resp.Status != models.StatusAdded || resp.Rank != 1 {
		t.Errorf("Expected added at rank 1, got %+v", resp)
	}

	assertOrder(t, db, userID, "B", "A")
}

func TestAddMovie_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A")

	tests := []struct {
		name string
		body any
	}{
		{"missing movie_id", models.AddMovieRequest{Title: "No ID"}},
		{"missing title", models.AddMovieRequest{MovieID: "X"}},
		{"already ranked", models.AddMovieRequest{MovieID: "A", Title: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/rankings", tt.body, testutil.Bearer(token))
			w := serve(h.AddMovie, req)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/rankings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(h.AddMovie, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	// Nothing above may have opened a session
	code, _ := compare(t, h.Compare, "/rankings/compare", token, "X", "")
	if code != http.StatusConflict {
		t.Errorf("Expected 409 with no session, got %d", code)
	}
}

func TestAddMovie_RequiresToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)

	req := testutil.MakeRequest("POST", "/rankings", models.AddMovieRequest{MovieID: "A", Title: "A"}, nil)
	w := serve(h.AddMovie, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	req = testutil.MakeRequest("POST", "/rankings", models.AddMovieRequest{MovieID: "A", Title: "A"}, testutil.Bearer("forged.token"))
	w = serve(h.AddMovie, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestCompare_NoActiveSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	_, token := testutil.CreateTestUser(t, db, "alice")

	req := testutil.MakeRequest("POST", "/rankings/compare", models.CompareRequest{PreferredMovieID: "A"}, testutil.Bearer(token))
	w := serve(h.Compare, req)
	testutil.AssertStatus(t, w, http.StatusConflict)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "No active comparison session." {
		t.Errorf("Expected no-session message, got %q", errResp.Message)
	}
}

func TestCompare_ErrorMapping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C", "D")

	_, first := addMovie(t, h, token, "X")
	code, second := compare(t, h.Compare, "/rankings/compare", token, "X", first.SessionToken)
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		preferred string
		token     string
		want      int
	}{
		{"stale token", h.Compare, "X", first.SessionToken, http.StatusConflict},
		{"not in comparison", h.Compare, "D", second.SessionToken, http.StatusBadRequest},
		{"missing preference", h.Compare, "", second.SessionToken, http.StatusBadRequest},
		{"wrong kind", h.CompareRerank, "X", second.SessionToken, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := compare(t, tt.handler, "/rankings/compare", token, tt.preferred, tt.token)
			if code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, code)
			}
		})
	}

	assertOrder(t, db, userID, "A", "B", "C", "D")
}

func TestRerank_Flow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C", "D", "E")

	req := testutil.MakeRequest("POST", "/rankings/rerank/start", models.StartRerankRequest{MovieID: "D"}, testutil.Bearer(token))
	w := serve(h.StartRerank, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.RankResponse
	testutil.AssertJSON(t, w, &resp)

	for resp.Status == models.StatusCompare {
		var code int
		code, resp = compare(t, h.CompareRerank, "/rankings/rerank/compare", token, "D", resp.SessionToken)
		if code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", code)
		}
	}

	if resp.Status != models.StatusReranked || resp.Rank != 1 {
		t.Errorf("Expected reranked to 1, got %+v", resp)
	}
	assertOrder(t, db, userID, "D", "A", "B", "C", "E")
}

func TestRerank_NotRanked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	_, token := testutil.CreateTestUser(t, db, "alice")

	req := testutil.MakeRequest("POST", "/rankings/rerank/start", models.StartRerankRequest{MovieID: "nope"}, testutil.Bearer(token))
	w := serve(h.StartRerank, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestEndSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A")

	addMovie(t, h, token, "B")

	req := testutil.MakeRequest("DELETE", "/rankings/session", nil, testutil.Bearer(token))
	w := serve(h.EndSession, req)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	// Ending again is harmless
	w = serve(h.EndSession, testutil.MakeRequest("DELETE", "/rankings/session", nil, testutil.Bearer(token)))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	code, _ := compare(t, h.Compare, "/rankings/compare", token, "B", "")
	if code != http.StatusConflict {
		t.Errorf("Expected 409 after ending the session, got %d", code)
	}
}

func TestListAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C")

	req := testutil.MakeRequest("DELETE", "/rankings/A", nil, testutil.Bearer(token))
	req.SetPathValue("movieId", "A")
	w := serve(h.Delete, req)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	req = testutil.MakeRequest("DELETE", "/rankings/A", nil, testutil.Bearer(token))
	req.SetPathValue("movieId", "A")
	w = serve(h.Delete, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = serve(h.List, testutil.MakeRequest("GET", "/rankings", nil, testutil.Bearer(token)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.RankingsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.UserID != userID {
		t.Errorf("Expected user_id %s, got %s", userID, resp.UserID)
	}
	if len(resp.Rankings) != 2 {
		t.Fatalf("Expected 2 rankings, got %d", len(resp.Rankings))
	}
	for i, want := range []string{"B", "C"} {
		if resp.Rankings[i].MovieID != want || resp.Rankings[i].Rank != i+1 {
			t.Errorf("Expected %s at rank %d, got %s at %d", want, i+1, resp.Rankings[i].MovieID, resp.Rankings[i].Rank)
		}
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	_, token := testutil.CreateTestUser(t, db, "alice")

	w := serve(h.List, testutil.MakeRequest("GET", "/rankings", nil, testutil.Bearer(token)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var raw map[string]any
	testutil.AssertJSON(t, w, &raw)
	if _, ok := raw["rankings"].([]any); !ok {
		t.Errorf("Expected rankings to be a JSON array, got %v", raw["rankings"])
	}
}

func TestListForUser_FriendsOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newRankingHandler(db)
	alice, aliceToken := testutil.CreateTestUser(t, db, "alice")
	bob, bobToken := testutil.CreateTestUser(t, db, "bob")
	_, carolToken := testutil.CreateTestUser(t, db, "carol")
	testutil.MakeFriends(t, db, alice, bob)
	testutil.SeedRankings(t, db, alice, "A", "B")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"self", aliceToken, http.StatusOK},
		{"friend", bobToken, http.StatusOK},
		{"stranger", carolToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/users/"+alice+"/rankings", nil, testutil.Bearer(tt.token))
			req.SetPathValue("id", alice)
			w := serve(h.ListForUser, req)
			testutil.AssertStatus(t, w, tt.want)

			if tt.want == http.StatusOK {
				var resp models.RankingsResponse
				testutil.AssertJSON(t, w, &resp)
				if len(resp.Rankings) != 2 || resp.UserID != alice {
					t.Errorf("Expected alice's 2 rankings, got %+v", resp)
				}
			}
		})
	}
}
