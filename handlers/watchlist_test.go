// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielhkuo/reelrank/models"
	"github.com/danielhkuo/reelrank/testutil"
)

func watchlistIDs(t *testing.T, h *WatchlistHandler, token string) []string {
	t.Helper()
	w := serve(h.List, testutil.MakeRequest("GET", "/watchlist", nil, testutil.Bearer(token)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.WatchlistResponse
	testutil.AssertJSON(t, w, &resp)
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ids = append(ids, item.MovieID)
	}
	return ids
}

func TestWatchlist_AddListRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewWatchlistHandler(db)
	_, token := testutil.CreateTestUser(t, db, "alice")

	poster := "/heat.jpg"
	req := testutil.MakeRequest("POST", "/watchlist", models.AddWatchlistRequest{
		MovieID: "949", Title: "Heat", PosterPath: &poster,
	}, testutil.Bearer(token))
	w := serve(h.Add, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var item models.WatchlistItem
	testutil.AssertJSON(t, w, &item)
	if item.PosterPath == nil || *item.PosterPath != poster {
		t.Errorf("Expected poster %s, got %v", poster, item.PosterPath)
	}

	// Adding twice conflicts
	req = testutil.MakeRequest("POST", "/watchlist", models.AddWatchlistRequest{MovieID: "949", Title: "Heat"}, testutil.Bearer(token))
	w = serve(h.Add, req)
	testutil.AssertStatus(t, w, http.StatusConflict)

	if ids := watchlistIDs(t, h, token); len(ids) != 1 || ids[0] != "949" {
		t.Fatalf("Expected [949], got %v", ids)
	}

	req = testutil.MakeRequest("DELETE", "/watchlist/949", nil, testutil.Bearer(token))
	req.SetPathValue("movieId", "949")
	w = serve(h.Remove, req)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	req = testutil.MakeRequest("DELETE", "/watchlist/949", nil, testutil.Bearer(token))
	req.SetPathValue("movieId", "949")
	w = serve(h.Remove, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestWatchlist_AddValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewWatchlistHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "ranked")

	tests := []struct {
		name string
		req  models.AddWatchlistRequest
	}{
		{"missing movie_id", models.AddWatchlistRequest{Title: "X"}},
		{"missing title", models.AddWatchlistRequest{MovieID: "X"}},
		{"already ranked", models.AddWatchlistRequest{MovieID: "ranked", Title: "Ranked"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h.Add, testutil.MakeRequest("POST", "/watchlist", tt.req, testutil.Bearer(token)))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestWatchlist_RemoveIfPresent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewWatchlistHandler(db)
	userID, token := testutil.CreateTestUser(t, db, "alice")

	w := serve(h.Add, testutil.MakeRequest("POST", "/watchlist", models.AddWatchlistRequest{MovieID: "1", Title: "One"}, testutil.Bearer(token)))
	testutil.AssertStatus(t, w, http.StatusCreated)

	if err := h.RemoveIfPresent(context.Background(), userID, "1"); err != nil {
		t.Fatalf("RemoveIfPresent failed: %v", err)
	}
	if err := h.RemoveIfPresent(context.Background(), userID, "1"); err != nil {
		t.Fatalf("RemoveIfPresent on a missing movie failed: %v", err)
	}

	if ids := watchlistIDs(t, h, token); len(ids) != 0 {
		t.Errorf("Expected empty watchlist, got %v", ids)
	}
}

func TestWatchlist_RankingRemovesMovie(t *testing.T) {
	db := testutil.SetupTestDB(t)
	wl := NewWatchlistHandler(db)
	rankings := newRankingHandler(db)
	_, token := testutil.CreateTestUser(t, db, "alice")

	for _, id := range []string{"A", "B"} {
		w := serve(wl.Add, testutil.MakeRequest("POST", "/watchlist", models.AddWatchlistRequest{MovieID: id, Title: id}, testutil.Bearer(token)))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	code, _ := addMovie(t, rankings, token, "A")
	if code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", code)
	}

	if ids := watchlistIDs(t, wl, token); len(ids) != 1 || ids[0] != "B" {
		t.Errorf("Expected only B left on the watchlist, got %v", ids)
	}
}
