// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
	"github.com/danielhkuo/reelrank/ranking"
)

type RankingHandler struct {
	db     *sql.DB
	engine *ranking.Engine
}

func NewRankingHandler(db *sql.DB, engine *ranking.Engine) *RankingHandler {
	return &RankingHandler{db: db, engine: engine}
}

// AddMovie handles POST /rankings
func (h *RankingHandler) AddMovie(w http.ResponseWriter, r *http.Request) {
	var req models.AddMovieRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	userID := middleware.UserID(r)
	resp, err := h.engine.AddMovie(r.Context(), userID, models.Movie{
		MovieID:    req.MovieID,
		Title:      req.Title,
		PosterPath: req.PosterPath,
		Overview:   req.Overview,
	})
	if err != nil {
		writeRankingError(w, err, "user_id", userID, "movie_id", req.MovieID)
		return
	}

	middleware.JSONResponse(w, statusFor(resp), resp)
}

// Compare handles POST /rankings/compare
func (h *RankingHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	userID := middleware.UserID(r)
	resp, err := h.engine.Compare(r.Context(), userID, req.PreferredMovieID, req.SessionToken)
	if err != nil {
		writeRankingError(w, err, "user_id", userID)
		return
	}

	middleware.JSONResponse(w, statusFor(resp), resp)
}

// StartRerank handles POST /rankings/rerank/start
func (h *RankingHandler) StartRerank(w http.ResponseWriter, r *http.Request) {
	var req models.StartRerankRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	userID := middleware.UserID(r)
	resp, err := h.engine.StartRerank(r.Context(), userID, req.MovieID)
	if err != nil {
		writeRankingError(w, err, "user_id", userID, "movie_id", req.MovieID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CompareRerank handles POST /rankings/rerank/compare
func (h *RankingHandler) CompareRerank(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	userID := middleware.UserID(r)
	resp, err := h.engine.CompareRerank(r.Context(), userID, req.PreferredMovieID, req.SessionToken)
	if err != nil {
		writeRankingError(w, err, "user_id", userID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// EndSession handles DELETE /rankings/session
// Abandoning a session that does not exist is not an error
func (h *RankingHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.engine.EndSession(middleware.UserID(r))
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /rankings
func (h *RankingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	h.writeList(w, r, userID)
}

// ListForUser handles GET /users/{id}/rankings
// Only the user and their friends may read a list
func (h *RankingHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	if targetID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user id is required")
		return
	}

	viewerID := middleware.UserID(r)
	if viewerID != targetID {
		ok, err := areFriends(r, h.db, viewerID, targetID)
		if err != nil {
			slog.Error("failed to check friendship", "error", err, "user_id", viewerID, "target_id", targetID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !ok {
			middleware.ErrorResponse(w, http.StatusForbidden, "Rankings are only visible to friends")
			return
		}
	}

	h.writeList(w, r, targetID)
}

func (h *RankingHandler) writeList(w http.ResponseWriter, r *http.Request, userID string) {
	entries, err := h.engine.List(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list rankings", "error", err, "user_id", userID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if entries == nil {
		entries = []models.RankedEntry{}
	}

	middleware.JSONResponse(w, http.StatusOK, models.RankingsResponse{
		UserID:   userID,
		Rankings: entries,
	})
}

// Delete handles DELETE /rankings/{movieId}
func (h *RankingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	movieID := r.PathValue("movieId")
	userID := middleware.UserID(r)

	rank, err := h.engine.Remove(r.Context(), userID, movieID)
	if err != nil {
		writeRankingError(w, err, "user_id", userID, "movie_id", movieID)
		return
	}

	slog.Info("ranking deleted", "user_id", userID, "movie_id", movieID, "rank", rank)
	w.WriteHeader(http.StatusNoContent)
}

// statusFor answers 201 when a movie was placed and 200 while comparing
func statusFor(resp models.RankResponse) int {
	if resp.Status == models.StatusAdded {
		return http.StatusCreated
	}
	return http.StatusOK
}

// writeRankingError maps engine errors onto HTTP statuses
func writeRankingError(w http.ResponseWriter, err error, logArgs ...any) {
	switch {
	case errors.Is(err, ranking.ErrMissingField),
		errors.Is(err, ranking.ErrInvalidPreference),
		errors.Is(err, ranking.ErrInvalidPosition):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ranking.ErrAlreadyRanked):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Movie already ranked")
	case errors.Is(err, ranking.ErrNotRanked):
		middleware.ErrorResponse(w, http.StatusNotFound, "Movie not ranked")
	case errors.Is(err, ranking.ErrNoActiveSession):
		middleware.ErrorResponse(w, http.StatusConflict, "No active comparison session.")
	case errors.Is(err, ranking.ErrStaleSession):
		middleware.ErrorResponse(w, http.StatusConflict, "Comparison session is out of date")
	case errors.Is(err, ranking.ErrSessionKindMismatch):
		middleware.ErrorResponse(w, http.StatusConflict, "Another kind of comparison is in progress")
	default:
		slog.Error("ranking operation failed", append([]any{"error", err}, logArgs...)...)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
