// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
)

// WatchlistHandler serves the watchlist endpoints and drops movies from the
// watchlist once the ranking engine places them.
type WatchlistHandler struct {
	db *sql.DB
}

func NewWatchlistHandler(db *sql.DB) *WatchlistHandler {
	return &WatchlistHandler{db: db}
}

// Add handles POST /watchlist
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddWatchlistRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.MovieID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "movie_id is required")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	userID := middleware.UserID(r)

	// A ranked movie has already been watched
	var one int
	err := h.db.QueryRowContext(r.Context(), `
		SELECT 1 FROM ranked_entry WHERE user_id = $1 AND movie_id = $2
	`, userID, req.MovieID).Scan(&one)
	if err == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Movie already ranked")
		return
	}
	if err != sql.ErrNoRows {
		slog.Error("failed to query ranked entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	err = h.db.QueryRowContext(r.Context(), `
		SELECT 1 FROM watchlist_item WHERE user_id = $1 AND movie_id = $2
	`, userID, req.MovieID).Scan(&one)
	if err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Movie already on watchlist")
		return
	}
	if err != sql.ErrNoRows {
		slog.Error("failed to query watchlist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	item := models.WatchlistItem{
		MovieID:    req.MovieID,
		Title:      req.Title,
		PosterPath: req.PosterPath,
		AddedAt:    time.Now().UTC(),
	}
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO watchlist_item (user_id, movie_id, title, poster_path, added_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, item.MovieID, item.Title, item.PosterPath, item.AddedAt)
	if err != nil {
		slog.Error("failed to insert watchlist item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add to watchlist")
		return
	}

	slog.Info("watchlist item added", "user_id", userID, "movie_id", item.MovieID)
	middleware.JSONResponse(w, http.StatusCreated, item)
}

// List handles GET /watchlist
// Newest additions first
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT movie_id, title, poster_path, added_at
		FROM watchlist_item
		WHERE user_id = $1
		ORDER BY added_at DESC, movie_id
	`, middleware.UserID(r))
	if err != nil {
		slog.Error("failed to query watchlist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	items := []models.WatchlistItem{}
	for rows.Next() {
		var item models.WatchlistItem
		var poster sql.NullString
		if err := rows.Scan(&item.MovieID, &item.Title, &poster, &item.AddedAt); err != nil {
			slog.Error("failed to scan watchlist item", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if poster.Valid {
			item.PosterPath = &poster.String
		}
		items = append(items, item)
	}

	middleware.JSONResponse(w, http.StatusOK, models.WatchlistResponse{Items: items})
}

// Remove handles DELETE /watchlist/{movieId}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	movieID := r.PathValue("movieId")

	removed, err := h.remove(r.Context(), userID, movieID)
	if err != nil {
		slog.Error("failed to delete watchlist item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !removed {
		middleware.ErrorResponse(w, http.StatusNotFound, "Movie not on watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveIfPresent drops movieID from the user's watchlist. A movie that was
// never on the watchlist is not an error.
func (h *WatchlistHandler) RemoveIfPresent(ctx context.Context, userID, movieID string) error {
	removed, err := h.remove(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if removed {
		slog.Info("ranked movie removed from watchlist", "user_id", userID, "movie_id", movieID)
	}
	return nil
}

func (h *WatchlistHandler) remove(ctx context.Context, userID, movieID string) (bool, error) {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM watchlist_item WHERE user_id = $1 AND movie_id = $2
	`, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("failed to delete watchlist item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
