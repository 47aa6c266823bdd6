// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

type FeedHandler struct {
	db *sql.DB
}

func NewFeedHandler(db *sql.DB) *FeedHandler {
	return &FeedHandler{db: db}
}

// Get handles GET /feed
// Returns friends' latest activities, newest first. ?limit= caps the count.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxFeedLimit)
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT a.id, a.user_id, a.movie_id, a.title, a.poster_path, a.rank, a.kind, a.created_at, u.username
		FROM activity a
		JOIN friendship f ON f.friend_id = a.user_id
		JOIN app_user u ON u.id = a.user_id
		WHERE f.user_id = $1
		ORDER BY a.created_at DESC, a.id
		LIMIT $2
	`, middleware.UserID(r), limit)
	if err != nil {
		slog.Error("failed to query feed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	items := []models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		var poster sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.MovieID,
			&item.Title,
			&poster,
			&item.Rank,
			&item.Kind,
			&item.CreatedAt,
			&item.Username,
		); err != nil {
			slog.Error("failed to scan activity", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if poster.Valid {
			item.PosterPath = &poster.String
		}
		item.Ago = humanize.Time(item.CreatedAt)
		items = append(items, item)
	}

	middleware.JSONResponse(w, http.StatusOK, models.FeedResponse{Activities: items})
}
