// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
)

type FriendHandler struct {
	db *sql.DB
}

func NewFriendHandler(db *sql.DB) *FriendHandler {
	return &FriendHandler{db: db}
}

// Add handles POST /friends
// Friendship is mutual; both directions are written together
func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddFriendRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	userID := middleware.UserID(r)
	if req.FriendID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "friend_id is required")
		return
	}
	if req.FriendID == userID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Cannot befriend yourself")
		return
	}

	var exists int
	err := h.db.QueryRowContext(r.Context(), `SELECT 1 FROM app_user WHERE id = $1`, req.FriendID).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	already, err := areFriends(r, h.db, userID, req.FriendID)
	if err != nil {
		slog.Error("failed to check friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if already {
		middleware.ErrorResponse(w, http.StatusConflict, "Already friends")
		return
	}

	if err := h.link(r, userID, req.FriendID); err != nil {
		slog.Error("failed to add friend", "error", err, "user_id", userID, "friend_id", req.FriendID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add friend")
		return
	}

	slog.Info("friend added", "user_id", userID, "friend_id", req.FriendID)
	w.WriteHeader(http.StatusCreated)
}

func (h *FriendHandler) link(r *http.Request, a, b string) error {
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		_, err := tx.ExecContext(r.Context(), `
			INSERT INTO friendship (user_id, friend_id, created_at)
			VALUES ($1, $2, $3)
		`, pair[0], pair[1], now)
		if err != nil {
			return fmt.Errorf("failed to insert friendship: %w", err)
		}
	}

	return tx.Commit()
}

// List handles GET /friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT u.id, u.username, u.created_at
		FROM friendship f
		JOIN app_user u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.username
	`, userID)
	if err != nil {
		slog.Error("failed to query friends", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	friends := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
			slog.Error("failed to scan friend", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		friends = append(friends, u)
	}

	middleware.JSONResponse(w, http.StatusOK, models.FriendsResponse{Friends: friends})
}

// Remove handles DELETE /friends/{id}
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	friendID := r.PathValue("id")

	result, err := h.db.ExecContext(r.Context(), `
		DELETE FROM friendship
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`, userID, friendID)
	if err != nil {
		slog.Error("failed to delete friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not friends")
		return
	}

	slog.Info("friend removed", "user_id", userID, "friend_id", friendID)
	w.WriteHeader(http.StatusNoContent)
}

func areFriends(r *http.Request, db *sql.DB, a, b string) (bool, error) {
	var one int
	err := db.QueryRowContext(r.Context(), `
		SELECT 1 FROM friendship WHERE user_id = $1 AND friend_id = $2
	`, a, b).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
