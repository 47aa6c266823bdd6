// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/reelrank/auth"
	"github.com/danielhkuo/reelrank/cliparse"
	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
)

const maxUsernameLen = 32

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// Create handles POST /users
// Returns the new user's ID and the bearer token for later requests
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}
	if len(username) > maxUsernameLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 32 characters or fewer")
		return
	}

	var existing string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id FROM app_user WHERE username = $1
	`, username).Scan(&existing)
	if err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != sql.ErrNoRows {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	userID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate user ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO app_user (id, username, created_at)
		VALUES ($1, $2, $3)
	`, userID, username, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	slog.Info("user created", "user_id", userID, "username", username)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateUserResponse{
		UserID: userID,
		Token:  auth.GenerateUserToken(userID, h.cfg.TokenSalt),
	})
}
