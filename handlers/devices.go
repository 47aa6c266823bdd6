// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/reelrank/auth"
	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/models"
)

type DeviceHandler struct {
	db *sql.DB
}

func NewDeviceHandler(db *sql.DB) *DeviceHandler {
	return &DeviceHandler{db: db}
}

// Register handles POST /devices/register
// Binds the device to the caller and records its push token. A device that
// signs in as another user moves to that user.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	deviceUUID := r.Header.Get("X-Device-UUID")
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Device-UUID header required")
		return
	}

	var req models.RegisterDeviceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate platform
	if !isValidPlatform(req.Platform) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "platform must be one of: ios, macos, android, web")
		return
	}

	userID := middleware.UserID(r)
	now := time.Now().UTC()

	var existingID string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id FROM device WHERE device_uuid = $1
	`, deviceUUID).Scan(&existingID)

	if err == nil {
		_, err = h.db.ExecContext(r.Context(), `
			UPDATE device
			SET user_id = $1, platform = $2, push_token = $3, last_seen_at = $4
			WHERE id = $5
		`, userID, req.Platform, req.PushToken, now, existingID)
		if err != nil {
			slog.Error("failed to update device", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
			return
		}

		slog.Info("device registered (existing)", "device_id", existingID, "user_id", userID)
		middleware.JSONResponse(w, http.StatusOK, models.RegisterDeviceResponse{
			DeviceID: existingID,
			IsNew:    false,
		})
		return
	}

	if err != sql.ErrNoRows {
		slog.Error("failed to query device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	deviceID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate device ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO device (id, device_uuid, user_id, platform, push_token, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, deviceID, deviceUUID, userID, req.Platform, req.PushToken, now, now)

	if err != nil {
		slog.Error("failed to insert device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	slog.Info("device registered (new)", "device_id", deviceID, "user_id", userID, "platform", req.Platform)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterDeviceResponse{
		DeviceID: deviceID,
		IsNew:    true,
	})
}

// GetMe handles GET /devices/me
func (h *DeviceHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	deviceUUID := r.Header.Get("X-Device-UUID")
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Device-UUID header required")
		return
	}

	var device models.DeviceInfo
	var pushToken sql.NullString
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, platform, push_token, created_at, last_seen_at
		FROM device
		WHERE device_uuid = $1 AND user_id = $2
	`, deviceUUID, middleware.UserID(r)).Scan(&device.ID, &device.Platform, &pushToken, &device.CreatedAt, &device.LastSeenAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Device not registered")
		return
	}
	if err != nil {
		slog.Error("failed to query device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	device.HasPush = pushToken.Valid && pushToken.String != ""

	// Update last_seen_at
	_, err = h.db.ExecContext(r.Context(), `
		UPDATE device SET last_seen_at = $1 WHERE id = $2
	`, time.Now().UTC(), device.ID)
	if err != nil {
		slog.Error("failed to update device last_seen_at", "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, device)
}

func isValidPlatform(platform string) bool {
	switch platform {
	case models.PlatformIOS, models.PlatformMacOS, models.PlatformAndroid, models.PlatformWeb:
		return true
	}
	return false
}
