// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/reelrank/auth"
	"github.com/danielhkuo/reelrank/cliparse"
	"github.com/danielhkuo/reelrank/db"
)

// TestTokenSalt signs tokens for test users
const TestTokenSalt = "test-token-salt"

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp directory. It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reelrank.db")
	conn, err := db.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file::memory:",
		DatabaseType:    "sqlite",
		TokenSalt:       TestTokenSalt,
		SessionTTL:      30 * time.Minute,
		PushRate:        100,
		FanoutWorkers:   2,
		FanoutQueueSize: 64,
	}
}

// CreateTestUser inserts a user and returns its ID and bearer token
func CreateTestUser(t *testing.T, db *sql.DB, username string) (userID, token string) {
	t.Helper()

	userID, _ = auth.GenerateID(16)
	_, err := db.Exec(`
		INSERT INTO app_user (id, username, created_at)
		VALUES ($1, $2, $3)
	`, userID, username, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID, auth.GenerateUserToken(userID, TestTokenSalt)
}

// MakeFriends links two users in both directions
func MakeFriends(t *testing.T, db *sql.DB, a, b string) {
	t.Helper()

	now := time.Now().UTC()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		_, err := db.Exec(`
			INSERT INTO friendship (user_id, friend_id, created_at)
			VALUES ($1, $2, $3)
		`, pair[0], pair[1], now)
		if err != nil {
			t.Fatalf("Failed to create friendship: %v", err)
		}
	}
}

// SeedRankings writes titles as the user's list, first title at rank 1.
// Movie IDs are the titles themselves.
func SeedRankings(t *testing.T, db *sql.DB, userID string, titles ...string) {
	t.Helper()

	now := time.Now().UTC()
	for i, title := range titles {
		id, _ := auth.GenerateID(16)
		_, err := db.Exec(`
			INSERT INTO ranked_entry (id, user_id, movie_id, title, rank, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, userID, title, title, i+1, now, now)
		if err != nil {
			t.Fatalf("Failed to seed ranking %s: %v", title, err)
		}
	}
}

// RankOrder returns the user's movie IDs by ascending rank and fails the
// test if the ranks are not exactly 1..N.
func RankOrder(t *testing.T, db *sql.DB, userID string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT movie_id, rank FROM ranked_entry WHERE user_id = $1 ORDER BY rank
	`, userID)
	if err != nil {
		t.Fatalf("Failed to query rankings: %v", err)
	}
	defer rows.Close()

	var order []string
	for rows.Next() {
		var movieID string
		var rank int
		if err := rows.Scan(&movieID, &rank); err != nil {
			t.Fatalf("Failed to scan ranking: %v", err)
		}
		if rank != len(order)+1 {
			t.Fatalf("ranks not contiguous: %s has rank %d at position %d", movieID, rank, len(order)+1)
		}
		order = append(order, movieID)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to read rankings: %v", err)
	}

	return order
}

// AddTestDevice registers a device with a push token for the user
func AddTestDevice(t *testing.T, db *sql.DB, userID, pushToken string) string {
	t.Helper()

	deviceID, _ := auth.GenerateID(16)
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO device (id, device_uuid, user_id, platform, push_token, created_at, last_seen_at)
		VALUES ($1, $2, $3, 'ios', $4, $5, $6)
	`, deviceID, fmt.Sprintf("uuid-%s", deviceID), userID, pushToken, now, now)
	if err != nil {
		t.Fatalf("Failed to create test device: %v", err)
	}

	return deviceID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Bearer returns the Authorization header for token
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
