// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fanout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/reelrank/models"
)

// ActivityStore keeps the latest activity per (user, movie).
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Replace removes any earlier activity for the same user and movie and
// records a. Both happen in one transaction so the feed never shows two.
func (s *ActivityStore) Replace(ctx context.Context, a models.Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM activity WHERE user_id = $1 AND movie_id = $2
	`, a.UserID, a.MovieID)
	if err != nil {
		return fmt.Errorf("failed to delete previous activity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity (id, user_id, movie_id, title, poster_path, rank, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.UserID, a.MovieID, a.Title, a.PosterPath, a.Rank, a.Kind, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}
	return nil
}

// Delete removes the activity for a movie that left the user's list
func (s *ActivityStore) Delete(ctx context.Context, userID, movieID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM activity WHERE user_id = $1 AND movie_id = $2
	`, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// Directory answers the friend-graph questions fan-out needs.
type Directory interface {
	FriendsOf(ctx context.Context, userID string) ([]string, error)
	Username(ctx context.Context, userID string) (string, error)
}

// SQLDirectory reads friends and usernames from the database.
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) FriendsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT friend_id FROM friendship WHERE user_id = $1 ORDER BY friend_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	var friends []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, id)
	}
	return friends, rows.Err()
}

func (d *SQLDirectory) Username(ctx context.Context, userID string) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx, `SELECT username FROM app_user WHERE id = $1`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %s not found", userID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query username: %w", err)
	}
	return name, nil
}
