// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/reelrank/auth"
	"github.com/danielhkuo/reelrank/models"
)

// Store is the persisted, per-user ordered list of ranked entries.
// Every mutating call leaves the user's ranks contiguous from 1 to N.
type Store interface {
	List(ctx context.Context, userID string) ([]models.RankedEntry, error)
	Count(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, userID, movieID string) (models.RankedEntry, error)
	InsertAt(ctx context.Context, userID string, position int, entry models.RankedEntry) (models.RankedEntry, error)
	RemoveAt(ctx context.Context, userID string, position int) error
	Remove(ctx context.Context, userID, movieID string) (int, error)
	Move(ctx context.Context, userID, movieID string, position int) (models.RankedEntry, error)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql. Each mutation runs in a single
// transaction, so a failed shift never leaves a partially renumbered list.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const entryColumns = `id, user_id, movie_id, title, poster_path, overview, rank, created_at`

func scanEntry(scan func(dest ...any) error) (models.RankedEntry, error) {
	var e models.RankedEntry
	var poster, overview sql.NullString
	err := scan(&e.ID, &e.UserID, &e.MovieID, &e.Title, &poster, &overview, &e.Rank, &e.CreatedAt)
	if err != nil {
		return models.RankedEntry{}, err
	}
	if poster.Valid {
		e.PosterPath = &poster.String
	}
	if overview.Valid {
		e.Overview = &overview.String
	}
	return e, nil
}

// List returns the user's entries by ascending rank
func (s *SQLStore) List(ctx context.Context, userID string) ([]models.RankedEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ranked_entry
		WHERE user_id = $1
		ORDER BY rank ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked entries: %w", err)
	}
	defer rows.Close()

	entries := []models.RankedEntry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranked entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ranked entries: %w", err)
	}

	return entries, nil
}

func (s *SQLStore) Count(ctx context.Context, userID string) (int, error) {
	return count(ctx, s.db, userID)
}

func count(ctx context.Context, q queryer, userID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ranked_entry WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ranked entries: %w", err)
	}
	return n, nil
}

// Get returns the entry for movieID, or ErrNotRanked
func (s *SQLStore) Get(ctx context.Context, userID, movieID string) (models.RankedEntry, error) {
	return get(ctx, s.db, userID, movieID)
}

func get(ctx context.Context, q queryer, userID, movieID string) (models.RankedEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM ranked_entry
		WHERE user_id = $1 AND movie_id = $2
	`, userID, movieID)

	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RankedEntry{}, ErrNotRanked
	}
	if err != nil {
		return models.RankedEntry{}, fmt.Errorf("failed to query ranked entry: %w", err)
	}
	return e, nil
}

// InsertAt places entry at position (1-indexed), moving every entry at or
// after it down by one. position may be N+1 to append.
func (s *SQLStore) InsertAt(ctx context.Context, userID string, position int, entry models.RankedEntry) (models.RankedEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.RankedEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := count(ctx, tx, userID)
	if err != nil {
		return models.RankedEntry{}, err
	}
	if position < 1 || position > n+1 {
		return models.RankedEntry{}, fmt.Errorf("%w: insert at %d into %d entries", ErrInvalidPosition, position, n)
	}

	if _, err := shiftRanks(ctx, tx, userID, position, shiftInsert); err != nil {
		return models.RankedEntry{}, err
	}

	if entry.ID == "" {
		entry.ID, err = auth.GenerateID(16)
		if err != nil {
			return models.RankedEntry{}, err
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.UserID = userID
	entry.Rank = position

	if err := insertEntry(ctx, tx, entry); err != nil {
		return models.RankedEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.RankedEntry{}, fmt.Errorf("failed to commit insert: %w", err)
	}

	return entry, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e models.RankedEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ranked_entry (id, user_id, movie_id, title, poster_path, overview, rank, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.UserID, e.MovieID, e.Title, e.PosterPath, e.Overview, e.Rank, e.CreatedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert ranked entry: %w", err)
	}
	return nil
}

// RemoveAt deletes the entry at position and closes the gap
func (s *SQLStore) RemoveAt(ctx context.Context, userID string, position int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM ranked_entry WHERE user_id = $1 AND rank = $2`, userID, position)
	if err != nil {
		return fmt.Errorf("failed to delete ranked entry: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: nothing at rank %d", ErrInvalidPosition, position)
	}

	if _, err := shiftRanks(ctx, tx, userID, position, shiftRemove); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit removal: %w", err)
	}
	return nil
}

// Remove deletes movieID from the user's list and returns the rank it held
func (s *SQLStore) Remove(ctx context.Context, userID, movieID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := get(ctx, tx, userID, movieID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ranked_entry WHERE id = $1`, e.ID); err != nil {
		return 0, fmt.Errorf("failed to delete ranked entry: %w", err)
	}
	if _, err := shiftRanks(ctx, tx, userID, e.Rank, shiftRemove); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit removal: %w", err)
	}
	return e.Rank, nil
}

// Move repositions movieID to position as one remove + insert. Moving an
// entry to the rank it already holds leaves every other rank untouched.
func (s *SQLStore) Move(ctx context.Context, userID, movieID string, position int) (models.RankedEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.RankedEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := get(ctx, tx, userID, movieID)
	if err != nil {
		return models.RankedEntry{}, err
	}

	n, err := count(ctx, tx, userID)
	if err != nil {
		return models.RankedEntry{}, err
	}
	if position < 1 || position > n {
		return models.RankedEntry{}, fmt.Errorf("%w: move to %d within %d entries", ErrInvalidPosition, position, n)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ranked_entry WHERE id = $1`, e.ID); err != nil {
		return models.RankedEntry{}, fmt.Errorf("failed to detach ranked entry: %w", err)
	}
	if _, err := shiftRanks(ctx, tx, userID, e.Rank, shiftRemove); err != nil {
		return models.RankedEntry{}, err
	}
	if _, err := shiftRanks(ctx, tx, userID, position, shiftInsert); err != nil {
		return models.RankedEntry{}, err
	}

	e.Rank = position
	if err := insertEntry(ctx, tx, e); err != nil {
		return models.RankedEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.RankedEntry{}, fmt.Errorf("failed to commit move: %w", err)
	}
	return e, nil
}
