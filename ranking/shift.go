// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type shiftDirection int

const (
	// shiftInsert makes room at a position: ranks >= position move down one slot.
	shiftInsert shiftDirection = iota
	// shiftRemove closes the gap left at a position: ranks > position move up one slot.
	shiftRemove
)

func (d shiftDirection) String() string {
	if d == shiftInsert {
		return "insert"
	}
	return "remove"
}

// shiftRanks renumbers the entries affected by an insert or removal at
// position and returns how many rows moved. It must run inside tx.
//
// Rows are updated one at a time in an order that never puts two rows on the
// same rank, since (user_id, rank) is unique: highest first when incrementing,
// lowest first when decrementing.
func shiftRanks(ctx context.Context, tx *sql.Tx, userID string, position int, dir shiftDirection) (int, error) {
	var query string
	delta := 1

	switch dir {
	case shiftInsert:
		query = `
			SELECT id, rank FROM ranked_entry
			WHERE user_id = $1 AND rank >= $2
			ORDER BY rank DESC
		`
	case shiftRemove:
		query = `
			SELECT id, rank FROM ranked_entry
			WHERE user_id = $1 AND rank > $2
			ORDER BY rank ASC
		`
		delta = -1
	default:
		return 0, fmt.Errorf("unknown shift direction %d", dir)
	}

	rows, err := tx.QueryContext(ctx, query, userID, position)
	if err != nil {
		return 0, fmt.Errorf("failed to select %s shift rows: %w", dir, err)
	}

	type pending struct {
		id   string
		rank int
	}
	var affected []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.rank); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan shift row: %w", err)
		}
		affected = append(affected, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to read shift rows: %w", err)
	}
	rows.Close()

	now := time.Now().UTC()
	for _, p := range affected {
		_, err := tx.ExecContext(ctx, `
			UPDATE ranked_entry SET rank = $1, updated_at = $2 WHERE id = $3
		`, p.rank+delta, now, p.id)
		if err != nil {
			return 0, fmt.Errorf("failed to shift rank %d: %w", p.rank, err)
		}
	}

	return len(affected), nil
}
