// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open selects the driver from the configured database type:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

PostgreSQL uses lib/pq; SQLite uses the pure-Go modernc.org/sqlite driver
and is limited to a single open connection. Queries throughout the module
use $N placeholders, which both drivers accept.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_user: Registered users
  - friendship: Friend edges, one row per direction
  - ranked_entry: Per-user ordered movie list
  - activity: Latest rank change per (user, movie)
  - watchlist_item: Movies a user intends to watch
  - device: Registered devices and push tokens

# Constraints

ranked_entry carries UNIQUE (user_id, movie_id) and UNIQUE (user_id, rank).
The rank constraint is why rank shifts must update rows in a fixed order:
highest first when making room, lowest first when closing a gap.

activity carries UNIQUE (user_id, movie_id) so the feed only ever shows the
latest state of a movie for a user.
*/
package db
