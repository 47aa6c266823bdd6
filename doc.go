// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the reelrank API server.

reelrank is a social movie-ranking service. Instead of scoring movies,
users place each new movie by answering "which do you prefer?" against
movies they already ranked; a binary search finds the slot in at most
ceil(log2(N+1)) answers. Friends see each other's changes in a feed, over
server-sent events, and as push notifications.

# Starting the Server

The server reads a .env file if present, then environment variables or CLI
flags:

	TOKEN_SALT=... DATABASE_URL=reelrank.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -token-salt ...

# Configuration

Required settings:

  - TOKEN_SALT (-token-salt): Secret for user token HMAC
  - DATABASE_URL (-d): Connection string or SQLite file path

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SESSION_TTL (-session-ttl): Idle comparison session lifetime (default: 30m)
  - CATALOG_URL (-catalog-url), CATALOG_API_KEY: Movie metadata backfill
  - PUSH_URL (-push-url), PUSH_RATE (-push-rate): Push gateway
  - FANOUT_WORKERS (-fanout-workers): Notification workers (default: 4)

# Architecture

  - ranking: Comparison sessions, binary insertion, rerank, rank storage
  - fanout: Activity records, realtime hub, push notifications
  - catalog: Movie metadata lookup
  - handlers: HTTP request handlers
  - router: Service wiring and route definitions
  - middleware: Auth, CORS, logging, JSON helpers
  - models: Request/response and domain types
  - auth: ID and token generation
  - db: Connection and schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
