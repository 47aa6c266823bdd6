// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the reelrank API.

# Handler Types

Each handler is a struct holding its dependencies:

  - UserHandler: Account creation and bearer tokens
  - RankingHandler: Comparison-based adding, reranking and list reads
  - FriendHandler: Mutual friendships
  - WatchlistHandler: Movies to watch later
  - FeedHandler: Friends' latest ranking activity
  - DeviceHandler: Device and push token registration
  - EventHandler: Server-sent event stream

Handlers are created via constructor functions:

	rankingHandler := handlers.NewRankingHandler(db, engine)

All endpoints except POST /users require an Authorization: Bearer header,
resolved by middleware.WithUser.

# Ranking Flow

Adding a movie to a non-empty list starts a comparison session:

	POST /rankings         → AddMovie ({status:"compare", compare_with, session_token})
	POST /rankings/compare → Compare (repeat until {status:"added", rank})

Reranking works the same way over the rest of the list:

	POST /rankings/rerank/start   → StartRerank
	POST /rankings/rerank/compare → CompareRerank (ends with {status:"reranked", rank})

A compare with no session, a stale session_token, or the wrong kind of
session answers 409.

# Watchlist

WatchlistHandler also satisfies ranking.Watchlist, so ranking a movie takes
it off the watchlist.

# Realtime

	GET /events → Stream

Events are written as text/event-stream frames named after the event, with
the JSON-encoded fanout.Event as data.
*/
package handlers
