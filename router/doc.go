// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the reelrank API.

# Route Registration

NewServices builds the ranking engine and fan-out; NewRouter mounts every
endpoint on an http.ServeMux:

	svc := router.NewServices(db, cfg)
	svc.Dispatcher.Start(ctx)
	mux := router.NewRouter(db, cfg, svc)

# Endpoints

Health:

	GET /health

Users:

	POST /users               - Create user, returns bearer token
	GET  /users/{id}/rankings - A friend's ranked list

Ranking (bearer token):

	POST   /rankings                 - Add movie
	POST   /rankings/compare         - Answer insert comparison
	POST   /rankings/rerank/start    - Start rerank
	POST   /rankings/rerank/compare  - Answer rerank comparison
	DELETE /rankings/session         - Abandon comparison
	GET    /rankings                 - Own ranked list
	DELETE /rankings/{movieId}       - Remove movie

Social (bearer token):

	POST   /friends      - Add friend
	GET    /friends      - List friends
	DELETE /friends/{id} - Remove friend
	GET    /feed         - Friends' activity
	GET    /events       - Realtime stream

Watchlist (bearer token):

	POST   /watchlist           - Add
	GET    /watchlist           - List
	DELETE /watchlist/{movieId} - Remove

Device management (bearer token, X-Device-UUID):

	POST /devices/register - Register device and push token
	GET  /devices/me       - Get device info
*/
package router
