// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/reelrank/catalog"
	"github.com/danielhkuo/reelrank/cliparse"
	"github.com/danielhkuo/reelrank/fanout"
	"github.com/danielhkuo/reelrank/handlers"
	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/ranking"
)

// Services holds the long-lived components shared by the handlers. The
// caller starts the dispatcher and session sweeper and stops them on
// shutdown.
type Services struct {
	Engine     *ranking.Engine
	Sessions   *ranking.SessionManager
	Hub        *fanout.Hub
	Dispatcher *fanout.Dispatcher
	Watchlist  *handlers.WatchlistHandler
}

// NewServices wires the ranking engine and its fan-out. Catalog backfill and
// push notifications are only enabled when their URLs are configured.
func NewServices(db *sql.DB, cfg cliparse.Config) Services {
	sessions := ranking.NewSessionManager(cfg.SessionTTL)
	hub := fanout.NewHub(16)
	watchlist := handlers.NewWatchlistHandler(db)

	var notifier fanout.Notifier
	if cfg.PushURL != "" {
		notifier = fanout.NewPushNotifier(db, cfg.PushURL, cfg.PushRate)
	}

	dispatcher := fanout.NewDispatcher(
		fanout.NewActivityStore(db),
		fanout.NewSQLDirectory(db),
		hub,
		notifier,
		fanout.Config{Workers: cfg.FanoutWorkers, QueueSize: cfg.FanoutQueueSize},
	)

	opts := []ranking.Option{
		ranking.WithWatchlist(watchlist),
		ranking.WithPublisher(dispatcher),
	}
	if cfg.CatalogURL != "" {
		opts = append(opts, ranking.WithCatalog(catalog.NewClient(cfg.CatalogURL, cfg.CatalogAPIKey)))
	}

	return Services{
		Engine:     ranking.NewEngine(ranking.NewSQLStore(db), sessions, opts...),
		Sessions:   sessions,
		Hub:        hub,
		Dispatcher: dispatcher,
		Watchlist:  watchlist,
	}
}

func NewRouter(db *sql.DB, cfg cliparse.Config, svc Services) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	rankingHandler := handlers.NewRankingHandler(db, svc.Engine)
	friendHandler := handlers.NewFriendHandler(db)
	feedHandler := handlers.NewFeedHandler(db)
	deviceHandler := handlers.NewDeviceHandler(db)
	eventHandler := handlers.NewEventHandler(svc.Hub)

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithUser(cfg.TokenSalt, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Users
	mux.HandleFunc("POST /users", middleware.WithLogging(userHandler.Create))
	mux.HandleFunc("GET /users/{id}/rankings", authed(rankingHandler.ListForUser))

	// Ranking (comparison sessions are per user)
	mux.HandleFunc("POST /rankings", authed(rankingHandler.AddMovie))
	mux.HandleFunc("POST /rankings/compare", authed(rankingHandler.Compare))
	mux.HandleFunc("POST /rankings/rerank/start", authed(rankingHandler.StartRerank))
	mux.HandleFunc("POST /rankings/rerank/compare", authed(rankingHandler.CompareRerank))
	mux.HandleFunc("DELETE /rankings/session", authed(rankingHandler.EndSession))
	mux.HandleFunc("GET /rankings", authed(rankingHandler.List))
	mux.HandleFunc("DELETE /rankings/{movieId}", authed(rankingHandler.Delete))

	// Social
	mux.HandleFunc("POST /friends", authed(friendHandler.Add))
	mux.HandleFunc("GET /friends", authed(friendHandler.List))
	mux.HandleFunc("DELETE /friends/{id}", authed(friendHandler.Remove))
	mux.HandleFunc("GET /feed", authed(feedHandler.Get))
	mux.HandleFunc("GET /events", authed(eventHandler.Stream))

	// Watchlist
	mux.HandleFunc("POST /watchlist", authed(svc.Watchlist.Add))
	mux.HandleFunc("GET /watchlist", authed(svc.Watchlist.List))
	mux.HandleFunc("DELETE /watchlist/{movieId}", authed(svc.Watchlist.Remove))

	// Device management
	mux.HandleFunc("POST /devices/register", authed(deviceHandler.Register))
	mux.HandleFunc("GET /devices/me", authed(deviceHandler.GetMe))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("reelrank API v1"))
	})

	return mux
}
