// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/reelrank/catalog"
	"github.com/danielhkuo/reelrank/fanout"
	"github.com/danielhkuo/reelrank/models"
)

// Catalog backfills poster and overview before an entry is written.
type Catalog interface {
	FetchMetadata(ctx context.Context, movieID string) (catalog.Metadata, error)
}

// Watchlist drops a movie from the user's watchlist once it is ranked.
type Watchlist interface {
	RemoveIfPresent(ctx context.Context, userID, movieID string) error
}

// Publisher receives every finalized rank change. Implementations must not
// block on delivery to friends.
type Publisher interface {
	Publish(ctx context.Context, change fanout.RankChange)
	Retract(ctx context.Context, userID, movieID string)
}

// Engine drives comparison-based insertion and reranking for all users.
type Engine struct {
	store     Store
	sessions  *SessionManager
	catalog   Catalog
	watchlist Watchlist
	publisher Publisher
}

type Option func(*Engine)

func WithCatalog(c Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

func WithWatchlist(w Watchlist) Option {
	return func(e *Engine) { e.watchlist = w }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func NewEngine(store Store, sessions *SessionManager, opts ...Option) *Engine {
	e := &Engine{store: store, sessions: sessions}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sessions exposes the session manager for lifecycle management
func (e *Engine) Sessions() *SessionManager {
	return e.sessions
}

// List returns the user's ranked entries in order
func (e *Engine) List(ctx context.Context, userID string) ([]models.RankedEntry, error) {
	return e.store.List(ctx, userID)
}

// AddMovie starts placing movie in the user's list. An empty list takes the
// movie at rank 1 immediately; otherwise a comparison session begins and the
// first entry to compare against is returned.
func (e *Engine) AddMovie(ctx context.Context, userID string, movie models.Movie) (models.RankResponse, error) {
	if movie.MovieID == "" {
		return models.RankResponse{}, fmt.Errorf("%w: movie_id is required", ErrMissingField)
	}
	if movie.Title == "" {
		return models.RankResponse{}, fmt.Errorf("%w: title is required", ErrMissingField)
	}

	unlock := e.sessions.Lock(userID)
	defer unlock()

	_, err := e.store.Get(ctx, userID, movie.MovieID)
	if err == nil {
		return models.RankResponse{}, fmt.Errorf("%w: %s", ErrAlreadyRanked, movie.MovieID)
	}
	if !errors.Is(err, ErrNotRanked) {
		return models.RankResponse{}, err
	}

	entries, err := e.store.List(ctx, userID)
	if err != nil {
		return models.RankResponse{}, err
	}

	if len(entries) == 0 {
		return e.finalizeInsert(ctx, userID, movie, 1)
	}

	sess := e.sessions.Start(userID, KindInsert, movie, len(entries)-1)
	return e.present(userID, sess.Low, sess.High, entries)
}

// Compare answers the pending comparison of an insert session
func (e *Engine) Compare(ctx context.Context, userID, preferredMovieID, token string) (models.RankResponse, error) {
	return e.step(ctx, userID, KindInsert, preferredMovieID, token)
}

// EndSession abandons the user's comparison session, if any
func (e *Engine) EndSession(userID string) {
	unlock := e.sessions.Lock(userID)
	defer unlock()
	e.sessions.End(userID)
}

// Remove deletes a ranked movie and closes the gap it leaves
func (e *Engine) Remove(ctx context.Context, userID, movieID string) (int, error) {
	unlock := e.sessions.Lock(userID)
	defer unlock()

	rank, err := e.store.Remove(ctx, userID, movieID)
	if err != nil {
		return 0, err
	}
	if e.publisher != nil {
		e.publisher.Retract(ctx, userID, movieID)
	}
	return rank, nil
}

// step applies one preference to the user's session. The bounds narrow by
// one half per answer; once low passes high the subject is placed at low.
func (e *Engine) step(ctx context.Context, userID string, kind Kind, preferredMovieID, token string) (models.RankResponse, error) {
	if preferredMovieID == "" {
		return models.RankResponse{}, fmt.Errorf("%w: preferred_movie_id is required", ErrMissingField)
	}

	unlock := e.sessions.Lock(userID)
	defer unlock()

	sess, ok := e.sessions.Get(userID)
	if !ok {
		return models.RankResponse{}, ErrNoActiveSession
	}
	if sess.Kind != kind {
		return models.RankResponse{}, fmt.Errorf("%w: session is %s", ErrSessionKindMismatch, sess.Kind)
	}
	if token != "" && token != sess.Token {
		return models.RankResponse{}, ErrStaleSession
	}

	candidates, err := e.candidates(ctx, sess)
	if err != nil {
		return models.RankResponse{}, err
	}

	middle := sess.Middle()
	if sess.High >= len(candidates) || middle < 0 || candidates[middle].MovieID != sess.Pivot {
		// The list changed under the session; its bounds no longer mean anything
		e.sessions.End(userID)
		return models.RankResponse{}, fmt.Errorf("%w: ranked list changed", ErrStaleSession)
	}

	low, high := sess.Low, sess.High
	switch preferredMovieID {
	case sess.Subject.MovieID:
		high = middle - 1
	case sess.Pivot:
		low = middle + 1
	default:
		return models.RankResponse{}, fmt.Errorf("%w: %s", ErrInvalidPreference, preferredMovieID)
	}

	if low > high {
		if kind == KindRerank {
			return e.finalizeRerank(ctx, userID, sess.Subject.MovieID, low+1)
		}
		return e.finalizeInsert(ctx, userID, sess.Subject, low+1)
	}

	return e.present(userID, low, high, candidates)
}

// candidates is the ordered list the session searches: the whole list for
// an insert, the list without the subject for a rerank.
func (e *Engine) candidates(ctx context.Context, sess Session) ([]models.RankedEntry, error) {
	entries, err := e.store.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if sess.Kind != KindRerank {
		return entries, nil
	}
	return without(entries, sess.Subject.MovieID), nil
}

func without(entries []models.RankedEntry, movieID string) []models.RankedEntry {
	out := make([]models.RankedEntry, 0, len(entries))
	for _, en := range entries {
		if en.MovieID != movieID {
			out = append(out, en)
		}
	}
	return out
}

// present stores the narrowed bounds and returns the next comparison
func (e *Engine) present(userID string, low, high int, candidates []models.RankedEntry) (models.RankResponse, error) {
	next := candidates[(low+high)/2]

	updated, ok := e.sessions.Update(userID, low, high, next.MovieID)
	if !ok {
		return models.RankResponse{}, ErrNoActiveSession
	}

	return models.RankResponse{
		Status:       models.StatusCompare,
		CompareWith:  &next,
		SessionToken: updated.Token,
	}, nil
}

// finalizeInsert writes the subject at rank. On a write failure the session
// is kept so the client can retry the same answer.
func (e *Engine) finalizeInsert(ctx context.Context, userID string, movie models.Movie, rank int) (models.RankResponse, error) {
	movie = e.backfill(ctx, movie)

	entry, err := e.store.InsertAt(ctx, userID, rank, models.RankedEntry{
		MovieID:    movie.MovieID,
		Title:      movie.Title,
		PosterPath: movie.PosterPath,
		Overview:   movie.Overview,
	})
	if err != nil {
		return models.RankResponse{}, fmt.Errorf("failed to finalize %s at rank %d: %w", movie.MovieID, rank, err)
	}

	e.sessions.End(userID)
	slog.Info("movie ranked", "user_id", userID, "movie_id", entry.MovieID, "rank", entry.Rank)

	if e.watchlist != nil {
		if err := e.watchlist.RemoveIfPresent(ctx, userID, entry.MovieID); err != nil {
			slog.Warn("failed to remove ranked movie from watchlist", "error", err, "user_id", userID, "movie_id", entry.MovieID)
		}
	}

	e.publish(ctx, entry, models.ActivityRanked)

	return models.RankResponse{Status: models.StatusAdded, Rank: entry.Rank}, nil
}

func (e *Engine) publish(ctx context.Context, entry models.RankedEntry, kind string) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(ctx, fanout.RankChange{
		UserID: entry.UserID,
		Entry:  entry,
		Kind:   kind,
	})
}

// backfill fills a missing poster or overview from the catalog. Lookup
// failures are logged and the movie is used as-is.
func (e *Engine) backfill(ctx context.Context, movie models.Movie) models.Movie {
	if e.catalog == nil || (movie.PosterPath != nil && movie.Overview != nil) {
		return movie
	}

	meta, err := e.catalog.FetchMetadata(ctx, movie.MovieID)
	if err != nil {
		slog.Warn("catalog lookup failed", "error", err, "movie_id", movie.MovieID)
		return movie
	}
	if movie.PosterPath == nil {
		movie.PosterPath = meta.PosterPath
	}
	if movie.Overview == nil {
		movie.Overview = meta.Overview
	}
	return movie
}
