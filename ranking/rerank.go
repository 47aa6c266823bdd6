// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/reelrank/models"
)

// StartRerank begins repositioning an already ranked movie. The movie's
// current slot is treated as a hole and the search runs over the other
// entries. With nothing else ranked the movie stays where it is and no
// session is created.
func (e *Engine) StartRerank(ctx context.Context, userID, movieID string) (models.RankResponse, error) {
	if movieID == "" {
		return models.RankResponse{}, fmt.Errorf("%w: movie_id is required", ErrMissingField)
	}

	unlock := e.sessions.Lock(userID)
	defer unlock()

	target, err := e.store.Get(ctx, userID, movieID)
	if err != nil {
		return models.RankResponse{}, err
	}

	entries, err := e.store.List(ctx, userID)
	if err != nil {
		return models.RankResponse{}, err
	}

	others := without(entries, movieID)
	if len(others) == 0 {
		return models.RankResponse{Status: models.StatusReranked, Rank: target.Rank}, nil
	}

	subject := models.Movie{
		MovieID:    target.MovieID,
		Title:      target.Title,
		PosterPath: target.PosterPath,
		Overview:   target.Overview,
	}
	sess := e.sessions.Start(userID, KindRerank, subject, len(others)-1)
	return e.present(userID, sess.Low, sess.High, others)
}

// CompareRerank answers the pending comparison of a rerank session
func (e *Engine) CompareRerank(ctx context.Context, userID, preferredMovieID, token string) (models.RankResponse, error) {
	return e.step(ctx, userID, KindRerank, preferredMovieID, token)
}

func (e *Engine) finalizeRerank(ctx context.Context, userID, movieID string, rank int) (models.RankResponse, error) {
	entry, err := e.store.Move(ctx, userID, movieID, rank)
	if err != nil {
		return models.RankResponse{}, fmt.Errorf("failed to finalize rerank of %s at rank %d: %w", movieID, rank, err)
	}

	e.sessions.End(userID)
	slog.Info("movie reranked", "user_id", userID, "movie_id", movieID, "rank", entry.Rank)

	e.publish(ctx, entry, models.ActivityReranked)

	return models.RankResponse{Status: models.StatusReranked, Rank: entry.Rank}, nil
}
