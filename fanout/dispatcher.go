// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/reelrank/models"
)

// RankChange describes a finalized insert or rerank.
type RankChange struct {
	UserID string
	Entry  models.RankedEntry
	Kind   string
}

// ActivityRecorder persists the latest activity per (user, movie).
type ActivityRecorder interface {
	Replace(ctx context.Context, a models.Activity) error
	Delete(ctx context.Context, userID, movieID string) error
}

type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
	return c
}

// Dispatcher records activities and notifies friends off the request path.
// Notification jobs sit on a bounded queue drained by worker goroutines; a
// full queue drops the job rather than slowing the caller.
type Dispatcher struct {
	activities ActivityRecorder
	directory  Directory
	hub        *Hub
	notifier   Notifier
	cfg        Config

	jobs   chan models.Activity
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher wires the fan-out. notifier may be nil to disable push.
func NewDispatcher(activities ActivityRecorder, directory Directory, hub *Hub, notifier Notifier, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		activities: activities,
		directory:  directory,
		hub:        hub,
		notifier:   notifier,
		cfg:        cfg,
		jobs:       make(chan models.Activity, cfg.QueueSize),
	}
}

// Start launches the workers. They exit when ctx is done or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case a, ok := <-d.jobs:
					if !ok {
						return
					}
					d.deliver(ctx, a)
				}
			}
		}()
	}
}

// Close stops accepting jobs and waits for queued ones to finish
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Publish records the activity for change and queues friend notification.
// Errors are logged; nothing is returned to the caller.
func (d *Dispatcher) Publish(ctx context.Context, change RankChange) {
	a := models.Activity{
		ID:         uuid.NewString(),
		UserID:     change.UserID,
		MovieID:    change.Entry.MovieID,
		Title:      change.Entry.Title,
		PosterPath: change.Entry.PosterPath,
		Rank:       change.Entry.Rank,
		Kind:       change.Kind,
		CreatedAt:  time.Now().UTC(),
	}

	// The rank is already committed; finish recording even if the client left
	if err := d.activities.Replace(context.WithoutCancel(ctx), a); err != nil {
		slog.Error("failed to record activity", "error", err, "user_id", a.UserID, "movie_id", a.MovieID)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		slog.Warn("fan-out closed, dropping notification", "user_id", a.UserID, "movie_id", a.MovieID)
		return
	}

	select {
	case d.jobs <- a:
	default:
		slog.Warn("fan-out queue full, dropping notification", "user_id", a.UserID, "movie_id", a.MovieID)
	}
}

// Retract removes the feed activity of a movie that was deleted
func (d *Dispatcher) Retract(ctx context.Context, userID, movieID string) {
	if err := d.activities.Delete(context.WithoutCancel(ctx), userID, movieID); err != nil {
		slog.Error("failed to retract activity", "error", err, "user_id", userID, "movie_id", movieID)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, a models.Activity) {
	var friends []string
	err := d.retry(ctx, func() error {
		var err error
		friends, err = d.directory.FriendsOf(ctx, a.UserID)
		return err
	})
	if err != nil {
		slog.Error("giving up on fan-out", "error", err, "user_id", a.UserID, "movie_id", a.MovieID)
		return
	}
	if len(friends) == 0 {
		return
	}

	username, err := d.directory.Username(ctx, a.UserID)
	if err != nil {
		slog.Warn("failed to resolve username for fan-out", "error", err, "user_id", a.UserID)
		username = "A friend"
	}

	item := models.FeedItem{Activity: a, Username: username, Ago: humanize.Time(a.CreatedAt)}
	msg := Message(username, a)

	for _, friendID := range friends {
		d.hub.Send(friendID, models.EventRankingUpdated, item)

		if d.notifier == nil {
			continue
		}
		err := d.retry(ctx, func() error {
			return d.notifier.Notify(ctx, friendID, msg)
		})
		if err != nil {
			slog.Warn("push notification failed", "error", err, "friend_id", friendID, "user_id", a.UserID)
		}
	}
}

// retry runs fn up to MaxAttempts times with doubling backoff
func (d *Dispatcher) retry(ctx context.Context, fn func() error) error {
	var err error
	wait := d.cfg.Backoff
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == d.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("after %d attempts: %w", d.cfg.MaxAttempts, err)
}

// Message renders the push text for an activity, e.g. "alice ranked Dune 3rd"
func Message(username string, a models.Activity) string {
	if a.Kind == models.ActivityReranked {
		return fmt.Sprintf("%s moved %s to %s", username, a.Title, humanize.Ordinal(a.Rank))
	}
	return fmt.Sprintf("%s ranked %s %s", username, a.Title, humanize.Ordinal(a.Rank))
}
