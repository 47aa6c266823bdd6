// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fanout

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var ErrPushRejected = errors.New("push gateway rejected request")

// Notifier sends a push notification to every device of a user.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// PushNotifier posts token-addressed messages to an Expo-style push gateway.
// Calls share one rate limiter so a burst of rank changes cannot flood it.
type PushNotifier struct {
	db      *sql.DB
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

type pushMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewPushNotifier(db *sql.DB, url string, perSecond float64) *PushNotifier {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &PushNotifier{
		db:      db,
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (p *PushNotifier) Notify(ctx context.Context, userID, message string) error {
	tokens, err := p.pushTokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	msgs := make([]pushMessage, 0, len(tokens))
	for _, t := range tokens {
		msgs = append(msgs, pushMessage{To: t, Title: "reelrank", Body: message})
	}
	body, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("push rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrPushRejected, resp.StatusCode)
	}
	return nil
}

func (p *PushNotifier) pushTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT push_token FROM device
		WHERE user_id = $1 AND push_token IS NOT NULL AND push_token <> ''
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
