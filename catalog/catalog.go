// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package catalog looks up movie metadata from a TMDB-style HTTP API.
//
// Concurrent lookups for the same movie share one request.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("movie not found in catalog")

// Metadata holds the optional fields used to backfill a ranked entry.
type Metadata struct {
	PosterPath *string `json:"poster_path"`
	Overview   *string `json:"overview"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	group   singleflight.Group
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchMetadata returns poster and overview for movieID. Empty strings from
// the API come back as nil.
func (c *Client) FetchMetadata(ctx context.Context, movieID string) (Metadata, error) {
	v, err, _ := c.group.Do(movieID, func() (any, error) {
		return c.fetch(ctx, movieID)
	})
	if err != nil {
		return Metadata{}, err
	}
	return v.(Metadata), nil
}

func (c *Client) fetch(ctx context.Context, movieID string) (Metadata, error) {
	endpoint := c.baseURL + "/movie/" + url.PathEscape(movieID)
	if c.apiKey != "" {
		endpoint += "?api_key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, movieID)
	case resp.StatusCode >= 300:
		return Metadata{}, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if meta.PosterPath != nil && *meta.PosterPath == "" {
		meta.PosterPath = nil
	}
	if meta.Overview != nil && *meta.Overview == "" {
		meta.Overview = nil
	}
	return meta, nil
}
