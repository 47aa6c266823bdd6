package models

import "time"

// Ranking response statuses
const (
	StatusAdded    = "added"
	StatusCompare  = "compare"
	StatusReranked = "reranked"
)

// Activity kinds
const (
	ActivityRanked   = "ranked"
	ActivityReranked = "reranked"
)

// Realtime event names
const (
	EventRankingUpdated = "ranking.updated"
)

// Device platforms
const (
	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Request types

type CreateUserRequest struct {
	Username string `json:"username"`
}

// AddMovieRequest starts placing a movie into the caller's ranked list.
type AddMovieRequest struct {
	MovieID    string  `json:"movie_id"`
	Title      string  `json:"title"`
	PosterPath *string `json:"poster_path,omitempty"`
	Overview   *string `json:"overview,omitempty"`
}

type CompareRequest struct {
	PreferredMovieID string `json:"preferred_movie_id"`
	SessionToken     string `json:"session_token,omitempty"`
}

type StartRerankRequest struct {
	MovieID string `json:"movie_id"`
}

type AddFriendRequest struct {
	FriendID string `json:"friend_id"`
}

type AddWatchlistRequest struct {
	MovieID    string  `json:"movie_id"`
	Title      string  `json:"title"`
	PosterPath *string `json:"poster_path,omitempty"`
}

type RegisterDeviceRequest struct {
	Platform  string  `json:"platform"`
	PushToken *string `json:"push_token,omitempty"`
}

// Response types

type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	IsNew    bool   `json:"is_new"`
}

type CreateUserResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// RankResponse is returned by every step of the add-movie and rerank flows.
// Rank is set when Status is "added" or "reranked"; CompareWith and
// SessionToken are set when Status is "compare".
type RankResponse struct {
	Status       string       `json:"status"`
	Rank         int          `json:"rank,omitempty"`
	CompareWith  *RankedEntry `json:"compare_with,omitempty"`
	SessionToken string       `json:"session_token,omitempty"`
}

type RankingsResponse struct {
	UserID   string        `json:"user_id"`
	Rankings []RankedEntry `json:"rankings"`
}

type FriendsResponse struct {
	Friends []User `json:"friends"`
}

type WatchlistResponse struct {
	Items []WatchlistItem `json:"items"`
}

type FeedResponse struct {
	Activities []FeedItem `json:"activities"`
}

// Domain types

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Movie identifies the movie being placed by a comparison session.
type Movie struct {
	MovieID    string  `json:"movie_id"`
	Title      string  `json:"title"`
	PosterPath *string `json:"poster_path,omitempty"`
	Overview   *string `json:"overview,omitempty"`
}

// RankedEntry is one movie in a user's ordered list. Rank 1 is most preferred.
type RankedEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    string    `json:"movie_id"`
	Title      string    `json:"title"`
	PosterPath *string   `json:"poster_path,omitempty"`
	Overview   *string   `json:"overview,omitempty"`
	Rank       int       `json:"rank"`
	CreatedAt  time.Time `json:"created_at"`
}

type Activity struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    string    `json:"movie_id"`
	Title      string    `json:"title"`
	PosterPath *string   `json:"poster_path,omitempty"`
	Rank       int       `json:"rank"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeedItem is an activity joined with its author's username.
type FeedItem struct {
	Activity
	Username string `json:"username"`
	Ago      string `json:"ago"`
}

type WatchlistItem struct {
	MovieID    string    `json:"movie_id"`
	Title      string    `json:"title"`
	PosterPath *string   `json:"poster_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

type DeviceInfo struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"`
	HasPush    bool      `json:"has_push"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
