// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateUserRequest: username
  - AddMovieRequest: movie_id, title, poster_path, overview
  - CompareRequest: preferred_movie_id, session_token
  - StartRerankRequest: movie_id
  - AddFriendRequest: friend_id
  - AddWatchlistRequest: movie_id, title, poster_path
  - RegisterDeviceRequest: platform, push_token

# Response Types

Types for JSON responses:

  - CreateUserResponse: user_id, token
  - RankResponse: status, rank, compare_with, session_token
  - RankingsResponse: user_id, rankings
  - FriendsResponse, WatchlistResponse, FeedResponse
  - RegisterDeviceResponse: device_id, is_new
  - ErrorResponse: error, message

# Domain Types

  - User: registered account
  - Movie: the subject of a comparison session
  - RankedEntry: one movie at one rank in a user's list
  - Activity: latest rank change for a (user, movie) pair
  - FeedItem: activity plus author username
  - WatchlistItem, DeviceInfo

# Constants

Ranking statuses:

	StatusAdded    = "added"
	StatusCompare  = "compare"
	StatusReranked = "reranked"

Activity kinds:

	ActivityRanked   = "ranked"
	ActivityReranked = "reranked"

Platforms:

	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
*/
package models
