// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package fanout broadcasts finalized rank changes to a user's friends.

# Flow

	engine finalize ─► Dispatcher.Publish
	                     ├─ ActivityStore.Replace   (sync, one tx)
	                     └─ queue ─► worker
	                                  ├─ Directory.FriendsOf
	                                  ├─ Hub.Send            (realtime, per friend)
	                                  └─ Notifier.Notify     (push, per friend)

Only the activity write happens on the request path. Replace deletes any
earlier activity for the same (user, movie) before inserting, so a feed shows
one entry per movie per user.

# Failure Policy

Nothing here returns an error to the ranking engine:

  - activity write failures are logged
  - a full queue drops the job and logs it
  - friend lookup and push calls retry with doubling backoff
    (Config.MaxAttempts, Config.Backoff), then log and give up
  - realtime sends never block; a slow stream misses events

# Realtime

Hub keeps per-user subscriber channels. The events handler streams them as
server-sent events:

	ch, cancel := hub.Subscribe(userID)
	defer cancel()

# Push

PushNotifier looks up the user's device push tokens and posts one JSON
message per token to the configured gateway, behind a shared
golang.org/x/time/rate limiter. Message text uses go-humanize ordinals:

	alice ranked Dune 3rd
	alice moved Dune to 1st
*/
package fanout
