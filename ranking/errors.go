// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import "errors"

var (
	// Validation
	ErrMissingField      = errors.New("missing required field")
	ErrAlreadyRanked     = errors.New("movie already ranked")
	ErrInvalidPreference = errors.New("preferred movie is not part of this comparison")
	ErrInvalidPosition   = errors.New("rank position out of range")

	// Lookup
	ErrNotRanked = errors.New("movie not ranked")

	// Session state
	ErrNoActiveSession     = errors.New("no active comparison session")
	ErrStaleSession        = errors.New("comparison session is out of date")
	ErrSessionKindMismatch = errors.New("active session is of a different kind")
)
