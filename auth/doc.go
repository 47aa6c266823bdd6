// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ID generation and bearer token handling.

# IDs

GenerateID returns a random hex string of the requested byte length:

	userID, err := auth.GenerateID(16)

# User Tokens

Tokens are "<userID>.<signature>" where the signature is an HMAC-SHA256 of
the user ID keyed with the server's token salt:

	token := auth.GenerateUserToken(userID, cfg.TokenSalt)
	userID, err := auth.ParseUserToken(token, cfg.TokenSalt)

Validation needs no database lookup. Tokens never expire; rotating the salt
invalidates all of them at once.

# Security

  - crypto/rand for IDs
  - hmac.Equal for constant-time comparison
  - URL-safe base64 without padding
*/
package auth
