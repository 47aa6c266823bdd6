// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// signature returns the HMAC of userID under salt.
func signature(userID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(userID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// GenerateUserToken creates a bearer token of the form "<userID>.<hmac>".
// It is deterministic and verifiable without a lookup.
func GenerateUserToken(userID, salt string) string {
	return userID + "." + signature(userID, salt)
}

// ParseUserToken validates a token and returns the user ID it was issued for
func ParseUserToken(token, salt string) (string, error) {
	userID, sig, ok := strings.Cut(token, ".")
	if !ok || userID == "" || sig == "" {
		return "", ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(signature(userID, salt))) {
		return "", ErrInvalidToken
	}
	return userID, nil
}
