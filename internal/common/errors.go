// Package common defines shared constants and sentinel errors used across
// client and server layers of PairJournal. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal    = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("server unavailable")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Crypto errors.
	ErrInvalidInput     = errors.New("invalid input")
	ErrKeyNotAvailable  = errors.New("key not available")
	ErrDecryptionFailed = errors.New("decryption failed")

	// Partner link protocol errors. These are terminal for the call that
	// returned them and are surfaced to the caller unchanged.
	ErrSelfInvite      = errors.New("cannot invite yourself")
	ErrPartnerNotFound = errors.New("partner not found")
	ErrAlreadyLinked   = errors.New("already linked")
	ErrNotLinked       = errors.New("not linked")

	// Password rotation.
	ErrRotationFailed = errors.New("password rotation failed")
)
