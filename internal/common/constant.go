// Package common contains shared constants and sentinel errors used across
// PairJournal components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// KeySize is the length in bytes of every symmetric key handled by the
// system: personal keys, shared keys and password-derived KEKs.
const KeySize = 32
