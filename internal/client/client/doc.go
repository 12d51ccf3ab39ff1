// Package client contains the backends the PairJournal client can run on.
//
// # Overview
//
// Both backends are an identity.Provider plus a keystore.Store factory:
//  1. GRPCClient talks to a PairJournal server. It injects the access token
//     via an interceptor, transparently signs in again when the token has
//     expired, and maps gRPC status codes back to the sentinel errors in
//     package common.
//  2. Local runs the identity provider and the key store in-process, either
//     in memory or on an SQLite file (InitLocal), for single-user setups and
//     tests.
//
// # Error Handling
//
// Errors are the sentinels from package common, matched with errors.Is:
// ErrorNotFound, ErrForbidden, ErrUnauthorized, ErrAlreadyExists,
// ErrInvalidInput and ErrUnavailable.
//
// Concurrency & Contexts
//
// Both backends are safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package client
