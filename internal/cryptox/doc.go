// Package cryptox implements the key hierarchy used by PairJournal:
//
//   - DeriveKey turns a password and the account email into a 256-bit
//     key-encryption key (KEK) with PBKDF2-HMAC-SHA256.
//   - WrapKey/UnwrapKey protect a data key (DEK) under a KEK.
//   - Encrypt/Decrypt protect journal content under a DEK.
//
// Wrapped keys and ciphertexts share one wire format: base64(IV || AES-256-CBC
// output with PKCS7 padding), with a fresh random 16-byte IV per call.
// The format is unauthenticated; a wrong key is usually detected by padding,
// length or UTF-8 checks, and callers must treat ErrDecryptionFailed as the
// only reliable signal.
package cryptox
