package keystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// Store is the minimal key-value contract required by the key hierarchy.
//
// Get returns common.ErrorNotFound when the path holds no value. Delete of an
// absent path is not an error. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, value []byte) error
	Delete(ctx context.Context, path string) error
}

// Transactor is implemented by stores that can apply several writes
// atomically. fn must use the Store it is given, not the outer one.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

const (
	AccountsRoot    = "accounts"
	PendingRoot     = "pending_shared_keys"
	EmailsRoot      = "emails"
	CredentialsRoot = "credentials"

	profileLeaf     = "profile"
	partnerLinkLeaf = "partner_link"
)

// ProfilePath is where an account's profile (with its wrapped personal key) lives.
func ProfilePath(accountID string) string {
	return AccountsRoot + "/" + accountID + "/" + profileLeaf
}

// PartnerLinkPath is where an account's half of a partner link lives.
func PartnerLinkPath(accountID string) string {
	return AccountsRoot + "/" + accountID + "/" + partnerLinkLeaf
}

// PendingPath is where a pending shared key addressed to inviteeID lives.
func PendingPath(inviteeID string) string {
	return PendingRoot + "/" + inviteeID
}

// EmailPath is the email index entry for email. The address is normalized
// and hashed so that it never appears in a storage key.
func EmailPath(email string) string {
	sum := sha256.Sum256([]byte(common.NormalizeEmail(email)))
	return EmailsRoot + "/" + hex.EncodeToString(sum[:])
}

// CredentialPath is the identity provider's private record for accountID.
func CredentialPath(accountID string) string {
	return CredentialsRoot + "/" + accountID
}

// Validate rejects paths that could escape their subtree or address nothing.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", common.ErrInvalidInput)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: bad path %q", common.ErrInvalidInput, path)
		}
	}
	return nil
}
