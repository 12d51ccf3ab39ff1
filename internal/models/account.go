// Package models defines the records PairJournal persists in the key store.
// All of them are JSON documents; key material is always either wrapped
// (cryptox.WrappedKey) or, for PendingSharedKey only, base64-encoded raw bytes.
package models

import (
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/cryptox"
)

// Profile is the account record created at signup.
// WrappedPersonalKey changes only during password rotation.
type Profile struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	WrappedPersonalKey cryptox.WrappedKey `json:"wrapped_personal_key"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// PartnerLink is one account's half of a partner relationship.
// A nil WrappedSharedKey marks a stub written by the inviter and not yet
// completed by Reconcile.
type PartnerLink struct {
	PartnerAccountID string              `json:"partner_account_id"`
	WrappedSharedKey *cryptox.WrappedKey `json:"wrapped_shared_key,omitempty"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// HalfFormed reports whether the link has no wrapped key yet.
func (l *PartnerLink) HalfFormed() bool {
	return l.WrappedSharedKey == nil || l.WrappedSharedKey.IsZero()
}

// PendingSharedKey carries an exported shared key from the inviter to the
// invitee. It is keyed by the invitee id and must be deleted as soon as the
// invitee has stored its own wrapped copy.
type PendingSharedKey struct {
	RawSharedKey     []byte    `json:"raw_shared_key"`
	InviterAccountID string    `json:"inviter_account_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// EmailIndex maps a normalized email to an account id.
type EmailIndex struct {
	AccountID string `json:"account_id"`
}

// Credential is the identity provider's private record for an account.
type Credential struct {
	AccountID    string    `json:"account_id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	UpdatedAt    time.Time `json:"updated_at"`
}
