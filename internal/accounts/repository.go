// Package accounts gives typed access to the records PairJournal keeps in a
// keystore.Store: profiles, partner links, pending shared keys and the email
// index. It adds no policy of its own; permission checks belong to the store.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/models"
)

type Repository struct {
	store keystore.Store
}

func NewRepository(store keystore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) GetProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	p := &models.Profile{}
	if err := r.getJSON(ctx, keystore.ProfilePath(accountID), p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) PutProfile(ctx context.Context, p *models.Profile) error {
	return r.putJSON(ctx, keystore.ProfilePath(p.ID), p)
}

// GetPartnerLink returns the account's link, or nil when there is none.
func (r *Repository) GetPartnerLink(ctx context.Context, accountID string) (*models.PartnerLink, error) {
	l := &models.PartnerLink{}
	err := r.getJSON(ctx, keystore.PartnerLinkPath(accountID), l)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *Repository) PutPartnerLink(ctx context.Context, accountID string, l *models.PartnerLink) error {
	return r.putJSON(ctx, keystore.PartnerLinkPath(accountID), l)
}

func (r *Repository) DeletePartnerLink(ctx context.Context, accountID string) error {
	if err := r.store.Delete(ctx, keystore.PartnerLinkPath(accountID)); err != nil {
		return fmt.Errorf("delete partner link: %w", err)
	}
	return nil
}

// RestorePartnerLink writes prev back, or deletes the link when prev is nil.
// Sagas use it as the compensation for a link overwrite.
func (r *Repository) RestorePartnerLink(ctx context.Context, accountID string, prev *models.PartnerLink) error {
	if prev == nil {
		return r.DeletePartnerLink(ctx, accountID)
	}
	return r.PutPartnerLink(ctx, accountID, prev)
}

// GetPending returns the pending shared key addressed to inviteeID, or nil.
func (r *Repository) GetPending(ctx context.Context, inviteeID string) (*models.PendingSharedKey, error) {
	p := &models.PendingSharedKey{}
	err := r.getJSON(ctx, keystore.PendingPath(inviteeID), p)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) PutPending(ctx context.Context, inviteeID string, p *models.PendingSharedKey) error {
	return r.putJSON(ctx, keystore.PendingPath(inviteeID), p)
}

func (r *Repository) DeletePending(ctx context.Context, inviteeID string) error {
	if err := r.store.Delete(ctx, keystore.PendingPath(inviteeID)); err != nil {
		return fmt.Errorf("delete pending shared key: %w", err)
	}
	return nil
}

// LookupEmail resolves an email to an account id. It returns
// common.ErrorNotFound when no account uses the address.
func (r *Repository) LookupEmail(ctx context.Context, email string) (string, error) {
	idx := &models.EmailIndex{}
	if err := r.getJSON(ctx, keystore.EmailPath(email), idx); err != nil {
		return "", err
	}
	return idx.AccountID, nil
}

func (r *Repository) PutEmail(ctx context.Context, email, accountID string) error {
	return r.putJSON(ctx, keystore.EmailPath(email), &models.EmailIndex{AccountID: accountID})
}

func (r *Repository) getJSON(ctx context.Context, path string, v any) error {
	raw, err := r.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("get %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (r *Repository) putJSON(ctx context.Context, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := r.store.Put(ctx, path, raw); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}
