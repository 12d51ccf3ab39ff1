// Package services contains application services for the PairJournal client.
// Journal is the facade the CLI and the journal CRUD layer talk to: account
// lifecycle, partner linking, password changes and record encryption.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/accounts"
	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/cryptox"
	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/dmitrijs2005/pairjournal/internal/partner"
	"github.com/dmitrijs2005/pairjournal/internal/rotation"
	"github.com/dmitrijs2005/pairjournal/internal/session"
	"github.com/google/uuid"
)

// Backend is where accounts live: an identity provider plus the key store as
// seen by a signed-in principal.
//
// Contract:
//   - StoreFor returns a store that acts with p's permissions.
//   - SignOut drops whatever the backend keeps for the current principal.
type Backend interface {
	identity.Provider
	StoreFor(p *identity.Principal) keystore.Store
	SignOut()
}

// ErrNotSignedIn is returned by operations that need an active session.
var ErrNotSignedIn = fmt.Errorf("%w: not signed in", common.ErrUnauthorized)

// Status describes the signed-in account and its partner link.
type Status struct {
	AccountID    string
	Email        string
	State        partner.State
	PartnerID    string
	PartnerEmail string
	SharedKey    bool
}

type Journal struct {
	backend     Backend
	logger      logging.Logger
	partnerOpts []partner.Option
	now         func() time.Time

	mu        sync.Mutex
	principal *identity.Principal
	session   *session.Context
	repo      *accounts.Repository
	protocol  *partner.Protocol
}

type Option func(*Journal)

// WithPartnerOptions configures the partner protocol of every session.
func WithPartnerOptions(opts ...partner.Option) Option {
	return func(j *Journal) { j.partnerOpts = append(j.partnerOpts, opts...) }
}

func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

func NewJournal(b Backend, l logging.Logger, opts ...Option) *Journal {
	j := &Journal{
		backend: b,
		logger:  l.With("module", "journal"),
		now:     time.Now,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

// SignUp registers a new account, creates its profile with a fresh personal
// key and leaves the account signed in.
func (j *Journal) SignUp(ctx context.Context, email, password string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id, err := j.backend.Register(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	p, err := j.backend.SignIn(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}

	repo := accounts.NewRepository(j.backend.StoreFor(p))
	if err := j.createProfile(ctx, repo, p, password); err != nil {
		return "", err
	}
	if _, err := j.open(ctx, p, password); err != nil {
		return "", err
	}
	j.logger.Info(ctx, "signed up", "account_id", id)
	return id, nil
}

func (j *Journal) createProfile(ctx context.Context, repo *accounts.Repository, p *identity.Principal, password string) error {
	kek, err := cryptox.DeriveKey(password, p.Email)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(kek)

	personal := cryptox.GenerateKey()
	defer common.WipeByteArray(personal)

	wrapped, err := cryptox.WrapKey(personal, kek)
	if err != nil {
		return err
	}
	now := j.now().UTC()
	return repo.PutProfile(ctx, &models.Profile{
		ID:                 p.AccountID,
		Email:              common.NormalizeEmail(p.Email),
		WrappedPersonalKey: wrapped,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

// SignIn authenticates at the identity provider, unlocks the personal key and
// reconciles the partner link.
func (j *Journal) SignIn(ctx context.Context, email, password string) (partner.State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	p, err := j.backend.SignIn(ctx, email, password)
	if err != nil {
		return partner.Unlinked, err
	}

	// an account whose signup stopped before the profile write gets one now
	repo := accounts.NewRepository(j.backend.StoreFor(p))
	if _, err := repo.GetProfile(ctx, p.AccountID); errors.Is(err, common.ErrorNotFound) {
		j.logger.Warn(ctx, "creating missing profile", "account_id", p.AccountID)
		if err := j.createProfile(ctx, repo, p, password); err != nil {
			return partner.Unlinked, err
		}
	} else if err != nil {
		return partner.Unlinked, err
	}

	return j.open(ctx, p, password)
}

// Lock drops the keys but keeps the principal, so Unlock can rebuild them.
func (j *Journal) Lock() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session != nil {
		j.session.Clear()
		j.session = nil
	}
}

// Unlock rebuilds the encryption context from the stored wrapped key without
// asking the identity provider. A wrong password yields
// common.ErrDecryptionFailed.
func (j *Journal) Unlock(ctx context.Context, password string) (partner.State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.principal == nil {
		return partner.Unlinked, ErrNotSignedIn
	}
	return j.open(ctx, j.principal, password)
}

// open derives the KEK, unwraps the personal key and runs Reconcile. The
// previous session, if any, is replaced only on success.
func (j *Journal) open(ctx context.Context, p *identity.Principal, password string) (partner.State, error) {
	kek, err := cryptox.DeriveKey(password, p.Email)
	if err != nil {
		return partner.Unlinked, err
	}
	defer common.WipeByteArray(kek)

	repo := accounts.NewRepository(j.backend.StoreFor(p))
	profile, err := repo.GetProfile(ctx, p.AccountID)
	if err != nil {
		return partner.Unlinked, fmt.Errorf("load profile: %w", err)
	}

	personal, err := cryptox.UnwrapKey(profile.WrappedPersonalKey, kek)
	if err != nil {
		return partner.Unlinked, err
	}
	defer common.WipeByteArray(personal)

	s := session.New(p.AccountID, p.Email)
	if err := s.SetPersonalKey(personal); err != nil {
		return partner.Unlinked, err
	}

	protocol := partner.NewProtocol(repo, j.logger, j.partnerOpts...)
	state, err := protocol.Reconcile(ctx, s, kek)
	if err != nil {
		s.Clear()
		return state, fmt.Errorf("reconcile: %w", err)
	}

	if j.session != nil {
		j.session.Clear()
	}
	j.principal, j.session, j.repo, j.protocol = p, s, repo, protocol
	j.logger.Info(ctx, "session opened", "account_id", p.AccountID, "partner_state", state.String())
	return state, nil
}

// SignOut zeroes the keys and forgets the principal. It is safe to call
// more than once.
func (j *Journal) SignOut() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session != nil {
		j.session.Clear()
	}
	j.backend.SignOut()
	j.principal, j.session, j.repo, j.protocol = nil, nil, nil, nil
}

func (j *Journal) active() (*session.Context, error) {
	if j.session == nil {
		return nil, ErrNotSignedIn
	}
	return j.session, nil
}

// Refresh re-runs Reconcile, picking up an invitation or an unlink that
// happened since the session was opened.
func (j *Journal) Refresh(ctx context.Context, password string) (partner.State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.active(); err != nil {
		return partner.Unlinked, err
	}
	return j.open(ctx, j.principal, password)
}

// Invite links the signed-in account with the account registered under
// inviteeEmail.
func (j *Journal) Invite(ctx context.Context, password, inviteeEmail string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	s, err := j.active()
	if err != nil {
		return err
	}
	return j.protocol.Invite(ctx, s, password, inviteeEmail)
}

// Disconnect removes the partner link on both sides.
func (j *Journal) Disconnect(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	s, err := j.active()
	if err != nil {
		return err
	}
	return j.protocol.Disconnect(ctx, s)
}

// ChangePassword rotates the account's key wrappers and then the password at
// the identity provider. The session stays open.
func (j *Journal) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	s, err := j.active()
	if err != nil {
		return err
	}
	return rotation.NewRotator(j.repo, j.backend, j.logger).Rotate(ctx, s, oldPassword, newPassword)
}

// Status reports the partner link of the signed-in account without changing it.
func (j *Journal) Status(ctx context.Context) (*Status, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	s, err := j.active()
	if err != nil {
		return nil, err
	}

	state, partnerID, err := j.protocol.State(ctx, s.AccountID())
	if err != nil {
		return nil, err
	}
	st := &Status{
		AccountID: s.AccountID(),
		Email:     s.Email(),
		State:     state,
		PartnerID: partnerID,
		SharedKey: s.HasSharedKey(),
	}
	if partnerID != "" {
		profile, err := j.repo.GetProfile(ctx, partnerID)
		switch {
		case err == nil:
			st.PartnerEmail = profile.Email
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}
	return st, nil
}

// EncryptRecord encrypts plaintext for a new record with a fresh id.
func (j *Journal) EncryptRecord(t models.EncryptionType, plaintext string) (models.EncryptedRecord, error) {
	j.mu.Lock()
	s, err := j.active()
	j.mu.Unlock()
	if err != nil {
		return models.EncryptedRecord{}, err
	}

	ct, err := s.EncryptFor(t, plaintext)
	if err != nil {
		return models.EncryptedRecord{}, err
	}
	return models.EncryptedRecord{ID: uuid.NewString(), Ciphertext: ct, EncryptionType: t}, nil
}

func (j *Journal) DecryptRecord(r models.EncryptedRecord) (string, error) {
	j.mu.Lock()
	s, err := j.active()
	j.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.DecryptFor(r.EncryptionType, r.Ciphertext)
}

// DecryptRecords decrypts a list, replacing unreadable records with a
// placeholder instead of failing.
func (j *Journal) DecryptRecords(records []models.EncryptedRecord) ([]session.DecryptedRecord, error) {
	j.mu.Lock()
	s, err := j.active()
	j.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.DecryptRecords(records), nil
}

// AccountID returns the signed-in account id, or "" when signed out.
func (j *Journal) AccountID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.principal == nil {
		return ""
	}
	return j.principal.AccountID
}
