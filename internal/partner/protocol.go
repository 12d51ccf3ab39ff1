package partner

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/accounts"
	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/cryptox"
	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/dmitrijs2005/pairjournal/internal/saga"
	"github.com/dmitrijs2005/pairjournal/internal/session"
)

// DefaultPendingTTL is how long an unaccepted invitation stays valid.
const DefaultPendingTTL = 7 * 24 * time.Hour

type Protocol struct {
	repo       *accounts.Repository
	logger     logging.Logger
	pendingTTL time.Duration
	now        func() time.Time
	invites    *keyedMutex
}

type Option func(*Protocol)

// WithPendingTTL sets the pending record lifetime. Zero disables expiry.
func WithPendingTTL(d time.Duration) Option {
	return func(p *Protocol) { p.pendingTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *Protocol) { p.now = now }
}

func NewProtocol(repo *accounts.Repository, l logging.Logger, opts ...Option) *Protocol {
	p := &Protocol{
		repo:       repo,
		logger:     l.With("module", "partner"),
		pendingTTL: DefaultPendingTTL,
		now:        time.Now,
		invites:    newKeyedMutex(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Invite links the owner of inviter with the account registered under
// inviteeEmail. On success the shared key is loaded into inviter; the invitee
// picks it up at its next Reconcile.
func (p *Protocol) Invite(ctx context.Context, inviter *session.Context, password, inviteeEmail string) error {
	if err := identity.ValidateEmail(inviteeEmail); err != nil {
		return err
	}
	inviteeEmail = common.NormalizeEmail(inviteeEmail)
	if inviteeEmail == inviter.Email() {
		return common.ErrSelfInvite
	}

	inviterID := inviter.AccountID()
	inviteeID, err := p.repo.LookupEmail(ctx, inviteeEmail)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrPartnerNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve invitee: %w", err)
	}
	if inviteeID == inviterID {
		return common.ErrSelfInvite
	}

	unlock := p.invites.Lock(inviteeID)
	defer unlock()

	kek, err := p.sessionKEK(ctx, inviter, password)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(kek)

	// accept anything addressed to us first so it cannot be clobbered later
	if _, err := p.reconcile(ctx, inviter, kek); err != nil {
		return err
	}

	sharedKey, prevOwn, err := p.prepareInviter(ctx, inviterID, inviteeID, kek)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(sharedKey)

	if err := p.prepareInvitee(ctx, inviterID, inviteeID); err != nil {
		return err
	}

	wrapped, err := cryptox.WrapKey(sharedKey, kek)
	if err != nil {
		return err
	}

	log := p.logger.With("inviter", inviterID, "invitee", inviteeID)
	tx := saga.New("invite", log)
	now := p.now().UTC()

	own := &models.PartnerLink{PartnerAccountID: inviteeID, WrappedSharedKey: &wrapped, UpdatedAt: now}
	if err := p.repo.PutPartnerLink(ctx, inviterID, own); err != nil {
		return fmt.Errorf("write inviter link: %w", err)
	}
	tx.OnFailure("restore inviter link", func(ctx context.Context) error {
		return p.repo.RestorePartnerLink(ctx, inviterID, prevOwn)
	})

	pending := &models.PendingSharedKey{
		RawSharedKey:     common.CloneBytes(sharedKey),
		InviterAccountID: inviterID,
		CreatedAt:        now,
	}
	err = p.repo.PutPending(ctx, inviteeID, pending)
	common.WipeByteArray(pending.RawSharedKey)
	if err != nil {
		tx.Rollback(ctx, err)
		return fmt.Errorf("write pending shared key: %w", err)
	}

	if err := p.writeStub(ctx, inviterID, inviteeID, now); err != nil {
		tx.Rollback(ctx, err)
		return fmt.Errorf("write invitee stub: %w", err)
	}

	if err := inviter.SetSharedKey(sharedKey); err != nil {
		return err
	}
	log.Info(ctx, "invitation sent")
	return nil
}

// prepareInviter checks the inviter's current link and returns the shared
// key to use along with the link value to restore on failure.
func (p *Protocol) prepareInviter(ctx context.Context, inviterID, inviteeID string, kek []byte) ([]byte, *models.PartnerLink, error) {
	own, err := p.repo.GetPartnerLink(ctx, inviterID)
	if err != nil {
		return nil, nil, err
	}
	if own == nil {
		return cryptox.GenerateKey(), nil, nil
	}

	full, err := p.linkedBack(ctx, inviterID, own)
	if err != nil {
		return nil, nil, err
	}
	if full {
		return nil, nil, common.ErrAlreadyLinked
	}

	if own.PartnerAccountID == inviteeID && !own.HalfFormed() {
		key, err := cryptox.UnwrapKey(*own.WrappedSharedKey, kek)
		if err != nil {
			return nil, nil, fmt.Errorf("unwrap existing shared key: %w", err)
		}
		p.logger.Info(ctx, "reusing shared key of unfinished invitation", "account_id", inviterID, "partner", inviteeID)
		return key, own, nil
	}

	p.logger.Warn(ctx, "replacing stale partner link", "account_id", inviterID, "partner", own.PartnerAccountID)
	return cryptox.GenerateKey(), own, nil
}

// prepareInvitee rejects an invitee who already has a partner and clears an
// unfinished link the invitee holds with someone else.
func (p *Protocol) prepareInvitee(ctx context.Context, inviterID, inviteeID string) error {
	theirs, err := p.repo.GetPartnerLink(ctx, inviteeID)
	if err != nil {
		return err
	}
	if theirs == nil || theirs.PartnerAccountID == inviterID {
		return nil
	}

	full, err := p.linkedBack(ctx, inviteeID, theirs)
	if err != nil {
		return err
	}
	if full {
		return common.ErrAlreadyLinked
	}

	p.logger.Warn(ctx, "clearing stale invitee link", "account_id", inviteeID, "partner", theirs.PartnerAccountID)
	return p.repo.DeletePartnerLink(ctx, inviteeID)
}

// writeStub marks the invitee as invited unless it has already completed the
// link on its own.
func (p *Protocol) writeStub(ctx context.Context, inviterID, inviteeID string, now time.Time) error {
	theirs, err := p.repo.GetPartnerLink(ctx, inviteeID)
	if err != nil {
		return err
	}
	if theirs != nil && theirs.PartnerAccountID == inviterID && !theirs.HalfFormed() {
		return nil
	}
	return p.repo.PutPartnerLink(ctx, inviteeID, &models.PartnerLink{PartnerAccountID: inviterID, UpdatedAt: now})
}

// linkedBack reports whether link (held by accountID) is one half of a fully
// formed pair.
func (p *Protocol) linkedBack(ctx context.Context, accountID string, link *models.PartnerLink) (bool, error) {
	if link.HalfFormed() {
		return false, nil
	}
	back, err := p.repo.GetPartnerLink(ctx, link.PartnerAccountID)
	if err != nil {
		return false, err
	}
	return back != nil && back.PartnerAccountID == accountID && !back.HalfFormed(), nil
}

// sessionKEK derives the KEK from password and checks that it unwraps the
// personal key already loaded in s.
func (p *Protocol) sessionKEK(ctx context.Context, s *session.Context, password string) ([]byte, error) {
	kek, err := cryptox.DeriveKey(password, s.Email())
	if err != nil {
		return nil, err
	}

	live, err := s.Resolve(models.Personal)
	if err != nil {
		common.WipeByteArray(kek)
		return nil, err
	}
	defer common.WipeByteArray(live)

	profile, err := p.repo.GetProfile(ctx, s.AccountID())
	if err != nil {
		common.WipeByteArray(kek)
		return nil, fmt.Errorf("load profile: %w", err)
	}
	personal, err := cryptox.UnwrapKey(profile.WrappedPersonalKey, kek)
	if err != nil {
		common.WipeByteArray(kek)
		return nil, err
	}
	defer common.WipeByteArray(personal)

	if subtle.ConstantTimeCompare(personal, live) != 1 {
		common.WipeByteArray(kek)
		return nil, fmt.Errorf("%w: password does not match the session", common.ErrDecryptionFailed)
	}
	return kek, nil
}

// Reconcile brings the account's side of the partner link up to date and
// loads the shared key into s when one is available. kek must be derived
// from the account's password. It runs on every login and is idempotent.
func (p *Protocol) Reconcile(ctx context.Context, s *session.Context, kek []byte) (State, error) {
	return p.reconcile(ctx, s, kek)
}

func (p *Protocol) reconcile(ctx context.Context, s *session.Context, kek []byte) (State, error) {
	id := s.AccountID()
	log := p.logger.With("account_id", id)

	pending, err := p.repo.GetPending(ctx, id)
	if err != nil {
		return Inconsistent, err
	}
	if pending != nil {
		valid, err := p.pendingValid(ctx, id, pending)
		if err != nil {
			return Inconsistent, err
		}
		if valid {
			return p.acceptPending(ctx, s, kek, pending)
		}

		log.Warn(ctx, "discarding stale invitation", "inviter", pending.InviterAccountID)
		if err := p.repo.DeletePending(ctx, id); err != nil {
			return Inconsistent, err
		}
		own, err := p.repo.GetPartnerLink(ctx, id)
		if err != nil {
			return Inconsistent, err
		}
		if own != nil && own.PartnerAccountID == pending.InviterAccountID && own.HalfFormed() {
			if err := p.repo.DeletePartnerLink(ctx, id); err != nil {
				return Inconsistent, err
			}
		}
	}

	own, err := p.repo.GetPartnerLink(ctx, id)
	if err != nil {
		return Inconsistent, err
	}
	if own == nil {
		s.ClearSharedKey()
		return Unlinked, nil
	}
	if own.HalfFormed() {
		log.Warn(ctx, "removing half-formed partner link", "partner", own.PartnerAccountID)
		if err := p.repo.DeletePartnerLink(ctx, id); err != nil {
			return Inconsistent, err
		}
		s.ClearSharedKey()
		return Unlinked, nil
	}

	back, err := p.repo.GetPartnerLink(ctx, own.PartnerAccountID)
	if err != nil {
		return Inconsistent, err
	}
	state := Invited
	switch {
	case back == nil || back.PartnerAccountID != id:
		// the partner moved on or never got the invitation
		log.Warn(ctx, "removing one-sided partner link", "partner", own.PartnerAccountID)
		if err := p.repo.DeletePartnerLink(ctx, id); err != nil {
			return Inconsistent, err
		}
		s.ClearSharedKey()
		return Unlinked, nil
	case !back.HalfFormed():
		state = Linked
	}

	key, err := cryptox.UnwrapKey(*own.WrappedSharedKey, kek)
	if err != nil {
		return Inconsistent, fmt.Errorf("unwrap shared key: %w", err)
	}
	defer common.WipeByteArray(key)
	if err := s.SetSharedKey(key); err != nil {
		return Inconsistent, err
	}
	return state, nil
}

func (p *Protocol) pendingValid(ctx context.Context, accountID string, pending *models.PendingSharedKey) (bool, error) {
	if len(pending.RawSharedKey) != common.KeySize || pending.InviterAccountID == "" {
		return false, nil
	}
	if p.pendingTTL > 0 && p.now().Sub(pending.CreatedAt) > p.pendingTTL {
		return false, nil
	}
	inviterLink, err := p.repo.GetPartnerLink(ctx, pending.InviterAccountID)
	if err != nil {
		return false, err
	}
	if inviterLink == nil || inviterLink.PartnerAccountID != accountID || inviterLink.HalfFormed() {
		return false, nil
	}

	// an existing pairing with someone else is never replaced by a pending key
	own, err := p.repo.GetPartnerLink(ctx, accountID)
	if err != nil {
		return false, err
	}
	if own != nil && own.PartnerAccountID != pending.InviterAccountID {
		full, err := p.linkedBack(ctx, accountID, own)
		if err != nil || full {
			return false, err
		}
	}
	return true, nil
}

// acceptPending stores the pending key under the account's own KEK. The
// pending record is deleted only after the own copy is written.
func (p *Protocol) acceptPending(ctx context.Context, s *session.Context, kek []byte, pending *models.PendingSharedKey) (State, error) {
	id := s.AccountID()
	key := pending.RawSharedKey
	defer common.WipeByteArray(key)

	wrapped, err := cryptox.WrapKey(key, kek)
	if err != nil {
		return Inconsistent, err
	}
	link := &models.PartnerLink{PartnerAccountID: pending.InviterAccountID, WrappedSharedKey: &wrapped, UpdatedAt: p.now().UTC()}
	if err := p.repo.PutPartnerLink(ctx, id, link); err != nil {
		return Inconsistent, fmt.Errorf("write own link: %w", err)
	}
	if err := p.repo.DeletePending(ctx, id); err != nil {
		return Inconsistent, err
	}
	if err := s.SetSharedKey(key); err != nil {
		return Inconsistent, err
	}

	p.logger.Info(ctx, "invitation accepted", "account_id", id, "inviter", pending.InviterAccountID)
	return Linked, nil
}

// Disconnect removes the link on both sides and drops the shared key from s.
// Records encrypted under the shared key become unreadable to both accounts.
func (p *Protocol) Disconnect(ctx context.Context, s *session.Context) error {
	id := s.AccountID()

	own, err := p.repo.GetPartnerLink(ctx, id)
	if err != nil {
		return err
	}
	if own == nil {
		return common.ErrNotLinked
	}

	theirs, err := p.repo.GetPartnerLink(ctx, own.PartnerAccountID)
	if err != nil {
		return err
	}
	if theirs != nil && theirs.PartnerAccountID == id {
		if err := p.repo.DeletePartnerLink(ctx, own.PartnerAccountID); err != nil {
			return fmt.Errorf("delete partner side: %w", err)
		}
	}
	if err := p.repo.DeletePartnerLink(ctx, id); err != nil {
		return err
	}
	s.ClearSharedKey()

	p.logger.Info(ctx, "partner disconnected", "account_id", id, "partner", own.PartnerAccountID)
	return nil
}

// State reports the relationship of accountID without changing anything,
// along with the partner's account id when there is one.
func (p *Protocol) State(ctx context.Context, accountID string) (State, string, error) {
	own, err := p.repo.GetPartnerLink(ctx, accountID)
	if err != nil {
		return Inconsistent, "", err
	}
	if own == nil {
		return Unlinked, "", nil
	}
	partnerID := own.PartnerAccountID

	if own.HalfFormed() {
		pending, err := p.repo.GetPending(ctx, accountID)
		if err != nil {
			return Inconsistent, partnerID, err
		}
		if pending != nil && pending.InviterAccountID == partnerID {
			return Invited, partnerID, nil
		}
		return Inconsistent, partnerID, nil
	}

	back, err := p.repo.GetPartnerLink(ctx, partnerID)
	if err != nil {
		return Inconsistent, partnerID, err
	}
	switch {
	case back == nil || back.PartnerAccountID != accountID:
		return Inconsistent, partnerID, nil
	case back.HalfFormed():
		return Invited, partnerID, nil
	}
	return Linked, partnerID, nil
}
