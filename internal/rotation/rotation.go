// Package rotation changes an account password by re-wrapping its keys under
// a new KEK. Stored content is never re-encrypted: only the personal key
// wrapper in the profile and the shared key wrapper in the partner link change.
package rotation

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/accounts"
	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/cryptox"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/dmitrijs2005/pairjournal/internal/saga"
	"github.com/dmitrijs2005/pairjournal/internal/session"
	"golang.org/x/sync/errgroup"
)

// PasswordChanger is the part of the identity provider rotation depends on.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

type Rotator struct {
	repo     *accounts.Repository
	identity PasswordChanger
	logger   logging.Logger
	now      func() time.Time
}

func NewRotator(repo *accounts.Repository, identity PasswordChanger, l logging.Logger) *Rotator {
	return &Rotator{repo: repo, identity: identity, logger: l.With("module", "rotation"), now: time.Now}
}

// Rotate re-wraps the personal key and, when linked, the shared key of the
// session's account under a KEK derived from newPassword, then changes the
// password at the identity provider. Any failure after the first write is
// compensated so the account stays usable with oldPassword.
func (r *Rotator) Rotate(ctx context.Context, s *session.Context, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}
	if newPassword == oldPassword {
		return fmt.Errorf("%w: new password equals the old one", common.ErrInvalidInput)
	}

	id := s.AccountID()
	log := r.logger.With("account_id", id)

	oldKEK, newKEK, err := deriveBoth(ctx, oldPassword, newPassword, s.Email())
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrRotationFailed, err)
	}
	defer common.WipeByteArray(oldKEK)
	defer common.WipeByteArray(newKEK)

	profile, err := r.repo.GetProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: load profile: %w", common.ErrRotationFailed, err)
	}
	personal, err := r.checkPersonal(s, profile, oldKEK)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(personal)

	link, err := r.repo.GetPartnerLink(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: load partner link: %w", common.ErrRotationFailed, err)
	}
	var shared []byte
	if link != nil && !link.HalfFormed() {
		shared, err = cryptox.UnwrapKey(*link.WrappedSharedKey, oldKEK)
		if err != nil {
			return fmt.Errorf("%w: unwrap shared key: %w", common.ErrRotationFailed, err)
		}
		defer common.WipeByteArray(shared)
	}

	newPersonal, err := cryptox.WrapKey(personal, newKEK)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrRotationFailed, err)
	}

	tx := saga.New("rotate", log)
	fail := func(step string, err error) error {
		tx.Rollback(ctx, err)
		return fmt.Errorf("%w: %s: %w", common.ErrRotationFailed, step, err)
	}
	now := r.now().UTC()

	prevProfile := *profile
	rotated := *profile
	rotated.WrappedPersonalKey = newPersonal
	rotated.UpdatedAt = now
	if err := r.repo.PutProfile(ctx, &rotated); err != nil {
		return fail("write profile", err)
	}
	tx.OnFailure("restore profile", func(ctx context.Context) error {
		return r.repo.PutProfile(ctx, &prevProfile)
	})

	if shared != nil {
		newShared, err := cryptox.WrapKey(shared, newKEK)
		if err != nil {
			return fail("wrap shared key", err)
		}
		prevLink := *link
		next := *link
		next.WrappedSharedKey = &newShared
		next.UpdatedAt = now
		if err := r.repo.PutPartnerLink(ctx, id, &next); err != nil {
			return fail("write partner link", err)
		}
		tx.OnFailure("restore partner link", func(ctx context.Context) error {
			return r.repo.PutPartnerLink(ctx, id, &prevLink)
		})
	}

	if err := r.identity.ChangePassword(ctx, id, oldPassword, newPassword); err != nil {
		return fail("change password", err)
	}

	log.Info(ctx, "password rotated", "shared_key", shared != nil)
	return nil
}

// checkPersonal unwraps the stored personal key with kek and requires it to
// match the one loaded in s.
func (r *Rotator) checkPersonal(s *session.Context, profile *models.Profile, kek []byte) ([]byte, error) {
	live, err := s.Resolve(models.Personal)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRotationFailed, err)
	}
	defer common.WipeByteArray(live)

	personal, err := cryptox.UnwrapKey(profile.WrappedPersonalKey, kek)
	if err != nil {
		return nil, fmt.Errorf("%w: old password: %w", common.ErrRotationFailed, err)
	}
	if subtle.ConstantTimeCompare(personal, live) != 1 {
		common.WipeByteArray(personal)
		return nil, fmt.Errorf("%w: old password does not unlock the personal key", common.ErrRotationFailed)
	}
	return personal, nil
}

func deriveBoth(ctx context.Context, oldPassword, newPassword, email string) (oldKEK, newKEK []byte, err error) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		oldKEK, err = cryptox.DeriveKey(oldPassword, email)
		return err
	})
	g.Go(func() error {
		var err error
		newKEK, err = cryptox.DeriveKey(newPassword, email)
		return err
	})
	if err := g.Wait(); err != nil {
		common.WipeByteArray(oldKEK)
		common.WipeByteArray(newKEK)
		return nil, nil, err
	}
	return oldKEK, newKEK, nil
}
