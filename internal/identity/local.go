package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// LocalProvider is a Provider backed by a key store. It must be given the
// unscoped store: credentials and the email index are outside every
// account's subtree.
type LocalProvider struct {
	store     keystore.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	cost      int
	logger    logging.Logger

	// serializes Register so two signups cannot claim the same email
	mu sync.Mutex
}

// Option customizes a LocalProvider.
type Option func(*LocalProvider)

// WithBcryptCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(p *LocalProvider) { p.cost = cost }
}

func NewLocalProvider(store keystore.Store, secret []byte, tokenTTL time.Duration, l logging.Logger, opts ...Option) *LocalProvider {
	p := &LocalProvider{
		store:     store,
		jwtSecret: secret,
		tokenTTL:  tokenTTL,
		cost:      bcryptCost,
		logger:    l.With("module", "identity"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *LocalProvider) Register(ctx context.Context, email, password string) (string, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return "", err
	}
	email = common.NormalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.store.Get(ctx, keystore.EmailPath(email))
	switch {
	case err == nil:
		return "", common.ErrAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return "", fmt.Errorf("email lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	cred := &models.Credential{AccountID: id, Email: email, PasswordHash: hash, UpdatedAt: time.Now().UTC()}

	write := func(ctx context.Context, s keystore.Store) error {
		if err := putJSON(ctx, s, keystore.CredentialPath(id), cred); err != nil {
			return err
		}
		// the index goes last: a half-registered account is unreachable by email
		return putJSON(ctx, s, keystore.EmailPath(email), &models.EmailIndex{AccountID: id})
	}
	if tx, ok := p.store.(keystore.Transactor); ok {
		err = tx.InTx(ctx, write)
	} else {
		err = write(ctx, p.store)
	}
	if err != nil {
		return "", err
	}

	p.logger.Info(ctx, "account registered", "account_id", id)
	return id, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	email = common.NormalizeEmail(email)

	idx := &models.EmailIndex{}
	if err := p.getJSON(ctx, keystore.EmailPath(email), idx); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	cred, err := p.credential(ctx, idx.AccountID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	token, err := GenerateToken(cred.AccountID, p.jwtSecret, p.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Principal{AccountID: cred.AccountID, Email: cred.Email, AccessToken: token}, nil
}

func (p *LocalProvider) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}

	cred, err := p.credential(ctx, accountID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(oldPassword)) != nil {
		return common.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	cred.PasswordHash = hash
	cred.UpdatedAt = time.Now().UTC()

	if err := p.putJSON(ctx, keystore.CredentialPath(accountID), cred); err != nil {
		return err
	}
	p.logger.Info(ctx, "password changed", "account_id", accountID)
	return nil
}

// VerifyToken returns the account id an access token was issued to.
func (p *LocalProvider) VerifyToken(token string) (string, error) {
	return GetAccountIDFromToken(token, p.jwtSecret)
}

func (p *LocalProvider) credential(ctx context.Context, accountID string) (*models.Credential, error) {
	cred := &models.Credential{}
	if err := p.getJSON(ctx, keystore.CredentialPath(accountID), cred); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return cred, nil
}

func (p *LocalProvider) getJSON(ctx context.Context, path string, v any) error {
	raw, err := p.store.Get(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (p *LocalProvider) putJSON(ctx context.Context, path string, v any) error {
	return putJSON(ctx, p.store, path, v)
}

func putJSON(ctx context.Context, s keystore.Store, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, path, raw); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}
