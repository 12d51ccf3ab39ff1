// Package session holds the per-login encryption state: the live personal key
// and, once a partner link resolves, the shared key. It is the only place the
// CRUD layer needs to encrypt or decrypt journal content.
package session

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/cryptox"
	"github.com/dmitrijs2005/pairjournal/internal/models"
)

// Context is the process-local encryption context of one signed-in account.
// It is safe for concurrent use. Keys are copied in and out; Clear zeroes the
// internal copies.
type Context struct {
	accountID string
	email     string

	mu          sync.RWMutex
	personalKey []byte
	sharedKey   []byte
	cleared     bool
}

// New creates an empty context for the given account.
func New(accountID, email string) *Context {
	return &Context{accountID: accountID, email: common.NormalizeEmail(email)}
}

func (c *Context) AccountID() string { return c.accountID }

// Email returns the normalized email, which is also the KDF salt.
func (c *Context) Email() string { return c.email }

// SetPersonalKey loads the unwrapped personal key.
func (c *Context) SetPersonalKey(key []byte) error {
	return c.set(&c.personalKey, key)
}

// SetSharedKey loads the shared key of a resolved partner link.
func (c *Context) SetSharedKey(key []byte) error {
	return c.set(&c.sharedKey, key)
}

func (c *Context) set(dst *[]byte, key []byte) error {
	if len(key) != common.KeySize {
		return fmt.Errorf("%w: key must be %d bytes", common.ErrInvalidInput, common.KeySize)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	common.WipeByteArray(*dst)
	*dst = common.CloneBytes(key)
	c.cleared = false
	return nil
}

// ClearSharedKey drops the shared key, e.g. after unlinking.
func (c *Context) ClearSharedKey() {
	c.mu.Lock()
	defer c.mu.Unlock()

	common.WipeByteArray(c.sharedKey)
	c.sharedKey = nil
}

func (c *Context) HasPersonalKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.personalKey != nil
}

func (c *Context) HasSharedKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sharedKey != nil
}

// Resolve returns a copy of the key that protects records of type t.
// The caller owns the copy and should wipe it after use.
func (c *Context) Resolve(t models.EncryptionType) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch t {
	case models.Personal:
		if c.personalKey == nil {
			return nil, fmt.Errorf("%w: personal key not loaded", common.ErrKeyNotAvailable)
		}
		return common.CloneBytes(c.personalKey), nil
	case models.Shared:
		if c.sharedKey == nil {
			return nil, fmt.Errorf("%w: no linked partner", common.ErrKeyNotAvailable)
		}
		return common.CloneBytes(c.sharedKey), nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, t)
}

// EncryptFor encrypts plaintext with the key selected by t.
func (c *Context) EncryptFor(t models.EncryptionType, plaintext string) (string, error) {
	key, err := c.Resolve(t)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	return cryptox.Encrypt(plaintext, key)
}

// DecryptFor decrypts ciphertext with the key selected by t.
func (c *Context) DecryptFor(t models.EncryptionType, ciphertext string) (string, error) {
	key, err := c.Resolve(t)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	return cryptox.Decrypt(ciphertext, key)
}

// Clear zeroes both keys. It is idempotent and should be called once when
// the session ends.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cleared {
		return
	}
	common.WipeByteArray(c.personalKey)
	common.WipeByteArray(c.sharedKey)
	c.personalKey = nil
	c.sharedKey = nil
	c.cleared = true
}
