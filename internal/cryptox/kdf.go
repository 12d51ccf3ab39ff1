package cryptox

import (
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// KDFIterations is the fixed PBKDF2 work factor. Every client must use the
// same value to derive the same KEK from the same password.
const KDFIterations = 100_000

// DeriveKey derives a 256-bit KEK from password and identitySalt.
//
// The salt is the normalized account email. The result is deterministic and
// never cached: each call pays the full work factor.
func DeriveKey(password, identitySalt string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}
	if identitySalt == "" {
		return nil, fmt.Errorf("%w: empty identity", common.ErrInvalidInput)
	}
	return pbkdf2.Key([]byte(password), []byte(identitySalt), KDFIterations, common.KeySize, sha256.New), nil
}

// GenerateKey returns a fresh random 256-bit data key.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(common.KeySize)
}
