package cryptox

import (
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// Encrypt encrypts plaintext under key and returns the wire form
// base64(IV || ciphertext). A fresh IV is drawn on every call.
func Encrypt(plaintext string, key []byte) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	iv, ct, err := sealCBC([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return WrappedKey{IV: iv, Ciphertext: ct}.String(), nil
}

// Decrypt reverses Encrypt.
//
// Malformed input, padding mismatch and non-UTF-8 output all return an error
// wrapping ErrDecryptionFailed. Callers rendering lists are expected to
// substitute a placeholder for the failed record and carry on.
func Decrypt(ciphertext string, key []byte) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	iv, ct, err := splitBlob(ciphertext)
	if err != nil {
		return "", err
	}

	plain, err := openCBC(iv, ct, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		common.WipeByteArray(plain)
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", common.ErrDecryptionFailed)
	}
	return string(plain), nil
}
