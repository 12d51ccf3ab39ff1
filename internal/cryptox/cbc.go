package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// IVSize is the length of the CBC initialization vector prepended to every
// wrapped key and ciphertext.
const IVSize = aes.BlockSize

func checkKey(key []byte) error {
	if len(key) != common.KeySize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrInvalidInput, common.KeySize, len(key))
	}
	return nil
}

func pkcs7Pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 || len(b)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: bad block length", common.ErrDecryptionFailed)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize {
		return nil, fmt.Errorf("%w: bad padding", common.ErrDecryptionFailed)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", common.ErrDecryptionFailed)
		}
	}
	return b[:len(b)-n], nil
}

// sealCBC encrypts plaintext under key with a fresh IV and returns iv, ct.
func sealCBC(plaintext, key []byte) (iv, ct []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	iv = common.GenerateRandByteArray(IVSize)

	padded := pkcs7Pad(common.CloneBytes(plaintext))
	ct = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	common.WipeByteArray(padded)

	return iv, ct, nil
}

// openCBC reverses sealCBC. Every structural failure maps to ErrDecryptionFailed.
func openCBC(iv, ct, key []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: bad iv length", common.ErrDecryptionFailed)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: bad ciphertext length", common.ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)

	plain, err := pkcs7Unpad(out)
	if err != nil {
		common.WipeByteArray(out)
		return nil, err
	}
	return plain, nil
}
