package cryptox

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// WrappedKey is a data key encrypted under a KEK.
//
// Its serialized form is base64(IV || ciphertext). It marshals to and from
// that string through encoding.TextMarshaler, so it can be embedded directly
// in JSON records.
type WrappedKey struct {
	IV         []byte
	Ciphertext []byte
}

// String returns the wire form of w.
func (w WrappedKey) String() string {
	buf := make([]byte, 0, len(w.IV)+len(w.Ciphertext))
	buf = append(buf, w.IV...)
	buf = append(buf, w.Ciphertext...)
	return base64.StdEncoding.EncodeToString(buf)
}

// ParseWrappedKey decodes the wire form produced by WrappedKey.String.
func ParseWrappedKey(s string) (WrappedKey, error) {
	iv, ct, err := splitBlob(s)
	if err != nil {
		return WrappedKey{}, err
	}
	return WrappedKey{IV: iv, Ciphertext: ct}, nil
}

func (w WrappedKey) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WrappedKey) UnmarshalText(text []byte) error {
	parsed, err := ParseWrappedKey(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// IsZero reports whether w carries no key material.
func (w WrappedKey) IsZero() bool {
	return len(w.IV) == 0 && len(w.Ciphertext) == 0
}

// WrapKey encrypts dataKey under kek.
func WrapKey(dataKey, kek []byte) (WrappedKey, error) {
	if err := checkKey(dataKey); err != nil {
		return WrappedKey{}, err
	}
	if err := checkKey(kek); err != nil {
		return WrappedKey{}, err
	}

	iv, ct, err := sealCBC(dataKey, kek)
	if err != nil {
		return WrappedKey{}, err
	}
	return WrappedKey{IV: iv, Ciphertext: ct}, nil
}

// UnwrapKey decrypts w under kek.
//
// A nil error does not prove kek is correct. Padding failures and results
// that are not exactly one key long return ErrDecryptionFailed; any other
// wrong-key result is only caught when the returned key is used with Decrypt.
func UnwrapKey(w WrappedKey, kek []byte) ([]byte, error) {
	if err := checkKey(kek); err != nil {
		return nil, err
	}

	key, err := openCBC(w.IV, w.Ciphertext, kek)
	if err != nil {
		return nil, err
	}
	if len(key) != common.KeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("%w: unwrapped key has wrong length", common.ErrDecryptionFailed)
	}
	return key, nil
}

func splitBlob(s string) (iv, ct []byte, err error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid encoding", common.ErrDecryptionFailed)
	}
	if len(raw) < IVSize {
		return nil, nil, fmt.Errorf("%w: input too short", common.ErrDecryptionFailed)
	}
	return raw[:IVSize], raw[IVSize:], nil
}
