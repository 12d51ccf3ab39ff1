package models

import (
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// EncryptionType selects which key protects a record.
type EncryptionType uint8

const (
	// Personal records are readable by their owner only.
	Personal EncryptionType = iota + 1
	// Shared records are readable by both linked partners.
	Shared
)

func (t EncryptionType) String() string {
	switch t {
	case Personal:
		return "personal"
	case Shared:
		return "shared"
	default:
		return fmt.Sprintf("EncryptionType(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the declared variants.
func (t EncryptionType) Valid() bool {
	return t == Personal || t == Shared
}

// ParseEncryptionType parses the storage form written by String.
func ParseEncryptionType(s string) (EncryptionType, error) {
	switch s {
	case "personal":
		return Personal, nil
	case "shared":
		return Shared, nil
	}
	return 0, fmt.Errorf("%w: unknown encryption type %q", common.ErrInvalidInput, s)
}

func (t EncryptionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, t)
	}
	return []byte(t.String()), nil
}

func (t *EncryptionType) UnmarshalText(b []byte) error {
	v, err := ParseEncryptionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// EncryptedRecord is the slice of a journal entry the key hierarchy cares
// about. Everything else belongs to the CRUD layer.
type EncryptedRecord struct {
	ID             string         `json:"id"`
	Ciphertext     string         `json:"ciphertext"`
	EncryptionType EncryptionType `json:"encryption_type"`
}
