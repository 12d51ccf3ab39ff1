package session

import (
	"errors"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/models"
)

// DecryptionPlaceholder replaces the text of a record that could not be
// decrypted when rendering lists.
const DecryptionPlaceholder = "[unable to decrypt this entry]"

// DecryptedRecord is the outcome of decrypting one EncryptedRecord.
// Err is set when Plaintext holds the placeholder.
type DecryptedRecord struct {
	ID        string
	Plaintext string
	Err       error
}

// DecryptRecords decrypts every record independently. A failure on one
// record (bad ciphertext, missing shared key) yields the placeholder for that
// record and never aborts the rest.
func (c *Context) DecryptRecords(records []models.EncryptedRecord) []DecryptedRecord {
	out := make([]DecryptedRecord, 0, len(records))
	for _, r := range records {
		text, err := c.DecryptFor(r.EncryptionType, r.Ciphertext)
		if err != nil {
			text = DecryptionPlaceholder
		}
		out = append(out, DecryptedRecord{ID: r.ID, Plaintext: text, Err: err})
	}
	return out
}

// Recoverable reports whether err is a per-record condition a list view
// should render as a placeholder rather than fail on.
func Recoverable(err error) bool {
	return errors.Is(err, common.ErrDecryptionFailed) || errors.Is(err, common.ErrKeyNotAvailable)
}
