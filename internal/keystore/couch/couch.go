// Package couch is a keystore.Store on a CouchDB database through kivik.
// Every path is one document holding the raw value; updates carry the
// current revision and are retried on conflict.
package couch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

const (
	docPrefix  = "kv:"
	maxRetries = 5
)

type document struct {
	ID        string    `json:"_id"`
	Rev       string    `json:"_rev,omitempty"`
	Value     []byte    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// collection is the slice of a kivik database the store needs.
type collection interface {
	Load(ctx context.Context, id string) (*document, error)
	Save(ctx context.Context, doc *document) error
	Remove(ctx context.Context, id, rev string) error
}

type kivikCollection struct {
	db *kivik.DB
}

func (c kivikCollection) Load(ctx context.Context, id string) (*document, error) {
	var d document
	if err := c.db.Get(ctx, id).ScanDoc(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c kivikCollection) Save(ctx context.Context, doc *document) error {
	_, err := c.db.Put(ctx, doc.ID, doc)
	return err
}

func (c kivikCollection) Remove(ctx context.Context, id, rev string) error {
	_, err := c.db.Delete(ctx, id, rev)
	return err
}

type Store struct {
	docs collection
	now  func() time.Time
}

func NewStore(db *kivik.DB) *Store {
	return newStore(kivikCollection{db: db})
}

func newStore(c collection) *Store {
	return &Store{docs: c, now: func() time.Time { return time.Now().UTC() }}
}

// Open connects to the CouchDB server at url and makes sure dbName exists.
// The returned client must be closed by the caller.
func Open(ctx context.Context, url, dbName string) (*Store, *kivik.Client, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to couchdb: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to create database: %w", err)
		}
	}
	return NewStore(client.DB(dbName)), client, nil
}

func docID(path string) string {
	return docPrefix + path
}

func isStatus(err error, code int) bool {
	return kivik.HTTPStatus(err) == code
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	if err := keystore.Validate(path); err != nil {
		return nil, err
	}
	d, err := s.docs.Load(ctx, docID(path))
	if isStatus(err, http.StatusNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	if d.Value == nil {
		return []byte{}, nil
	}
	return d.Value, nil
}

func (s *Store) Put(ctx context.Context, path string, value []byte) error {
	if err := keystore.Validate(path); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	id := docID(path)

	for attempt := 0; attempt < maxRetries; attempt++ {
		rev, err := s.currentRev(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to put %s: %w", path, err)
		}
		err = s.docs.Save(ctx, &document{ID: id, Rev: rev, Value: value, UpdatedAt: s.now()})
		if err == nil {
			return nil
		}
		if !isStatus(err, http.StatusConflict) {
			return fmt.Errorf("failed to put %s: %w", path, err)
		}
	}
	return fmt.Errorf("failed to put %s: %w", path, errConflict)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := keystore.Validate(path); err != nil {
		return err
	}
	id := docID(path)

	for attempt := 0; attempt < maxRetries; attempt++ {
		rev, err := s.currentRev(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		if rev == "" {
			return nil
		}
		err = s.docs.Remove(ctx, id, rev)
		switch {
		case err == nil, isStatus(err, http.StatusNotFound):
			return nil
		case !isStatus(err, http.StatusConflict):
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return fmt.Errorf("failed to delete %s: %w", path, errConflict)
}

var errConflict = errors.New("document update conflict")

// currentRev returns "" when the document does not exist.
func (s *Store) currentRev(ctx context.Context, id string) (string, error) {
	d, err := s.docs.Load(ctx, id)
	if isStatus(err, http.StatusNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Rev, nil
}
