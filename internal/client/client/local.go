package client

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/filex"
	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/keystore/sqlite"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
)

// Local keeps everything in-process: the key store is either memory or an
// SQLite file, and identity is a LocalProvider over the same store.
type Local struct {
	*identity.LocalProvider
	store keystore.Store
	db    *sql.DB
}

// NewLocal wires a LocalProvider over store. The caller owns store.
func NewLocal(store keystore.Store, secret []byte, tokenTTL time.Duration, l logging.Logger, opts ...identity.Option) *Local {
	return &Local{
		LocalProvider: identity.NewLocalProvider(store, secret, tokenTTL, l, opts...),
		store:         store,
	}
}

// InitLocal opens (creating and migrating if needed) the SQLite database at dsn.
func InitLocal(ctx context.Context, dsn string, secret []byte, tokenTTL time.Duration, l logging.Logger) (*Local, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	loc := NewLocal(sqlite.NewStore(db), secret, tokenTTL, l)
	loc.db = db
	return loc, nil
}

// StoreFor returns the shared store limited to what p may touch.
func (c *Local) StoreFor(p *identity.Principal) keystore.Store {
	return keystore.NewScoped(c.store, p.AccountID)
}

func (c *Local) SignOut() {}

func (c *Local) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
