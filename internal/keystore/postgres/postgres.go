// Package postgres is a keystore.Store on PostgreSQL (pgx driver). The schema
// is a single key_values table managed by goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/dbx"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Store struct {
	db dbx.DBTX
}

func NewStore(db dbx.DBTX) *Store {
	return &Store{db: db}
}

// InTx runs fn against a store bound to one transaction. A store that is
// already bound to a transaction runs fn directly.
func (s *Store) InTx(ctx context.Context, fn func(context.Context, keystore.Store) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewStore(tx))
	})
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	if err := keystore.Validate(path); err != nil {
		return nil, err
	}

	query :=
		`SELECT value FROM key_values
		 WHERE path = $1
		 `

	var value []byte
	err := s.db.QueryRowContext(ctx, query, path).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, path string, value []byte) error {
	if err := keystore.Validate(path); err != nil {
		return err
	}

	query :=
		`INSERT INTO key_values (path, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		 `

	if _, err := s.db.ExecContext(ctx, query, path, value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := keystore.Validate(path); err != nil {
		return err
	}

	query :=
		`DELETE FROM key_values
		 WHERE path = $1
		 `

	if _, err := s.db.ExecContext(ctx, query, path); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
