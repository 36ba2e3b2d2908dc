package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Manager owns the database backing the durable session stores.
type Manager struct {
	db    *bun.DB
	local *LocalStore
}

// Open connects to the sqlite database at dsn and makes sure the schema
// exists.
func Open(ctx context.Context, dsn string) (*Manager, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewManager(db), nil
}

func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:    db,
		local: NewLocalStore(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}

	if m.local == nil {
		return errors.New("repository local store should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *Manager) DB() *bun.DB {
	return m.db
}

// LocalStore returns the durable store for namespace
func (m *Manager) LocalStore(namespace string) *LocalStore {
	return m.local.WithNamespace(namespace)
}

func (m *Manager) Close() error {
	return m.db.Close()
}
