package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultNamespace scopes the entries of single user front ends
const DefaultNamespace = "default"

// LocalEntryModel is the Bun model for durable session entries.
type LocalEntryModel struct {
	bun.BaseModel `bun:"table:local_storage"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Namespace string    `bun:"namespace,notnull,unique:uq_local_storage_namespace_key"`
	Key       string    `bun:"storage_key,notnull,unique:uq_local_storage_namespace_key"`
	Value     string    `bun:"storage_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// LocalStore implements session.DurableStore on top of a Bun database.
// Entries are partitioned by namespace, one per browser session or CLI
// profile.
type LocalStore struct {
	db        bun.IDB
	namespace string
	now       func() time.Time
}

var _ session.DurableStore = (*LocalStore)(nil)

// NewLocalStore creates a store using the default namespace.
func NewLocalStore(db bun.IDB) *LocalStore {
	return &LocalStore{
		db:        db,
		namespace: DefaultNamespace,
		now:       time.Now,
	}
}

// EnsureSchema creates the local_storage table when missing.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*LocalEntryModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// WithNamespace returns a store sharing the database scoped to namespace.
func (s *LocalStore) WithNamespace(namespace string) *LocalStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &LocalStore{
		db:        s.db,
		namespace: namespace,
		now:       s.now,
	}
}

func (s *LocalStore) Namespace() string {
	return s.namespace
}

// Get implements session.DurableStore.
func (s *LocalStore) Get(ctx context.Context, key string) (string, bool, error) {
	var model LocalEntryModel
	err := s.db.NewSelect().
		Model(&model).
		Where("namespace = ? AND storage_key = ?", s.namespace, key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

// SetMany implements session.DurableStore. All values are written in a
// single transaction.
func (s *LocalStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	models := make([]*LocalEntryModel, 0, len(values))
	now := s.now().UTC()
	for key, value := range values {
		id, err := s.entryID(key)
		if err != nil {
			return err
		}
		models = append(models, &LocalEntryModel{
			ID:        id,
			Namespace: s.namespace,
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		})
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&models).
			On("CONFLICT (namespace, storage_key) DO UPDATE").
			Set("storage_value = EXCLUDED.storage_value").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

// Delete implements session.DurableStore.
func (s *LocalStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*LocalEntryModel)(nil)).
		Where("namespace = ?", s.namespace).
		Where("storage_key IN (?)", bun.In(keys)).
		Exec(ctx)
	return err
}

// Clear implements session.DurableStore. Only the store namespace is wiped.
func (s *LocalStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*LocalEntryModel)(nil)).
		Where("namespace = ?", s.namespace).
		Exec(ctx)
	return err
}

// Keys implements session.DurableStore.
func (s *LocalStore) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := s.db.NewSelect().
		Model((*LocalEntryModel)(nil)).
		Column("storage_key").
		Where("namespace = ?", s.namespace).
		Order("storage_key ASC").
		Scan(ctx, &keys)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Prune removes whole namespaces, across the database, whose newest entry
// was written before before. Namespaces with any recent write are kept
// intact so a live session never loses part of its keys.
func (s *LocalStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	stale := s.db.NewSelect().
		Model((*LocalEntryModel)(nil)).
		Column("namespace").
		Group("namespace").
		Having("MAX(updated_at) < ?", before.UTC())

	res, err := s.db.NewDelete().
		Model((*LocalEntryModel)(nil)).
		Where("namespace IN (?)", stale).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *LocalStore) entryID(key string) (uuid.UUID, error) {
	return hashid.NewUUID(s.namespace + ":" + key)
}
