package storage

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type kvEntry struct {
	Namespace string `gorm:"column:namespace;primaryKey;size:128"`
	Key       string `gorm:"column:entry_key;primaryKey;size:128"`
	Value     string `gorm:"column:entry_value;type:text"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQL is a gorm-backed Storage over the kv_entries table.
type SQL struct {
	db        *gorm.DB
	namespace string
}

// OpenSQLite opens (creating if needed) a SQLite database at path with a
// single connection, which serializes writers.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, unavailable(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, unavailable(err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewSQL migrates the kv_entries table and returns a store scoped to namespace.
func NewSQL(db *gorm.DB, namespace string) (*SQL, error) {
	if db == nil {
		return nil, errors.New("storage: nil gorm db")
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, unavailable(err)
	}
	return &SQL{db: db, namespace: normalizeNamespace(namespace)}, nil
}

// Get returns ErrNotFound for an absent key.
func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	return s.get(s.db.WithContext(ctx), key)
}

func (s *SQL) get(db *gorm.DB, key string) (string, error) {
	var e kvEntry
	err := db.Where("namespace = ? AND entry_key = ?", s.namespace, key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable(err)
	}
	return e.Value, nil
}

// Set upserts value under key.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	return s.put(s.db.WithContext(ctx), key, value)
}

func (s *SQL) put(db *gorm.DB, key, value string) error {
	e := kvEntry{Namespace: s.namespace, Key: key, Value: value, UpdatedAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&e).Error
	return unavailable(err)
}

// Remove deletes keys in one statement; absent keys are ignored.
func (s *SQL) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND entry_key IN ?", s.namespace, keys).
		Delete(&kvEntry{}).Error
	return unavailable(err)
}

// SetMulti upserts every pair in one transaction.
func (s *SQL) SetMulti(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range values {
			if err := s.put(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update runs fn inside a transaction. Errors returned by fn roll the
// transaction back and are passed through unchanged.
func (s *SQL) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, key)
		exists := true
		if errors.Is(err, ErrNotFound) {
			current, exists = "", false
		} else if err != nil {
			return err
		}

		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		return s.put(tx, key, next)
	})
}
