package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zulandar/fleetbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is a Store backed by a SQL database through GORM (SQLite for
// single-host deployments, MySQL-compatible servers otherwise).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM connection. The KVEntry table must
// already be migrated (see db.AutoMigrate).
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("kv: gorm store: db is required")
	}
	return &GormStore{db: db}, nil
}

// Get implements Store. Expired rows are treated as absent and reaped
// opportunistically.
func (s *GormStore) Get(ctx context.Context, key Key, dest interface{}) error {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).First(&entry, "`key` = ?", key.String()).Error
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("kv: get %s: %w", key, err)
	}
	if entry.ExpiresAt != nil && !time.Now().Before(*entry.ExpiresAt) {
		s.db.WithContext(ctx).Delete(&models.KVEntry{}, "`key` = ?", key.String())
		return ErrNotFound
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// Set implements Store as an upsert.
func (s *GormStore) Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	entry := models.KVEntry{Key: key.String(), Value: data}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		entry.ExpiresAt = &exp
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, key Key) error {
	err := s.db.WithContext(ctx).Delete(&models.KVEntry{}, "`key` = ?", key.String()).Error
	if err != nil {
		return fmt.Errorf("kv: delete %s: %w", key, err)
	}
	return nil
}
