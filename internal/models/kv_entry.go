package models

import "time"

// KVEntry is the row shape for the SQL-backed key-value store. Keys are
// flattened tuple paths ("report/4542", "dialog/12345"); values are JSON.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"type:blob"`
	ExpiresAt *time.Time
	UpdatedAt time.Time
}
