// Package kv provides the key-value storage adapter used for all persistent
// state: reports, the open index, dialog states, and runtime settings.
// Keys are ordered tuples of segments; values are JSON-serializable.
package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no live entry exists for the key.
var ErrNotFound = errors.New("kv: not found")

// Key is an ordered tuple of path segments, e.g. {"report", "4542"}.
type Key []string

// K builds a Key from segments.
func K(segments ...string) Key {
	return Key(segments)
}

// String flattens the key into a slash-joined path. Segments must not
// contain slashes; callers control all segment values.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// Store is the storage adapter contract. Implementations must treat an
// expired entry as absent. A zero TTL means the entry does not expire.
type Store interface {
	// Get unmarshals the value at key into dest. Returns ErrNotFound when
	// the key is absent or expired.
	Get(ctx context.Context, key Key, dest interface{}) error

	// Set marshals value and writes it at key, overwriting any previous
	// entry. A positive ttl schedules expiry.
	Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error

	// Delete removes the entry at key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error
}

// Well-known key builders. Keeping them here prevents tuple drift between
// the store, the engine and the scheduler.

// ReportKey addresses a report record by id.
func ReportKey(id string) Key { return K("report", id) }

// OpenIndexKey addresses the open-report id list.
func OpenIndexKey() Key { return K("index", "open") }

// DialogKey addresses a user's dialog state.
func DialogKey(userID string) Key { return K("dialog", userID) }

// GroupChatKey addresses the linked announcement group id.
func GroupChatKey() Key { return K("group", "chat") }
