package kv

import (
	"context"
	"testing"
	"time"

	"github.com/zulandar/fleetbot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("new gorm store: %v", err)
	}
	return store
}

func TestKeyString(t *testing.T) {
	cases := []struct {
		key  Key
		want string
	}{
		{K("report", "4542"), "report/4542"},
		{K("index", "open"), "index/open"},
		{K("dialog", "99"), "dialog/99"},
	}
	for _, tc := range cases {
		if got := tc.key.String(); got != tc.want {
			t.Errorf("Key%v.String() = %q, want %q", tc.key, got, tc.want)
		}
	}
}

// stores exercised by the shared contract tests.
func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   openTestGormStore(t),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			in := map[string]string{"problem": "brake fade"}
			if err := store.Set(ctx, K("report", "4542"), in, 0); err != nil {
				t.Fatalf("set: %v", err)
			}

			var out map[string]string
			if err := store.Get(ctx, K("report", "4542"), &out); err != nil {
				t.Fatalf("get: %v", err)
			}
			if out["problem"] != "brake fade" {
				t.Errorf("round trip value = %v", out)
			}
		})
	}
}

func TestStore_GetAbsent(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			var out string
			if err := store.Get(ctx, K("missing"), &out); err != ErrNotFound {
				t.Errorf("get absent = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, K("k"), "first", 0); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Set(ctx, K("k"), "second", 0); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			var out string
			if err := store.Get(ctx, K("k"), &out); err != nil {
				t.Fatalf("get: %v", err)
			}
			if out != "second" {
				t.Errorf("value = %q, want second", out)
			}
		})
	}
}

func TestStore_DeleteAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Delete(ctx, K("nope")); err != nil {
				t.Errorf("delete absent = %v, want nil", err)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, K("k"), 1, 0); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Delete(ctx, K("k")); err != nil {
				t.Fatalf("delete: %v", err)
			}
			var out int
			if err := store.Get(ctx, K("k"), &out); err != ErrNotFound {
				t.Errorf("get after delete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	if err := store.Set(ctx, K("dialog", "1"), "state", 30*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out string
	if err := store.Get(ctx, K("dialog", "1"), &out); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	now = now.Add(31 * time.Minute)
	if err := store.Get(ctx, K("dialog", "1"), &out); err != ErrNotFound {
		t.Errorf("get after expiry = %v, want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired entry not reaped, len = %d", store.Len())
	}
}
