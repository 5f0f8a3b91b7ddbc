// Package store owns report records and the open-report index.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/fleetbot/internal/kv"
	"github.com/zulandar/fleetbot/internal/models"
)

// ErrNotFound is returned by Get for an unknown report id.
var ErrNotFound = errors.New("store: report not found")

// ErrExists is returned by Create when the id is already taken.
var ErrExists = errors.New("store: report already exists")

// Store persists reports and the open index through the kv adapter.
type Store struct {
	kv kv.Store
}

// New creates a Store over the given kv backend.
func New(kvs kv.Store) (*Store, error) {
	if kvs == nil {
		return nil, fmt.Errorf("store: kv is required")
	}
	return &Store{kv: kvs}, nil
}

// Create writes a new report. The id must not already exist; AllocateID
// guarantees that at allocation time, this check catches misuse.
func (s *Store) Create(ctx context.Context, r *models.Report) error {
	if r.ID == "" {
		return fmt.Errorf("store: create: id is required")
	}
	var existing models.Report
	err := s.kv.Get(ctx, kv.ReportKey(r.ID), &existing)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrExists, r.ID)
	}
	if err != kv.ErrNotFound {
		return fmt.Errorf("store: create %s: %w", r.ID, err)
	}
	return s.Save(ctx, r)
}

// Get fetches a report by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	err := s.kv.Get(ctx, kv.ReportKey(id), &r)
	if err == kv.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return &r, nil
}

// Save writes a report record, overwriting any previous version.
func (s *Store) Save(ctx context.Context, r *models.Report) error {
	if err := s.kv.Set(ctx, kv.ReportKey(r.ID), r, 0); err != nil {
		return fmt.Errorf("store: save %s: %w", r.ID, err)
	}
	return nil
}

// OpenIndex returns the ids of reports considered active. The index may
// lag the records it points at; scheduler and listings re-fetch each
// report before acting on it.
func (s *Store) OpenIndex(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.kv.Get(ctx, kv.OpenIndexKey(), &ids)
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: open index: %w", err)
	}
	return ids, nil
}

// AddToOpenIndex inserts id into the open index with set semantics: adding
// a present id is a no-op. The read-modify-write window is an accepted
// race at this system's concurrency level.
func (s *Store) AddToOpenIndex(ctx context.Context, id string) error {
	ids, err := s.OpenIndex(ctx)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	if err := s.kv.Set(ctx, kv.OpenIndexKey(), ids, 0); err != nil {
		return fmt.Errorf("store: add to open index: %w", err)
	}
	return nil
}

// RemoveFromOpenIndex removes id from the open index. Removing an absent
// id is a no-op.
func (s *Store) RemoveFromOpenIndex(ctx context.Context, id string) error {
	ids, err := s.OpenIndex(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	if err := s.kv.Set(ctx, kv.OpenIndexKey(), kept, 0); err != nil {
		return fmt.Errorf("store: remove from open index: %w", err)
	}
	return nil
}
