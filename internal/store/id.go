package store

import (
	"context"
	"fmt"

	"github.com/zulandar/fleetbot/internal/kv"
	"github.com/zulandar/fleetbot/internal/models"
)

// unknownID is the sentinel base when a draft carries no usable unit number.
const unknownID = "unknown"

// BaseID derives the human-meaningful id base from the repair side: the
// number of the unit that was actually worked on. Field staff find reports
// by the asset tag they can see, so the id is that tag.
func BaseID(r *models.Report) string {
	if r.RepairSide == models.AssetTruck {
		for _, n := range []string{r.TruckNumber, r.PairedTruck, r.TrailerNumber} {
			if n != "" {
				return n
			}
		}
		return unknownID
	}
	if r.TrailerNumber != "" {
		return r.TrailerNumber
	}
	return unknownID
}

// AllocateID returns the first free id for the report: the base id, or the
// base suffixed with -2, -3, ... when taken. Allocation probes live records,
// so an id is never handed out while a report with that id exists.
func (s *Store) AllocateID(ctx context.Context, r *models.Report) (string, error) {
	base := BaseID(r)
	id := base
	for n := 2; ; n++ {
		var existing models.Report
		err := s.kv.Get(ctx, kv.ReportKey(id), &existing)
		if err == kv.ErrNotFound {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("store: allocate id %s: %w", id, err)
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}
