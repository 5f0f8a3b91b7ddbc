// Package reminder implements the periodic sweep that nudges reporters
// about stale open reports.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/flow"
	"github.com/zulandar/fleetbot/internal/format"
	"github.com/zulandar/fleetbot/internal/models"
	"github.com/zulandar/fleetbot/internal/store"
)

// DefaultMinAge is the minimum quiet time since the last update (and since
// the previous reminder) before a report is nudged.
const DefaultMinAge = time.Hour

// Summary reports one sweep's work.
type Summary struct {
	Checked int `json:"checked"`
	Sent    int `json:"sent"`
}

// Scheduler sweeps the open index and DMs reporters whose reports have
// gone quiet. Overlapping sweeps are tolerated: the cooldown stamp written
// by the first sweep excludes the report from the second, so at most one
// extra notification can slip through inside the read-then-write window.
type Scheduler struct {
	store   *store.Store
	adapter chat.Adapter
	minAge  time.Duration
	now     func() time.Time
}

// SchedulerOpts holds parameters for creating a Scheduler.
type SchedulerOpts struct {
	Store   *store.Store
	Adapter chat.Adapter
	MinAge  time.Duration // defaults to DefaultMinAge
	Clock   func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts SchedulerOpts) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("reminder: store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("reminder: adapter is required")
	}
	minAge := opts.MinAge
	if minAge <= 0 {
		minAge = DefaultMinAge
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		store:   opts.Store,
		adapter: opts.Adapter,
		minAge:  minAge,
		now:     now,
	}, nil
}

// Sweep walks the open index once. Send failures are logged and skipped
// without stamping the cooldown, so the report is retried next cycle; the
// rest of the sweep continues regardless.
func (s *Scheduler) Sweep(ctx context.Context) (Summary, error) {
	ids, err := s.store.OpenIndex(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Checked: len(ids)}
	now := s.now()

	for _, id := range ids {
		r, err := s.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return summary, err
		}

		if !eligible(r, now, s.minAge) {
			continue
		}

		msg := chat.OutboundMessage{
			ChatID: r.ReportedByUserID,
			Text:   format.Reminder(r),
			Inline: flow.ReminderKeyboard(r.ID),
		}
		if err := s.adapter.Send(ctx, msg); err != nil {
			log.Printf("reminder: send for #%s: %v", r.ID, err)
			continue
		}

		stamp := now
		r.LastReminderAt = &stamp
		if err := s.store.Save(ctx, r); err != nil {
			return summary, err
		}
		summary.Sent++
	}
	return summary, nil
}

// eligible applies the reminder criteria to one report.
func eligible(r *models.Report, now time.Time, minAge time.Duration) bool {
	if r.Status == models.StatusClosed {
		return false
	}
	if r.Snoozed(now) {
		return false
	}
	if now.Sub(r.LastUpdateAt) < minAge {
		return false
	}
	if r.LastReminderAt != nil && now.Sub(*r.LastReminderAt) < minAge {
		return false
	}
	// Reports without an originating user cannot be DMed; skip, not error.
	return r.ReportedByUserID != 0
}

// cronParser uses standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Run sweeps on the given cron schedule until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, cronExpr string) error {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("reminder: parse cron %q: %w", cronExpr, err)
	}

	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		summary, err := s.Sweep(ctx)
		if err != nil {
			log.Printf("reminder: sweep: %v", err)
			continue
		}
		log.Printf("reminder: sweep done checked=%d sent=%d", summary.Checked, summary.Sent)
	}
}
