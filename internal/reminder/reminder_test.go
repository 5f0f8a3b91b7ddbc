package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/kv"
	"github.com/zulandar/fleetbot/internal/models"
	"github.com/zulandar/fleetbot/internal/store"
)

var sweepEpoch = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, clock func() time.Time) (*Scheduler, *store.Store, *chat.MockAdapter) {
	t.Helper()
	kvs := kv.NewMemoryStore()
	st, err := store.New(kvs)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	adapter := chat.NewMockAdapter()
	sched, err := NewScheduler(SchedulerOpts{
		Store:   st,
		Adapter: adapter,
		Clock:   clock,
	})
	if err != nil {
		t.Fatalf("creating scheduler: %v", err)
	}
	return sched, st, adapter
}

func seedReport(t *testing.T, st *store.Store, r *models.Report) {
	t.Helper()
	ctx := context.Background()
	if err := st.Create(ctx, r); err != nil {
		t.Fatalf("seeding %s: %v", r.ID, err)
	}
	if err := st.AddToOpenIndex(ctx, r.ID); err != nil {
		t.Fatalf("indexing %s: %v", r.ID, err)
	}
}

func staleReport(id string) *models.Report {
	return &models.Report{
		ID:               id,
		Status:           models.StatusOpen,
		Asset:            models.AssetTruck,
		TruckNumber:      id,
		RepairSide:       models.AssetTruck,
		Problem:          "brakes dragging",
		Plan:             "shop visit",
		ReportedBy:       "Dispatch",
		ReportedByUserID: 700,
		CreatedAt:        sweepEpoch.Add(-3 * time.Hour),
		LastUpdateAt:     sweepEpoch.Add(-2 * time.Hour),
	}
}

func TestSweepEligibility(t *testing.T) {
	future := sweepEpoch.Add(4 * time.Hour)
	recent := sweepEpoch.Add(-10 * time.Minute)

	cases := []struct {
		name   string
		mutate func(r *models.Report)
		want   bool
	}{
		{"stale open report", func(r *models.Report) {}, true},
		{"closed report", func(r *models.Report) { r.Status = models.StatusClosed }, false},
		{"actively snoozed", func(r *models.Report) {
			r.Status = models.StatusSnoozed
			r.SnoozedUntil = &future
		}, false},
		{"snooze already lapsed", func(r *models.Report) {
			r.Status = models.StatusSnoozed
			past := sweepEpoch.Add(-time.Minute)
			r.SnoozedUntil = &past
		}, true},
		{"updated recently", func(r *models.Report) { r.LastUpdateAt = recent }, false},
		{"reminded recently", func(r *models.Report) { r.LastReminderAt = &recent }, false},
		{"no originating user", func(r *models.Report) { r.ReportedByUserID = 0 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched, st, adapter := newTestScheduler(t, func() time.Time { return sweepEpoch })
			r := staleReport("9001")
			tc.mutate(r)
			seedReport(t, st, r)

			summary, err := sched.Sweep(context.Background())
			if err != nil {
				t.Fatalf("sweep: %v", err)
			}
			if summary.Checked != 1 {
				t.Errorf("expected 1 checked, got %d", summary.Checked)
			}

			sent := adapter.Sent()
			if tc.want && len(sent) != 1 {
				t.Fatalf("expected a reminder, got %d messages", len(sent))
			}
			if !tc.want && len(sent) != 0 {
				t.Fatalf("expected no reminder, got %d messages", len(sent))
			}
			if tc.want {
				if sent[0].ChatID != 700 {
					t.Errorf("reminder went to chat %d, want 700", sent[0].ChatID)
				}
				if !strings.Contains(sent[0].Text, "Reminder for #9001") {
					t.Errorf("unexpected reminder text: %q", sent[0].Text)
				}
				if len(sent[0].Inline) == 0 {
					t.Errorf("reminder is missing its action keyboard")
				}
			}
		})
	}
}

func TestSweepStampsCooldown(t *testing.T) {
	sched, st, adapter := newTestScheduler(t, func() time.Time { return sweepEpoch })
	seedReport(t, st, staleReport("9002"))

	ctx := context.Background()
	first, err := sched.Sweep(ctx)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first.Sent != 1 {
		t.Fatalf("first sweep sent %d, want 1", first.Sent)
	}

	r, err := st.Get(ctx, "9002")
	if err != nil {
		t.Fatalf("reloading report: %v", err)
	}
	if r.LastReminderAt == nil || !r.LastReminderAt.Equal(sweepEpoch) {
		t.Errorf("cooldown stamp not written: %v", r.LastReminderAt)
	}

	// A second sweep inside the cooldown window sends nothing.
	second, err := sched.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.Sent != 0 {
		t.Errorf("second sweep sent %d, want 0", second.Sent)
	}
	if len(adapter.Sent()) != 1 {
		t.Errorf("expected exactly one reminder over both sweeps, got %d", len(adapter.Sent()))
	}
}

func TestSweepRemindsAgainAfterCooldown(t *testing.T) {
	now := sweepEpoch
	sched, st, adapter := newTestScheduler(t, func() time.Time { return now })
	seedReport(t, st, staleReport("9003"))

	ctx := context.Background()
	if _, err := sched.Sweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	now = now.Add(90 * time.Minute)
	summary, err := sched.Sweep(ctx)
	if err != nil {
		t.Fatalf("later sweep: %v", err)
	}
	if summary.Sent != 1 {
		t.Errorf("later sweep sent %d, want 1", summary.Sent)
	}
	if len(adapter.Sent()) != 2 {
		t.Errorf("expected two reminders, got %d", len(adapter.Sent()))
	}
}

func TestSweepSendFailureDoesNotStamp(t *testing.T) {
	sched, st, adapter := newTestScheduler(t, func() time.Time { return sweepEpoch })
	seedReport(t, st, staleReport("9004"))
	adapter.SendErr = errors.New("rate limited")

	ctx := context.Background()
	summary, err := sched.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if summary.Sent != 0 {
		t.Errorf("sent %d despite delivery failure, want 0", summary.Sent)
	}

	r, err := st.Get(ctx, "9004")
	if err != nil {
		t.Fatalf("reloading report: %v", err)
	}
	if r.LastReminderAt != nil {
		t.Errorf("cooldown stamped after a failed send")
	}

	// Delivery recovers; the next sweep retries the same report.
	adapter.SendErr = nil
	summary, err = sched.Sweep(ctx)
	if err != nil {
		t.Fatalf("retry sweep: %v", err)
	}
	if summary.Sent != 1 {
		t.Errorf("retry sweep sent %d, want 1", summary.Sent)
	}
}

func TestSweepSkipsDanglingIndexEntries(t *testing.T) {
	sched, st, _ := newTestScheduler(t, func() time.Time { return sweepEpoch })
	ctx := context.Background()

	seedReport(t, st, staleReport("9005"))
	// Index entry without a backing record.
	if err := st.AddToOpenIndex(ctx, "ghost"); err != nil {
		t.Fatalf("indexing ghost: %v", err)
	}

	summary, err := sched.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if summary.Checked != 2 {
		t.Errorf("checked %d, want 2", summary.Checked)
	}
	if summary.Sent != 1 {
		t.Errorf("sent %d, want 1", summary.Sent)
	}
}

func TestSweepEmptyIndex(t *testing.T) {
	sched, _, adapter := newTestScheduler(t, func() time.Time { return sweepEpoch })

	summary, err := sched.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if summary.Checked != 0 || summary.Sent != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(adapter.Sent()) != 0 {
		t.Errorf("messages sent on an empty index")
	}
}

func TestNewSchedulerValidation(t *testing.T) {
	st, _ := store.New(kv.NewMemoryStore())
	if _, err := NewScheduler(SchedulerOpts{Adapter: chat.NewMockAdapter()}); err == nil {
		t.Errorf("expected error without a store")
	}
	if _, err := NewScheduler(SchedulerOpts{Store: st}); err == nil {
		t.Errorf("expected error without an adapter")
	}
}
