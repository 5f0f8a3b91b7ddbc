package format

import (
	"testing"
	"time"

	"github.com/zulandar/fleetbot/internal/models"
)

func fixedReport() *models.Report {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Report{
		ID:           "4542",
		Status:       models.StatusOpen,
		Asset:        models.AssetTruck,
		TruckNumber:  "4542",
		RepairSide:   models.AssetTruck,
		Problem:      "brake fade",
		Plan:         "tow to shop",
		ReportedBy:   "Dan Miller",
		CreatedAt:    now,
		LastUpdateAt: now,
	}
}

func TestReportFixedLayout(t *testing.T) {
	want := "#4542 [OPEN]\n" +
		"Asset: Truck 4542\n" +
		"Repair side: Truck\n" +
		"Problem: brake fade\n" +
		"Plan: tow to shop\n" +
		"Reported by: Dan Miller"

	got := Report(fixedReport(), TagOpen)
	if got != want {
		t.Errorf("Report =\n%s\nwant\n%s", got, want)
	}

	// Stable: same input, same text.
	if again := Report(fixedReport(), TagOpen); again != got {
		t.Error("Report is not deterministic")
	}
}

func TestReportTrailerWithPairedTruck(t *testing.T) {
	r := &models.Report{
		ID:            "T-88",
		Asset:         models.AssetTrailer,
		TrailerNumber: "T-88",
		PairedTruck:   "4542",
		RepairSide:    models.AssetTrailer,
		Problem:       "door latch",
		Plan:          "replace latch",
		ReportedBy:    "Dan Miller",
	}
	got := Report(r, TagSnoozed)
	want := "#T-88 [SNOOZED]\n" +
		"Asset: Trailer T-88 (paired truck 4542)\n" +
		"Repair side: Trailer\n" +
		"Problem: door latch\n" +
		"Plan: replace latch\n" +
		"Reported by: Dan Miller"
	if got != want {
		t.Errorf("Report =\n%s\nwant\n%s", got, want)
	}
}

func TestDraftMediaCount(t *testing.T) {
	r := fixedReport()
	if got := Draft(r); got[len(got)-11:] != "Media: none" {
		t.Errorf("Draft without media ends with %q", got[len(got)-11:])
	}

	r.MediaMessageIDs = []int{101, 102, 103}
	got := Draft(r)
	want := "Asset: Truck 4542\n" +
		"Repair side: Truck\n" +
		"Problem: brake fade\n" +
		"Plan: tow to shop\n" +
		"Reported by: Dan Miller\n" +
		"Media: 3 file(s)"
	if got != want {
		t.Errorf("Draft =\n%s\nwant\n%s", got, want)
	}
}

func TestStatusTag(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{models.StatusOpen, TagOpen},
		{models.StatusClosed, TagClosed},
		{models.StatusSnoozed, TagSnoozed},
		{"", TagOpen},
	}
	for _, tc := range cases {
		if got := StatusTag(tc.status); got != tc.want {
			t.Errorf("StatusTag(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestAnnouncements(t *testing.T) {
	if got := Update("4542", "Waiting parts"); got != "#4542 [UPDATE]\nWaiting parts" {
		t.Errorf("Update = %q", got)
	}
	if got := Close("4542", "fixed"); got != "#4542 [CLOSED]\nResolution: fixed" {
		t.Errorf("Close = %q", got)
	}
	until := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	if got := Snooze("4542", until); got != "#4542 [SNOOZED] until 2025-06-01T14:00:00Z" {
		t.Errorf("Snooze = %q", got)
	}
}

func TestReminder(t *testing.T) {
	got := Reminder(fixedReport())
	want := "Reminder for #4542\n" +
		"Asset: Truck 4542\n" +
		"Problem: brake fade\n" +
		"Last update: 2025-06-01T12:00:00Z\n" +
		"\nNeed an update?"
	if got != want {
		t.Errorf("Reminder =\n%s\nwant\n%s", got, want)
	}
}

func TestHistory(t *testing.T) {
	if got := History(nil); got != "(no history)" {
		t.Errorf("empty history = %q", got)
	}
	at := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	entries := []models.HistoryEntry{
		{At: at, Kind: models.HistoryUpdate, Text: "Rolling"},
		{At: at.Add(time.Hour), Kind: models.HistoryClose, Text: "fixed"},
	}
	want := "2025-06-01T13:00:00Z  [update] Rolling\n" +
		"2025-06-01T14:00:00Z  [close] fixed"
	if got := History(entries); got != want {
		t.Errorf("History =\n%s\nwant\n%s", got, want)
	}
}
