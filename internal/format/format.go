// Package format renders reports and drafts to the fixed text layout used
// for previews, group announcements and reminders. All functions are pure
// so output can be asserted by string comparison.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/fleetbot/internal/models"
)

// Lifecycle tags for announcements.
const (
	TagOpen    = "OPEN"
	TagUpdate  = "UPDATE"
	TagClosed  = "CLOSED"
	TagSnoozed = "SNOOZED"
)

// StatusTag maps a report status to its announcement tag.
func StatusTag(status string) string {
	switch status {
	case models.StatusClosed:
		return TagClosed
	case models.StatusSnoozed:
		return TagSnoozed
	default:
		return TagOpen
	}
}

// assetLine renders the reported unit with its numbers.
func assetLine(r *models.Report) string {
	if r.Asset == models.AssetTruck {
		return fmt.Sprintf("Truck %s", orUnknown(r.TruckNumber))
	}
	line := fmt.Sprintf("Trailer %s", orUnknown(r.TrailerNumber))
	if r.PairedTruck != "" {
		line += fmt.Sprintf(" (paired truck %s)", r.PairedTruck)
	}
	return line
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// Report renders a report with its id header and lifecycle tag.
func Report(r *models.Report, tag string) string {
	parts := []string{
		fmt.Sprintf("#%s [%s]", r.ID, tag),
		fmt.Sprintf("Asset: %s", assetLine(r)),
		fmt.Sprintf("Repair side: %s", r.RepairSide),
		fmt.Sprintf("Problem: %s", r.Problem),
		fmt.Sprintf("Plan: %s", r.Plan),
		fmt.Sprintf("Reported by: %s", r.ReportedBy),
	}
	return strings.Join(parts, "\n")
}

// Draft renders an unconfirmed draft for preview: no id header, plus a
// media count line.
func Draft(r *models.Report) string {
	medias := "Media: none"
	if n := len(r.MediaMessageIDs); n > 0 {
		medias = fmt.Sprintf("Media: %d file(s)", n)
	}
	parts := []string{
		fmt.Sprintf("Asset: %s", assetLine(r)),
		fmt.Sprintf("Repair side: %s", r.RepairSide),
		fmt.Sprintf("Problem: %s", r.Problem),
		fmt.Sprintf("Plan: %s", r.Plan),
		fmt.Sprintf("Reported by: %s", r.ReportedBy),
		medias,
	}
	return strings.Join(parts, "\n")
}

// Reminder renders the DM nudge sent by the scheduler.
func Reminder(r *models.Report) string {
	asset := assetLine(r)
	return fmt.Sprintf("Reminder for #%s\nAsset: %s\nProblem: %s\nLast update: %s\n\nNeed an update?",
		r.ID, asset, r.Problem, r.LastUpdateAt.UTC().Format(time.RFC3339))
}

// Update renders an update announcement.
func Update(id, text string) string {
	return fmt.Sprintf("#%s [%s]\n%s", id, TagUpdate, text)
}

// Close renders a close announcement.
func Close(id, resolution string) string {
	return fmt.Sprintf("#%s [%s]\nResolution: %s", id, TagClosed, resolution)
}

// Snooze renders a snooze announcement.
func Snooze(id string, until time.Time) string {
	return fmt.Sprintf("#%s [%s] until %s", id, TagSnoozed, until.UTC().Format(time.RFC3339))
}

// History renders the append-only history for CLI inspection.
func History(entries []models.HistoryEntry) string {
	if len(entries) == 0 {
		return "(no history)"
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  [%s] %s", e.At.UTC().Format(time.RFC3339), e.Kind, e.Text)
	}
	return b.String()
}
