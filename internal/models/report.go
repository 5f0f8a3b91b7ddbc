package models

import "time"

// Report status values.
const (
	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusSnoozed = "snoozed"
)

// Asset identifies a fleet unit type.
type Asset string

const (
	AssetTruck   Asset = "Truck"
	AssetTrailer Asset = "Trailer"
)

// History entry kinds.
const (
	HistoryUpdate = "update"
	HistoryClose  = "close"
	HistorySnooze = "snooze"
)

// Report is a tracked repair incident.
type Report struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	Asset            Asset          `json:"asset"`
	TruckNumber      string         `json:"truckNumber,omitempty"`
	TrailerNumber    string         `json:"trailerNumber,omitempty"`
	PairedTruck      string         `json:"pairedTruck,omitempty"` // only when Asset is Trailer
	RepairSide       Asset          `json:"repairSide"`
	Problem          string         `json:"problem"`
	Plan             string         `json:"plan"`
	ReportedBy       string         `json:"reportedBy"`
	ReportedByUserID int64          `json:"reportedByUserId,omitempty"` // 0 means unknown; no DM reminders
	CreatedAt        time.Time      `json:"createdAt"`
	LastUpdateAt     time.Time      `json:"lastUpdateAt"`
	LastReminderAt   *time.Time     `json:"lastReminderAt,omitempty"`
	SnoozedUntil     *time.Time     `json:"snoozedUntil,omitempty"`
	History          []HistoryEntry `json:"history"`
	MediaMessageIDs  []int          `json:"mediaMessageIds,omitempty"`
}

// HistoryEntry is one append-only lifecycle record on a report.
type HistoryEntry struct {
	At   time.Time `json:"at"`
	By   int64     `json:"by,omitempty"`
	Text string    `json:"text"`
	Kind string    `json:"kind"`
}

// Snoozed reports whether the report is suppressed at the given instant.
func (r *Report) Snoozed(now time.Time) bool {
	return r.SnoozedUntil != nil && r.SnoozedUntil.After(now)
}
