package models

import "time"

// Draft field keys used in DialogState.Tmp.
const (
	TmpAsset         = "asset"
	TmpTruckNumber   = "truckNumber"
	TmpTrailerNumber = "trailerNumber"
	TmpPairedTruck   = "pairedTruck"
	TmpRepairSide    = "repairSide"
	TmpProblem       = "problem"
	TmpPlan          = "plan"
	TmpReportedBy    = "reportedBy"
)

// DialogState is the transient per-user progress marker for an in-flight
// flow. It is persisted between turns and discarded on completion, cancel
// or idle expiry. Media message IDs collected during creation are kept
// separately from the string fields so they survive JSON round-trips
// without type juggling.
type DialogState struct {
	Step      string            `json:"step"` // e.g. "new:asset", "close:await_text"
	Tmp       map[string]string `json:"tmp"`
	MediaIDs  []int             `json:"mediaIds,omitempty"`
	ReportID  string            `json:"reportId,omitempty"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Expired reports whether the dialog has idled past its expiry instant.
// Expiry is checked on every read rather than trusting storage TTLs, so
// behavior is identical across backends.
func (d *DialogState) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

// InFlow reports whether the dialog step belongs to the named flow prefix
// ("new", "update", "close", "snooze").
func (d *DialogState) InFlow(flow string) bool {
	return len(d.Step) > len(flow) && d.Step[:len(flow)+1] == flow+":"
}
