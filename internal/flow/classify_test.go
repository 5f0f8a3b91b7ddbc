package flow

import (
	"testing"
	"time"

	"github.com/zulandar/fleetbot/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in          string
		wantControl Control
		wantText    string
	}{
		{"Cancel", ControlCancel, "Cancel"},
		{"cancel", ControlCancel, "cancel"},
		{"  Back to menu  ", ControlBack, "Back to menu"},
		{"Done", ControlDone, "Done"},
		{"Skip", ControlSkip, "Skip"},
		{"engine overheating", ControlNone, "engine overheating"},
		{"  trimmed  ", ControlNone, "trimmed"},
		{"", ControlNone, ""},
		{"done deal", ControlNone, "done deal"},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if got.Control != tc.wantControl {
			t.Errorf("Classify(%q).Control = %v, want %v", tc.in, got.Control, tc.wantControl)
		}
		if got.Text != tc.wantText {
			t.Errorf("Classify(%q).Text = %q, want %q", tc.in, got.Text, tc.wantText)
		}
	}
}

func TestParseAsset(t *testing.T) {
	cases := []struct {
		in     string
		want   models.Asset
		wantOK bool
	}{
		{"Truck", models.AssetTruck, true},
		{"truck 4542", models.AssetTruck, true},
		{"TRAILER", models.AssetTrailer, true},
		{"  trailer  ", models.AssetTrailer, true},
		{"van", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAsset(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseAsset(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"4h", 4 * time.Hour, true},
		{"2d", 48 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"12 h", 12 * time.Hour, true},
		{"  2H  ", 2 * time.Hour, true},
		{"4", 0, false},
		{"h", 0, false},
		{"4m", 0, false},
		{"four hours", 0, false},
		{"", 0, false},
		{"99999999999999999999h", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDuration(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseDuration(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
