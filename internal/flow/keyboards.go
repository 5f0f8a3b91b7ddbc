package flow

import (
	"github.com/zulandar/fleetbot/internal/chat"
)

// Top-level action captions shown on the main menu reply keyboard.
const (
	BtnNewReport    = "New report"
	BtnUpdateReport = "Update report"
	BtnCloseReport  = "Close report"
	BtnSnoozeReport = "Snooze report"
)

// Escape and control captions.
const (
	btnBackToMenu = "Back to menu"
	btnOtherType  = "Other (type)"
	btnCustomType = "Custom (type)"
	btnDone       = "Done"
	btnSkip       = "Skip"
)

// Quick-update canned phrases.
var quickUpdatePhrases = []string{"Rolling", "Waiting parts", "At shop"}

// Inline callback payloads.
const (
	cbNewPost   = "new:post"
	cbNewCancel = "new:cancel"

	cbRemUpdatePrefix = "rem:update:"
	cbRemSnoozePrefix = "rem:snooze2h:"
	cbRemClosePrefix  = "rem:close:"
	cbRemSkipPrefix   = "rem:skip:"
)

// MainMenu is the persistent action keyboard.
func MainMenu() [][]string {
	return [][]string{
		{BtnNewReport},
		{BtnUpdateReport, BtnCloseReport},
		{BtnSnoozeReport},
	}
}

// assetKeyboard offers the two unit types.
func assetKeyboard() [][]string {
	return [][]string{{"Truck", "Trailer"}}
}

// reporterKeyboard offers the default reporter plus a free-text escape.
func reporterKeyboard(defaultName string) [][]string {
	return [][]string{{defaultName}, {btnOtherType}}
}

// snoozeKeyboard offers canned durations plus the back escape.
func snoozeKeyboard() [][]string {
	return [][]string{{"2h", "4h", "1d"}, {btnBackToMenu}}
}

// quickUpdateKeyboard offers canned phrases, a free-text escape and the
// back escape.
func quickUpdateKeyboard() [][]string {
	return [][]string{
		{quickUpdatePhrases[0], quickUpdatePhrases[1]},
		{quickUpdatePhrases[2], btnCustomType},
		{btnBackToMenu},
	}
}

// mediaKeyboard ends media collection.
func mediaKeyboard() [][]string {
	return [][]string{{btnDone, btnSkip}}
}

// confirmKeyboard is the inline Post/Cancel pair on a draft preview.
func confirmKeyboard() [][]chat.Button {
	return [][]chat.Button{{
		{Text: "Post", Data: cbNewPost},
		{Text: "Cancel", Data: cbNewCancel},
	}}
}

// ReminderKeyboard builds the inline actions attached to a reminder DM.
// The scheduler sends it; callbacks are routed back through the engine.
func ReminderKeyboard(reportID string) [][]chat.Button {
	return [][]chat.Button{
		{
			{Text: "Update now", Data: cbRemUpdatePrefix + reportID},
			{Text: "Snooze 2h", Data: cbRemSnoozePrefix + reportID},
		},
		{
			{Text: "Close", Data: cbRemClosePrefix + reportID},
			{Text: "Skip", Data: cbRemSkipPrefix + reportID},
		},
	}
}

// isTopAction reports whether the caption names a top-level action.
func isTopAction(text string) bool {
	switch text {
	case BtnNewReport, BtnUpdateReport, BtnCloseReport, BtnSnoozeReport:
		return true
	}
	return false
}
