package flow

import (
	"regexp"
	"strings"
	"time"

	"github.com/zulandar/fleetbot/internal/models"
)

// Control identifies a recognized control token inside otherwise free text.
type Control int

const (
	ControlNone Control = iota
	ControlCancel
	ControlBack
	ControlDone
	ControlSkip
)

// Input is the tagged result of classifying one text turn: a recognized
// control token, or plain text. Classification happens exactly once per
// turn so the step handlers never do their own magic-string matching.
// Text always carries the trimmed original, letting steps that do not
// honor a given control token fall back to treating it as text.
type Input struct {
	Control Control
	Text    string
}

// Classify reduces raw text to an Input.
func Classify(text string) Input {
	trimmed := strings.TrimSpace(text)
	in := Input{Text: trimmed}
	switch strings.ToLower(trimmed) {
	case "cancel":
		in.Control = ControlCancel
	case "back to menu":
		in.Control = ControlBack
	case "done":
		in.Control = ControlDone
	case "skip":
		in.Control = ControlSkip
	}
	return in
}

// ParseAsset matches a case-insensitive prefix against the unit types.
// Returns false for anything else.
func ParseAsset(s string) (models.Asset, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(t, "truck"):
		return models.AssetTruck, true
	case strings.HasPrefix(t, "trailer"):
		return models.AssetTrailer, true
	}
	return "", false
}

// durationRe matches "<int><h|d>" with optional whitespace between.
var durationRe = regexp.MustCompile(`^(\d+)\s*(h|d)$`)

// ParseDuration parses snooze duration expressions: "4h" is four hours,
// "2d" is two days. Anything else is a format error.
func ParseDuration(s string) (time.Duration, bool) {
	m := durationRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, false
	}
	var n int64
	for _, c := range m[1] {
		n = n*10 + int64(c-'0')
		if n > 1<<20 {
			return 0, false
		}
	}
	if m[2] == "h" {
		return time.Duration(n) * time.Hour, true
	}
	return time.Duration(n) * 24 * time.Hour, true
}
