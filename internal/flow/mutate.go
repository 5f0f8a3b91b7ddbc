package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/format"
	"github.com/zulandar/fleetbot/internal/models"
	"github.com/zulandar/fleetbot/internal/store"
)

// errReportGone signals that a referenced report id does not exist; the
// active flow aborts and the user is told, it is not a process failure.
var errReportGone = errors.New("flow: report not found")

// continueUpdate advances the update flow by one text turn.
func (e *Engine) continueUpdate(ctx context.Context, ev chat.InboundEvent, state *models.DialogState, text string) error {
	in := Classify(text)

	switch state.Step {
	case stepUpdateReportID:
		if in.Control == ControlBack {
			return e.cancelToMenu(ctx, ev)
		}
		if in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.ReportID = in.Text
		state.Step = stepUpdateQuickOrText
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.send(ctx, chat.OutboundMessage{
			ChatID:   ev.ChatID,
			Text:     fmt.Sprintf("Update for #%s: choose or type", state.ReportID),
			Keyboard: quickUpdateKeyboard(),
		})

	case stepUpdateQuickOrText:
		if in.Control == ControlBack {
			return e.cancelToMenu(ctx, ev)
		}
		if in.Text == btnCustomType {
			state.Step = stepUpdateText
			if err := e.setDialog(ctx, ev.UserID, state); err != nil {
				return err
			}
			return e.prompt(ctx, ev.ChatID, state)
		}
		if in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		return e.applyUpdate(ctx, ev, state.ReportID, in.Text)

	case stepUpdateText:
		if in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		return e.applyUpdate(ctx, ev, state.ReportID, in.Text)
	}
	return e.prompt(ctx, ev.ChatID, state)
}

// continueClose advances the close flow by one text turn.
func (e *Engine) continueClose(ctx context.Context, ev chat.InboundEvent, state *models.DialogState, text string) error {
	in := Classify(text)

	switch state.Step {
	case stepCloseReportID:
		if in.Control == ControlBack {
			return e.cancelToMenu(ctx, ev)
		}
		if in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.ReportID = in.Text
		state.Step = stepCloseAwaitText
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.send(ctx, chat.OutboundMessage{
			ChatID:   ev.ChatID,
			Text:     fmt.Sprintf("Close #%s: resolution", state.ReportID),
			Keyboard: MainMenu(),
		})

	case stepCloseAwaitText:
		if in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		return e.applyClose(ctx, ev, state.ReportID, in.Text)
	}
	return e.prompt(ctx, ev.ChatID, state)
}

// continueSnooze advances the snooze flow by one text turn.
func (e *Engine) continueSnooze(ctx context.Context, ev chat.InboundEvent, state *models.DialogState, text string) error {
	in := Classify(text)

	switch state.Step {
	case stepSnoozeReportID:
		if in.Control == ControlBack {
			return e.cancelToMenu(ctx, ev)
		}
		if in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.ReportID = in.Text
		state.Step = stepSnoozeAwaitDur
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.send(ctx, chat.OutboundMessage{
			ChatID:   ev.ChatID,
			Text:     "Duration? Tap one or type like 4h/2d",
			Keyboard: snoozeKeyboard(),
		})

	case stepSnoozeAwaitDur:
		if in.Control == ControlBack {
			return e.cancelToMenu(ctx, ev)
		}
		dur, ok := ParseDuration(in.Text)
		if !ok {
			// Format error: stay on this step.
			return e.prompt(ctx, ev.ChatID, state)
		}
		id := state.ReportID
		err := e.applySnooze(ctx, ev.UserID, id, dur)
		if err == errReportGone {
			if clearErr := e.clearDialog(ctx, ev.UserID); clearErr != nil {
				return clearErr
			}
			return e.sendMenu(ctx, ev.ChatID, "Report not found")
		}
		if err != nil {
			return err
		}
		if err := e.clearDialog(ctx, ev.UserID); err != nil {
			return err
		}
		return e.sendMenu(ctx, ev.ChatID, fmt.Sprintf("Snoozed #%s", id))
	}
	return e.prompt(ctx, ev.ChatID, state)
}

// applyUpdate appends an update entry, re-opens the report and announces.
// Re-adding to the open index covers reports that were snoozed or closed
// and are now active again.
func (e *Engine) applyUpdate(ctx context.Context, ev chat.InboundEvent, id, text string) error {
	r, err := e.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if clearErr := e.clearDialog(ctx, ev.UserID); clearErr != nil {
			return clearErr
		}
		return e.sendMenu(ctx, ev.ChatID, "Report not found")
	}
	if err != nil {
		return err
	}

	now := e.now()
	r.Status = models.StatusOpen
	r.SnoozedUntil = nil
	r.LastUpdateAt = now
	r.History = append(r.History, models.HistoryEntry{At: now, By: ev.UserID, Text: text, Kind: models.HistoryUpdate})

	if err := e.store.Save(ctx, r); err != nil {
		return err
	}
	if err := e.store.AddToOpenIndex(ctx, id); err != nil {
		return err
	}
	if err := e.clearDialog(ctx, ev.UserID); err != nil {
		return err
	}

	e.sendMenu(ctx, ev.ChatID, fmt.Sprintf("Updated #%s", id))
	e.announce(ctx, format.Update(id, text))
	return nil
}

// applyClose appends a close entry, drops the report from the open index
// and announces the resolution.
func (e *Engine) applyClose(ctx context.Context, ev chat.InboundEvent, id, resolution string) error {
	r, err := e.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if clearErr := e.clearDialog(ctx, ev.UserID); clearErr != nil {
			return clearErr
		}
		return e.sendMenu(ctx, ev.ChatID, "Report not found")
	}
	if err != nil {
		return err
	}

	now := e.now()
	r.Status = models.StatusClosed
	r.SnoozedUntil = nil
	r.LastUpdateAt = now
	r.History = append(r.History, models.HistoryEntry{At: now, By: ev.UserID, Text: resolution, Kind: models.HistoryClose})

	if err := e.store.Save(ctx, r); err != nil {
		return err
	}
	if err := e.store.RemoveFromOpenIndex(ctx, id); err != nil {
		return err
	}
	if err := e.clearDialog(ctx, ev.UserID); err != nil {
		return err
	}

	e.sendMenu(ctx, ev.ChatID, fmt.Sprintf("Closed #%s", id))
	e.announce(ctx, format.Close(id, resolution))
	return nil
}

// applySnooze suppresses a report for the given duration. Snoozed reports
// stay in the open index; the scheduler skips them until the timer elapses.
func (e *Engine) applySnooze(ctx context.Context, by int64, id string, dur time.Duration) error {
	r, err := e.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errReportGone
	}
	if err != nil {
		return err
	}

	now := e.now()
	until := now.Add(dur)
	r.Status = models.StatusSnoozed
	r.SnoozedUntil = &until
	r.History = append(r.History, models.HistoryEntry{
		At:   now,
		By:   by,
		Text: fmt.Sprintf("snoozed %dh", int(dur.Hours())),
		Kind: models.HistorySnooze,
	})

	if err := e.store.Save(ctx, r); err != nil {
		return err
	}
	if err := e.store.AddToOpenIndex(ctx, id); err != nil {
		return err
	}

	e.announce(ctx, format.Snooze(id, until))
	return nil
}

// cancelToMenu discards the active dialog and returns to the main menu.
func (e *Engine) cancelToMenu(ctx context.Context, ev chat.InboundEvent) error {
	if err := e.clearDialog(ctx, ev.UserID); err != nil {
		return err
	}
	return e.sendMenu(ctx, ev.ChatID, "Choose an action:")
}
