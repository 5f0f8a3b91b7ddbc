package flow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/format"
	"github.com/zulandar/fleetbot/internal/models"
	"github.com/zulandar/fleetbot/internal/store"
)

// continueNew advances the creation flow by one text turn. Malformed input
// never advances the step or touches the draft; it only re-issues the
// current prompt.
func (e *Engine) continueNew(ctx context.Context, ev chat.InboundEvent, state *models.DialogState, text string) error {
	in := Classify(text)

	switch state.Step {
	case stepNewAsset:
		asset, ok := ParseAsset(text)
		if !ok {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpAsset] = string(asset)
		if asset == models.AssetTrailer {
			state.Step = stepNewTrailerNum
		} else {
			state.Step = stepNewTruckNum
		}
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.prompt(ctx, ev.ChatID, state)

	case stepNewTruckNum:
		if in.Control != ControlNone || in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpTruckNumber] = in.Text
		state.Step = stepNewRepairSide
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Where was repair?", Keyboard: assetKeyboard()})

	case stepNewTrailerNum:
		if in.Control != ControlNone || in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpTrailerNumber] = in.Text
		state.Step = stepNewPairedTruck
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.prompt(ctx, ev.ChatID, state)

	case stepNewPairedTruck:
		if in.Control != ControlNone || in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpPairedTruck] = in.Text
		state.Step = stepNewRepairSide
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Where was repair?", Keyboard: assetKeyboard()})

	case stepNewRepairSide:
		side, ok := ParseAsset(text)
		if !ok {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpRepairSide] = string(side)
		state.Step = stepNewProblem
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.prompt(ctx, ev.ChatID, state)

	case stepNewProblem:
		if in.Control != ControlNone || in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpProblem] = in.Text
		state.Step = stepNewMedia
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.send(ctx, chat.OutboundMessage{
			ChatID:   ev.ChatID,
			Text:     "Send photos/videos/documents of the damage. Tap Done when finished or Skip.",
			Keyboard: mediaKeyboard(),
		})

	case stepNewMedia:
		if in.Control == ControlDone || in.Control == ControlSkip {
			state.Step = stepNewPlan
			if err := e.setDialog(ctx, ev.UserID, state); err != nil {
				return err
			}
			return e.prompt(ctx, ev.ChatID, state)
		}
		// Text while expecting media: hint again.
		return e.prompt(ctx, ev.ChatID, state)

	case stepNewPlan:
		if in.Control != ControlNone || in.Text == "" {
			return e.prompt(ctx, ev.ChatID, state)
		}
		state.Tmp[models.TmpPlan] = in.Text
		state.Step = stepNewReportedBy
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		return e.prompt(ctx, ev.ChatID, state)

	case stepNewReportedBy:
		if text == btnOtherType {
			state.Step = stepNewReportedByText
			if err := e.setDialog(ctx, ev.UserID, state); err != nil {
				return err
			}
			return e.prompt(ctx, ev.ChatID, state)
		}
		if in.Text != "" {
			state.Tmp[models.TmpReportedBy] = in.Text
		}
		return e.preview(ctx, ev, state)

	case stepNewReportedByText:
		if in.Text != "" {
			state.Tmp[models.TmpReportedBy] = in.Text
		}
		return e.preview(ctx, ev, state)

	case stepNewConfirm:
		// Waiting for the inline buttons; ordinary text is ignored.
		return e.prompt(ctx, ev.ChatID, state)
	}

	return e.prompt(ctx, ev.ChatID, state)
}

// collectMedia appends one media message to the draft accumulator. The
// step does not advance; Done/Skip ends collection.
func (e *Engine) collectMedia(ctx context.Context, ev chat.InboundEvent, state *models.DialogState) error {
	state.MediaIDs = append(state.MediaIDs, ev.MessageID)
	if err := e.setDialog(ctx, ev.UserID, state); err != nil {
		return err
	}
	return e.send(ctx, chat.OutboundMessage{
		ChatID:   ev.ChatID,
		Text:     fmt.Sprintf("Added media (%d). Tap Done when finished or Skip.", len(state.MediaIDs)),
		Keyboard: mediaKeyboard(),
	})
}

// preview renders the draft and moves to the confirm step.
func (e *Engine) preview(ctx context.Context, ev chat.InboundEvent, state *models.DialogState) error {
	draft := e.draftFromState(state)
	state.Step = stepNewConfirm
	if err := e.setDialog(ctx, ev.UserID, state); err != nil {
		return err
	}
	return e.send(ctx, chat.OutboundMessage{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("Preview:\n%s\n\nPost to group?", format.Draft(draft)),
		Inline: confirmKeyboard(),
	})
}

// draftFromState materializes the accumulated fields as an unsaved report.
func (e *Engine) draftFromState(state *models.DialogState) *models.Report {
	reportedBy := state.Tmp[models.TmpReportedBy]
	if reportedBy == "" {
		reportedBy = e.defaultReporter
	}
	return &models.Report{
		Status:          models.StatusOpen,
		Asset:           models.Asset(state.Tmp[models.TmpAsset]),
		TruckNumber:     state.Tmp[models.TmpTruckNumber],
		TrailerNumber:   state.Tmp[models.TmpTrailerNumber],
		PairedTruck:     state.Tmp[models.TmpPairedTruck],
		RepairSide:      models.Asset(state.Tmp[models.TmpRepairSide]),
		Problem:         state.Tmp[models.TmpProblem],
		Plan:            state.Tmp[models.TmpPlan],
		ReportedBy:      reportedBy,
		MediaMessageIDs: append([]int(nil), state.MediaIDs...),
	}
}

// handleConfirm finalizes or discards the draft on the inline Post/Cancel
// buttons. Without an active creation dialog the press is stale.
func (e *Engine) handleConfirm(ctx context.Context, ev chat.InboundEvent, data string) error {
	state, err := e.getDialog(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if state == nil || !state.InFlow("new") {
		e.answer(ctx, ev.CallbackID, "No draft")
		return nil
	}

	if data == cbNewCancel {
		if err := e.clearDialog(ctx, ev.UserID); err != nil {
			return err
		}
		e.answer(ctx, ev.CallbackID, "Canceled")
		return e.sendMenu(ctx, ev.ChatID, "Canceled.")
	}

	now := e.now()
	r := e.draftFromState(state)
	r.ReportedByUserID = ev.UserID
	r.CreatedAt = now
	r.LastUpdateAt = now

	id, err := e.store.AllocateID(ctx, r)
	if err != nil {
		return err
	}
	r.ID = id
	if err := e.store.Create(ctx, r); err != nil {
		if errors.Is(err, store.ErrExists) {
			// Lost the allocation race; the user can just tap Post again.
			e.answer(ctx, ev.CallbackID, "Try again")
			return nil
		}
		return err
	}
	if err := e.store.AddToOpenIndex(ctx, id); err != nil {
		return err
	}
	if err := e.clearDialog(ctx, ev.UserID); err != nil {
		return err
	}

	e.answer(ctx, ev.CallbackID, "Posted")
	e.sendMenu(ctx, ev.ChatID, fmt.Sprintf("Created #%s", id))
	e.announce(ctx, format.Report(r, format.TagOpen))

	// Push the held-back draft media to the group after the announcement.
	if gid := e.groupID(ctx); gid != 0 {
		for _, mid := range r.MediaMessageIDs {
			if err := e.adapter.Relay(ctx, gid, ev.ChatID, mid); err != nil {
				log.Printf("flow: relay draft media %d: %v", mid, err)
			}
		}
	}
	return nil
}
