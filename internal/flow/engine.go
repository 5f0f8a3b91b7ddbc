// Package flow implements the conversation engine: per-user step machines
// that reduce free-form chat input to report lifecycle operations.
package flow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/kv"
	"github.com/zulandar/fleetbot/internal/models"
	"github.com/zulandar/fleetbot/internal/store"
)

// DefaultDialogTTL is the idle expiry for in-flight dialogs.
const DefaultDialogTTL = 30 * time.Minute

// Step identifiers. A step names the input the engine is waiting for.
const (
	stepNewAsset          = "new:asset"
	stepNewTruckNum       = "new:truck_num"
	stepNewTrailerNum     = "new:trailer_num"
	stepNewPairedTruck    = "new:paired_truck"
	stepNewRepairSide     = "new:repair_side"
	stepNewProblem        = "new:problem"
	stepNewMedia          = "new:media"
	stepNewPlan           = "new:plan"
	stepNewReportedBy     = "new:reported_by"
	stepNewReportedByText = "new:reported_by_text"
	stepNewConfirm        = "new:confirm"

	stepUpdateReportID    = "update:report_id"
	stepUpdateQuickOrText = "update:quick_or_text"
	stepUpdateText        = "update:text"

	stepCloseReportID  = "close:report_id"
	stepCloseAwaitText = "close:await_text"

	stepSnoozeReportID = "snooze:report_id"
	stepSnoozeAwaitDur = "snooze:await_dur"
)

// Engine routes inbound chat events through per-user dialog state. All
// cross-turn state lives in the kv adapter; the engine itself is stateless
// and safe to share across concurrent events.
type Engine struct {
	store           *store.Store
	kv              kv.Store
	adapter         chat.Adapter
	defaultReporter string
	groupChatID     int64 // from config; 0 falls back to the linked group
	dialogTTL       time.Duration
	now             func() time.Time
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	Store             *store.Store
	KV                kv.Store
	Adapter           chat.Adapter
	DefaultReportedBy string
	GroupChatID       int64         // optional; overrides the runtime-linked group
	DialogTTL         time.Duration // defaults to DefaultDialogTTL
	Clock             func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("flow: engine: store is required")
	}
	if opts.KV == nil {
		return nil, fmt.Errorf("flow: engine: kv is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("flow: engine: adapter is required")
	}
	ttl := opts.DialogTTL
	if ttl <= 0 {
		ttl = DefaultDialogTTL
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:           opts.Store,
		kv:              opts.KV,
		adapter:         opts.Adapter,
		defaultReporter: opts.DefaultReportedBy,
		groupChatID:     opts.GroupChatID,
		dialogTTL:       ttl,
		now:             now,
	}, nil
}

// HandleEvent processes one inbound event. Storage errors propagate so the
// caller can log them and the user can retry the same input; outbound send
// failures are logged and swallowed (best-effort delivery).
func (e *Engine) HandleEvent(ctx context.Context, ev chat.InboundEvent) error {
	if ev.UserID == 0 {
		return nil
	}
	if ev.Callback != "" {
		return e.handleCallback(ctx, ev)
	}

	text := strings.TrimSpace(ev.Text)

	if strings.HasPrefix(text, "/setgroup") {
		if !ev.IsGroup {
			return nil
		}
		if err := e.kv.Set(ctx, kv.GroupChatKey(), ev.ChatID, 0); err != nil {
			return fmt.Errorf("flow: link group: %w", err)
		}
		e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Group chat linked"})
		return nil
	}

	state, err := e.getDialog(ctx, ev.UserID)
	if err != nil {
		return err
	}

	if !ev.IsGroup && ev.HasMedia {
		if state != nil && state.InFlow("new") {
			if state.Step == stepNewMedia {
				return e.collectMedia(ctx, ev, state)
			}
			// A draft is in progress: hold the media back from the group
			// and keep the user on the current step.
			return e.prompt(ctx, ev.ChatID, state)
		}
		return e.relayToGroup(ctx, ev)
	}

	if ev.IsGroup {
		return nil
	}

	if isTopAction(text) {
		return e.startFlow(ctx, ev, text)
	}

	if state != nil {
		return e.continueFlow(ctx, ev, state, text)
	}

	return e.sendMenu(ctx, ev.ChatID, "Choose an action:")
}

// startFlow begins a fresh flow, replacing any dialog the user had.
func (e *Engine) startFlow(ctx context.Context, ev chat.InboundEvent, action string) error {
	switch action {
	case BtnNewReport:
		state := &models.DialogState{
			Step: stepNewAsset,
			Tmp:  map[string]string{models.TmpReportedBy: e.defaultReporter},
		}
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Asset?", Keyboard: assetKeyboard()})

	case BtnUpdateReport:
		if err := e.setDialog(ctx, ev.UserID, &models.DialogState{Step: stepUpdateReportID, Tmp: map[string]string{}}); err != nil {
			return err
		}
		e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Enter report id (truck or trailer number)", Keyboard: MainMenu()})

	case BtnCloseReport:
		if err := e.setDialog(ctx, ev.UserID, &models.DialogState{Step: stepCloseReportID, Tmp: map[string]string{}}); err != nil {
			return err
		}
		e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Enter report id to close", Keyboard: MainMenu()})

	case BtnSnoozeReport:
		if err := e.setDialog(ctx, ev.UserID, &models.DialogState{Step: stepSnoozeReportID, Tmp: map[string]string{}}); err != nil {
			return err
		}
		e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Enter report id to snooze", Keyboard: MainMenu()})
	}
	return nil
}

// continueFlow dispatches a text turn to the step machine of the active
// flow. Cancel aborts any flow from any step except the confirm step,
// which only reacts to its inline buttons.
func (e *Engine) continueFlow(ctx context.Context, ev chat.InboundEvent, state *models.DialogState, text string) error {
	if in := Classify(text); in.Control == ControlCancel && state.Step != stepNewConfirm {
		return e.cancelToMenu(ctx, ev)
	}

	switch {
	case state.InFlow("new"):
		return e.continueNew(ctx, ev, state, text)
	case state.InFlow("update"):
		return e.continueUpdate(ctx, ev, state, text)
	case state.InFlow("close"):
		return e.continueClose(ctx, ev, state, text)
	case state.InFlow("snooze"):
		return e.continueSnooze(ctx, ev, state, text)
	}
	// Unrecognized step (stale state from an older build): reset.
	if err := e.clearDialog(ctx, ev.UserID); err != nil {
		return err
	}
	return e.sendMenu(ctx, ev.ChatID, "Choose an action:")
}

// handleCallback routes inline-button presses: draft confirmation and the
// shortcut actions attached to reminder DMs. Reminder shortcuts seed a flow
// directly at its terminal input step with the report id pre-filled.
func (e *Engine) handleCallback(ctx context.Context, ev chat.InboundEvent) error {
	data := ev.Callback
	switch {
	case data == cbNewPost || data == cbNewCancel:
		return e.handleConfirm(ctx, ev, data)

	case strings.HasPrefix(data, cbRemUpdatePrefix):
		id := strings.TrimPrefix(data, cbRemUpdatePrefix)
		state := &models.DialogState{Step: stepUpdateQuickOrText, ReportID: id, Tmp: map[string]string{}}
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		e.answer(ctx, ev.CallbackID, "")
		e.send(ctx, chat.OutboundMessage{
			ChatID:   ev.ChatID,
			Text:     fmt.Sprintf("Update for #%s: choose or type", id),
			Keyboard: quickUpdateKeyboard(),
		})
		return nil

	case strings.HasPrefix(data, cbRemSnoozePrefix):
		id := strings.TrimPrefix(data, cbRemSnoozePrefix)
		e.answer(ctx, ev.CallbackID, "")
		err := e.applySnooze(ctx, ev.UserID, id, 2*time.Hour)
		if err == errReportGone {
			e.sendMenu(ctx, ev.ChatID, "Report not found")
			return nil
		}
		if err != nil {
			return err
		}
		e.sendMenu(ctx, ev.ChatID, fmt.Sprintf("Snoozed #%s for 2h", id))
		return nil

	case strings.HasPrefix(data, cbRemClosePrefix):
		id := strings.TrimPrefix(data, cbRemClosePrefix)
		state := &models.DialogState{Step: stepCloseAwaitText, ReportID: id, Tmp: map[string]string{}}
		if err := e.setDialog(ctx, ev.UserID, state); err != nil {
			return err
		}
		e.answer(ctx, ev.CallbackID, "")
		e.send(ctx, chat.OutboundMessage{
			ChatID:   ev.ChatID,
			Text:     fmt.Sprintf("Close #%s: resolution", id),
			Keyboard: MainMenu(),
		})
		return nil

	case strings.HasPrefix(data, cbRemSkipPrefix):
		id := strings.TrimPrefix(data, cbRemSkipPrefix)
		r, err := e.store.Get(ctx, id)
		if err == nil {
			now := e.now()
			r.LastReminderAt = &now
			if err := e.store.Save(ctx, r); err != nil {
				return err
			}
		}
		e.answer(ctx, ev.CallbackID, "Skipped")
		return nil
	}
	return nil
}

// prompt re-issues the prompt for the dialog's current step without
// advancing anything. Used for malformed input and out-of-step media.
func (e *Engine) prompt(ctx context.Context, chatID int64, state *models.DialogState) error {
	msg := chat.OutboundMessage{ChatID: chatID}
	switch state.Step {
	case stepNewAsset:
		msg.Text, msg.Keyboard = "Choose Truck or Trailer", assetKeyboard()
	case stepNewTruckNum:
		msg.Text = "Truck number?"
	case stepNewTrailerNum:
		msg.Text = "Trailer number?"
	case stepNewPairedTruck:
		msg.Text = "Paired truck number?"
	case stepNewRepairSide:
		msg.Text, msg.Keyboard = "Choose Truck or Trailer", assetKeyboard()
	case stepNewProblem:
		msg.Text = "Problem?"
	case stepNewMedia:
		msg.Text, msg.Keyboard = "Send media or tap Done / Skip.", mediaKeyboard()
	case stepNewPlan:
		msg.Text = "Plan?"
	case stepNewReportedBy:
		msg.Text, msg.Keyboard = "Reported by?", reporterKeyboard(e.defaultReporter)
	case stepNewReportedByText:
		msg.Text = "Type name"
	case stepNewConfirm:
		msg.Text, msg.Inline = "Tap Post or Cancel.", confirmKeyboard()
	case stepUpdateReportID:
		msg.Text, msg.Keyboard = "Enter report id (truck or trailer number)", MainMenu()
	case stepUpdateQuickOrText:
		msg.Text, msg.Keyboard = "Choose an update or type your own", quickUpdateKeyboard()
	case stepUpdateText:
		msg.Text = "Type update text"
	case stepCloseReportID:
		msg.Text, msg.Keyboard = "Enter report id to close", MainMenu()
	case stepCloseAwaitText:
		msg.Text = "Resolution?"
	case stepSnoozeReportID:
		msg.Text, msg.Keyboard = "Enter report id to snooze", MainMenu()
	case stepSnoozeAwaitDur:
		msg.Text, msg.Keyboard = "Use 2h/4h/1d or type like 4h/2d", snoozeKeyboard()
	default:
		msg.Text, msg.Keyboard = "Choose an action:", MainMenu()
	}
	return e.send(ctx, msg)
}

// Dialog state persistence.

func dialogUser(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// getDialog loads the user's dialog, treating expired state as absent.
func (e *Engine) getDialog(ctx context.Context, userID int64) (*models.DialogState, error) {
	var state models.DialogState
	err := e.kv.Get(ctx, kv.DialogKey(dialogUser(userID)), &state)
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flow: load dialog: %w", err)
	}
	if state.Expired(e.now()) {
		e.kv.Delete(ctx, kv.DialogKey(dialogUser(userID)))
		return nil, nil
	}
	return &state, nil
}

// setDialog persists a dialog turn, refreshing the idle expiry.
func (e *Engine) setDialog(ctx context.Context, userID int64, state *models.DialogState) error {
	state.ExpiresAt = e.now().Add(e.dialogTTL)
	if err := e.kv.Set(ctx, kv.DialogKey(dialogUser(userID)), state, e.dialogTTL); err != nil {
		return fmt.Errorf("flow: save dialog: %w", err)
	}
	return nil
}

func (e *Engine) clearDialog(ctx context.Context, userID int64) error {
	if err := e.kv.Delete(ctx, kv.DialogKey(dialogUser(userID))); err != nil {
		return fmt.Errorf("flow: clear dialog: %w", err)
	}
	return nil
}

// Group announcement plumbing.

// groupID resolves the announcement group: config wins, otherwise the id
// linked at runtime via /setgroup. Zero means no group is known.
func (e *Engine) groupID(ctx context.Context) int64 {
	if e.groupChatID != 0 {
		return e.groupChatID
	}
	var id int64
	if err := e.kv.Get(ctx, kv.GroupChatKey(), &id); err != nil {
		return 0
	}
	return id
}

// announce posts text to the linked group, if any.
func (e *Engine) announce(ctx context.Context, text string) {
	gid := e.groupID(ctx)
	if gid == 0 {
		log.Printf("flow: no group linked, dropping announcement")
		return
	}
	e.send(ctx, chat.OutboundMessage{ChatID: gid, Text: text})
}

// relayToGroup mirrors a DM media message into the linked group.
func (e *Engine) relayToGroup(ctx context.Context, ev chat.InboundEvent) error {
	gid := e.groupID(ctx)
	if gid == 0 {
		return e.send(ctx, chat.OutboundMessage{
			ChatID: ev.ChatID,
			Text:   "Group not linked. Send /setgroup in the group.",
		})
	}
	if err := e.adapter.Relay(ctx, gid, ev.ChatID, ev.MessageID); err != nil {
		log.Printf("flow: relay media: %v", err)
		return nil
	}
	return e.send(ctx, chat.OutboundMessage{ChatID: ev.ChatID, Text: "Sent to group"})
}

// send delivers best-effort; failures are logged, never returned.
func (e *Engine) send(ctx context.Context, msg chat.OutboundMessage) error {
	if err := e.adapter.Send(ctx, msg); err != nil {
		log.Printf("flow: send to %d: %v", msg.ChatID, err)
	}
	return nil
}

func (e *Engine) sendMenu(ctx context.Context, chatID int64, text string) error {
	return e.send(ctx, chat.OutboundMessage{ChatID: chatID, Text: text, Keyboard: MainMenu()})
}

func (e *Engine) answer(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := e.adapter.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Printf("flow: answer callback: %v", err)
	}
}
