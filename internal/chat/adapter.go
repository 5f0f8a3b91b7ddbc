// Package chat bridges FleetBot to the chat platform carrying the
// conversational flows and announcements.
package chat

import "context"

// Adapter is the interface a platform implementation must satisfy. The
// engine and scheduler only ever talk to this seam, so tests run against
// MockAdapter and deployments against the Telegram adapter.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound events. The channel is closed
	// when the context is cancelled or the adapter is closed. Listen must
	// only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundEvent, error)

	// Send delivers an outbound message. Best-effort: no delivery
	// confirmation is consumed anywhere in the core.
	Send(ctx context.Context, msg OutboundMessage) error

	// Relay copies an existing message (typically media) from one chat to
	// another without re-uploading its payload.
	Relay(ctx context.Context, toChatID, fromChatID int64, messageID int) error

	// AnswerCallback acknowledges a button press so the client stops
	// showing a spinner. Text is an optional toast.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundEvent is a normalized platform event: a text message, a media
// message, or a button press.
type InboundEvent struct {
	UserID     int64  // originating user; 0 means unattributable, dropped
	UserName   string // display name
	ChatID     int64  // chat the event arrived in
	MessageID  int    // platform message id (used for media relay)
	Text       string // message text, or button caption for taps
	HasMedia   bool   // photo/video/document attached
	IsGroup    bool   // group or supergroup chat
	Callback   string // inline-button payload; empty for plain messages
	CallbackID string // platform callback id to acknowledge
}

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string // callback payload delivered back as InboundEvent.Callback
}

// OutboundMessage is a message to send, optionally with a reply keyboard
// (persistent row buttons) or an inline keyboard (per-message buttons).
// At most one keyboard kind is set.
type OutboundMessage struct {
	ChatID   int64
	Text     string
	Keyboard [][]string // reply keyboard rows
	Inline   [][]Button // inline keyboard rows
}
