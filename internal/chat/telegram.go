package chat

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAdapter implements Adapter over the Telegram Bot API using long
// polling.
type TelegramAdapter struct {
	token string

	mu     sync.Mutex
	bot    *tgbotapi.BotAPI
	closed bool
	cancel context.CancelFunc
}

// NewTelegramAdapter creates an unconnected adapter for the given bot token.
func NewTelegramAdapter(token string) (*TelegramAdapter, error) {
	if token == "" {
		return nil, fmt.Errorf("chat: telegram: token is required")
	}
	return &TelegramAdapter{token: token}, nil
}

// Connect authenticates against the Bot API.
func (a *TelegramAdapter) Connect(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(a.token)
	if err != nil {
		return fmt.Errorf("chat: telegram connect: %w", err)
	}
	bot.Debug = false

	a.mu.Lock()
	a.bot = bot
	a.mu.Unlock()

	log.Printf("chat: telegram connected as @%s", bot.Self.UserName)
	return nil
}

// Listen starts long polling and returns the normalized event channel.
func (a *TelegramAdapter) Listen(ctx context.Context) (<-chan InboundEvent, error) {
	a.mu.Lock()
	bot := a.bot
	a.mu.Unlock()
	if bot == nil {
		return nil, fmt.Errorf("chat: telegram: not connected")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := bot.GetUpdatesChan(cfg)

	out := make(chan InboundEvent, 100)
	go func() {
		defer close(out)
		for {
			select {
			case <-pollCtx.Done():
				bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if ev, ok := normalizeUpdate(update); ok {
					out <- ev
				}
			}
		}
	}()
	return out, nil
}

// normalizeUpdate converts a Telegram update into an InboundEvent. Updates
// that carry neither a message nor a callback are dropped.
func normalizeUpdate(update tgbotapi.Update) (InboundEvent, bool) {
	if m := update.Message; m != nil {
		if m.From == nil {
			return InboundEvent{}, false
		}
		chatType := m.Chat.Type
		return InboundEvent{
			UserID:    m.From.ID,
			UserName:  displayName(m.From),
			ChatID:    m.Chat.ID,
			MessageID: m.MessageID,
			Text:      m.Text,
			HasMedia:  len(m.Photo) > 0 || m.Video != nil || m.Document != nil,
			IsGroup:   chatType == "group" || chatType == "supergroup",
		}, true
	}
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil {
			return InboundEvent{}, false
		}
		return InboundEvent{
			UserID:     cq.From.ID,
			UserName:   displayName(cq.From),
			ChatID:     cq.Message.Chat.ID,
			MessageID:  cq.Message.MessageID,
			Callback:   cq.Data,
			CallbackID: cq.ID,
		}, true
	}
	return InboundEvent{}, false
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// Send implements Adapter.
func (a *TelegramAdapter) Send(ctx context.Context, msg OutboundMessage) error {
	a.mu.Lock()
	bot := a.bot
	a.mu.Unlock()
	if bot == nil {
		return fmt.Errorf("chat: telegram: not connected")
	}

	m := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	switch {
	case len(msg.Inline) > 0:
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, row := range msg.Inline {
			var btns []tgbotapi.InlineKeyboardButton
			for _, b := range row {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
			rows = append(rows, btns)
		}
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	case len(msg.Keyboard) > 0:
		var rows [][]tgbotapi.KeyboardButton
		for _, row := range msg.Keyboard {
			var btns []tgbotapi.KeyboardButton
			for _, caption := range row {
				btns = append(btns, tgbotapi.NewKeyboardButton(caption))
			}
			rows = append(rows, btns)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		m.ReplyMarkup = kb
	}

	if _, err := bot.Send(m); err != nil {
		return fmt.Errorf("chat: telegram send to %d: %w", msg.ChatID, err)
	}
	return nil
}

// Relay implements Adapter via Telegram's copyMessage.
func (a *TelegramAdapter) Relay(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	a.mu.Lock()
	bot := a.bot
	a.mu.Unlock()
	if bot == nil {
		return fmt.Errorf("chat: telegram: not connected")
	}

	cm := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	if _, err := bot.Request(cm); err != nil {
		return fmt.Errorf("chat: telegram relay %d -> %d: %w", fromChatID, toChatID, err)
	}
	return nil
}

// AnswerCallback implements Adapter.
func (a *TelegramAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	a.mu.Lock()
	bot := a.bot
	a.mu.Unlock()
	if bot == nil {
		return fmt.Errorf("chat: telegram: not connected")
	}

	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := bot.Request(cb); err != nil {
		return fmt.Errorf("chat: telegram answer callback: %w", err)
	}
	return nil
}

// Close stops the update poller.
func (a *TelegramAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
	}
	return nil
}
