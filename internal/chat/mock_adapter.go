package chat

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter implements Adapter for testing. It records outbound traffic
// and allows simulating inbound events via SimulateInbound.
type MockAdapter struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan InboundEvent
	sent      []OutboundMessage
	relayed   []RelayedMessage
	answered  []string // callback ids acknowledged

	// SendErr, when set, is returned by every Send call.
	SendErr error
}

// RelayedMessage records one Relay call.
type RelayedMessage struct {
	ToChatID   int64
	FromChatID int64
	MessageID  int
}

// NewMockAdapter creates a MockAdapter with a buffered inbound channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		inbound: make(chan InboundEvent, 100),
	}
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the inbound event channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan InboundEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.inbound, nil
}

// Send records the outbound message.
func (m *MockAdapter) Send(ctx context.Context, msg OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Relay records the relay request.
func (m *MockAdapter) Relay(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayed = append(m.relayed, RelayedMessage{
		ToChatID:   toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	})
	return nil
}

// AnswerCallback records the acknowledged callback id.
func (m *MockAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

// Close shuts down the mock adapter and closes the inbound channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.inbound)
	return nil
}

// SimulateInbound queues an inbound event for Listen consumers.
func (m *MockAdapter) SimulateInbound(ev InboundEvent) {
	m.inbound <- ev
}

// Sent returns a copy of all recorded outbound messages.
func (m *MockAdapter) Sent() []OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Relayed returns a copy of all recorded relay calls.
func (m *MockAdapter) Relayed() []RelayedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RelayedMessage, len(m.relayed))
	copy(out, m.relayed)
	return out
}

// Answered returns the acknowledged callback ids.
func (m *MockAdapter) Answered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.answered))
	copy(out, m.answered)
	return out
}

// Reset clears recorded traffic without disconnecting.
func (m *MockAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.relayed = nil
	m.answered = nil
}
