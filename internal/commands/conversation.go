// File: internal/commands/conversation.go
package commands

import (
	"sync"
	"time"
)

// inputKind identifies what a pending conversation is waiting for.
type inputKind int

const (
	awaitingAmountInput inputKind = iota
)

// pendingInput is one chat's open conversation step.
type pendingInput struct {
	kind      inputKind
	expiresAt time.Time
}

// conversationTracker keys multi-step interactions by chat id so one
// subscriber's pending input never leaks into another's. An entry is
// consumed by exactly one follow-up message or dropped on expiry.
type conversationTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	pending map[int64]pendingInput
}

func newConversationTracker(timeout time.Duration) *conversationTracker {
	return &conversationTracker{
		timeout: timeout,
		pending: make(map[int64]pendingInput),
	}
}

// expect registers a pending input for the chat, replacing any previous one
func (t *conversationTracker) expect(chat int64, kind inputKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[chat] = pendingInput{kind: kind, expiresAt: time.Now().Add(t.timeout)}
}

// take consumes the chat's pending input if present and not expired
func (t *conversationTracker) take(chat int64) (inputKind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[chat]
	if !ok {
		return 0, false
	}
	delete(t.pending, chat)
	if time.Now().After(p.expiresAt) {
		return 0, false
	}
	return p.kind, true
}

// clear drops the chat's pending input without consuming it
func (t *conversationTracker) clear(chat int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, chat)
}
