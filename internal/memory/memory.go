// Package memory manages the rolling conversation window.
//
// A Window holds the most recent user/assistant exchanges plus an
// optional pinned system message. The window is bounded: once it holds
// 2*maxTurns entries (one user and one assistant message per turn), the
// oldest entry is evicted on every further append. The pinned system
// message lives in its own slot: it never enters the rolling window or
// counts toward the cap, and is always reported first.
package memory

import (
	"fmt"
	"sync"
)

// Role identifies the author of a message.
type Role string

// Message roles understood by the chat completion API.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Window is a bounded conversation history.
//
// Window is safe for concurrent use, though it is intended to be owned
// by a single conversation at a time.
type Window struct {
	mu       sync.RWMutex
	maxTurns int
	pinned   *Message  // system message, exempt from eviction
	rolling  []Message // at most 2*maxTurns entries, oldest first
}

// NewWindow creates a Window keeping at most maxTurns exchanges.
// maxTurns values below 1 are clamped to 1.
func NewWindow(maxTurns int) *Window {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Window{maxTurns: maxTurns}
}

// Add appends a message. A system message replaces the pinned slot; the
// previous pinned message, if any, is discarded. User and assistant
// messages enter the rolling window, evicting the oldest entry once the
// cap is exceeded.
func (w *Window) Add(role Role, content string) {
	if role == RoleSystem {
		w.SetSystem(content)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rolling = append(w.rolling, Message{Role: role, Content: content})
	if cap := 2 * w.maxTurns; len(w.rolling) > cap {
		// Copy instead of reslicing so evicted messages are freed.
		kept := make([]Message, cap)
		copy(kept, w.rolling[len(w.rolling)-cap:])
		w.rolling = kept
	}
}

// AddUser appends a user message to the rolling window.
func (w *Window) AddUser(content string) {
	w.Add(RoleUser, content)
}

// AddAssistant appends an assistant message to the rolling window.
func (w *Window) AddAssistant(content string) {
	w.Add(RoleAssistant, content)
}

// SetSystem sets or replaces the pinned system message.
func (w *Window) SetSystem(content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pinned = &Message{Role: RoleSystem, Content: content}
}

// Messages returns the pinned system message (if set) followed by the
// rolling window in chronological order. The returned slice is a copy.
func (w *Window) Messages() []Message {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Message, 0, len(w.rolling)+1)
	if w.pinned != nil {
		out = append(out, *w.pinned)
	}
	return append(out, w.rolling...)
}

// Len returns the number of messages in the rolling window, excluding
// any pinned system message.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.rolling)
}

// Clear empties the rolling window and removes the pinned message.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rolling = nil
	w.pinned = nil
}

// Summary returns a human-readable description of the window state.
func (w *Window) Summary() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.rolling) == 0 && w.pinned == nil {
		return "No conversation history"
	}
	return fmt.Sprintf("%d messages in history", len(w.rolling))
}
