package chat

import (
	"time"

	"github.com/google/uuid"
)

// previewLength caps the thread-list preview of the last user message.
const previewLength = 50

// Thread is one persisted conversation: an ordered, append-only message
// sequence under an opaque unique id.
type Thread struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

// NewThreadID mints an identifier for a fresh thread.
func NewThreadID() string {
	return uuid.NewString()
}

// LastUserMessage returns the most recent user turn, if any.
func (t Thread) LastUserMessage() (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return t.Messages[i], true
		}
	}
	return Message{}, false
}

// Preview renders the last user message truncated for list display. Threads
// without a user turn yet preview as empty.
func (t Thread) Preview() string {
	msg, ok := t.LastUserMessage()
	if !ok {
		return ""
	}
	runes := []rune(msg.Content)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return msg.Content
}
