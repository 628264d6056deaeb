// Package session drives the lifecycle of one active conversation thread:
// message append, remote dispatch, the pending-state guard, and
// error-to-message translation.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"chatbox/internal/client"
	"chatbox/internal/model/chat"
	"chatbox/internal/store"
)

// Greeting seeds every fresh or emptied thread.
const Greeting = "Hello! How can I help you today?"

// healthWarning is the advisory appended when the startup probe gets a bad status.
const healthWarning = "Warning: Backend server might not be running properly"

// errorPrefix leads every synthesized assistant error message.
const errorPrefix = "Sorry, I encountered an error: "

// connectionFailure replaces raw transport error text in synthesized messages.
const connectionFailure = "Failed to connect to the server. Please check your connection."

// Presenter is the surface the session drives. The terminal UI implements it;
// the session never reaches into presentation internals.
type Presenter interface {
	// Reset clears the conversation view before a replay or re-seed.
	Reset()
	ShowMessage(role chat.Role, content string, at time.Time)
	ShowTyping()
	HideTyping()
	ShowThreadList(threads []chat.Thread)
	// Confirm asks the user to approve a destructive action.
	Confirm(prompt string) bool
}

// Session orchestrates one active thread against the store and the remote
// backend. It is single-flight: the pending guard drops sends issued while a
// request is outstanding.
type Session struct {
	store     *store.ConversationStore
	remote    client.RemoteChatClient
	presenter Presenter

	currentID string
	pending   bool
}

// New mints a fresh current-thread id. Nothing is persisted until Initialize
// or the first append runs.
func New(st *store.ConversationStore, remote client.RemoteChatClient, presenter Presenter) *Session {
	return &Session{
		store:     st,
		remote:    remote,
		presenter: presenter,
		currentID: chat.NewThreadID(),
	}
}

// CurrentThreadID returns the id of the active thread.
func (s *Session) CurrentThreadID() string {
	return s.currentID
}

// Pending reports whether a remote call is outstanding.
func (s *Session) Pending() bool {
	return s.pending
}

// Initialize seeds a brand-new thread with the greeting, or replays the stored
// messages of an existing one without re-persisting them.
func (s *Session) Initialize() {
	thread, ok := s.store.Get(s.currentID)
	if !ok || len(thread.Messages) == 0 {
		s.ensureGreeting(s.currentID)
		return
	}
	s.replay(thread)
}

// StartNew switches to a fresh greeted thread.
func (s *Session) StartNew() {
	s.currentID = chat.NewThreadID()
	s.ensureGreeting(s.currentID)
}

// Send runs the Idle -> AwaitingResponse -> Idle round trip. Empty input and
// sends issued while a request is outstanding are dropped silently. Exactly
// one assistant message is appended per accepted send, whatever the outcome.
func (s *Session) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" || s.pending {
		return
	}

	s.append(chat.RoleUser, text)
	s.pending = true
	s.presenter.ShowTyping()

	reply, err := s.remote.Ask(ctx, text)
	s.presenter.HideTyping()
	if err != nil {
		log.Printf("[session] chat request failed: %v", err)
		reply = errorReply(err)
	}

	s.append(chat.RoleAssistant, reply)
	s.pending = false
}

// SwitchTo makes threadID current and replays it; switching to the thread
// that is already current is a no-op. A thread that has vanished or holds no
// messages is re-seeded with the greeting.
func (s *Session) SwitchTo(threadID string) {
	if threadID == s.currentID {
		return
	}
	s.currentID = threadID
	thread, ok := s.store.Get(threadID)
	if !ok || len(thread.Messages) == 0 {
		s.ensureGreeting(threadID)
		return
	}
	s.replay(thread)
}

// DeleteThread removes one thread. Removing the current thread transitions to
// a fresh greeted one, so the session never points at a missing record.
func (s *Session) DeleteThread(threadID string) {
	s.store.Delete(threadID)
	if threadID == s.currentID {
		s.StartNew()
	}
}

// DeleteAll wipes the whole history and starts over with a greeted thread.
func (s *Session) DeleteAll() {
	s.store.DeleteAll()
	s.StartNew()
}

// Threads lists every stored thread newest-first.
func (s *Session) Threads() []chat.Thread {
	return s.store.ListByRecency()
}

// ShowThreads pushes the current listing to the presenter.
func (s *Session) ShowThreads() {
	s.presenter.ShowThreadList(s.store.ListByRecency())
}

// CheckHealth probes the backend once at startup. Connection failures are
// logged only; a bad status appends an advisory assistant message.
func (s *Session) CheckHealth(ctx context.Context) {
	err := s.remote.Health(ctx)
	if err == nil {
		return
	}
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		s.append(chat.RoleAssistant, healthWarning)
		return
	}
	log.Printf("[session] health check failed: %v", err)
}

// ensureGreeting clears the view and seeds threadID with the greeting. It is
// the single re-seed path for new, switched-to-empty, and deleted threads.
func (s *Session) ensureGreeting(threadID string) {
	s.presenter.Reset()
	msg := chat.NewMessage(chat.RoleAssistant, Greeting)
	s.store.AppendMessage(threadID, msg)
	s.presenter.ShowMessage(msg.Role, msg.Content, msg.Timestamp)
}

func (s *Session) replay(thread chat.Thread) {
	s.presenter.Reset()
	for _, msg := range thread.Messages {
		s.presenter.ShowMessage(msg.Role, msg.Content, msg.Timestamp)
	}
}

func (s *Session) append(role chat.Role, content string) {
	msg := chat.NewMessage(role, content)
	s.store.AppendMessage(s.currentID, msg)
	s.presenter.ShowMessage(msg.Role, msg.Content, msg.Timestamp)
}

// errorReply renders a failed round trip as the single synthesized assistant
// message shown to the user.
func errorReply(err error) string {
	cause := err.Error()
	if errors.Is(err, client.ErrUnreachable) {
		cause = connectionFailure
	}
	return errorPrefix + cause
}
