package session_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chatbox/internal/client"
	"chatbox/internal/model/chat"
	"chatbox/internal/session"
	"chatbox/internal/store"
)

type fakeRemote struct {
	reply     string
	err       error
	healthErr error
	asks      int
	onAsk     func()
}

func (f *fakeRemote) Ask(_ context.Context, _ string) (string, error) {
	f.asks++
	if f.onAsk != nil {
		f.onAsk()
	}
	return f.reply, f.err
}

func (f *fakeRemote) Health(_ context.Context) error {
	return f.healthErr
}

type shownMessage struct {
	role    chat.Role
	content string
}

type fakePresenter struct {
	resets       int
	shown        []shownMessage
	typingShown  int
	typingHidden int
	listed       [][]chat.Thread
}

func (p *fakePresenter) Reset()                               { p.resets++ }
func (p *fakePresenter) ShowTyping()                          { p.typingShown++ }
func (p *fakePresenter) HideTyping()                          { p.typingHidden++ }
func (p *fakePresenter) ShowThreadList(threads []chat.Thread) { p.listed = append(p.listed, threads) }
func (p *fakePresenter) Confirm(string) bool                  { return true }
func (p *fakePresenter) ShowMessage(role chat.Role, content string, _ time.Time) {
	p.shown = append(p.shown, shownMessage{role: role, content: content})
}

// countingStorage tracks writes so tests can assert no-op paths stay no-ops.
type countingStorage struct {
	inner store.Storage
	sets  int
}

func (c *countingStorage) Get(key string) ([]byte, bool, error) { return c.inner.Get(key) }
func (c *countingStorage) Delete(key string) error              { return c.inner.Delete(key) }
func (c *countingStorage) Set(key string, value []byte) error {
	c.sets++
	return c.inner.Set(key, value)
}

func newFixture(t *testing.T) (*session.Session, *store.ConversationStore, *fakeRemote, *fakePresenter, *countingStorage) {
	t.Helper()
	fileStorage, err := store.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage err: %v", err)
	}
	storage := &countingStorage{inner: fileStorage}
	st := store.NewConversationStore(storage)
	remote := &fakeRemote{}
	presenter := &fakePresenter{}
	return session.New(st, remote, presenter), st, remote, presenter, storage
}

func currentMessages(t *testing.T, sess *session.Session, st *store.ConversationStore) []chat.Message {
	t.Helper()
	thread, ok := st.Get(sess.CurrentThreadID())
	if !ok {
		return nil
	}
	return thread.Messages
}

func TestInitializeSeedsGreeting(t *testing.T) {
	sess, st, _, presenter, _ := newFixture(t)

	sess.Initialize()

	msgs := currentMessages(t, sess, st)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleAssistant || msgs[0].Content != session.Greeting {
		t.Fatalf("unexpected greeting: %+v", msgs[0])
	}
	if presenter.resets != 1 || len(presenter.shown) != 1 {
		t.Fatalf("presenter calls: resets=%d shown=%d", presenter.resets, len(presenter.shown))
	}
}

func TestInitializeReplaysWithoutRePersisting(t *testing.T) {
	sess, st, remote, presenter, _ := newFixture(t)
	remote.reply = "Hi there"

	sess.Initialize()
	sess.Send(context.Background(), "Hello")
	before := len(currentMessages(t, sess, st))
	shownBefore := len(presenter.shown)

	sess.Initialize()

	if got := len(currentMessages(t, sess, st)); got != before {
		t.Fatalf("replay persisted messages: %d -> %d", before, got)
	}
	if len(presenter.shown) != shownBefore+before {
		t.Fatalf("expected %d replayed messages, got %d", before, len(presenter.shown)-shownBefore)
	}
}

func TestSendAppendsUserAndAssistant(t *testing.T) {
	sess, st, remote, presenter, _ := newFixture(t)
	remote.reply = "Hi there"

	sess.Send(context.Background(), "Hello")

	msgs := currentMessages(t, sess, st)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Content != "Hello" {
		t.Fatalf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != chat.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Fatalf("unexpected assistant message: %+v", msgs[1])
	}
	if sess.Pending() {
		t.Fatal("pending guard not cleared")
	}
	if presenter.typingShown != 1 || presenter.typingHidden != 1 {
		t.Fatalf("typing affordance: shown=%d hidden=%d", presenter.typingShown, presenter.typingHidden)
	}
}

func TestSendWhitespaceOnlyIsNoop(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)

	sess.Send(context.Background(), "   \t  ")

	if remote.asks != 0 {
		t.Fatal("whitespace input reached the remote")
	}
	if msgs := currentMessages(t, sess, st); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}

func TestSendWhilePendingIsNoop(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.reply = "Hi there"
	remote.onAsk = func() {
		if !sess.Pending() {
			t.Error("expected pending guard to be set during the round trip")
		}
		sess.Send(context.Background(), "second message")
	}

	sess.Send(context.Background(), "Hello")

	if remote.asks != 1 {
		t.Fatalf("expected 1 remote call, got %d", remote.asks)
	}
	if msgs := currentMessages(t, sess, st); len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestSendTransportFailure(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.err = fmt.Errorf("%w: dial tcp 127.0.0.1:5000: connection refused", client.ErrUnreachable)

	sess.Send(context.Background(), "Hello")

	msgs := currentMessages(t, sess, st)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	want := "Sorry, I encountered an error: Failed to connect to the server. Please check your connection."
	if msgs[1].Content != want {
		t.Fatalf("unexpected error message: %q", msgs[1].Content)
	}
	if sess.Pending() {
		t.Fatal("pending guard not cleared after failure")
	}
}

func TestSendServerError(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.err = &client.APIError{Message: "bad request"}

	sess.Send(context.Background(), "Hello")

	msgs := currentMessages(t, sess, st)
	if msgs[1].Content != "Sorry, I encountered an error: bad request" {
		t.Fatalf("unexpected error message: %q", msgs[1].Content)
	}
}

func TestSendHTTPStatusError(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.err = &client.StatusError{Code: 500}

	sess.Send(context.Background(), "Hello")

	msgs := currentMessages(t, sess, st)
	if msgs[1].Content != "Sorry, I encountered an error: HTTP error! status: 500" {
		t.Fatalf("unexpected error message: %q", msgs[1].Content)
	}
}

func TestStartNewSwitchesToGreetedThread(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.reply = "Hi there"

	sess.Initialize()
	first := sess.CurrentThreadID()
	sess.Send(context.Background(), "Hello")

	sess.StartNew()

	if sess.CurrentThreadID() == first {
		t.Fatal("expected a fresh thread id")
	}
	msgs := currentMessages(t, sess, st)
	if len(msgs) != 1 || msgs[0].Content != session.Greeting {
		t.Fatalf("new thread not greeted: %+v", msgs)
	}
	if _, ok := st.Get(first); !ok {
		t.Fatal("previous thread lost on StartNew")
	}
}

func TestSwitchToCurrentIsNoop(t *testing.T) {
	sess, _, _, presenter, storage := newFixture(t)
	sess.Initialize()
	writes := storage.sets
	resets := presenter.resets

	sess.SwitchTo(sess.CurrentThreadID())

	if storage.sets != writes {
		t.Fatalf("no-op switch wrote to storage: %d -> %d", writes, storage.sets)
	}
	if presenter.resets != resets {
		t.Fatal("no-op switch reloaded the view")
	}
}

func TestSwitchToReplaysStoredMessages(t *testing.T) {
	sess, _, remote, presenter, _ := newFixture(t)
	remote.reply = "Hi there"

	sess.Initialize()
	first := sess.CurrentThreadID()
	sess.Send(context.Background(), "Hello")
	sess.StartNew()

	presenter.shown = nil
	sess.SwitchTo(first)

	if sess.CurrentThreadID() != first {
		t.Fatalf("current thread is %s, want %s", sess.CurrentThreadID(), first)
	}
	want := []shownMessage{
		{role: chat.RoleAssistant, content: session.Greeting},
		{role: chat.RoleUser, content: "Hello"},
		{role: chat.RoleAssistant, content: "Hi there"},
	}
	if len(presenter.shown) != len(want) {
		t.Fatalf("expected %d replayed messages, got %d", len(want), len(presenter.shown))
	}
	for i, msg := range want {
		if presenter.shown[i] != msg {
			t.Fatalf("replay position %d: got %+v want %+v", i, presenter.shown[i], msg)
		}
	}
}

func TestSwitchToMissingThreadSeedsGreeting(t *testing.T) {
	sess, st, _, _, _ := newFixture(t)
	sess.Initialize()

	sess.SwitchTo("gone")

	if sess.CurrentThreadID() != "gone" {
		t.Fatalf("current thread is %s", sess.CurrentThreadID())
	}
	msgs := currentMessages(t, sess, st)
	if len(msgs) != 1 || msgs[0].Content != session.Greeting {
		t.Fatalf("expected greeting seed, got %+v", msgs)
	}
}

func TestDeleteCurrentThreadStartsFresh(t *testing.T) {
	sess, st, _, _, _ := newFixture(t)
	sess.Initialize()
	first := sess.CurrentThreadID()

	sess.DeleteThread(first)

	if sess.CurrentThreadID() == first {
		t.Fatal("expected a fresh current thread")
	}
	if _, ok := st.Get(first); ok {
		t.Fatal("deleted thread still stored")
	}
	msgs := currentMessages(t, sess, st)
	if len(msgs) != 1 || msgs[0].Content != session.Greeting {
		t.Fatalf("replacement thread not greeted: %+v", msgs)
	}
}

func TestDeleteOtherThreadKeepsCurrent(t *testing.T) {
	sess, st, _, _, _ := newFixture(t)
	sess.Initialize()
	other := sess.CurrentThreadID()
	sess.StartNew()
	current := sess.CurrentThreadID()

	sess.DeleteThread(other)

	if sess.CurrentThreadID() != current {
		t.Fatal("deleting another thread moved the current pointer")
	}
	if _, ok := st.Get(other); ok {
		t.Fatal("other thread still stored")
	}
}

func TestDeleteAllResetsToBootstrap(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.reply = "Hi there"

	sess.Initialize()
	sess.Send(context.Background(), "Hello")
	sess.StartNew()
	sess.Send(context.Background(), "Hello again")

	sess.DeleteAll()
	sess.Initialize()

	all := st.LoadAll()
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 thread after DeleteAll, got %d", len(all))
	}
	msgs := currentMessages(t, sess, st)
	if len(msgs) != 1 || msgs[0].Content != session.Greeting {
		t.Fatalf("bootstrap state not reproduced: %+v", msgs)
	}
}

func TestCheckHealthBadStatusAppendsWarning(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.healthErr = &client.StatusError{Code: 503}

	sess.CheckHealth(context.Background())

	msgs := currentMessages(t, sess, st)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 advisory message, got %d", len(msgs))
	}
	if msgs[0].Content != "Warning: Backend server might not be running properly" {
		t.Fatalf("unexpected advisory: %q", msgs[0].Content)
	}
}

func TestCheckHealthConnectionFailureIsSilent(t *testing.T) {
	sess, st, remote, _, _ := newFixture(t)
	remote.healthErr = fmt.Errorf("%w: no route to host", client.ErrUnreachable)

	sess.CheckHealth(context.Background())

	if msgs := currentMessages(t, sess, st); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %+v", msgs)
	}
}

func TestThreadsListsNewestFirst(t *testing.T) {
	sess, st, _, presenter, _ := newFixture(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	st.SaveAll(map[string]chat.Thread{
		"t1": {ID: "t1", CreatedAt: base},
		"t2": {ID: "t2", CreatedAt: base.Add(time.Minute)},
	})

	sess.ShowThreads()

	if len(presenter.listed) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(presenter.listed))
	}
	listed := presenter.listed[0]
	if len(listed) != 2 || listed[0].ID != "t2" || listed[1].ID != "t1" {
		t.Fatalf("unexpected listing order: %+v", listed)
	}
}
