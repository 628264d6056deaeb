// Package store owns the durable representation of all chat threads.
package store

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"chatbox/internal/model/chat"
)

// historyKey is the single well-known key the whole thread collection lives under.
const historyKey = "chatHistory"

// ConversationStore maps thread ids to threads, writing the whole collection
// through to storage on every mutation. The in-memory map stays authoritative
// when a write fails; storage errors are logged, never surfaced.
type ConversationStore struct {
	mu      sync.RWMutex
	storage Storage
	threads map[string]chat.Thread
}

// NewConversationStore loads the persisted collection, falling back to an
// empty one when the blob is absent or unreadable.
func NewConversationStore(storage Storage) *ConversationStore {
	s := &ConversationStore{storage: storage}
	s.threads = s.readAll()
	return s
}

func (s *ConversationStore) readAll() map[string]chat.Thread {
	threads := make(map[string]chat.Thread)
	data, ok, err := s.storage.Get(historyKey)
	if err != nil {
		log.Printf("[store] read history: %v", err)
		return threads
	}
	if !ok {
		return threads
	}
	if err := json.Unmarshal(data, &threads); err != nil {
		log.Printf("[store] unreadable history blob, starting empty: %v", err)
		return make(map[string]chat.Thread)
	}
	return threads
}

// LoadAll returns a copy of the current thread mapping.
func (s *ConversationStore) LoadAll() map[string]chat.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]chat.Thread, len(s.threads))
	for id, t := range s.threads {
		out[id] = cloneThread(t)
	}
	return out
}

// SaveAll replaces the collection and persists it in one write.
func (s *ConversationStore) SaveAll(threads map[string]chat.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make(map[string]chat.Thread, len(threads))
	for id, t := range threads {
		s.threads[id] = cloneThread(t)
	}
	s.writeLocked()
}

// AppendMessage appends msg to the thread, creating the record with a fresh
// CreatedAt when it does not exist yet, and persists immediately.
func (s *ConversationStore) AppendMessage(threadID string, msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		t = chat.Thread{ID: threadID, CreatedAt: time.Now().UTC()}
	}
	t.Messages = append(t.Messages, msg)
	s.threads[threadID] = t
	s.writeLocked()
}

// Get retrieves one thread by id.
func (s *ConversationStore) Get(threadID string) (chat.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok {
		return chat.Thread{}, false
	}
	return cloneThread(t), true
}

// Delete removes one thread and persists.
func (s *ConversationStore) Delete(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	s.writeLocked()
}

// DeleteAll clears the persisted blob entirely.
func (s *ConversationStore) DeleteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make(map[string]chat.Thread)
	if err := s.storage.Delete(historyKey); err != nil {
		log.Printf("[store] clear history: %v", err)
	}
}

// ListByRecency returns every thread ordered by creation time, newest first.
// Ties break on id so the ordering is deterministic.
func (s *ConversationStore) ListByRecency() []chat.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, cloneThread(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *ConversationStore) writeLocked() {
	data, err := json.Marshal(s.threads)
	if err != nil {
		log.Printf("[store] encode history: %v", err)
		return
	}
	if err := s.storage.Set(historyKey, data); err != nil {
		log.Printf("[store] write history: %v", err)
	}
}

func cloneThread(t chat.Thread) chat.Thread {
	t.Messages = append([]chat.Message(nil), t.Messages...)
	return t
}
