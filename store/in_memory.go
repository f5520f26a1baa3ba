package store

import (
	"context"
	"sync"
	"time"

	"github.com/skiffworks/skiff/core"
)

// InMemoryConversationStore is a volatile ConversationStore keeping
// conversations in a process local map. It is safe for concurrent
// access. Each returned conversation is cloned to prevent external
// mutation of internal state.
type InMemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

// NewInMemoryConversationStore constructs an empty in-memory store.
func NewInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{conversations: make(map[string]*Conversation)}
}

// Fetch implements ConversationStore.
func (s *InMemoryConversationStore) Fetch(_ context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(conv), nil
}

// Create implements ConversationStore.
func (s *InMemoryConversationStore) Create(_ context.Context, projectID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := &Conversation{
		ID:        core.NewID(),
		ProjectID: projectID,
		CreatedAt: time.Now().UTC(),
	}
	s.conversations[conv.ID] = conv
	return cloneConversation(conv), nil
}

// AppendTurn implements ConversationStore.
func (s *InMemoryConversationStore) AppendTurn(_ context.Context, conversationID string, turn *core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.Turns = append(conv.Turns, *turn)
	now := time.Now().UTC()
	conv.UpdatedAt = &now
	return nil
}

func cloneConversation(conv *Conversation) *Conversation {
	clone := *conv
	clone.Turns = append([]core.Turn(nil), conv.Turns...)
	return &clone
}

// InMemoryProjectStore is a volatile ProjectStore for tests and demos.
type InMemoryProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewInMemoryProjectStore constructs an empty in-memory project store.
func NewInMemoryProjectStore() *InMemoryProjectStore {
	return &InMemoryProjectStore{projects: make(map[string]*Project)}
}

// Fetch implements ProjectStore.
func (s *InMemoryProjectStore) Fetch(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

// Create implements ProjectStore.
func (s *InMemoryProjectStore) Create(_ context.Context, name string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Project{
		ID:        core.NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.projects[p.ID] = p
	clone := *p
	return &clone, nil
}
