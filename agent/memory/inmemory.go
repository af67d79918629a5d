package memory

import (
	"context"
	"strings"
	"sync"
)

// InMemoryStore keeps conversations in a process-local map. Suitable for a
// single-process deployment and for tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]*Conversation),
	}
}

func (s *InMemoryStore) Load(ctx context.Context, sessionKey string) (*Conversation, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, ErrInvalidSessionKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[sessionKey]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv.Clone(), nil
}

func (s *InMemoryStore) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(conv.SessionKey) == "" {
		return ErrInvalidSessionKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conv.SessionKey] = conv.Clone()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return ErrInvalidSessionKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, sessionKey)
	return nil
}

// Len reports how many conversations are currently stored.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
