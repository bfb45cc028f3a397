package channel

import (
	"context"
	"encoding/json"
	"sync"

	"nexchat/internal/pkg/errs"
)

// MemStore is an in-memory Store for tests and single-process setups.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]json.RawMessage)}
}

// Create implements Store.
func (s *MemStore) Create(ctx context.Context, code string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[code]; ok {
		return errs.NewError(errs.ErrChannelExists)
	}
	s.docs[code] = append(json.RawMessage{}, doc...)
	return nil
}

// Get implements Store.
func (s *MemStore) Get(ctx context.Context, code string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[code]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage{}, doc...), nil
}

// Replace implements Store.
func (s *MemStore) Replace(ctx context.Context, code string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[code]; !ok {
		return errs.NewError(errs.ErrChannelNotFound)
	}
	s.docs[code] = append(json.RawMessage{}, doc...)
	return nil
}
