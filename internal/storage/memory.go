package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps messages in a map. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Message
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Message),
		now:   time.Now,
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, 0, len(s.items))
	for _, m := range s.items {
		out = append(out, m)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.items[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) Create(ctx context.Context, in MessageInput) (Message, error) {
	if err := in.Validate(); err != nil {
		return Message{}, err
	}
	m := newMessage(in, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[m.ID] = m
	return m, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch MessagePatch) (Message, error) {
	if err := patch.Validate(); err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.items[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	m = patch.apply(m, s.now())
	s.items[id] = m
	return m, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func sortNewestFirst(list []Message) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
