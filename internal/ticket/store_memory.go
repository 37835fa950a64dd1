package ticket

import (
	"context"
	"fmt"
	"sync"

	id "taskhub/pkg/domain"
	"taskhub/pkg/platform/sentinel"
)

type memoryKey struct {
	org  id.OrgID
	task id.TaskID
}

// InMemoryStore keeps tickets behind a mutex for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	tickets map[memoryKey]Ticket
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tickets: make(map[memoryKey]Ticket)}
}

func (s *InMemoryStore) Create(_ context.Context, t Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[memoryKey{t.OrgID, t.ID}] = t
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, orgID id.OrgID, taskID id.TaskID) (Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[memoryKey{orgID, taskID}]
	if !ok {
		return Ticket{}, fmt.Errorf("ticket %s: %w", taskID, sentinel.ErrNotFound)
	}
	return t, nil
}

func (s *InMemoryStore) Update(_ context.Context, t Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{t.OrgID, t.ID}
	if _, ok := s.tickets[key]; !ok {
		return fmt.Errorf("ticket %s: %w", t.ID, sentinel.ErrNotFound)
	}
	s.tickets[key] = t
	return nil
}
