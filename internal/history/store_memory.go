package history

import (
	"context"
	"sort"
	"sync"

	id "taskhub/pkg/domain"
)

// InMemoryStore keeps records per task behind a mutex. Used in tests and for
// running the service without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.TaskID][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.TaskID][]Record)}
}

func (s *InMemoryStore) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.TaskID] = append(s.records[record.TaskID], record)
	return nil
}

func (s *InMemoryStore) ListByTask(_ context.Context, taskID id.TaskID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Record{}, s.records[taskID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreateDate.Before(out[j].CreateDate)
	})
	return out, nil
}

// Clear empties the store between tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[id.TaskID][]Record)
}
