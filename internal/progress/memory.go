package progress

import "sync"

// MemoryStore keeps job state in process memory. Useful only in tests;
// production deployments want the file-backed store.
type MemoryStore struct {
	mu    sync.Mutex
	state *JobState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(state *JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}

func (s *MemoryStore) Load() (*JobState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}
