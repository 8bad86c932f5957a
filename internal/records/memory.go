package records

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	questions map[string]*Question
	order     []string
	topics    []string
	cohorts   []string
}

// NewMemoryStore creates an empty in-memory corpus with the default vocabulary.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[string]*Question),
		topics:    append([]string(nil), DefaultTopics...),
		cohorts:   append([]string(nil), DefaultCohorts...),
	}
}

func (s *MemoryStore) FindSimilar(ctx context.Context, stemPrefix string, limit int) ([]*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	prefix := strings.TrimSpace(stemPrefix)
	var out []*Question
	for _, id := range s.order {
		q := s.questions[id]
		if strings.HasPrefix(q.Stem, prefix) {
			cp := *q
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Status == "" {
		q.Status = StatusUnverified
	}
	cp := *q
	s.questions[q.ID] = &cp
	s.order = append(s.order, q.ID)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.questions[id]
	if !ok {
		return fmt.Errorf("question %s not found", id)
	}
	cp := *q
	cp.ID = id
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	if cp.Status == "" {
		cp.Status = existing.Status
	}
	s.questions[id] = &cp
	return nil
}

func (s *MemoryStore) Count(ctx context.Context, f Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, q := range s.questions {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.Cohort != "" && q.Cohort != f.Cohort {
			continue
		}
		if f.Topic != "" && !containsTopic(q.Topics, f.Topic) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		Total:    len(s.questions),
		ByStatus: make(map[string]int),
		ByCohort: make(map[string]int),
	}
	for _, q := range s.questions {
		stats.ByStatus[string(q.Status)]++
		stats.ByCohort[q.Cohort]++
	}
	return stats, nil
}

func (s *MemoryStore) Topics(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.topics...), nil
}

func (s *MemoryStore) Cohorts(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.cohorts...), nil
}

func (s *MemoryStore) Close() error { return nil }

// Get returns a stored question by ID. Test helper.
func (s *MemoryStore) Get(id string) (*Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, false
	}
	cp := *q
	return &cp, true
}

func containsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}
