package officina

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemStore keeps requests in memory. It backs local development when no
// database is configured; data does not survive a restart.
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	reqs   []*Request
}

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (s *MemStore) Insert(_ context.Context, req *Request) (int64, error) {
	if !req.Category.Valid() {
		return 0, fmt.Errorf("unknown category %q", req.Category)
	}
	if !req.Status.Valid() {
		return 0, fmt.Errorf("unknown status %q", req.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *req
	cp.ID = s.nextID
	s.nextID++
	s.reqs = append(s.reqs, &cp)
	return cp.ID, nil
}

func (s *MemStore) List(_ context.Context, f Filter) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Request
	for _, r := range s.reqs {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *MemStore) Get(_ context.Context, id int64) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.find(id)
	if r == nil {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) MarkReplied(_ context.Context, id int64, reply string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.find(id)
	if r == nil || r.Status == StatusCompleted {
		return ErrNotFound
	}
	r.Status = StatusReplied
	r.Reply = &reply
	r.RepliedAt = &at
	return nil
}

func (s *MemStore) MarkCompleted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.find(id)
	if r == nil {
		return ErrNotFound
	}
	r.Status = StatusCompleted
	r.CompletedAt = &at
	return nil
}

func (s *MemStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reqs), nil
}

// caller holds the lock
func (s *MemStore) find(id int64) *Request {
	for _, r := range s.reqs {
		if r.ID == id {
			return r
		}
	}
	return nil
}
