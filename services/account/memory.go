package account

import (
	"context"
	"sync"
)

// MemorySessionCache is a process-local SessionCache for tests and
// single-instance development runs.
type MemorySessionCache struct {
	mu    sync.Mutex
	items map[string]SessionState
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{items: map[string]SessionState{}}
}

func (c *MemorySessionCache) Get(_ context.Context, role, id string) (*SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[role+":"+id]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &s, nil
}

func (c *MemorySessionCache) Put(_ context.Context, role, id string, state SessionState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[role+":"+id] = state
	return nil
}

func (c *MemorySessionCache) Invalidate(_ context.Context, role, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, role+":"+id)
	return nil
}

// MemoryOTPStore records issued codes. Every code is "123456"; tests read
// it back with Code.
type MemoryOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
	Sent  []string
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: map[string]string{}}
}

func (s *MemoryOTPStore) Initiate(_ context.Context, purpose, subject, destination string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[purpose+":"+subject] = "123456"
	s.Sent = append(s.Sent, destination)
	return nil
}

func (s *MemoryOTPStore) Verify(_ context.Context, purpose, subject, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := purpose + ":" + subject
	if stored, ok := s.codes[key]; !ok || stored != code {
		return ErrInvalidOTP
	}
	delete(s.codes, key)
	return nil
}

// Code returns the pending code for the subject.
func (s *MemoryOTPStore) Code(purpose, subject string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[purpose+":"+subject]
}
