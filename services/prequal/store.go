package prequal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lexconnect/models"

	"github.com/go-redis/redis/v8"
)

const sessionPrefix = "prequal:"

// SessionTTL is refreshed on every write.
const SessionTTL = 30 * time.Minute

// SessionStore keeps anonymous conversations until they expire or are claimed.
type SessionStore interface {
	// Get returns nil, nil when the session is unknown or expired.
	Get(ctx context.Context, id string) (*models.PrequalSession, error)
	Save(ctx context.Context, s *models.PrequalSession) error
	Delete(ctx context.Context, id string) error
}

type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.PrequalSession, error) {
	data, err := s.client.Get(ctx, sessionPrefix+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session models.PrequalSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.PrequalSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionPrefix+session.ID, b, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionPrefix+id).Err()
}

// MemorySessionStore ignores expiry. Used in tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.PrequalSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]models.PrequalSession{}}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.PrequalSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	session.Turns = append([]models.PrequalTurn(nil), session.Turns...)
	return &session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *models.PrequalSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	cp.Turns = append([]models.PrequalTurn(nil), session.Turns...)
	s.sessions[session.ID] = cp
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
