package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"product-import-service/internal/importer"
)

// DefaultSessionTTL is how long an idle import session is kept
const DefaultSessionTTL = 2 * time.Hour

const sessionKeyPrefix = "product_import:session"

func sessionKey(tenantID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", sessionKeyPrefix, tenantID, sessionID)
}

// RedisSessionStore keeps import sessions in Redis as JSON
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ importer.SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Save stores the session and refreshes its TTL
func (s *RedisSessionStore) Save(ctx context.Context, session *importer.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal import session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.TenantID, session.ID), data, s.ttl).Err()
}

// Load fetches a tenant's session
func (s *RedisSessionStore) Load(ctx context.Context, tenantID, sessionID string) (*importer.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(tenantID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, importer.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import session: %w", err)
	}

	var session importer.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import session: %w", err)
	}
	if session.TenantID != tenantID {
		return nil, importer.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, tenantID, sessionID string) error {
	return s.client.Del(ctx, sessionKey(tenantID, sessionID)).Err()
}

// MemorySessionStore keeps import sessions in process memory. Used when Redis
// is unavailable; sessions are lost on restart and not shared between replicas.
type MemorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

var _ importer.SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Save stores a copy of the session
func (s *MemorySessionStore) Save(ctx context.Context, session *importer.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal import session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, key)
		}
	}
	s.sessions[sessionKey(session.TenantID, session.ID)] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

// Load returns a copy of a tenant's session
func (s *MemorySessionStore) Load(ctx context.Context, tenantID, sessionID string) (*importer.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionKey(tenantID, sessionID)]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return nil, importer.ErrSessionNotFound
	}

	var session importer.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import session: %w", err)
	}
	return &session, nil
}

// Delete removes a session
func (s *MemorySessionStore) Delete(ctx context.Context, tenantID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(tenantID, sessionID))
	return nil
}
