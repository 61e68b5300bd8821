package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoredSession is the persisted bearer session for one device profile.
type StoredSession struct {
	AccessToken string    `json:"access_token"`
	UserID      int       `json:"user_id"`
	Role        string    `json:"role"`
	Expiry      time.Time `json:"expiry"`
}

var ErrSessionNotFound = errors.New("no session found")

// SessionStore persists bearer sessions keyed by device profile. Should be
// safe for concurrent use. Save overwrites an existing session for the same
// profile; Delete of a missing session is an error.
type SessionStore interface {
	Save(ctx context.Context, profileID string, session StoredSession) error
	Load(ctx context.Context, profileID string) (StoredSession, error)
	Delete(ctx context.Context, profileID string) error
}

// ------------------------------------------------------------------------------

type InMemorySessionStore struct {
	sessions map[string]StoredSession
	mutex    sync.Mutex
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]StoredSession),
	}
}

func (s *InMemorySessionStore) Save(_ context.Context, profileID string, session StoredSession) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[profileID] = session
	return nil
}

func (s *InMemorySessionStore) Load(_ context.Context, profileID string) (StoredSession, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.sessions[profileID]
	if !ok {
		return StoredSession{}, fmt.Errorf("%w for profile %s", ErrSessionNotFound, profileID)
	}
	return session, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, profileID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[profileID]; !ok {
		return fmt.Errorf("%w for profile %s, nothing to delete", ErrSessionNotFound, profileID)
	}
	delete(s.sessions, profileID)
	return nil
}

// ------------------------------------------------------------------------------

// RedisSessionStore keeps sessions in Redis so a kiosk survives restarts.
// Entries expire with the token (plus a day of slack for sessions without
// an exp claim).
type RedisSessionStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisSessionStore(client *redis.Client, namespace string) *RedisSessionStore {
	return &RedisSessionStore{client: client, namespace: namespace}
}

const defaultSessionTTL = 24 * time.Hour

func sessionKey(namespace, profileID string) string {
	return fmt.Sprintf("%s:session:%s", namespace, profileID)
}

func (s *RedisSessionStore) Save(ctx context.Context, profileID string, session StoredSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := defaultSessionTTL
	if !session.Expiry.IsZero() {
		if remaining := time.Until(session.Expiry); remaining > 0 {
			ttl = remaining
		}
	}

	return s.client.Set(ctx, sessionKey(s.namespace, profileID), payload, ttl).Err()
}

func (s *RedisSessionStore) Load(ctx context.Context, profileID string) (StoredSession, error) {
	payload, err := s.client.Get(ctx, sessionKey(s.namespace, profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return StoredSession{}, fmt.Errorf("%w for profile %s", ErrSessionNotFound, profileID)
	}
	if err != nil {
		return StoredSession{}, err
	}

	var session StoredSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return StoredSession{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, profileID string) error {
	removed, err := s.client.Del(ctx, sessionKey(s.namespace, profileID)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w for profile %s, nothing to delete", ErrSessionNotFound, profileID)
	}
	return nil
}
