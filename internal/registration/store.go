package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionMissing = errors.New("REGISTRATION_SESSION_MISSING")

const (
	sessionKeyPrefix  = "registration:"
	DefaultSessionTTL = 24 * time.Hour
)

// Session is the persisted in-progress registration of one subscriber.
type Session struct {
	SubscriberID int64       `json:"subscriberId"`
	Username     string      `json:"username,omitempty"`
	Updating     bool        `json:"updating"`
	State        State       `json:"state"`
	Accumulator  Accumulator `json:"accumulator"`
}

// Store keeps sessions in Redis with a sliding TTL.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{redis: client, ttl: ttl}
}

func sessionKey(subscriberID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(subscriberID, 10)
}

// Load returns ErrSessionMissing when no session exists.
func (s *Store) Load(ctx context.Context, subscriberID int64) (*Session, error) {
	val, err := s.redis.Get(ctx, sessionKey(subscriberID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load registration session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("decode registration session: %w", err)
	}
	return &session, nil
}

func (s *Store) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode registration session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.SubscriberID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save registration session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, subscriberID int64) error {
	if err := s.redis.Del(ctx, sessionKey(subscriberID)).Err(); err != nil {
		return fmt.Errorf("delete registration session: %w", err)
	}
	return nil
}
