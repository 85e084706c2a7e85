package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/infrastructure/redis"
)

// sessionKey matches the single storage key the web client has always used.
const sessionKey = "feedbackflow:session:feedbackUser"

// RedisSessionStore persists the session record in Redis.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisSessionStore creates a store. A zero ttl keeps the session until
// logout.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSessionStore{redis: client, ttl: ttl, logger: logger}
}

// Save stores the serialized user.
func (s *RedisSessionStore) Save(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey, string(data), s.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.logger.Debug("session persisted", slog.String("user_id", user.ID))
	return nil
}

// Load retrieves the persisted user. Returns ErrNoSession when no record
// exists.
func (s *RedisSessionStore) Load(ctx context.Context) (*domain.User, error) {
	data, err := s.redis.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("decode session: missing user id")
	}
	return &user, nil
}

// Clear removes the session record.
func (s *RedisSessionStore) Clear(ctx context.Context) error {
	if err := s.redis.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
