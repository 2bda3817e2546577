// Package redis provides the Redis session store implementation
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces session keys
const DefaultKeyPrefix = "nutriguide:session:"

// maxCreateAttempts bounds retries on a session id collision
const maxCreateAttempts = 3

// NewClient creates a Redis client from configuration and verifies the
// connection
func NewClient(cfg config.RedisConfig, logger *zap.Logger) (goredis.UniversalClient, error) {
	opts := &goredis.UniversalOptions{
		Addrs:           []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: 5 * time.Minute,
	}

	// Configure cluster mode if enabled
	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	client := goredis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.Strings("addrs", opts.Addrs),
		zap.Int("database", cfg.Database),
	)
	return client, nil
}

// SessionStore keeps sessions in Redis as JSON values with a TTL. Every
// write is a single SET, so a save replaces the session atomically.
type SessionStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

var _ outbound.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis session store
func NewSessionStore(client goredis.UniversalClient, ttl time.Duration, prefix string, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.Named("redis-session-store"),
	}
}

// Create stores the state under a new session id. SET NX guards against
// overwriting an existing session.
func (s *SessionStore) Create(ctx context.Context, state dietary.WorkflowState) (string, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := uuid.NewString()
		state.SessionID = id
		payload, err := json.Marshal(state)
		if err != nil {
			return "", fmt.Errorf("encode session: %w", err)
		}

		created, err := s.client.SetNX(ctx, s.key(id), payload, s.ttl).Result()
		if err != nil {
			s.logger.Error("Redis SETNX failed", zap.String("session_id", id), zap.Error(err))
			return "", fmt.Errorf("create session: %w", err)
		}
		if created {
			return id, nil
		}
		s.logger.Warn("Session id collision, retrying", zap.String("session_id", id))
	}
	return "", fmt.Errorf("create session: no free id after %d attempts", maxCreateAttempts)
}

// Load returns the stored state or dietary.ErrSessionNotFound. Reading does
// not refresh the TTL.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (dietary.WorkflowState, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return dietary.WorkflowState{}, dietary.ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("Redis GET failed", zap.String("session_id", sessionID), zap.Error(err))
		return dietary.WorkflowState{}, fmt.Errorf("load session: %w", err)
	}

	var state dietary.WorkflowState
	if err := json.Unmarshal(payload, &state); err != nil {
		return dietary.WorkflowState{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, nil
}

// Save replaces the stored state and refreshes the TTL
func (s *SessionStore) Save(ctx context.Context, sessionID string, state dietary.WorkflowState) error {
	state.SessionID = sessionID
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err(); err != nil {
		s.logger.Error("Redis SET failed", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}
