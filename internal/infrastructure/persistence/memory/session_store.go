// Package memory provides an in-memory session store implementation
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is how long a session lives after its last save
const DefaultTTL = time.Hour

// sessionItem is a stored snapshot of a workflow state
type sessionItem struct {
	Payload   []byte
	ExpiresAt time.Time
}

// SessionStore keeps sessions in process memory. States are stored as JSON
// snapshots so callers never share memory with the store.
type SessionStore struct {
	data   map[string]sessionItem
	mutex  sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

var _ outbound.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new in-memory session store. A positive
// sweepInterval starts a goroutine removing expired sessions until Close.
func NewSessionStore(ttl, sweepInterval time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	store := &SessionStore{
		data:   make(map[string]sessionItem),
		ttl:    ttl,
		now:    time.Now,
		stop:   make(chan struct{}),
		logger: logger.Named("memory-session-store"),
	}

	if sweepInterval > 0 {
		go store.sweep(sweepInterval)
	}

	return store
}

// Create stores the state under a new session id
func (s *SessionStore) Create(ctx context.Context, state dietary.WorkflowState) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	state.SessionID = id
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[id] = sessionItem{Payload: payload, ExpiresAt: s.now().Add(s.ttl)}
	return id, nil
}

// Load returns the stored state. Missing and expired sessions both yield
// dietary.ErrSessionNotFound; expired entries are removed on the way.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (dietary.WorkflowState, error) {
	if err := ctx.Err(); err != nil {
		return dietary.WorkflowState{}, err
	}

	s.mutex.Lock()
	item, exists := s.data[sessionID]
	if exists && !s.now().Before(item.ExpiresAt) {
		delete(s.data, sessionID)
		exists = false
	}
	s.mutex.Unlock()

	if !exists {
		return dietary.WorkflowState{}, dietary.ErrSessionNotFound
	}

	var state dietary.WorkflowState
	if err := json.Unmarshal(item.Payload, &state); err != nil {
		return dietary.WorkflowState{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, nil
}

// Save replaces the stored state and refreshes the expiry
func (s *SessionStore) Save(ctx context.Context, sessionID string, state dietary.WorkflowState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state.SessionID = sessionID
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[sessionID] = sessionItem{Payload: payload, ExpiresAt: s.now().Add(s.ttl)}
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *SessionStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Close stops the sweeper
func (s *SessionStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// removeExpired deletes every expired session and returns how many went
func (s *SessionStore) removeExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, item := range s.data {
		if !now.Before(item.ExpiresAt) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.removeExpired(); removed > 0 {
				s.logger.Debug("Removed expired sessions", zap.Int("count", removed))
			}
		case <-s.stop:
			return
		}
	}
}
