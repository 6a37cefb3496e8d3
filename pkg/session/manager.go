package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/pkg/catalog"
	"github.com/goliatone/go-formprompt/pkg/proposal"
)

// DefaultMaxIdle matches the retention of server-side conversation history.
const DefaultMaxIdle = 24 * time.Hour

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithSessionOptions applies options to every session the manager creates.
func WithSessionOptions(options ...Option) ManagerOption {
	return func(m *Manager) {
		m.sessionOptions = append(m.sessionOptions, options...)
	}
}

// WithManagerClock overrides the time source used for idle checks. It is also
// passed to created sessions.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithManagerLogger attaches a logger. Created sessions inherit it.
func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager owns the live sessions of a server, keyed by id.
type Manager struct {
	fetcher        catalog.Fetcher
	proposer       proposal.Proposer
	sessionOptions []Option
	now            func() time.Time
	logger         *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager builds a Manager whose sessions share fetcher and proposer.
func NewManager(fetcher catalog.Fetcher, proposer proposal.Proposer, options ...ManagerOption) (*Manager, error) {
	if fetcher == nil || proposer == nil {
		return nil, fmt.Errorf("session: manager requires a fetcher and a proposer")
	}
	m := &Manager{
		fetcher:  fetcher,
		proposer: proposer,
		now:      time.Now,
		logger:   zap.NewNop(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m, nil
}

// Create starts a new empty session.
func (m *Manager) Create() (*Session, error) {
	options := make([]Option, 0, len(m.sessionOptions)+3)
	options = append(options, WithClock(m.now), WithLogger(m.logger))
	options = append(options, m.sessionOptions...)
	options = append(options, WithID(uuid.NewString()))

	s, err := New(m.fetcher, m.proposer, options...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session", s.ID()))
	return s, nil
}

// Get looks up a session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session, cancelling any outstanding call.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Clear()
		m.logger.Debug("session deleted", zap.String("session", id))
	}
	return ok
}

// IDs lists the live session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup evicts sessions idle for longer than maxIdle and returns how many
// were removed. Busy sessions are kept.
func (m *Manager) Cleanup(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.Busy() || !s.LastActive().Before(cutoff) {
			continue
		}
		evicted = append(evicted, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Clear()
	}
	if len(evicted) > 0 {
		m.logger.Info("idle sessions evicted", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Janitor runs Cleanup every interval until ctx is done.
func (m *Manager) Janitor(ctx context.Context, interval, maxIdle time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Cleanup(maxIdle)
		}
	}
}
