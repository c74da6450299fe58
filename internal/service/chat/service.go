package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/metrics"
	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
)

var ErrSessionNotFound = errors.New("session not found")

// Service is the in-memory registry of widget sessions. Each session is owned
// by its flow controller; nothing outlives the process.
type Service struct {
	deps        flow.Dependencies
	onDelete    func(chat.Session)
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*flow.Controller
}

// Option customizes the registry.
type Option func(*Service)

// WithOnDelete registers a hook that receives the final snapshot of every
// deleted session, e.g. to release assistant history.
func WithOnDelete(fn func(chat.Session)) Option {
	return func(s *Service) { s.onDelete = fn }
}

// WithIdleTimeout lets ReapIdle drop sessions nobody has touched for d.
// Zero keeps sessions until they are deleted.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) { s.idleTimeout = d }
}

// NewService creates a registry whose controllers share deps.
func NewService(deps flow.Dependencies, opts ...Option) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Service{
		deps:     deps,
		now:      deps.Now,
		sessions: make(map[string]*flow.Controller),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens a session. A non-empty language is selected right away.
func (s *Service) CreateSession(_ context.Context, lang i18n.Language) (*flow.Controller, error) {
	ctrl := flow.New(uuid.NewString(), s.deps)
	if lang != "" {
		if err := ctrl.SelectLanguage(lang); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.sessions[ctrl.ID()] = ctrl
	s.mu.Unlock()

	metrics.SessionOpened()
	return ctrl, nil
}

// GetSession retrieves a session controller by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*flow.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// DeleteSession discards the session and closes its subscribers.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	ctrl, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	snap := ctrl.Snapshot()
	ctrl.Close()
	metrics.SessionClosed()
	if s.onDelete != nil {
		s.onDelete(snap)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle deletes sessions idle longer than the idle timeout. Sessions with a
// running turn or an attached listener are kept. It returns how many were
// dropped.
func (s *Service) ReapIdle() int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.RLock()
	var stale []string
	for id, ctrl := range s.sessions {
		if ctrl.Busy() || ctrl.Subscribers() > 0 {
			continue
		}
		if ctrl.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	reaped := 0
	for _, id := range stale {
		if s.DeleteSession(context.Background(), id) == nil {
			reaped++
		}
	}
	if reaped > 0 && s.deps.Logger != nil {
		s.deps.Logger.WithField("sessions", reaped).Info("expired idle sessions")
	}
	return reaped
}

// StartReaper runs ReapIdle every interval until ctx is done.
func (s *Service) StartReaper(ctx context.Context, interval time.Duration) {
	if s.idleTimeout <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.ReapIdle()
			}
		}
	}()
}

// Close deletes every session; used on shutdown.
func (s *Service) Close() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		_ = s.DeleteSession(context.Background(), id)
	}
}
