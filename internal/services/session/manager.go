package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coco-ide/completion-service/internal/domain/errors"
)

// sweepGranularity is the number of logical time units covered by one sweep
// tick. A session's expiration slot is its duration divided by this.
const sweepGranularity = 5

// Manager is the concurrent registry of all live sessions. It maintains
// three indexes under one exclusive lock: session id to session, user id to
// session id (at most one live session per user), and the expiration wheel
// (timeslot to session ids). The logical clock advances one slot per sweep
// tick.
type Manager struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	userToSession map[string]string
	wheel         map[int64][]string
	currentSlot   int64
	durationSlots int64
	logger        zerolog.Logger
}

// ManagerConfig holds the configuration for the session manager.
type ManagerConfig struct {
	// DefaultDuration is the session lifetime in logical time units.
	DefaultDuration int64
	Logger          zerolog.Logger
}

// NewManager creates an empty session manager.
func NewManager(cfg ManagerConfig) *Manager {
	slots := cfg.DefaultDuration / sweepGranularity
	if slots < 1 {
		slots = 1
	}
	return &Manager{
		sessions:      make(map[string]*Session),
		userToSession: make(map[string]string),
		wheel:         make(map[int64][]string),
		durationSlots: slots,
		logger:        cfg.Logger,
	}
}

// AddSession registers a session in all three indexes and returns its newly
// generated id. Callers are responsible for checking the user-id index first
// and reusing an existing live session; AddSession itself does not
// deduplicate.
func (m *Manager) AddSession(s *Session) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	expiration := m.currentSlot + m.durationSlots

	s.expiration = expiration
	m.sessions[id] = s
	m.userToSession[s.UserID()] = id
	m.wheel[expiration] = append(m.wheel[expiration], id)

	m.logger.Info().
		Str("session_id", id).
		Str("user_id", s.UserID()).
		Int64("expiration_slot", expiration).
		Msg("session added")

	return id
}

// GetSession returns the session registered under the given id, or nil when
// the id is unknown.
func (m *Manager) GetSession(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

// GetSessionIDByUserToken returns the live session id for the given user, if
// one exists.
func (m *Manager) GetSessionIDByUserToken(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.userToSession[userID]
	return id, ok
}

// RemoveSession tears a session down: flushes its active requests through
// the persistence recorder, closes the recorder, and removes the session
// from all three indexes. Fails with a not found error for unknown ids;
// callers should check existence via GetSession first.
func (m *Manager) RemoveSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(ctx, sessionID)
}

// removeLocked performs the teardown with m.mu already held.
func (m *Manager) removeLocked(ctx context.Context, sessionID string) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return errors.NewNotFoundError("session", sessionID)
	}

	s.DumpActiveRequests(ctx, s.Settings().StoreCompletions(), s.Settings().StoreContext())

	if err := s.recorder.Close(ctx); err != nil {
		m.logger.Error().Err(err).
			Str("session_id", sessionID).
			Msg("failed to close session recorder")
	}

	delete(m.userToSession, s.UserID())
	delete(m.sessions, sessionID)
	m.removeFromWheel(sessionID, s.expiration)

	m.logger.Info().
		Str("session_id", sessionID).
		Str("user_id", s.UserID()).
		Msg("session removed")

	return nil
}

// Touch re-times a session from the current logical clock, moving it from
// its old expiration bucket to the new one. Called on session activity to
// extend its lifetime.
func (m *Manager) Touch(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return errors.NewNotFoundError("session", sessionID)
	}

	m.removeFromWheel(sessionID, s.expiration)
	s.expiration = m.currentSlot + m.durationSlots
	m.wheel[s.expiration] = append(m.wheel[s.expiration], sessionID)

	return nil
}

// CurrentTimeslot returns the manager's logical clock.
func (m *Manager) CurrentTimeslot() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentSlot
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepOnce evicts every session bucketed at the current timeslot whose
// expiration has been reached, then advances the logical clock by one.
// Returns the number of sessions evicted.
func (m *Manager) SweepOnce(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	due := m.wheel[m.currentSlot]
	for _, sessionID := range append([]string(nil), due...) {
		s, ok := m.sessions[sessionID]
		if !ok || s.expiration > m.currentSlot {
			continue
		}
		if err := m.removeLocked(ctx, sessionID); err == nil {
			evicted++
		}
	}

	m.currentSlot++
	return evicted
}

// Shutdown removes every remaining session, flushing each through its
// recorder. Called once on process exit.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sessionID := range m.sessions {
		if err := m.removeLocked(ctx, sessionID); err != nil {
			m.logger.Error().Err(err).
				Str("session_id", sessionID).
				Msg("failed to remove session during shutdown")
		}
	}
}

// removeFromWheel drops a session id from its expiration bucket, deleting
// the bucket when it empties. A session id lives in exactly one bucket at a
// time.
func (m *Manager) removeFromWheel(sessionID string, slot int64) {
	bucket := m.wheel[slot]
	for i, id := range bucket {
		if id == sessionID {
			m.wheel[slot] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(m.wheel[slot]) == 0 {
		delete(m.wheel, slot)
	}
}
