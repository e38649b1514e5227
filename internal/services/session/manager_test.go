package session_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coco-ide/completion-service/internal/domain/errors"
	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/services/session"
	"github.com/coco-ide/completion-service/tests/mocks"
)

func newTestManager(defaultDuration int64) *session.Manager {
	return session.NewManager(session.ManagerConfig{
		DefaultDuration: defaultDuration,
		Logger:          zerolog.Nop(),
	})
}

func newManagedSession(userID string, recorder *mocks.MockRecorder) *session.Session {
	settings, _ := models.NormalizeSettings(nil)
	return session.New(userID, "go", "vscode", "1.2.0", settings, recorder)
}

// TestManager_AddAndGetSession covers the three indexes staying consistent.
func TestManager_AddAndGetSession(t *testing.T) {
	m := newTestManager(3600)
	s := newManagedSession("user-1", &mocks.MockRecorder{})

	sessionID := m.AddSession(s)

	require.NotEmpty(t, sessionID)
	assert.Same(t, s, m.GetSession(sessionID))
	assert.Equal(t, 1, m.ActiveSessions())

	byUser, ok := m.GetSessionIDByUserToken("user-1")
	require.True(t, ok)
	assert.Equal(t, sessionID, byUser)
}

// TestManager_SessionIDsAreUnique guards against id collisions across
// sessions, including sessions created back to back for the same user after
// removal.
func TestManager_SessionIDsAreUnique(t *testing.T) {
	m := newTestManager(3600)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		recorder := &mocks.MockRecorder{}
		recorder.On("Close", mock.Anything).Return(nil)
		id := m.AddSession(newManagedSession("user-1", recorder))
		assert.False(t, seen[id])
		seen[id] = true
		require.NoError(t, m.RemoveSession(context.Background(), id))
	}
}

// TestManager_RemoveSession verifies teardown flushes the ledger, closes the
// recorder and clears every index.
func TestManager_RemoveSession(t *testing.T) {
	m := newTestManager(3600)
	recorder := &mocks.MockRecorder{}
	recorder.On("RecordActiveRequest", mock.Anything, "user-1", "1.2.0", mock.Anything, false, false).Return(nil)
	recorder.On("Close", mock.Anything).Return(nil)

	s := newManagedSession("user-1", recorder)
	sessionID := m.AddSession(s)
	require.NoError(t, s.AddActiveRequest("r1", &models.GenerateRequest{RequestID: "r1"}, map[string]string{"m1": "a"}, 0.1))

	err := m.RemoveSession(context.Background(), sessionID)

	require.NoError(t, err)
	assert.Nil(t, m.GetSession(sessionID))
	assert.Equal(t, 0, m.ActiveSessions())
	_, ok := m.GetSessionIDByUserToken("user-1")
	assert.False(t, ok)
	recorder.AssertNumberOfCalls(t, "RecordActiveRequest", 1)
	recorder.AssertNumberOfCalls(t, "Close", 1)

	// Removing again reports not found
	err = m.RemoveSession(context.Background(), sessionID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

// TestManager_SweepExpiresSessions replays ten sweep ticks over two sessions
// with a five-unit lifetime and expects both gone after the first tick
// reaches their expiration slot.
func TestManager_SweepExpiresSessions(t *testing.T) {
	m := newTestManager(5)

	recorders := make([]*mocks.MockRecorder, 2)
	ids := make([]string, 2)
	for i, user := range []string{"user-1", "user-2"} {
		recorders[i] = &mocks.MockRecorder{}
		recorders[i].On("Close", mock.Anything).Return(nil)
		ids[i] = m.AddSession(newManagedSession(user, recorders[i]))
	}

	evicted := 0
	for i := 0; i < 10; i++ {
		evicted += m.SweepOnce(context.Background())
	}

	assert.Equal(t, 2, evicted)
	assert.Equal(t, 0, m.ActiveSessions())
	assert.Equal(t, int64(10), m.CurrentTimeslot())
	for i := range ids {
		assert.Nil(t, m.GetSession(ids[i]))
		recorders[i].AssertNumberOfCalls(t, "Close", 1)
	}
}

// TestManager_TouchExtendsLifetime verifies a touched session survives past
// its original expiration slot.
func TestManager_TouchExtendsLifetime(t *testing.T) {
	m := newTestManager(5)
	recorder := &mocks.MockRecorder{}
	recorder.On("Close", mock.Anything).Return(nil)
	sessionID := m.AddSession(newManagedSession("user-1", recorder))

	// Original expiration is slot 1. Touch at slot 0 re-times to slot 1 as
	// well, so advance one tick first and touch from slot 1.
	m.SweepOnce(context.Background())
	assert.NotNil(t, m.GetSession(sessionID))
	require.NoError(t, m.Touch(sessionID))

	// Past the old expiration, the session is still live.
	m.SweepOnce(context.Background())
	assert.NotNil(t, m.GetSession(sessionID))

	// At its refreshed expiration it goes away.
	m.SweepOnce(context.Background())
	assert.Nil(t, m.GetSession(sessionID))

	assert.True(t, errors.IsNotFound(m.Touch(sessionID)))
}

// TestManager_Shutdown flushes every remaining session exactly once.
func TestManager_Shutdown(t *testing.T) {
	m := newTestManager(3600)
	recorders := make([]*mocks.MockRecorder, 3)
	for i, user := range []string{"u1", "u2", "u3"} {
		recorders[i] = &mocks.MockRecorder{}
		recorders[i].On("Close", mock.Anything).Return(nil)
		m.AddSession(newManagedSession(user, recorders[i]))
	}

	m.Shutdown(context.Background())

	assert.Equal(t, 0, m.ActiveSessions())
	for _, recorder := range recorders {
		recorder.AssertNumberOfCalls(t, "Close", 1)
	}
}
