package session_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coco-ide/completion-service/internal/services/session"
	"github.com/coco-ide/completion-service/tests/mocks"
)

// TestSweeper_EvictsExpiredSessions runs the sweeper with a short interval
// and waits for it to reclaim an expired session.
func TestSweeper_EvictsExpiredSessions(t *testing.T) {
	m := newTestManager(5)
	recorder := &mocks.MockRecorder{}
	recorder.On("Close", mock.Anything).Return(nil)
	sessionID := m.AddSession(newManagedSession("user-1", recorder))

	sweeper := session.NewSweeper(m, 10*time.Millisecond, zerolog.Nop())
	sweeper.Start()
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		return m.GetSession(sessionID) == nil
	}, time.Second, 5*time.Millisecond)
	recorder.AssertNumberOfCalls(t, "Close", 1)
}

// TestSweeper_StopJoins verifies Stop returns once the loop has exited and
// the clock no longer advances.
func TestSweeper_StopJoins(t *testing.T) {
	m := newTestManager(3600)
	sweeper := session.NewSweeper(m, 10*time.Millisecond, zerolog.Nop())
	sweeper.Start()

	require.Eventually(t, func() bool {
		return m.CurrentTimeslot() > 0
	}, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	slot := m.CurrentTimeslot()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, slot, m.CurrentTimeslot())
}
