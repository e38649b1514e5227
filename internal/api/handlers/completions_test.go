package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coco-ide/completion-service/internal/api/handlers"
	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/services/ratelimit"
	"github.com/coco-ide/completion-service/internal/services/session"
	"github.com/coco-ide/completion-service/tests/mocks"
)

type completionHandlerFixture struct {
	handler *handlers.CompletionsHandler
	manager *session.Manager
	engine  *mocks.MockEngine
}

func newCompletionHandlerFixture(maxRate int) *completionHandlerFixture {
	manager := session.NewManager(session.ManagerConfig{
		DefaultDuration: 3600,
		Logger:          zerolog.Nop(),
	})
	engine := &mocks.MockEngine{}
	limiter := ratelimit.New(maxRate, zerolog.Nop())
	handler := handlers.NewCompletionsHandler(manager, engine, limiter, zerolog.Nop())

	return &completionHandlerFixture{
		handler: handler,
		manager: manager,
		engine:  engine,
	}
}

func (f *completionHandlerFixture) addSession(userID string) string {
	recorder := &mocks.MockRecorder{}
	recorder.On("Close", mock.Anything).Return(nil)
	settings, _ := models.NormalizeSettings(nil)
	return f.manager.AddSession(session.New(userID, "go", "vscode", "1.2.0", settings, recorder))
}

// TestCompletionsHandler_Complete_Success serves a completion and records it
// on the session's ledger.
func TestCompletionsHandler_Complete_Success(t *testing.T) {
	f := newCompletionHandlerFixture(1000)
	sessionID := f.addSession("user-1")
	f.engine.On("Generate", mock.Anything, mock.Anything).
		Return(map[string]string{"m1": "one", "m2": "two"}, 0.1, nil)

	w := postJSON(t, f.handler.Complete, "/complete", gin.H{
		"session_id": sessionID,
		"request_id": "r1",
		"prefix":     "func main() {",
		"suffix":     "}",
		"trigger":    "auto",
		"language":   "go",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Completions map[string]string `json:"completions"`
		Time        float64           `json:"time"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{"m1": "one", "m2": "two"}, resp.Completions)

	s := f.manager.GetSession(sessionID)
	require.NotNil(t, s)
	record, err := s.GetActiveRequest("r1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), record.TimeTakenMs)
	assert.Equal(t, "user-1", record.Request.UserID)
}

// TestCompletionsHandler_Complete_DuplicateRequest rejects a reused id.
func TestCompletionsHandler_Complete_DuplicateRequest(t *testing.T) {
	f := newCompletionHandlerFixture(1000)
	sessionID := f.addSession("user-1")
	f.engine.On("Generate", mock.Anything, mock.Anything).
		Return(map[string]string{"m1": "one"}, 0.1, nil)

	body := gin.H{"session_id": sessionID, "request_id": "r1"}
	first := postJSON(t, f.handler.Complete, "/complete", body)
	second := postJSON(t, f.handler.Complete, "/complete", body)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusConflict, second.Code)
}

// TestCompletionsHandler_Complete_UnknownSession reports 404.
func TestCompletionsHandler_Complete_UnknownSession(t *testing.T) {
	f := newCompletionHandlerFixture(1000)

	w := postJSON(t, f.handler.Complete, "/complete", gin.H{
		"session_id": "absent",
		"request_id": "r1",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCompletionsHandler_Complete_RateLimited rejects a session over its
// hourly allowance before touching the engine.
func TestCompletionsHandler_Complete_RateLimited(t *testing.T) {
	f := newCompletionHandlerFixture(1)
	sessionID := f.addSession("user-1")
	f.engine.On("Generate", mock.Anything, mock.Anything).
		Return(map[string]string{"m1": "one"}, 0.1, nil)

	first := postJSON(t, f.handler.Complete, "/complete", gin.H{"session_id": sessionID, "request_id": "r1"})
	second := postJSON(t, f.handler.Complete, "/complete", gin.H{"session_id": sessionID, "request_id": "r2"})

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	f.engine.AssertNumberOfCalls(t, "Generate", 1)
}

// TestCompletionsHandler_Verify_Success applies the verification mutations.
func TestCompletionsHandler_Verify_Success(t *testing.T) {
	f := newCompletionHandlerFixture(1000)
	sessionID := f.addSession("user-1")
	f.engine.On("Generate", mock.Anything, mock.Anything).
		Return(map[string]string{"m1": "one", "m2": "two"}, 0.1, nil)

	postJSON(t, f.handler.Complete, "/complete", gin.H{"session_id": sessionID, "request_id": "r1"})

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := postJSON(t, f.handler.Verify, "/verify", gin.H{
		"session_id":   sessionID,
		"verify_token": "r1",
		"chosen_model": "m1",
		"shown_at":     gin.H{"m1": []time.Time{t0}},
		"ground_truth": []gin.H{{"timestamp": t0, "text": "kept"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	record, err := f.manager.GetSession(sessionID).GetActiveRequest("r1")
	require.NoError(t, err)
	assert.True(t, record.Completions["m1"].Accepted)
	require.Len(t, record.Completions["m1"].ShownAt, 1)
	assert.True(t, t0.Equal(record.Completions["m1"].ShownAt[0]))
	require.Len(t, record.GroundTruth, 1)
	assert.Equal(t, "kept", record.GroundTruth[0].Text)
}

// TestCompletionsHandler_Verify_SoftFailure answers HTTP 200 with
// success=false for unknown sessions and unknown tokens.
func TestCompletionsHandler_Verify_SoftFailure(t *testing.T) {
	f := newCompletionHandlerFixture(1000)
	sessionID := f.addSession("user-1")

	byToken := postJSON(t, f.handler.Verify, "/verify", gin.H{
		"session_id":   sessionID,
		"verify_token": "absent",
		"chosen_model": "m1",
	})
	bySession := postJSON(t, f.handler.Verify, "/verify", gin.H{
		"session_id":   "absent",
		"verify_token": "r1",
	})

	require.Equal(t, http.StatusOK, byToken.Code)
	assert.JSONEq(t, `{"success": false}`, byToken.Body.String())
	require.Equal(t, http.StatusOK, bySession.Code)
	assert.JSONEq(t, `{"success": false}`, bySession.Body.String())
}
