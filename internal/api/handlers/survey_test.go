package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coco-ide/completion-service/internal/api/handlers"
)

// TestSurveyHandler_Survey substitutes the user id into the link template.
func TestSurveyHandler_Survey(t *testing.T) {
	handler := handlers.NewSurveyHandler("https://surveys.example.com/coco?user={user_id}")

	w := postJSON(t, handler.Survey, "/survey", gin.H{"user_id": "user-1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"redirect_url": "https://surveys.example.com/coco?user=user-1"}`, w.Body.String())
}

// TestSurveyHandler_NoSurveyConfigured reports 404 when no link is set.
func TestSurveyHandler_NoSurveyConfigured(t *testing.T) {
	handler := handlers.NewSurveyHandler("")

	w := postJSON(t, handler.Survey, "/survey", gin.H{"user_id": "user-1"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestSurveyHandler_MissingUserID rejects a payload without a user id.
func TestSurveyHandler_MissingUserID(t *testing.T) {
	handler := handlers.NewSurveyHandler("https://surveys.example.com/coco?user={user_id}")

	w := postJSON(t, handler.Survey, "/survey", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
