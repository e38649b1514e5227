package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coco-ide/completion-service/internal/domain/models"
)

// MockRecorder is a mock implementation of persistence.Recorder.
type MockRecorder struct {
	mock.Mock
}

// RecordActiveRequest persists one lifecycle record.
func (m *MockRecorder) RecordActiveRequest(ctx context.Context, userID, pluginVersion string, record *models.ActiveRequest, storeCompletions, storeContext bool) error {
	args := m.Called(ctx, userID, pluginVersion, record, storeCompletions, storeContext)
	return args.Error(0)
}

// Close releases the recorder.
func (m *MockRecorder) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
