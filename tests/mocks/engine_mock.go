package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coco-ide/completion-service/internal/domain/models"
)

// MockEngine is a mock implementation of completion.Engine.
type MockEngine struct {
	mock.Mock
}

// Generate returns each model's completion and the serving time.
func (m *MockEngine) Generate(ctx context.Context, request *models.GenerateRequest) (map[string]string, float64, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Get(1).(float64), args.Error(2)
	}
	return args.Get(0).(map[string]string), args.Get(1).(float64), args.Error(2)
}
