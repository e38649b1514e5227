package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coco-ide/completion-service/internal/core/store"
	"github.com/coco-ide/completion-service/internal/domain/models"
)

// MockUsersCollection is a mock implementation of store.UsersCollection.
type MockUsersCollection struct {
	mock.Mock
}

// GetByToken retrieves a user by plugin token.
func (m *MockUsersCollection) GetByToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockRequestsCollection is a mock implementation of store.RequestsCollection.
type MockRequestsCollection struct {
	mock.Mock
}

// Insert writes one stored request document.
func (m *MockRequestsCollection) Insert(ctx context.Context, request *models.StoredRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// GetByID retrieves a stored request by id.
func (m *MockRequestsCollection) GetByID(ctx context.Context, id string) (*models.StoredRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoredRequest), args.Error(1)
}

// CountByUser returns the number of stored requests for a user.
func (m *MockRequestsCollection) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockStoreClient is a mock implementation of store.Client.
type MockStoreClient struct {
	mock.Mock
	UsersCollection    *MockUsersCollection
	RequestsCollection *MockRequestsCollection
}

// NewMockStoreClient creates a store client mock with collection mocks wired.
func NewMockStoreClient() *MockStoreClient {
	return &MockStoreClient{
		UsersCollection:    &MockUsersCollection{},
		RequestsCollection: &MockRequestsCollection{},
	}
}

// Users returns the users collection mock.
func (m *MockStoreClient) Users() store.UsersCollection {
	return m.UsersCollection
}

// Requests returns the requests collection mock.
func (m *MockStoreClient) Requests() store.RequestsCollection {
	return m.RequestsCollection
}

// EnsureIndexes creates the indexes.
func (m *MockStoreClient) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Ping verifies the store connection.
func (m *MockStoreClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the store connection.
func (m *MockStoreClient) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
