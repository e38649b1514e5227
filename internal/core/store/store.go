// Package store defines the persistence client interface.
package store

import (
	"context"

	"github.com/coco-ide/completion-service/internal/domain/models"
)

// UsersCollection defines user account lookups.
type UsersCollection interface {
	// GetByToken retrieves the user owning the given plugin token.
	// Returns nil (not an error) when no user matches.
	GetByToken(ctx context.Context, token string) (*models.User, error)
}

// RequestsCollection defines durable storage for flushed completion requests.
type RequestsCollection interface {
	// Insert writes one stored request document.
	Insert(ctx context.Context, request *models.StoredRequest) error

	// GetByID retrieves a stored request by its request id.
	// Returns nil (not an error) when no document matches.
	GetByID(ctx context.Context, id string) (*models.StoredRequest, error)

	// CountByUser returns the number of stored requests for a user.
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// Client defines the interface for the persistence store.
type Client interface {
	// Users returns the users collection.
	Users() UsersCollection

	// Requests returns the stored requests collection.
	Requests() RequestsCollection

	// EnsureIndexes creates the indexes the collections rely on.
	EnsureIndexes(ctx context.Context) error

	// Ping verifies the store connection.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close(ctx context.Context) error
}
