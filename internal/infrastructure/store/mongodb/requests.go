// Package mongodb provides the stored requests collection implementation.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coco-ide/completion-service/internal/domain/models"
)

// RequestsCollectionName is the name of the stored requests collection.
const RequestsCollectionName = "requests"

// RequestsCollection implements the store.RequestsCollection interface for
// MongoDB.
type RequestsCollection struct {
	requests *mongo.Collection
}

// NewRequestsCollection creates a new requests collection wrapper.
func NewRequestsCollection(db *mongo.Database) *RequestsCollection {
	return &RequestsCollection{
		requests: db.Collection(RequestsCollectionName),
	}
}

// Insert writes one stored request document.
func (c *RequestsCollection) Insert(ctx context.Context, request *models.StoredRequest) error {
	if request.ID == "" {
		return fmt.Errorf("request ID is required")
	}

	request.CreatedAt = time.Now().UTC()

	_, err := c.requests.InsertOne(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to insert stored request: %w", err)
	}
	return nil
}

// GetByID retrieves a stored request by its request id.
func (c *RequestsCollection) GetByID(ctx context.Context, id string) (*models.StoredRequest, error) {
	var request models.StoredRequest
	err := c.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stored request: %w", err)
	}
	return &request, nil
}

// CountByUser returns the number of stored requests for a user.
func (c *RequestsCollection) CountByUser(ctx context.Context, userID string) (int64, error) {
	count, err := c.requests.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count stored requests: %w", err)
	}
	return count, nil
}

// EnsureIndexes creates the user and time lookup indexes.
func (c *RequestsCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "pluginVersion", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create requests indexes: %w", err)
	}
	return nil
}
