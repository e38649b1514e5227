// Package mongodb provides the users collection implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coco-ide/completion-service/internal/domain/models"
)

// UsersCollectionName is the name of the users collection.
const UsersCollectionName = "users"

// UsersCollection implements the store.UsersCollection interface for MongoDB.
type UsersCollection struct {
	users *mongo.Collection
}

// NewUsersCollection creates a new users collection wrapper.
func NewUsersCollection(db *mongo.Database) *UsersCollection {
	return &UsersCollection{
		users: db.Collection(UsersCollectionName),
	}
}

// GetByToken retrieves the user owning the given plugin token.
func (c *UsersCollection) GetByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := c.users.FindOne(ctx, bson.M{"token": token}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by token: %w", err)
	}
	return &user, nil
}

// EnsureIndexes creates the token lookup index.
func (c *UsersCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}
	return nil
}
