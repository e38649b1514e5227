package models

import "time"

// User is an account known to the service, resolved once at session creation
// by its opaque plugin token.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Token     string    `json:"token" bson:"token"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
