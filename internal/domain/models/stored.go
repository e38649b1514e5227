package models

import "time"

// StoredGeneration is one model's completion as persisted on teardown.
// Completion text is present only when the session allowed storing
// completions, and is encrypted at rest.
type StoredGeneration struct {
	Model      string      `json:"model" bson:"model"`
	Completion string      `json:"completion,omitempty" bson:"completion,omitempty"`
	ShownAt    []time.Time `json:"shownAt" bson:"shownAt"`
	Accepted   bool        `json:"accepted" bson:"accepted"`
}

// StoredGroundTruth is one accumulated ground-truth pair as persisted.
type StoredGroundTruth struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Text      string    `json:"text,omitempty" bson:"text,omitempty"`
}

// StoredRequest is the durable form of an ActiveRequest, written once when
// its owning session is flushed. Prefix and suffix are present only when the
// session allowed storing context, and are encrypted at rest.
type StoredRequest struct {
	ID            string              `json:"id" bson:"_id"`
	UserID        string              `json:"userId" bson:"userId"`
	PluginVersion string              `json:"pluginVersion" bson:"pluginVersion"`
	Language      string              `json:"language" bson:"language"`
	IDE           string              `json:"ide" bson:"ide"`
	Trigger       string              `json:"trigger" bson:"trigger"`
	Prefix        string              `json:"prefix,omitempty" bson:"prefix,omitempty"`
	Suffix        string              `json:"suffix,omitempty" bson:"suffix,omitempty"`
	ServingTimeMs int64               `json:"servingTimeMs" bson:"servingTimeMs"`
	Generations   []StoredGeneration  `json:"generations" bson:"generations"`
	GroundTruth   []StoredGroundTruth `json:"groundTruth" bson:"groundTruth"`
	RequestedAt   time.Time           `json:"requestedAt" bson:"requestedAt"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
}
