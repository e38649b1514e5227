// Package models contains domain models for the CoCo completion service.
package models

import (
	"math"
	"time"
)

// GenerateRequest is the payload of one completion request as declared by the
// plugin. It is immutable once recorded on an ActiveRequest.
type GenerateRequest struct {
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
	// Prefix is the code before the point of generation.
	Prefix string `json:"prefix"`
	// Suffix is the code after the point of generation.
	Suffix    string    `json:"suffix"`
	Trigger   string    `json:"trigger"`
	Language  string    `json:"language"`
	IDE       string    `json:"ide"`
	Version   string    `json:"version"`
	Store     bool      `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// ModelCompletionDetails records one model's contribution to a request: the
// generated text, the times it was actually displayed to the user, and
// whether the user accepted it. Owned exclusively by its ActiveRequest.
type ModelCompletionDetails struct {
	Completion string      `json:"completion"`
	ShownAt    []time.Time `json:"shownAt"`
	Accepted   bool        `json:"accepted"`
}

// GroundTruthEntry is one (timestamp, text) pair reported by a verification
// call: the text the user actually kept after a completion was offered.
type GroundTruthEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// ActiveRequest is the lifecycle record of one completion request, from the
// moment it is served until its owning session is torn down and flushed.
type ActiveRequest struct {
	Request     *GenerateRequest                   `json:"request"`
	Completions map[string]*ModelCompletionDetails `json:"completions"`
	// TimeTakenMs is the serving time in milliseconds, rounded from the
	// measured duration at creation.
	TimeTakenMs int64              `json:"timeTaken"`
	GroundTruth []GroundTruthEntry `json:"groundTruth"`
}

// NewActiveRequest builds the record for a freshly served request. Each model
// that produced a completion gets its own details entry with an empty
// shown-at sequence and accepted=false.
func NewActiveRequest(request *GenerateRequest, completions map[string]string, timeTakenSeconds float64) *ActiveRequest {
	details := make(map[string]*ModelCompletionDetails, len(completions))
	for model, text := range completions {
		details[model] = &ModelCompletionDetails{
			Completion: text,
			ShownAt:    []time.Time{},
			Accepted:   false,
		}
	}

	return &ActiveRequest{
		Request:     request,
		Completions: details,
		TimeTakenMs: int64(math.Round(timeTakenSeconds * 1000)),
		GroundTruth: []GroundTruthEntry{},
	}
}

// Verification carries the mutations a verify call applies to an
// ActiveRequest. All fields are optional and independent.
type Verification struct {
	// ChosenModel, when non-empty, marks that model's completion accepted.
	ChosenModel string `json:"chosenModel"`
	// ShownAt lists, per model, the timestamps at which its completion was
	// displayed. Appends are deduplicated against the existing sequence.
	ShownAt map[string][]time.Time `json:"shownAt"`
	// GroundTruth lists (timestamp, text) pairs to accumulate, deduplicated
	// by value equality.
	GroundTruth []GroundTruthEntry `json:"groundTruth"`
}
