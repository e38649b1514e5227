// Package dto contains the request and response payloads of the v3 API.
package dto

import "time"

// SessionRequest is the payload for opening a session.
type SessionRequest struct {
	// UserToken is the plugin token identifying the user.
	UserToken       string         `json:"user_token" binding:"required"`
	ProjectLanguage string         `json:"project_language"`
	ProjectIDE      string         `json:"project_ide"`
	// Version is the plugin version.
	Version      string         `json:"version"`
	UserSettings map[string]any `json:"user_settings"`
}

// SessionEndRequest is the payload for closing a session.
type SessionEndRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// CompletionRequest is the payload for one completion request.
type CompletionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	RequestID string `json:"request_id" binding:"required"`
	// Prefix is the code before the point of generation.
	Prefix string `json:"prefix"`
	// Suffix is the code after the point of generation.
	Suffix   string `json:"suffix"`
	Trigger  string `json:"trigger"`
	Language string `json:"language"`
	IDE      string `json:"ide"`
	// Version is the plugin version.
	Version string `json:"version"`
	// Store declares whether the request may be persisted.
	Store bool `json:"store"`
}

// GroundTruthEntry is one (timestamp, text) pair reported on verification.
type GroundTruthEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// VerifyRequest is the payload reconciling a served completion with what the
// user actually did.
type VerifyRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	// VerifyToken is the request id of the completion being verified.
	VerifyToken string `json:"verify_token" binding:"required"`
	// ChosenModel, when set, names the model whose completion was accepted.
	ChosenModel string `json:"chosen_model"`
	// ShownAt lists, per model, when its completion was displayed.
	ShownAt     map[string][]time.Time `json:"shown_at"`
	GroundTruth []GroundTruthEntry     `json:"ground_truth"`
}

// SurveyRequest is the payload for requesting a feedback survey link.
type SurveyRequest struct {
	UserID string `json:"user_id" binding:"required"`
}
