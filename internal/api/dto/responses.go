package dto

// SessionResponse carries the id of a freshly opened (or reused) session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// CompletionResponse carries each model's completion and the serving time in
// seconds.
type CompletionResponse struct {
	Completions map[string]string `json:"completions"`
	Time        float64           `json:"time"`
}

// VerifyResponse reports whether the verification was applied.
type VerifyResponse struct {
	Success bool `json:"success"`
}

// SurveyResponse carries the per-user survey link.
type SurveyResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// ErrorResponse is the error body of every v3 endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
