// Package session implements the live session registry: per-user session
// state, the ledger of in-flight completion requests, and the discrete-time
// expiration wheel that reclaims idle sessions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/coco-ide/completion-service/internal/domain/errors"
	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/services/persistence"
)

// Session is the live state of one authenticated plugin connection. The
// ledger of active requests, the request counter and all verification
// mutations are guarded by the session's own mutex; a session may be hit by
// concurrent requests carrying its id.
type Session struct {
	userID          string
	projectLanguage string
	projectIDE      string
	pluginVersion   string
	settings        models.UserSettings
	recorder        persistence.Recorder
	since           time.Time

	mu             sync.Mutex
	activeRequests map[string]*models.ActiveRequest
	requestCount   int64

	// expiration is the session's current timeslot in the manager's wheel.
	// Guarded by the manager's lock, not the session's.
	expiration int64
}

// New creates a session for the given user identity and project metadata.
// The recorder becomes owned by the session and is closed exactly once, at
// teardown.
func New(userID, projectLanguage, projectIDE, pluginVersion string, settings models.UserSettings, recorder persistence.Recorder) *Session {
	return &Session{
		userID:          userID,
		projectLanguage: projectLanguage,
		projectIDE:      projectIDE,
		pluginVersion:   pluginVersion,
		settings:        settings,
		recorder:        recorder,
		since:           time.Now().UTC(),
		activeRequests:  make(map[string]*models.ActiveRequest),
	}
}

// UserID returns the stable external identity of the session's user.
func (s *Session) UserID() string { return s.userID }

// ProjectLanguage returns the declared primary project language, if any.
func (s *Session) ProjectLanguage() string { return s.projectLanguage }

// ProjectIDE returns the declared IDE, if any.
func (s *Session) ProjectIDE() string { return s.projectIDE }

// PluginVersion returns the plugin version declared at session creation.
func (s *Session) PluginVersion() string { return s.pluginVersion }

// Settings returns the session's normalized user settings.
func (s *Session) Settings() models.UserSettings { return s.settings }

// Since returns the session creation time.
func (s *Session) Since() time.Time { return s.since }

// RequestCount returns the number of completion requests served so far.
func (s *Session) RequestCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCount
}

// IncrementRequestCount bumps the rate-limiting counter. The counter only
// ever increases.
func (s *Session) IncrementRequestCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestCount++
}

// AddActiveRequest registers a freshly served completion request in the
// ledger and increments the request counter. Re-registering an existing
// request id fails with a duplicate request error; records are never
// silently replaced.
func (s *Session) AddActiveRequest(requestID string, request *models.GenerateRequest, completions map[string]string, timeTakenSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.activeRequests[requestID]; exists {
		return errors.NewDuplicateRequestError(requestID)
	}

	s.activeRequests[requestID] = models.NewActiveRequest(request, completions, timeTakenSeconds)
	s.requestCount++
	return nil
}

// GetActiveRequest returns the ledger record for the given request id.
func (s *Session) GetActiveRequest(requestID string) (*models.ActiveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.activeRequests[requestID]
	if !ok {
		return nil, errors.NewNotFoundError("active request", requestID)
	}
	return record, nil
}

// UpdateActiveRequest applies a verification to a ledger record: marks the
// chosen model accepted, appends newly reported shown-at timestamps, and
// accumulates ground-truth pairs. Appends are deduplicated by value, so the
// call is idempotent; a retried call converges to the same state.
//
// Returns false when the record is missing or the verification names a model
// the record does not know. Sub-mutations applied before the failing one are
// kept.
func (s *Session) UpdateActiveRequest(requestID string, verification *models.Verification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.activeRequests[requestID]
	if !ok || verification == nil {
		return false
	}

	if verification.ChosenModel != "" {
		details, ok := record.Completions[verification.ChosenModel]
		if !ok {
			return false
		}
		details.Accepted = true
	}

	for model, timestamps := range verification.ShownAt {
		details, ok := record.Completions[model]
		if !ok {
			return false
		}
		for _, ts := range timestamps {
			if !containsTime(details.ShownAt, ts) {
				details.ShownAt = append(details.ShownAt, ts)
			}
		}
	}

	for _, entry := range verification.GroundTruth {
		if !containsGroundTruth(record.GroundTruth, entry) {
			record.GroundTruth = append(record.GroundTruth, entry)
		}
	}

	return true
}

// DumpActiveRequests flushes every ledger record through the persistence
// recorder. A record that fails to persist is logged by the recorder and
// skipped; the remaining records still attempt persistence. Teardown must
// not lose unrelated records.
func (s *Session) DumpActiveRequests(ctx context.Context, storeCompletions, storeContext bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.activeRequests {
		// Errors are contained by the recorder; nothing to do here.
		_ = s.recorder.RecordActiveRequest(ctx, s.userID, s.pluginVersion, record, storeCompletions, storeContext)
	}
}

// ActiveRequestCount returns the number of in-flight records in the ledger.
func (s *Session) ActiveRequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeRequests)
}

func containsTime(haystack []time.Time, needle time.Time) bool {
	for _, ts := range haystack {
		if ts.Equal(needle) {
			return true
		}
	}
	return false
}

func containsGroundTruth(haystack []models.GroundTruthEntry, needle models.GroundTruthEntry) bool {
	for _, entry := range haystack {
		if entry.Timestamp.Equal(needle.Timestamp) && entry.Text == needle.Text {
			return true
		}
	}
	return false
}
