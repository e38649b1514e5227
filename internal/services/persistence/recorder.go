// Package persistence translates in-memory request lifecycle records into
// their durable form and writes them through the store client.
package persistence

import (
	"context"
	stderrors "errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/coco-ide/completion-service/internal/core/store"
	"github.com/coco-ide/completion-service/internal/domain/errors"
	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/pkg/encryption"
)

// Recorder persists completion request records on session teardown. A
// recorder belongs to exactly one session and is closed once, when the
// session is removed.
type Recorder interface {
	// RecordActiveRequest writes one lifecycle record. Code text is
	// included only as allowed by the store flags.
	RecordActiveRequest(ctx context.Context, userID, pluginVersion string, record *models.ActiveRequest, storeCompletions, storeContext bool) error

	// Close releases the recorder. Subsequent calls are no-ops.
	Close(ctx context.Context) error
}

// StoreRecorder writes records to the document store, encrypting any code
// text at rest.
type StoreRecorder struct {
	requests  store.RequestsCollection
	encryptor encryption.Encryptor
	logger    zerolog.Logger
	closed    atomic.Bool
}

// NewStoreRecorder creates a recorder backed by the given requests
// collection.
func NewStoreRecorder(requests store.RequestsCollection, encryptor encryption.Encryptor, logger zerolog.Logger) *StoreRecorder {
	if encryptor == nil {
		encryptor = encryption.NewNoOpEncryptor()
	}
	return &StoreRecorder{
		requests:  requests,
		encryptor: encryptor,
		logger:    logger,
	}
}

// RecordActiveRequest translates the record into its stored form and inserts
// it. Failures are logged and returned as persistence errors; the caller
// decides whether to continue flushing.
func (r *StoreRecorder) RecordActiveRequest(ctx context.Context, userID, pluginVersion string, record *models.ActiveRequest, storeCompletions, storeContext bool) error {
	if r.closed.Load() {
		return errors.NewPersistenceError("record request", errRecorderClosed)
	}

	stored, err := r.toStoredRequest(userID, pluginVersion, record, storeCompletions, storeContext)
	if err != nil {
		r.logger.Error().Err(err).
			Str("request_id", record.Request.RequestID).
			Msg("failed to encode request for storage")
		return err
	}

	if err := r.requests.Insert(ctx, stored); err != nil {
		r.logger.Error().Err(err).
			Str("request_id", stored.ID).
			Str("user_id", userID).
			Msg("failed to persist request")
		return errors.NewPersistenceError("insert request", err)
	}

	return nil
}

// Close marks the recorder closed. The underlying store client is shared and
// stays open.
func (r *StoreRecorder) Close(ctx context.Context) error {
	r.closed.Store(true)
	return nil
}

// toStoredRequest builds the durable document. Generations are emitted in
// model-name order so repeated flushes of the same record are byte-stable.
func (r *StoreRecorder) toStoredRequest(userID, pluginVersion string, record *models.ActiveRequest, storeCompletions, storeContext bool) (*models.StoredRequest, error) {
	req := record.Request

	stored := &models.StoredRequest{
		ID:            req.RequestID,
		UserID:        userID,
		PluginVersion: pluginVersion,
		Language:      req.Language,
		IDE:           req.IDE,
		Trigger:       req.Trigger,
		ServingTimeMs: record.TimeTakenMs,
		RequestedAt:   req.Timestamp,
	}

	if storeContext {
		prefix, err := r.encryptor.EncryptString(req.Prefix)
		if err != nil {
			return nil, errors.NewPersistenceError("encrypt prefix", err)
		}
		suffix, err := r.encryptor.EncryptString(req.Suffix)
		if err != nil {
			return nil, errors.NewPersistenceError("encrypt suffix", err)
		}
		stored.Prefix = prefix
		stored.Suffix = suffix
	}

	names := make([]string, 0, len(record.Completions))
	for model := range record.Completions {
		names = append(names, model)
	}
	sort.Strings(names)

	stored.Generations = make([]models.StoredGeneration, 0, len(names))
	for _, model := range names {
		details := record.Completions[model]
		gen := models.StoredGeneration{
			Model:    model,
			ShownAt:  append([]time.Time(nil), details.ShownAt...),
			Accepted: details.Accepted,
		}
		if storeCompletions {
			completion, err := r.encryptor.EncryptString(details.Completion)
			if err != nil {
				return nil, errors.NewPersistenceError("encrypt completion", err)
			}
			gen.Completion = completion
		}
		stored.Generations = append(stored.Generations, gen)
	}

	stored.GroundTruth = make([]models.StoredGroundTruth, 0, len(record.GroundTruth))
	for _, entry := range record.GroundTruth {
		gt := models.StoredGroundTruth{Timestamp: entry.Timestamp}
		if storeContext {
			text, err := r.encryptor.EncryptString(entry.Text)
			if err != nil {
				return nil, errors.NewPersistenceError("encrypt ground truth", err)
			}
			gt.Text = text
		}
		stored.GroundTruth = append(stored.GroundTruth, gt)
	}

	return stored, nil
}

var errRecorderClosed = stderrors.New("recorder already closed")
