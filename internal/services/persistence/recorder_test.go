package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/pkg/encryption"
	"github.com/coco-ide/completion-service/internal/services/persistence"
	"github.com/coco-ide/completion-service/tests/mocks"
)

func testActiveRequest() *models.ActiveRequest {
	record := models.NewActiveRequest(&models.GenerateRequest{
		UserID:    "user-1",
		RequestID: "r1",
		Prefix:    "func main() {",
		Suffix:    "}",
		Trigger:   "auto",
		Language:  "go",
		IDE:       "vscode",
		Version:   "1.2.0",
		Store:     true,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, map[string]string{"m1": "one", "m2": "two"}, 0.25)

	record.Completions["m1"].Accepted = true
	record.Completions["m1"].ShownAt = []time.Time{time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC)}
	record.GroundTruth = []models.GroundTruthEntry{
		{Timestamp: time.Date(2025, 6, 1, 12, 0, 2, 0, time.UTC), Text: "kept"},
	}
	return record
}

// TestStoreRecorder_RecordActiveRequest verifies the stored document carries
// the full lifecycle state when both store flags are on.
func TestStoreRecorder_RecordActiveRequest(t *testing.T) {
	requests := &mocks.MockRequestsCollection{}
	recorder := persistence.NewStoreRecorder(requests, encryption.NewNoOpEncryptor(), zerolog.Nop())

	var stored *models.StoredRequest
	requests.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.StoredRequest)
	}).Return(nil)

	err := recorder.RecordActiveRequest(context.Background(), "user-1", "1.2.0", testActiveRequest(), true, true)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "r1", stored.ID)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, "1.2.0", stored.PluginVersion)
	assert.Equal(t, "func main() {", stored.Prefix)
	assert.Equal(t, "}", stored.Suffix)
	assert.Equal(t, int64(250), stored.ServingTimeMs)

	// Generations are ordered by model name
	require.Len(t, stored.Generations, 2)
	assert.Equal(t, "m1", stored.Generations[0].Model)
	assert.Equal(t, "one", stored.Generations[0].Completion)
	assert.True(t, stored.Generations[0].Accepted)
	assert.Len(t, stored.Generations[0].ShownAt, 1)
	assert.Equal(t, "m2", stored.Generations[1].Model)
	assert.False(t, stored.Generations[1].Accepted)

	require.Len(t, stored.GroundTruth, 1)
	assert.Equal(t, "kept", stored.GroundTruth[0].Text)
}

// TestStoreRecorder_StoreFlagsStripCode verifies code text is omitted when
// the session disallowed storing it.
func TestStoreRecorder_StoreFlagsStripCode(t *testing.T) {
	requests := &mocks.MockRequestsCollection{}
	recorder := persistence.NewStoreRecorder(requests, encryption.NewNoOpEncryptor(), zerolog.Nop())

	var stored *models.StoredRequest
	requests.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.StoredRequest)
	}).Return(nil)

	err := recorder.RecordActiveRequest(context.Background(), "user-1", "1.2.0", testActiveRequest(), false, false)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Prefix)
	assert.Empty(t, stored.Suffix)
	for _, gen := range stored.Generations {
		assert.Empty(t, gen.Completion)
	}
	require.Len(t, stored.GroundTruth, 1)
	assert.Empty(t, stored.GroundTruth[0].Text)
	assert.False(t, stored.GroundTruth[0].Timestamp.IsZero())
}

// TestStoreRecorder_EncryptsCodeText verifies stored code text is not the
// plaintext when a real encryptor is configured.
func TestStoreRecorder_EncryptsCodeText(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptor, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	requests := &mocks.MockRequestsCollection{}
	recorder := persistence.NewStoreRecorder(requests, encryptor, zerolog.Nop())

	var stored *models.StoredRequest
	requests.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.StoredRequest)
	}).Return(nil)

	require.NoError(t, recorder.RecordActiveRequest(context.Background(), "user-1", "1.2.0", testActiveRequest(), true, true))

	require.NotNil(t, stored)
	assert.NotEqual(t, "func main() {", stored.Prefix)

	plaintext, err := encryptor.DecryptString(stored.Prefix)
	require.NoError(t, err)
	assert.Equal(t, "func main() {", plaintext)
}

// TestStoreRecorder_InsertFailure wraps store errors as persistence errors.
func TestStoreRecorder_InsertFailure(t *testing.T) {
	requests := &mocks.MockRequestsCollection{}
	recorder := persistence.NewStoreRecorder(requests, nil, zerolog.Nop())
	requests.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	err := recorder.RecordActiveRequest(context.Background(), "user-1", "1.2.0", testActiveRequest(), true, true)

	assert.Error(t, err)
}

// TestStoreRecorder_CloseIsIdempotent verifies recording after close fails
// and repeated closes are harmless.
func TestStoreRecorder_CloseIsIdempotent(t *testing.T) {
	requests := &mocks.MockRequestsCollection{}
	recorder := persistence.NewStoreRecorder(requests, nil, zerolog.Nop())

	require.NoError(t, recorder.Close(context.Background()))
	require.NoError(t, recorder.Close(context.Background()))

	err := recorder.RecordActiveRequest(context.Background(), "user-1", "1.2.0", testActiveRequest(), true, true)
	assert.Error(t, err)
	requests.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
