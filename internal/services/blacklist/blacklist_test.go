package blacklist_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/coco-ide/completion-service/internal/infrastructure/cache/redis"
	"github.com/coco-ide/completion-service/internal/services/blacklist"
)

func newTestBlacklist(t *testing.T, maxFailed int) *blacklist.Blacklist {
	t.Helper()
	mr := miniredis.RunT(t)

	cache, err := rediscache.NewCache(rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return blacklist.New(cache, maxFailed, zerolog.Nop())
}

// TestBlacklist_ThresholdBlocks verifies an IP is clean below the threshold
// and blocked at it.
func TestBlacklist_ThresholdBlocks(t *testing.T) {
	bl := newTestBlacklist(t, 3)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		count, err := bl.RegisterFailure(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
		assert.False(t, bl.IsBlacklisted(ctx, "10.0.0.1"))
	}

	_, err := bl.RegisterFailure(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, bl.IsBlacklisted(ctx, "10.0.0.1"))
}

// TestBlacklist_PerIP keeps streaks independent per source address.
func TestBlacklist_PerIP(t *testing.T) {
	bl := newTestBlacklist(t, 1)
	ctx := context.Background()

	_, err := bl.RegisterFailure(ctx, "10.0.0.1")
	require.NoError(t, err)

	assert.True(t, bl.IsBlacklisted(ctx, "10.0.0.1"))
	assert.False(t, bl.IsBlacklisted(ctx, "10.0.0.2"))
}

// TestBlacklist_Clear forgets a streak.
func TestBlacklist_Clear(t *testing.T) {
	bl := newTestBlacklist(t, 1)
	ctx := context.Background()

	_, err := bl.RegisterFailure(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, bl.IsBlacklisted(ctx, "10.0.0.1"))

	require.NoError(t, bl.Clear(ctx, "10.0.0.1"))
	assert.False(t, bl.IsBlacklisted(ctx, "10.0.0.1"))
}
