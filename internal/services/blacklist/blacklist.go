// Package blacklist tracks failed session creations per source IP and blocks
// addresses that fail too often.
package blacklist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/coco-ide/completion-service/internal/core/cache"
)

// failureTTL bounds how long a failure streak is remembered. The counter
// expires from its first failure, so a stale streak cannot block forever.
const failureTTL = 24 * time.Hour

// Blacklist counts failed session creations per source IP in the cache and
// reports addresses that crossed the configured threshold.
type Blacklist struct {
	cache     cache.Client
	maxFailed int
	logger    zerolog.Logger
}

// New creates a blacklist with the given failure threshold.
func New(cacheClient cache.Client, maxFailed int, logger zerolog.Logger) *Blacklist {
	return &Blacklist{
		cache:     cacheClient,
		maxFailed: maxFailed,
		logger:    logger,
	}
}

// RegisterFailure records one failed session creation from the given IP and
// returns the total failures on record for it.
func (b *Blacklist) RegisterFailure(ctx context.Context, ip string) (int64, error) {
	count, err := b.cache.Increment(ctx, failureKey(ip), failureTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to record session failure: %w", err)
	}
	if count == int64(b.maxFailed) {
		b.logger.Warn().Str("ip", ip).Int64("failures", count).Msg("ip blacklisted")
	}
	return count, nil
}

// IsBlacklisted reports whether the given IP has reached the failure
// threshold. Cache errors fail open so a cache outage cannot lock every
// client out.
func (b *Blacklist) IsBlacklisted(ctx context.Context, ip string) bool {
	value, err := b.cache.Get(ctx, failureKey(ip))
	if err != nil {
		b.logger.Error().Err(err).Str("ip", ip).Msg("blacklist lookup failed")
		return false
	}
	if value == nil {
		return false
	}
	count, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return false
	}
	return count >= int64(b.maxFailed)
}

// Clear forgets the failure streak for an IP.
func (b *Blacklist) Clear(ctx context.Context, ip string) error {
	_, err := b.cache.Delete(ctx, failureKey(ip))
	return err
}

func failureKey(ip string) string {
	return "blacklist:attempts:" + ip
}
