// Package ratelimit enforces the per-user hourly completion allowance.
package ratelimit

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coco-ide/completion-service/internal/domain/errors"
)

// Limiter compares a session's request rate against the hourly allowance.
type Limiter struct {
	maxRate int
	logger  zerolog.Logger
}

// New creates a limiter allowing maxRate requests per user per hour.
func New(maxRate int, logger zerolog.Logger) *Limiter {
	return &Limiter{
		maxRate: maxRate,
		logger:  logger,
	}
}

// Allow checks the session's average request rate. Sessions younger than one
// hour are measured against the full hourly allowance, so a burst at session
// start is not penalized.
func (l *Limiter) Allow(userID string, requestCount int64, since time.Time) error {
	hours := time.Since(since).Hours()
	if hours < 1 {
		hours = 1
	}
	rate := float64(requestCount) / hours
	if rate >= float64(l.maxRate) {
		l.logger.Warn().
			Str("user_id", userID).
			Int64("request_count", requestCount).
			Float64("rate", rate).
			Msg("request rate exceeded")
		return errors.NewRateLimitedError(userID)
	}
	return nil
}
