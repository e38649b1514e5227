package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper drives the manager's logical clock. It runs a background loop
// that calls SweepOnce on a fixed interval until stopped.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper for the given manager. Start must be called
// to begin sweeping.
func NewSweeper(manager *Manager, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Sweeper) Start() {
	go s.run()
	s.logger.Info().Dur("interval", s.interval).Msg("session sweeper started")
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			evicted := s.manager.SweepOnce(ctx)
			cancel()
			if evicted > 0 {
				s.logger.Info().Int("evicted", evicted).Msg("expired sessions removed")
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to finish. The loop
// observes the signal within one interval.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info().Msg("session sweeper stopped")
}
