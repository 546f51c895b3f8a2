package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultSessionTTL   = 24 * time.Hour
	DefaultReapInterval = 15 * time.Minute
)

// Reaper runs ReapStale on a schedule.
type Reaper struct {
	manager  *Manager
	ttl      time.Duration
	interval time.Duration
	logger   zerolog.Logger
	stopCh   chan struct{}

	mu      sync.Mutex
	running bool
}

// NewReaper creates a session reaper.
func NewReaper(manager *Manager, ttl, interval time.Duration, logger zerolog.Logger) *Reaper {
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	if interval == 0 {
		interval = DefaultReapInterval
	}

	return &Reaper{
		manager:  manager,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the reaper loop. Safe to call from any goroutine.
func (r *Reaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("reaper is already running")
	}

	r.running = true
	go r.run()

	r.logger.Info().
		Dur("ttl", r.ttl).
		Dur("interval", r.interval).
		Msg("Session reaper started")

	return nil
}

// Stop stops the reaper loop. Safe to call from any goroutine.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return fmt.Errorf("reaper is not running")
	}

	close(r.stopCh)
	r.running = false

	r.logger.Info().Msg("Session reaper stopped")

	return nil
}

// run is the main reaper loop.
func (r *Reaper) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	if _, err := r.manager.ReapStale(context.Background(), r.ttl); err != nil {
		r.logger.Error().Err(err).Msg("Failed to reap stale sessions")
	}

	for {
		select {
		case <-ticker.C:
			if _, err := r.manager.ReapStale(context.Background(), r.ttl); err != nil {
				r.logger.Error().Err(err).Msg("Failed to reap stale sessions")
			}
		case <-r.stopCh:
			return
		}
	}
}
