package sync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"caredesk/internal/metrics"
	"caredesk/internal/model"
)

// Fetcher pulls appointments from the upstream practice management system.
type Fetcher interface {
	FetchAppointments(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

// Store persists fetched appointments locally.
type Store interface {
	UpsertAppointments(ctx context.Context, appointments []model.Appointment) error
}

// Config holds configuration for the background refresher.
type Config struct {
	// Interval is how often to refresh from upstream.
	Interval time.Duration
	// Window is how far into the future to fetch.
	Window time.Duration
}

// DefaultConfig returns the default refresher configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Minute,
		Window:   30 * 24 * time.Hour,
	}
}

// Refresher periodically mirrors upstream appointments into local storage
// so calendar reads never block on the upstream API.
type Refresher struct {
	config  Config
	fetcher Fetcher
	store   Store
	logger  zerolog.Logger
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRefresher creates a new background refresher.
func NewRefresher(config Config, fetcher Fetcher, store Store, logger zerolog.Logger) *Refresher {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}

	return &Refresher{
		config:  config,
		fetcher: fetcher,
		store:   store,
		logger:  logger.With().Str("component", "sync").Logger(),
		stopCh:  make(chan struct{}),
	}
}

// Start begins the refresh loop. An initial refresh runs immediately.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info().
		Dur("interval", r.config.Interval).
		Dur("window", r.config.Window).
		Msg("sync refresher started")

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop stops the refresh loop and waits for it to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()

	r.logger.Info().Msg("sync refresher stopped")
}

// IsRunning returns whether the refresh loop is active.
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	r.RunNow(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("sync refresher stopped by context")
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.RunNow(ctx)
		}
	}
}

// RunNow performs a single refresh pass.
func (r *Refresher) RunNow(ctx context.Context) {
	start := time.Now()
	from := start.AddDate(0, 0, -1)
	to := start.Add(r.config.Window)

	appointments, err := r.fetcher.FetchAppointments(ctx, from, to)
	if err != nil {
		metrics.IncSyncRun("error")
		r.logger.Error().Err(err).Msg("failed to fetch appointments from upstream")
		return
	}

	if err := r.store.UpsertAppointments(ctx, appointments); err != nil {
		metrics.IncSyncRun("error")
		r.logger.Error().Err(err).Msg("failed to store fetched appointments")
		return
	}

	metrics.IncSyncRun("success")
	r.logger.Info().
		Int("count", len(appointments)).
		Dur("duration", time.Since(start)).
		Msg("appointments refreshed")
}
