package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jc9677/budget-app-2/internal/events"
)

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// Interval is how often the job runs without any trigger (default: 1h)
	Interval time.Duration

	// Debounce is how long to wait after a trigger for more triggers to
	// arrive before running (default: 2s)
	Debounce time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: time.Hour,
		Debounce: 2 * time.Second,
	}
}

// Scheduler runs a job periodically and on demand. Triggers arriving while a
// run is pending are coalesced into that run.
type Scheduler struct {
	job    func(ctx context.Context) error
	config SchedulerConfig

	trigger chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(job func(ctx context.Context) error, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	if config.Debounce < 0 {
		config.Debounce = 0
	}
	return &Scheduler{
		job:     job,
		config:  config,
		trigger: make(chan struct{}, 1),
	}
}

// Start begins the run loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Scheduler started",
		"interval", s.config.Interval,
		"debounce", s.config.Debounce)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Trigger requests a run. It never blocks.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Handler adapts Trigger to an events.Handler so the scheduler can sit
// behind a broker consumer.
func (s *Scheduler) Handler() events.Handler {
	return func(ctx context.Context, e events.Event) error {
		slog.DebugContext(ctx, "Change event received", "kind", e.Kind, "entity_id", e.EntityID)
		s.Trigger()
		return nil
	}
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runJob(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runJob(ctx)
		case <-s.trigger:
			if !s.wait(ctx, s.config.Debounce) {
				return
			}
			// drop triggers that arrived during the debounce window
			select {
			case <-s.trigger:
			default:
			}
			s.runJob(ctx)
		}
	}
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Scheduler) runJob(ctx context.Context) {
	start := time.Now()
	if err := s.job(ctx); err != nil {
		slog.ErrorContext(ctx, "Scheduled job failed", "error", err, "duration", time.Since(start))
		return
	}
	slog.DebugContext(ctx, "Scheduled job completed", "duration", time.Since(start))
}
