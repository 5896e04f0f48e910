package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sphere-social/sphere/internal/metrics"
	"github.com/sphere-social/sphere/internal/monitors"
)

const checkTimeout = 5 * time.Second

// Result is the outcome of the latest run of one check.
type Result struct {
	Healthy      bool      `json:"healthy"`
	Message      string    `json:"message,omitempty"`
	ResponseTime int64     `json:"responseTimeMs"`
	CheckedAt    time.Time `json:"checkedAt"`
}

// Scheduler runs dependency checks on a fixed interval and keeps the latest
// result of each.
type Scheduler struct {
	checks   []monitors.Check
	interval time.Duration
	metrics  *metrics.Metrics
	log      *slog.Logger

	mu      sync.RWMutex
	results map[string]Result

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(interval time.Duration, m *metrics.Metrics, log *slog.Logger, checks ...monitors.Check) *Scheduler {
	return &Scheduler{
		checks:   checks,
		interval: interval,
		metrics:  m,
		log:      log,
		results:  make(map[string]Result),
	}
}

// Start runs every check once right away and then on each tick until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.RunOnce(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	s.log.Info("scheduler started", "checks", len(s.checks), "interval", s.interval)
}

func (s *Scheduler) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, check := range s.checks {
		s.executeCheck(ctx, check)
	}
}

func (s *Scheduler) executeCheck(ctx context.Context, check monitors.Check) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	responseTime := time.Since(start)

	result := Result{
		Healthy:      err == nil,
		ResponseTime: responseTime.Milliseconds(),
		CheckedAt:    time.Now(),
	}
	if err != nil {
		result.Message = err.Error()
		s.log.Warn("dependency check failed", "check", check.Name(), "error", err)
	}

	s.mu.Lock()
	s.results[check.Name()] = result
	s.mu.Unlock()

	s.metrics.DependencyUp(check.Name(), err == nil)
}

// Status returns the latest results and whether every check passed.
func (s *Scheduler) Status() (map[string]Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Result, len(s.results))
	healthy := true
	for name, r := range s.results {
		out[name] = r
		healthy = healthy && r.Healthy
	}
	return out, healthy
}
