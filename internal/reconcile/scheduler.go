// Package reconcile periodically repairs work counts that drifted from
// their status lists.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runTimeout = 5 * time.Minute

// Reconciler recounts stored works and reports how many were repaired.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Observer receives the outcome of every run.
type Observer interface {
	ObserveReconcile(fixed int, err error)
}

// Scheduler runs a Reconciler on a cron schedule.
type Scheduler struct {
	target   Reconciler
	observer Observer
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler for target. schedule uses the standard
// cron syntax or descriptors such as "@every 1h".
func NewScheduler(target Reconciler, observer Observer, schedule string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		target:   target,
		observer: observer,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("reconcile scheduler is already running")
	}
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return errors.Wrapf(err, "invalid reconcile schedule %q", s.schedule)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("reconcile scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop cancels any in-flight run and waits for the cron loop to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("reconcile scheduler stopped")
}

// RunOnce reconciles immediately and reports the outcome to the observer.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	fixed, err := s.target.Reconcile(ctx)
	if s.observer != nil {
		s.observer.ObserveReconcile(fixed, err)
	}
	if err != nil {
		s.logger.Error("reconcile failed", zap.Int("fixed", fixed), zap.Error(err))
		return fixed, err
	}
	s.logger.Info("reconcile finished",
		zap.Int("fixed", fixed),
		zap.Duration("duration", time.Since(start)))
	return fixed, nil
}

func (s *Scheduler) run() {
	_, _ = s.RunOnce(s.ctx)
}
