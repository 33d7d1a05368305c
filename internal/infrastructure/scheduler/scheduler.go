// Package scheduler runs background ledger maintenance, such as the
// periodic balance projection rebuild, on a small bounded worker pool.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotRunning      = errors.New("scheduler is not running")
	ErrQueueFull       = errors.New("scheduler queue is full")
	ErrNilTask         = errors.New("task is nil")
	ErrInvalidInterval = errors.New("trigger interval must be positive")
)

// Task is one unit of background work
type Task func(ctx context.Context) error

// Config sizes the worker pool and bounds each run
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig runs one job at a time. Rebuilds read every lot and
// movement row, so running two at once only doubles the load.
func DefaultConfig() Config {
	return Config{
		Workers:    1,
		QueueSize:  16,
		JobTimeout: 2 * time.Minute,
		MaxRetries: 2,
		RetryDelay: 10 * time.Second,
	}
}

type job struct {
	id      string
	name    string
	task    Task
	attempt int
}

// Scheduler executes submitted tasks on Workers goroutines. Failed tasks
// are queued again after RetryDelay, at most MaxRetries times.
type Scheduler struct {
	cfg Config
	log *zap.Logger

	queue chan job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	workers sync.WaitGroup
	retries sync.WaitGroup
}

// New creates a stopped scheduler
func New(cfg Config, log *zap.Logger) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{cfg: cfg, log: log, queue: make(chan job, cfg.QueueSize)}
}

// Start launches the workers. Calling it on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for i := 0; i < s.cfg.Workers; i++ {
		s.workers.Add(1)
		go s.work(ctx, i)
	}
	s.log.Info("scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Duration("job_timeout", s.cfg.JobTimeout))
	return nil
}

// Stop cancels running tasks and waits for the workers until ctx ends
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.retries.Wait()
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues task under name and returns the run id. It never blocks.
func (s *Scheduler) Submit(name string, task Task) (string, error) {
	if task == nil {
		return "", ErrNilTask
	}
	j := job{id: uuid.NewString(), name: name, task: task}
	if err := s.enqueue(j); err != nil {
		return "", err
	}
	s.log.Debug("job queued", zap.String("job", name), zap.String("job_id", j.id))
	return j.id, nil
}

func (s *Scheduler) enqueue(j job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	select {
	case s.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context, worker int) {
	defer s.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.run(ctx, worker, j)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, worker int, j job) {
	log := s.log.With(
		zap.String("job", j.name),
		zap.String("job_id", j.id),
		zap.Int("attempt", j.attempt),
		zap.Int("worker", worker),
	)

	runCtx := ctx
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}

	started := time.Now()
	err := j.task(runCtx)
	took := time.Since(started)
	if err == nil {
		log.Debug("job completed", zap.Duration("took", took))
		return
	}

	log.Error("job failed", zap.Duration("took", took), zap.Error(err))
	if j.attempt >= s.cfg.MaxRetries || ctx.Err() != nil {
		return
	}
	j.attempt++
	s.retryLater(ctx, j, log)
}

// retryLater requeues j after RetryDelay without holding a worker
func (s *Scheduler) retryLater(ctx context.Context, j job, log *zap.Logger) {
	s.retries.Add(1)
	go func() {
		defer s.retries.Done()
		timer := time.NewTimer(s.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := s.enqueue(j); err != nil {
			log.Warn("job retry dropped", zap.Error(err))
		}
	}()
}
