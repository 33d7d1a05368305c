package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// IntervalTrigger submits a task every interval. A tick is skipped while
// the previous attempt is queued or running, so slow rebuilds never pile up.
type IntervalTrigger struct {
	name     string
	interval time.Duration
	task     Task
	sched    *Scheduler
	log      *zap.Logger

	busy atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewIntervalTrigger binds task to sched
func NewIntervalTrigger(name string, interval time.Duration, task Task, sched *Scheduler, log *zap.Logger) (*IntervalTrigger, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if task == nil {
		return nil, ErrNilTask
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IntervalTrigger{
		name:     name,
		interval: interval,
		task:     task,
		sched:    sched,
		log:      log.With(zap.String("job", name)),
	}, nil
}

// Start begins ticking. Calling it twice is a no-op.
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)

	t.log.Info("interval trigger started", zap.Duration("interval", t.interval))
	return nil
}

// Stop ends ticking. A run already submitted is left to the scheduler.
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		t.log.Info("interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *IntervalTrigger) tick() {
	if !t.busy.CompareAndSwap(false, true) {
		t.log.Debug("previous run still pending, tick skipped")
		return
	}
	_, err := t.sched.Submit(t.name, func(ctx context.Context) error {
		defer t.busy.Store(false)
		return t.task(ctx)
	})
	if err != nil {
		t.busy.Store(false)
		if !errors.Is(err, ErrNotRunning) {
			t.log.Warn("submit failed", zap.Error(err))
		}
	}
}
