package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// Scheduler runs every registered worker on its own ticker
type Scheduler struct {
	workers         []Worker
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	log             *logger.Logger
	started         bool
	shutdownTimeout time.Duration
}

// NewScheduler creates a scheduler; a zero shutdownTimeout means 30s
func NewScheduler(shutdownTimeout time.Duration) *Scheduler {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &Scheduler{
		log:             logger.Get().Component("scheduler"),
		shutdownTimeout: shutdownTimeout,
	}
}

// RegisterWorker adds a worker; registrations after Start are ignored
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start launches one goroutine per enabled worker
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	workers := append([]Worker(nil), s.workers...)
	s.mu.Unlock()

	started := 0
	for _, w := range workers {
		if !w.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", w.Name())
			continue
		}
		s.wg.Add(1)
		go s.runWorker(w)
		started++
	}

	s.log.Infow("Worker scheduler started", "workers", started)
	return nil
}

// Stop cancels all workers and waits for in-flight runs to return
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(s.shutdownTimeout):
		s.log.Warnw("Worker shutdown timed out", "timeout", s.shutdownTimeout)
		shutdownErr = errors.Wrapf(errors.ErrTimeout, "worker shutdown after %s", s.shutdownTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

func (s *Scheduler) runWorker(w Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	// first run happens immediately
	s.executeWorker(w)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Debugw("Worker stopping", "worker", w.Name())
			return
		case <-ticker.C:
			s.executeWorker(w)
		}
	}
}

// executeWorker runs one iteration, converting panics into errors
func (s *Scheduler) executeWorker(w Worker) {
	start := time.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Wrapf(errors.ErrInternal, "worker panicked: %s", fmt.Sprint(r))
			}
		}()
		err = w.Run(s.ctx)
	}()

	duration := time.Since(start)
	metrics.RecordWorkerExecution(w.Name(), duration, err)

	if tw, ok := w.(TrackedWorker); ok {
		tw.Record(err, duration)
	}

	if err != nil {
		s.log.Errorw("Worker execution failed", "worker", w.Name(), "error", err, "duration", duration)
		return
	}
	s.log.Debugw("Worker execution completed", "worker", w.Name(), "duration", duration)
}

// GetWorkers returns the registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
