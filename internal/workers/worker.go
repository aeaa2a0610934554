package workers

import (
	"context"
	"sync"
	"time"

	"marketpulse/pkg/logger"
)

// Worker is a periodic background job. The scheduler calls Run once per
// Interval while Enabled reports true at start-up.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
	Interval() time.Duration
	Enabled() bool
}

// TrackedWorker also keeps its own run history
type TrackedWorker interface {
	Worker
	Record(err error, took time.Duration)
	Health() WorkerHealth
}

// WorkerHealth summarises past runs
type WorkerHealth struct {
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	AvgDuration time.Duration
	Enabled     bool
}

// BaseWorker is embedded by concrete workers for the boilerplate half of
// the Worker interface plus a logger tagged with the worker name.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	mu      sync.RWMutex
	history WorkerHealth
	busy    time.Duration
}

func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

func (w *BaseWorker) Name() string            { return w.name }
func (w *BaseWorker) Interval() time.Duration { return w.interval }
func (w *BaseWorker) Enabled() bool           { return w.enabled }
func (w *BaseWorker) Log() *logger.Logger     { return w.log }

// Record folds one run into the history; a nil err clears LastError
func (w *BaseWorker) Record(err error, took time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.history.LastRun = time.Now()
	w.history.LastError = err
	w.history.RunCount++
	if err != nil {
		w.history.ErrorCount++
	}
	w.busy += took
}

func (w *BaseWorker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()

	h := w.history
	h.Enabled = w.enabled
	if h.RunCount > 0 {
		h.AvgDuration = w.busy / time.Duration(h.RunCount)
	}
	return h
}
