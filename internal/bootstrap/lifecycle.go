package bootstrap

import (
	"context"
	"sync"
	"time"

	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{shutdownTimeout: 60 * time.Second}
}

// Shutdown releases components in order:
// 1. HTTP server stops accepting requests
// 2. Scheduler lets the running analysis finish
// 3. Kafka producer flushes pending batches
// 4. Scorer releases its model session
// 5. Error tracker and logs are flushed
// 6. Data stores close last
func (l *Lifecycle) Shutdown(c *Container) {
	log := c.Log
	if log == nil {
		log = logger.Get()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer cancel()

	log.Info("[1/6] Stopping HTTP server...")
	if c.HTTPServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := c.HTTPServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}
	l.waitForGoroutines(c.WG, 5*time.Second, log)

	log.Info("[2/6] Stopping background workers...")
	if c.Scheduler != nil {
		if err := c.Scheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		}
	}

	log.Info("[3/6] Closing Kafka producer...")
	if c.Adapters.KafkaProducer != nil {
		if err := c.Adapters.KafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		}
	}

	log.Info("[4/6] Releasing scorer...")
	if c.Adapters.closeScorer != nil {
		c.Adapters.closeScorer()
	}

	log.Info("[5/6] Flushing error tracker and logs...")
	l.flushErrorTracker(shutdownCtx, c.ErrorTracker, log)
	_ = logger.Sync()

	log.Info("[6/6] Closing data stores...")
	l.closeDatabases(c, log)

	log.Info("Graceful shutdown complete")
}

func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Warnw("Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Errorw("Error tracker flush failed", "error", err)
	}
}

func (l *Lifecycle) closeDatabases(c *Container, log *logger.Logger) {
	var errs errors.MultiError

	if c.CH != nil {
		if err := c.CH.Close(); err != nil {
			errs.Add(errors.Wrap(err, "clickhouse"))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs.Add(errors.Wrap(err, "redis"))
		}
	}

	if errs.HasErrors() {
		log.Errorw("Data store close errors", "error", errs.ToError())
	}
}
