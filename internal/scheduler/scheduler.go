package scheduler

import (
	"context"
	"sync"
	"time"

	"pptxtrans/internal/logger"
)

// Purger removes expired jobs and their stored files.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

type Scheduler struct {
	purger     Purger
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the current cleanup run
	mu         sync.Mutex         // protects cancelFunc
}

func New(purger Purger, interval time.Duration) *Scheduler {
	return &Scheduler{
		purger:   purger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "action", "cleanup", "resource", "job", "result", "ok", "interval_ms", s.interval.Milliseconds())
}

func (s *Scheduler) Stop() {
	// Cancel any ongoing cleanup first
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped", "module", "scheduler", "action", "cleanup", "resource", "job", "result", "ok")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.cleanup()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) cleanup() {
	// Use the same timeout as the cleanup interval
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	// Store cancel function so Stop() can cancel ongoing cleanup
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	purged, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("scheduled cleanup cancelled", "module", "scheduler", "action", "cleanup", "resource", "job", "result", "cancelled")
			return
		}
		logger.Error("scheduled cleanup failed", "module", "scheduler", "action", "cleanup", "resource", "job", "result", "failed", "error", err)
		return
	}
	if purged > 0 {
		logger.Info("expired jobs purged", "module", "scheduler", "action", "cleanup", "resource", "job", "result", "ok", "count", purged)
	}
}
