package session

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

// Sweeper periodically removes expired tokens. Validation never depends on
// it; expiry is always checked on read.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   apt.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(manager *Manager, interval time.Duration, logger apt.Logger) *Sweeper {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Sweeper{manager: manager, interval: interval, logger: logger}
}

func (s *Sweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("session sweeper disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if _, err := s.manager.SweepExpired(runCtx); err != nil {
					s.logger.Error("session sweep failed", "error", err)
				}
			}
		}
	}()

	s.logger.Info("session sweeper started", "interval", s.interval.String())
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
