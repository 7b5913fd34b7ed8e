package stock

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
)

// Worker applies deductions in the background from a bounded queue.
type Worker struct {
	applier Applier
	queue   chan Deduction
	logger  apt.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(applier Applier, size int, logger apt.Logger) *Worker {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if size <= 0 {
		size = 1
	}
	return &Worker{
		applier: applier,
		queue:   make(chan Deduction, size),
		logger:  logger,
	}
}

// Enqueue never blocks. A full queue returns ErrQueueFull.
func (w *Worker) Enqueue(ctx context.Context, d Deduction) error {
	select {
	case w.queue <- d:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx)
	w.logger.Info("stock worker started", "capacity", cap(w.queue))
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-w.queue:
			w.apply(ctx, d)
		}
	}
}

func (w *Worker) apply(ctx context.Context, d Deduction) {
	if err := w.applier.Apply(ctx, d); err != nil {
		w.logger.Error("stock deduction failed", "order_id", d.OrderID.String(), "error", err)
	}
}

// Stop halts the worker and applies whatever is still queued, bounded by ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	for {
		select {
		case d := <-w.queue:
			w.apply(ctx, d)
		case <-ctx.Done():
			w.logger.Info("stock worker stopped with pending deductions", "pending", len(w.queue))
			return ctx.Err()
		default:
			return nil
		}
	}
}
