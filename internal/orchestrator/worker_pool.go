package orchestrator

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/rupeeflow/bbps-backend/internal/config"
)

// WorkerPool bounds how many payment executions run at once.
type WorkerPool struct {
	logger *slog.Logger
	pool   *ants.Pool
}

// NewWorkerPool creates a pool with the configured size
func NewWorkerPool(logger *slog.Logger, cfg *config.WorkerPoolConfig) (*WorkerPool, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}
	return &WorkerPool{logger: logger, pool: pool}, nil
}

// SubmitWait runs the task on the pool and blocks until it finishes or
// the context is cancelled. A cancelled wait abandons the result but the
// task itself runs to completion on its worker.
func (p *WorkerPool) SubmitWait(ctx context.Context, task func()) error {
	done := make(chan struct{})
	err := p.pool.Submit(func() {
		defer close(done)
		task()
	})
	if err != nil {
		p.logger.Error("Failed to submit task to worker pool", "error", err)
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool's workers.
func (p *WorkerPool) Shutdown() {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

// Running returns the number of busy workers.
func (p *WorkerPool) Running() int {
	return p.pool.Running()
}

// Capacity returns the pool size.
func (p *WorkerPool) Capacity() int {
	return p.pool.Cap()
}
