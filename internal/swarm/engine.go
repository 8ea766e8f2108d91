// Package swarm runs bounded batches of tasks that fail fast.
package swarm

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Task represents a unit of work for the swarm.
type Task func(ctx context.Context) error

// Engine runs submitted tasks on at most MaxWorkers goroutines. The first
// task error cancels the context handed to every other task.
type Engine struct {
	MaxWorkers int

	group *errgroup.Group
	ctx   context.Context

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// Stats holds runtime statistics for the engine.
type Stats struct {
	ActiveWorkers  int
	Concurrency    int
	TasksCompleted int64
	TasksFailed    int64
}

// NewEngine creates an engine bound to ctx. workers below 1 means 1.
func NewEngine(ctx context.Context, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return &Engine{
		MaxWorkers: workers,
		group:      g,
		ctx:        gctx,
	}
}

// Submit schedules t, blocking while all workers are busy. Tasks submitted
// after a failure observe a cancelled context.
func (e *Engine) Submit(t Task) {
	e.group.Go(func() (err error) {
		e.active.Add(1)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
			e.active.Add(-1)
			if err != nil {
				e.failed.Add(1)
			} else {
				e.completed.Add(1)
			}
		}()

		if err := e.ctx.Err(); err != nil {
			return err
		}
		return t(e.ctx)
	})
}

// Wait blocks until every submitted task returns and reports the first error.
func (e *Engine) Wait() error {
	return e.group.Wait()
}

// GetStats returns current engine stats.
func (e *Engine) GetStats() Stats {
	return Stats{
		ActiveWorkers:  int(e.active.Load()),
		Concurrency:    e.MaxWorkers,
		TasksCompleted: e.completed.Load(),
		TasksFailed:    e.failed.Load(),
	}
}
