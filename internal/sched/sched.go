// Package sched runs the worker-pool simulation. Given a task graph, a
// worker count and a duration function, Run repeatedly hands the smallest
// ready task to each idle worker, advances the clock to the next completion,
// and records what finished, until every task is done.
//
// The simulation is single-threaded and deterministic: running it twice on
// the same inputs yields the same total time and completion order.
package sched

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/papapumpkin/sleigh/internal/clock"
	"github.com/papapumpkin/sleigh/internal/cost"
	"github.com/papapumpkin/sleigh/internal/ctxlog"
	"github.com/papapumpkin/sleigh/internal/dag"
	"github.com/papapumpkin/sleigh/internal/pool"
)

// ErrNoCost is returned when Options has no duration function.
var ErrNoCost = errors.New("no duration function configured")

// ErrInvalidDuration is returned when the duration function yields a value
// below one.
var ErrInvalidDuration = errors.New("duration must be positive")

// ErrStalled is returned if tasks remain but none can start and no worker is
// busy. Validation rejects cyclic graphs first, so this signals a bug.
var ErrStalled = errors.New("simulation stalled")

// Options configures a simulation run.
type Options[T cmp.Ordered] struct {
	// Workers is the fixed number of workers. Must be at least one.
	Workers int
	// Cost gives each task's duration.
	Cost cost.Func[T]
	// Readiness selects how ready tasks are found each step.
	Readiness Readiness
}

// Assignment records a task handed to a worker.
type Assignment[T cmp.Ordered] struct {
	Worker   int
	Task     T
	Duration int
}

// Step is one macro-step: an assignment phase at Start followed by an
// advance of Delta that ends at End.
type Step[T cmp.Ordered] struct {
	Start     int
	Assigned  []Assignment[T]
	Delta     int
	End       int
	Completed []T
}

// Span is when and where a single task ran.
type Span struct {
	Worker int
	Start  int
	End    int
}

// Result is the outcome of a full simulation.
type Result[T cmp.Ordered] struct {
	// TotalTime is the clock value when the last task finished.
	TotalTime int
	// Order lists tasks in the order they finished. Tasks finishing at the
	// same instant appear in worker order.
	Order []T
	// Steps is the per-step trace.
	Steps []Step[T]
	// Spans maps each task to its worker and start/end times.
	Spans map[T]Span
	// Workers is the pool size the run used.
	Workers int
}

// Run simulates g on opts.Workers workers. It validates that g is acyclic
// before starting and returns a *dag.CycleError otherwise. A duration
// function that cannot price a task fails the run at that task's first
// assignment.
func Run[T cmp.Ordered](ctx context.Context, g *dag.DAG[T], opts Options[T]) (*Result[T], error) {
	logger := ctxlog.FromContext(ctx)

	if opts.Cost == nil {
		return nil, ErrNoCost
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	workers, err := pool.New[T](opts.Workers)
	if err != nil {
		return nil, err
	}
	ready, err := newFrontier(g, opts.Readiness)
	if err != nil {
		return nil, err
	}

	var clk clock.Clock
	completed := make(map[T]bool, g.Len())
	res := &Result[T]{
		Order:   make([]T, 0, g.Len()),
		Spans:   make(map[T]Span, g.Len()),
		Workers: workers.Size(),
	}

	logger.Debug("simulation starting",
		"tasks", g.Len(), "workers", workers.Size(), "readiness", opts.Readiness.String())

	for len(completed) < g.Len() || !workers.AllIdle() {
		step := Step[T]{Start: clk.Now()}

		for _, task := range ready.take(workers.IdleCount(), completed, workers.Running()) {
			d, err := opts.Cost(task)
			if err != nil {
				return nil, fmt.Errorf("pricing task %v: %w", task, err)
			}
			if d < 1 {
				return nil, fmt.Errorf("%w: task %v has duration %d", ErrInvalidDuration, task, d)
			}
			w, _ := workers.Idle()
			workers.Assign(w, task, d)
			step.Assigned = append(step.Assigned, Assignment[T]{Worker: w, Task: task, Duration: d})
			res.Spans[task] = Span{Worker: w, Start: clk.Now()}
		}

		if workers.AllIdle() {
			return nil, fmt.Errorf("%w at t=%d: %d of %d tasks completed",
				ErrStalled, clk.Now(), len(completed), g.Len())
		}

		tick := clock.Step(&clk, workers)
		step.Delta = tick.Delta
		step.End = tick.At
		for _, r := range tick.Done {
			completed[r.Task] = true
			res.Order = append(res.Order, r.Task)
			span := res.Spans[r.Task]
			span.End = tick.At
			res.Spans[r.Task] = span
			step.Completed = append(step.Completed, r.Task)
			ready.complete(r.Task)
		}
		res.Steps = append(res.Steps, step)

		logger.Debug("step",
			"t", tick.At, "delta", tick.Delta,
			"assigned", len(step.Assigned), "completed", fmt.Sprint(step.Completed))
	}

	res.TotalTime = clk.Now()
	logger.Debug("simulation finished", "total_time", res.TotalTime, "steps", clk.Steps())
	return res, nil
}

// Order returns the single-worker execution order of g: a topological order
// with ties broken by ascending identifier.
func Order[T cmp.Ordered](g *dag.DAG[T]) ([]T, error) {
	return g.TopologicalSort()
}
