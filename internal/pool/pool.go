// Package pool holds a fixed number of simulated worker slots. A slot is
// either idle or holds exactly one task together with the time it still
// needs. Slots are mutated only through Assign and Drain.
package pool

import (
	"errors"
	"fmt"
)

// ErrNoWorkers is returned when a pool is created with fewer than one worker.
var ErrNoWorkers = errors.New("worker count must be positive")

// Slot is one worker. Remaining is zero exactly when the slot is idle.
type Slot[T comparable] struct {
	Task      T
	Remaining int
	busy      bool
}

// Busy reports whether the slot holds a task.
func (s Slot[T]) Busy() bool { return s.busy }

// Release records a task that finished on a given worker.
type Release[T comparable] struct {
	Worker int
	Task   T
}

// Pool is a fixed-size array of worker slots. The size never changes after
// New.
type Pool[T comparable] struct {
	slots []Slot[T]
}

// New creates a pool with n idle workers.
func New[T comparable](n int) (*Pool[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, n)
	}
	return &Pool[T]{slots: make([]Slot[T], n)}, nil
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int { return len(p.slots) }

// Idle returns the index of the lowest-numbered idle worker. The second
// result is false when every worker is busy.
func (p *Pool[T]) Idle() (int, bool) {
	for i := range p.slots {
		if !p.slots[i].busy {
			return i, true
		}
	}
	return -1, false
}

// IdleCount returns how many workers are idle.
func (p *Pool[T]) IdleCount() int {
	n := 0
	for i := range p.slots {
		if !p.slots[i].busy {
			n++
		}
	}
	return n
}

// AllIdle reports whether no worker holds a task.
func (p *Pool[T]) AllIdle() bool {
	return p.IdleCount() == len(p.slots)
}

// Assign gives task to worker i for duration time units. It panics if the
// worker is busy or the duration is not positive; both indicate a bug in the
// caller rather than bad input.
func (p *Pool[T]) Assign(i int, task T, duration int) {
	s := &p.slots[i]
	if s.busy {
		panic(fmt.Sprintf("pool: assign %v to worker %d which is running %v", task, i, s.Task))
	}
	if duration <= 0 {
		panic(fmt.Sprintf("pool: assign %v with non-positive duration %d", task, duration))
	}
	s.Task = task
	s.Remaining = duration
	s.busy = true
}

// Running returns the set of tasks currently held by a worker.
func (p *Pool[T]) Running() map[T]bool {
	running := make(map[T]bool, len(p.slots))
	for _, s := range p.slots {
		if s.busy {
			running[s.Task] = true
		}
	}
	return running
}

// Slots returns a copy of the worker slots.
func (p *Pool[T]) Slots() []Slot[T] {
	out := make([]Slot[T], len(p.slots))
	copy(out, p.slots)
	return out
}

// MinRemaining returns the smallest remaining duration over busy workers.
// The second result is false when the pool is idle.
func (p *Pool[T]) MinRemaining() (int, bool) {
	least, found := 0, false
	for _, s := range p.slots {
		if !s.busy {
			continue
		}
		if !found || s.Remaining < least {
			least, found = s.Remaining, true
		}
	}
	return least, found
}

// Drain subtracts delta from every busy worker and frees the ones that reach
// zero. Freed tasks are returned in worker order. It panics if delta exceeds
// any busy worker's remaining time, which would push a counter below zero.
func (p *Pool[T]) Drain(delta int) []Release[T] {
	var done []Release[T]
	for i := range p.slots {
		s := &p.slots[i]
		if !s.busy {
			continue
		}
		if delta > s.Remaining {
			panic(fmt.Sprintf("pool: drain %d exceeds worker %d remaining %d", delta, i, s.Remaining))
		}
		s.Remaining -= delta
		if s.Remaining == 0 {
			done = append(done, Release[T]{Worker: i, Task: s.Task})
			var zero T
			s.Task = zero
			s.busy = false
		}
	}
	return done
}
