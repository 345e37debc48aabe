// Package clock advances simulated time. Each step jumps straight to the next
// completion event instead of ticking one unit at a time, so the number of
// steps equals the number of distinct completion times.
package clock

import "github.com/papapumpkin/sleigh/internal/pool"

// Clock is the single global simulation clock. The zero value starts at 0.
type Clock struct {
	now   int
	steps int
}

// Now returns the simulated time: the sum of every delta stepped so far.
func (c *Clock) Now() int { return c.now }

// Steps returns how many completion events the clock has advanced through.
func (c *Clock) Steps() int { return c.steps }

// Tick is the outcome of one Step.
type Tick[T comparable] struct {
	// Delta is how far the clock moved.
	Delta int
	// At is the clock time after the move.
	At int
	// Done lists the tasks that finished, in worker order.
	Done []pool.Release[T]
}

// Step advances c to the next completion in p. Every busy worker loses the
// smallest remaining duration among them; workers that reach zero are freed
// and reported. Step panics if p has no busy worker, since time could never
// move forward.
func Step[T comparable](c *Clock, p *pool.Pool[T]) Tick[T] {
	delta, ok := p.MinRemaining()
	if !ok {
		panic("clock: step with every worker idle")
	}
	done := p.Drain(delta)
	c.now += delta
	c.steps++
	return Tick[T]{Delta: delta, At: c.now, Done: done}
}
