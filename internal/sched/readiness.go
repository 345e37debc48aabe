package sched

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/papapumpkin/sleigh/internal/dag"
)

// Readiness selects how the driver finds tasks that may start.
type Readiness int

const (
	// ReadinessScan recomputes the ready set from the whole graph on every
	// assignment phase.
	ReadinessScan Readiness = iota
	// ReadinessQueue keeps an incrementally updated min-heap of ready tasks
	// that only changes when a task completes.
	ReadinessQueue
)

// String returns the flag spelling of r.
func (r Readiness) String() string {
	switch r {
	case ReadinessScan:
		return "scan"
	case ReadinessQueue:
		return "queue"
	default:
		return fmt.Sprintf("Readiness(%d)", int(r))
	}
}

// ParseReadiness maps "scan" or "queue" to a Readiness.
func ParseReadiness(s string) (Readiness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scan", "":
		return ReadinessScan, nil
	case "queue":
		return ReadinessQueue, nil
	default:
		return ReadinessScan, fmt.Errorf("unknown readiness mode %q: must be scan or queue", s)
	}
}

// frontier yields up to n ready tasks, smallest first, and learns about
// completions. Both implementations return identical sequences.
type frontier[T cmp.Ordered] interface {
	take(n int, completed, running map[T]bool) []T
	complete(id T)
}

func newFrontier[T cmp.Ordered](g *dag.DAG[T], mode Readiness) (frontier[T], error) {
	switch mode {
	case ReadinessScan:
		return &scanFrontier[T]{g: g}, nil
	case ReadinessQueue:
		return &queueFrontier[T]{f: g.Frontier()}, nil
	default:
		return nil, fmt.Errorf("unknown readiness mode %v", mode)
	}
}

type scanFrontier[T cmp.Ordered] struct {
	g *dag.DAG[T]
}

func (s *scanFrontier[T]) take(n int, completed, running map[T]bool) []T {
	ready := s.g.Ready(completed, running)
	if len(ready) > n {
		ready = ready[:n]
	}
	return ready
}

func (s *scanFrontier[T]) complete(T) {}

type queueFrontier[T cmp.Ordered] struct {
	f *dag.Frontier[T]
}

func (q *queueFrontier[T]) take(n int, _, _ map[T]bool) []T {
	var out []T
	for len(out) < n {
		id, ok := q.f.Pop()
		if !ok {
			break
		}
		out = append(out, id)
	}
	return out
}

func (q *queueFrontier[T]) complete(id T) { q.f.Complete(id) }
