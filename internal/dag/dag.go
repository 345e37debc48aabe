// Package dag provides a directed acyclic graph of tasks related by
// prerequisite edges. It supports readiness queries, topological sorting
// with ascending-identifier tie-breaking, and up-front cycle detection.
package dag

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is returned when the graph contains a dependency cycle.
var ErrCycle = errors.New("cycle detected")

// ErrSelfEdge is returned when an edge would make a task its own prerequisite.
var ErrSelfEdge = errors.New("self-referencing edge")

// Edge is a single prerequisite relation: After may not start until Before
// has completed.
type Edge[T cmp.Ordered] struct {
	Before T
	After  T
}

// CycleError reports one offending cycle. Cycle lists the members in edge
// order, starting from the smallest member.
type CycleError[T cmp.Ordered] struct {
	Cycle []T
}

// Error lists the cycle members, repeating the first at the end.
func (e *CycleError[T]) Error() string {
	parts := make([]string, 0, len(e.Cycle)+1)
	for _, id := range e.Cycle {
		parts = append(parts, fmt.Sprint(id))
	}
	if len(e.Cycle) > 0 {
		parts = append(parts, fmt.Sprint(e.Cycle[0]))
	}
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(parts, " → "))
}

// Unwrap returns ErrCycle.
func (e *CycleError[T]) Unwrap() error { return ErrCycle }

// DAG holds the task universe and its prerequisite edges. It is built once
// and is read-only for the duration of a simulation.
type DAG[T cmp.Ordered] struct {
	// prereqs maps task → set of tasks that must finish first.
	prereqs map[T]map[T]bool
	// dependents maps task → set of tasks waiting on it.
	dependents map[T]map[T]bool
}

// New creates an empty DAG.
func New[T cmp.Ordered]() *DAG[T] {
	return &DAG[T]{
		prereqs:    make(map[T]map[T]bool),
		dependents: make(map[T]map[T]bool),
	}
}

// FromEdges builds a DAG from edges. Self-edges are skipped; their tasks are
// still registered. The returned slice holds one error per skipped edge.
func FromEdges[T cmp.Ordered](edges []Edge[T]) (*DAG[T], []error) {
	d := New[T]()
	var skipped []error
	for _, e := range edges {
		if err := d.AddEdge(e.Before, e.After); err != nil {
			skipped = append(skipped, err)
		}
	}
	return d, skipped
}

// AddTask registers a task with no edges. Adding an existing task is a no-op.
func (d *DAG[T]) AddTask(id T) {
	if _, ok := d.prereqs[id]; ok {
		return
	}
	d.prereqs[id] = make(map[T]bool)
	d.dependents[id] = make(map[T]bool)
}

// AddEdge records that after depends on before. Both tasks are registered
// if missing. Duplicate edges are ignored. A self-edge registers the task
// but is dropped and reported as ErrSelfEdge.
func (d *DAG[T]) AddEdge(before, after T) error {
	d.AddTask(before)
	d.AddTask(after)
	if before == after {
		return fmt.Errorf("%w: %v", ErrSelfEdge, before)
	}
	d.prereqs[after][before] = true
	d.dependents[before][after] = true
	return nil
}

// Has reports whether id is part of the task universe.
func (d *DAG[T]) Has(id T) bool {
	_, ok := d.prereqs[id]
	return ok
}

// Len returns the number of distinct tasks.
func (d *DAG[T]) Len() int {
	return len(d.prereqs)
}

// Tasks returns the task universe in ascending order.
func (d *DAG[T]) Tasks() []T {
	ids := make([]T, 0, len(d.prereqs))
	for id := range d.prereqs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Prerequisites returns the tasks that must complete before id may start,
// ascending. It returns an empty slice for root or unknown tasks.
func (d *DAG[T]) Prerequisites(id T) []T {
	return sortedKeys(d.prereqs[id])
}

// Dependents returns the tasks that directly wait on id, ascending.
func (d *DAG[T]) Dependents(id T) []T {
	return sortedKeys(d.dependents[id])
}

// Edges returns every edge ordered by (Before, After).
func (d *DAG[T]) Edges() []Edge[T] {
	var edges []Edge[T]
	for _, before := range d.Tasks() {
		for _, after := range d.Dependents(before) {
			edges = append(edges, Edge[T]{Before: before, After: after})
		}
	}
	return edges
}

// Satisfied reports whether every task in the universe is in done.
func (d *DAG[T]) Satisfied(done map[T]bool) bool {
	for id := range d.prereqs {
		if !done[id] {
			return false
		}
	}
	return true
}

// Ready returns tasks that may start now: not done, not in progress, and
// with every prerequisite done. The result is ascending so callers can hand
// the smallest identifier to the next free worker. The set is recomputed
// from scratch on each call.
func (d *DAG[T]) Ready(done, inProgress map[T]bool) []T {
	var ready []T
	for id, prereqs := range d.prereqs {
		if done[id] || inProgress[id] {
			continue
		}
		allMet := true
		for p := range prereqs {
			if !done[p] {
				allMet = false
				break
			}
		}
		if allMet {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)
	return ready
}

// TopologicalSort returns the tasks in an order where every prerequisite
// precedes its dependents. Among tasks available at the same time the
// smallest identifier comes first. Returns a *CycleError if the graph is
// cyclic.
func (d *DAG[T]) TopologicalSort() ([]T, error) {
	f := d.Frontier()
	sorted := make([]T, 0, d.Len())
	for {
		id, ok := f.Pop()
		if !ok {
			break
		}
		sorted = append(sorted, id)
		f.Complete(id)
	}
	if len(sorted) != d.Len() {
		return nil, d.cycleError()
	}
	return sorted, nil
}

// Validate returns a *CycleError naming one cycle if the graph is not
// acyclic, and nil otherwise.
func (d *DAG[T]) Validate() error {
	if cycle := d.FindCycle(); cycle != nil {
		return &CycleError[T]{Cycle: cycle}
	}
	return nil
}

// FindCycle returns the members of one cycle in edge order, or nil if the
// graph is acyclic. The search visits tasks in ascending order so the
// reported cycle is deterministic.
func (d *DAG[T]) FindCycle() []T {
	const (
		unvisited = iota
		active
		finished
	)
	state := make(map[T]int, len(d.prereqs))
	var stack []T

	var visit func(id T) []T
	visit = func(id T) []T {
		state[id] = active
		stack = append(stack, id)
		for _, next := range d.Dependents(id) {
			switch state[next] {
			case active:
				start := slices.Index(stack, next)
				return rotateToMin(slices.Clone(stack[start:]))
			case unvisited:
				if c := visit(next); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = finished
		return nil
	}

	for _, id := range d.Tasks() {
		if state[id] != unvisited {
			continue
		}
		if c := visit(id); c != nil {
			return c
		}
	}
	return nil
}

func (d *DAG[T]) cycleError() error {
	if cycle := d.FindCycle(); cycle != nil {
		return &CycleError[T]{Cycle: cycle}
	}
	return ErrCycle
}

// rotateToMin rotates cycle so that its smallest member comes first while
// keeping edge order.
func rotateToMin[T cmp.Ordered](cycle []T) []T {
	if len(cycle) == 0 {
		return cycle
	}
	i := slices.Index(cycle, slices.Min(cycle))
	out := make([]T, 0, len(cycle))
	out = append(out, cycle[i:]...)
	return append(out, cycle[:i]...)
}

func sortedKeys[T cmp.Ordered](set map[T]bool) []T {
	ids := make([]T, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
