package dag

import (
	"cmp"
	"container/heap"
)

// Frontier is an incrementally maintained ready queue. It tracks how many
// prerequisites each task still waits on and keeps the tasks that wait on
// nothing in a min-heap, so the smallest ready identifier is always popped
// first. Unlike Ready, it never rescans the whole graph.
type Frontier[T cmp.Ordered] struct {
	d       *DAG[T]
	waiting map[T]int
	ready   minHeap[T]
}

// Frontier returns a new frontier seeded with every task that has no
// prerequisites.
func (d *DAG[T]) Frontier() *Frontier[T] {
	f := &Frontier[T]{
		d:       d,
		waiting: make(map[T]int, len(d.prereqs)),
	}
	for id, prereqs := range d.prereqs {
		f.waiting[id] = len(prereqs)
		if len(prereqs) == 0 {
			f.ready = append(f.ready, id)
		}
	}
	heap.Init(&f.ready)
	return f
}

// Len returns the number of tasks currently ready.
func (f *Frontier[T]) Len() int {
	return f.ready.Len()
}

// Pop removes and returns the smallest ready task. The caller owns the task
// until it reports it through Complete.
func (f *Frontier[T]) Pop() (T, bool) {
	if f.ready.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&f.ready).(T), true
}

// Complete marks id finished and pushes every dependent whose last
// prerequisite it was.
func (f *Frontier[T]) Complete(id T) {
	for dep := range f.d.dependents[id] {
		f.waiting[dep]--
		if f.waiting[dep] == 0 {
			heap.Push(&f.ready, dep)
		}
	}
}

// minHeap implements heap.Interface over ordered identifiers.
type minHeap[T cmp.Ordered] []T

func (h minHeap[T]) Len() int           { return len(h) }
func (h minHeap[T]) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap[T]) Push(x any) { *h = append(*h, x.(T)) }

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
