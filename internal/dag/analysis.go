package dag

import (
	"cmp"
	"slices"
)

// Tracks partitions the graph into independent tracks: groups of tasks
// connected through edges, sharing no dependencies with other groups. Each
// track lists its tasks in TopologicalSort order. Tracks are ordered by
// descending size, then by their first task. Returns a *CycleError if the
// graph is cyclic.
func (d *DAG[T]) Tracks() ([][]T, error) {
	order, err := d.TopologicalSort()
	if err != nil {
		return nil, err
	}

	uf := newUnionFind[T]()
	for _, id := range order {
		uf.add(id)
	}
	for before, after := range d.dependents {
		for id := range after {
			uf.union(before, id)
		}
	}

	// Walking the global order keeps every track topologically sorted.
	index := make(map[T]int)
	var tracks [][]T
	for _, id := range order {
		root := uf.find(id)
		i, ok := index[root]
		if !ok {
			i = len(tracks)
			index[root] = i
			tracks = append(tracks, nil)
		}
		tracks[i] = append(tracks[i], id)
	}

	slices.SortStableFunc(tracks, func(a, b []T) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})
	return tracks, nil
}

// CriticalPath returns the chain of tasks with the largest summed weight
// and that sum. No schedule, however many workers it has, can finish in
// less time. weight errors are returned unchanged. Ties go to the chain
// found first in TopologicalSort order.
func (d *DAG[T]) CriticalPath(weight func(T) (int, error)) ([]T, int, error) {
	order, err := d.TopologicalSort()
	if err != nil {
		return nil, 0, err
	}
	if len(order) == 0 {
		return nil, 0, nil
	}

	// dist[v] is the heaviest chain ending at v, v included.
	dist := make(map[T]int, len(order))
	prev := make(map[T]T, len(order))
	hasPrev := make(map[T]bool, len(order))
	for _, v := range order {
		w, err := weight(v)
		if err != nil {
			return nil, 0, err
		}
		best, from, found := 0, v, false
		for _, p := range d.Prerequisites(v) {
			if dist[p] > best {
				best, from, found = dist[p], p, true
			}
		}
		dist[v] = best + w
		if found {
			prev[v], hasPrev[v] = from, true
		}
	}

	end := order[0]
	for _, v := range order[1:] {
		if dist[v] > dist[end] {
			end = v
		}
	}

	path := []T{end}
	for cur := end; hasPrev[cur]; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path, dist[end], nil
}

// unionFind is a disjoint-set forest with path compression and union by
// rank.
type unionFind[T comparable] struct {
	parent map[T]T
	rank   map[T]int
}

func newUnionFind[T comparable]() *unionFind[T] {
	return &unionFind[T]{
		parent: make(map[T]T),
		rank:   make(map[T]int),
	}
}

func (uf *unionFind[T]) add(x T) {
	if _, ok := uf.parent[x]; !ok {
		uf.parent[x] = x
	}
}

func (uf *unionFind[T]) find(x T) T {
	uf.add(x)
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind[T]) union(x, y T) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	// Attach the shorter tree under the taller one.
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
}
