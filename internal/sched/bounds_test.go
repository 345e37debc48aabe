package sched

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/sleigh/internal/cost"
)

func TestRun_CriticalPathBound(t *testing.T) {
	t.Parallel()
	g := wideGraph(t)
	_, bound, err := g.CriticalPath(cost.Letter(0, 1))
	if err != nil {
		t.Fatalf("CriticalPath: %v", err)
	}
	for _, workers := range []int{1, 2, 5, g.Len()} {
		res := run(t, g, Options[string]{Workers: workers, Cost: cost.Letter(0, 1)})
		if res.TotalTime < bound {
			t.Errorf("w%d: total %d beats the critical path %d", workers, res.TotalTime, bound)
		}
		if workers == g.Len() && res.TotalTime != bound {
			t.Errorf("unbounded workers: total %d, want critical path %d", res.TotalTime, bound)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()
	g := wideGraph(t)
	opts := Options[string]{Workers: 3, Cost: cost.Letter(60, 1)}
	first := run(t, g, opts)
	second := run(t, g, opts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}
