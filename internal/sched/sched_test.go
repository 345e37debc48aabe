package sched

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/sleigh/internal/cost"
	"github.com/papapumpkin/sleigh/internal/ctxlog"
	"github.com/papapumpkin/sleigh/internal/dag"
	"github.com/papapumpkin/sleigh/internal/pool"
)

var sampleEdges = []dag.Edge[string]{
	{Before: "C", After: "A"}, {Before: "C", After: "F"},
	{Before: "A", After: "B"}, {Before: "A", After: "D"},
	{Before: "B", After: "E"}, {Before: "D", After: "E"},
	{Before: "F", After: "E"},
}

func sampleGraph(t *testing.T) *dag.DAG[string] {
	t.Helper()
	g, skipped := dag.FromEdges(sampleEdges)
	if len(skipped) != 0 {
		t.Fatalf("FromEdges skipped: %v", skipped)
	}
	return g
}

// wideGraph builds a 26-task graph with a mix of roots, chains and joins.
func wideGraph(t *testing.T) *dag.DAG[string] {
	t.Helper()
	g := dag.New[string]()
	for i := 0; i < 26; i++ {
		g.AddTask(string(rune('A' + i)))
		for j := 0; j < i; j++ {
			if (i*7+j*3)%5 == 0 {
				if err := g.AddEdge(string(rune('A'+j)), string(rune('A'+i))); err != nil {
					t.Fatalf("AddEdge: %v", err)
				}
			}
		}
	}
	return g
}

func run(t *testing.T, g *dag.DAG[string], opts Options[string]) *Result[string] {
	t.Helper()
	res, err := Run(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRun_Scenarios(t *testing.T) {
	t.Parallel()

	isolated := dag.New[string]()
	for _, id := range []string{"X", "Y", "Z"} {
		isolated.AddTask(id)
	}

	tests := []struct {
		name      string
		g         *dag.DAG[string]
		opts      Options[string]
		wantOrder string
		wantTotal int
	}{
		{
			name:      "single worker unit cost",
			g:         sampleGraph(t),
			opts:      Options[string]{Workers: 1, Cost: cost.Constant[string](1)},
			wantOrder: "CABDFE",
			wantTotal: 6,
		},
		{
			name:      "two workers letter offset",
			g:         sampleGraph(t),
			opts:      Options[string]{Workers: 2, Cost: cost.Letter(0, 1)},
			wantOrder: "CABFDE",
			wantTotal: 15,
		},
		{
			name:      "reference defaults",
			g:         sampleGraph(t),
			opts:      Options[string]{Workers: 5, Cost: cost.Letter(60, 1)},
			wantOrder: "CAFBDE",
			wantTotal: 253,
		},
		{
			name:      "isolated tasks run together",
			g:         isolated,
			opts:      Options[string]{Workers: 3, Cost: cost.Constant[string](5)},
			wantOrder: "XYZ",
			wantTotal: 5,
		},
		{
			name:      "empty graph",
			g:         dag.New[string](),
			opts:      Options[string]{Workers: 2, Cost: cost.Constant[string](1)},
			wantOrder: "",
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		for _, mode := range []Readiness{ReadinessScan, ReadinessQueue} {
			mode := mode
			t.Run(tt.name+"/"+mode.String(), func(t *testing.T) {
				t.Parallel()
				opts := tt.opts
				opts.Readiness = mode
				res := run(t, tt.g, opts)
				if got := strings.Join(res.Order, ""); got != tt.wantOrder {
					t.Errorf("order = %q, want %q", got, tt.wantOrder)
				}
				if res.TotalTime != tt.wantTotal {
					t.Errorf("TotalTime = %d, want %d", res.TotalTime, tt.wantTotal)
				}
			})
		}
	}
}

func TestRun_IsolatedTasksStartTogether(t *testing.T) {
	t.Parallel()
	g := dag.New[string]()
	for _, id := range []string{"X", "Y", "Z"} {
		g.AddTask(id)
	}
	res := run(t, g, Options[string]{Workers: 3, Cost: cost.Constant[string](5)})

	if len(res.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(res.Steps))
	}
	want := []Assignment[string]{
		{Worker: 0, Task: "X", Duration: 5},
		{Worker: 1, Task: "Y", Duration: 5},
		{Worker: 2, Task: "Z", Duration: 5},
	}
	if diff := cmp.Diff(want, res.Steps[0].Assigned); diff != "" {
		t.Errorf("assignments mismatch (-want +got):\n%s", diff)
	}
	for id, span := range res.Spans {
		if span.Start != 0 || span.End != 5 {
			t.Errorf("span[%s] = %+v, want 0..5", id, span)
		}
	}
}

func TestRun_Trace(t *testing.T) {
	t.Parallel()
	res := run(t, sampleGraph(t), Options[string]{Workers: 2, Cost: cost.Letter(0, 1)})

	want := []Step[string]{
		{Start: 0, Assigned: []Assignment[string]{{0, "C", 3}}, Delta: 3, End: 3, Completed: []string{"C"}},
		{Start: 3, Assigned: []Assignment[string]{{0, "A", 1}, {1, "F", 6}}, Delta: 1, End: 4, Completed: []string{"A"}},
		{Start: 4, Assigned: []Assignment[string]{{0, "B", 2}}, Delta: 2, End: 6, Completed: []string{"B"}},
		{Start: 6, Assigned: []Assignment[string]{{0, "D", 4}}, Delta: 3, End: 9, Completed: []string{"F"}},
		{Start: 9, Delta: 1, End: 10, Completed: []string{"D"}},
		{Start: 10, Assigned: []Assignment[string]{{0, "E", 5}}, Delta: 5, End: 15, Completed: []string{"E"}},
	}
	if diff := cmp.Diff(want, res.Steps); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Properties(t *testing.T) {
	t.Parallel()

	graphs := map[string]*dag.DAG[string]{
		"sample": sampleGraph(t),
		"wide":   wideGraph(t),
	}
	letter := cost.Letter(60, 1)

	for name, g := range graphs {
		g := g
		for _, workers := range []int{1, 2, 3, 5, 30} {
			workers := workers
			t.Run(fmt.Sprintf("%s/w%d", name, workers), func(t *testing.T) {
				t.Parallel()
				res := run(t, g, Options[string]{Workers: workers, Cost: letter})

				// Topological validity.
				for _, e := range g.Edges() {
					if res.Spans[e.Before].End > res.Spans[e.After].Start {
						t.Errorf("%s finished at %d but %s started at %d",
							e.Before, res.Spans[e.Before].End, e.After, res.Spans[e.After].Start)
					}
				}

				// Completeness.
				seen := make(map[string]int)
				for _, id := range res.Order {
					seen[id]++
				}
				for _, id := range g.Tasks() {
					if seen[id] != 1 {
						t.Errorf("task %s appears %d times in order", id, seen[id])
					}
				}
				if len(res.Order) != g.Len() {
					t.Errorf("len(Order) = %d, want %d", len(res.Order), g.Len())
				}

				// Monotonic clock.
				sum, prev := 0, 0
				for i, s := range res.Steps {
					if s.Delta <= 0 || s.End < prev || s.Start != prev {
						t.Errorf("step %d = %+v breaks monotonic clock (prev end %d)", i, s, prev)
					}
					sum += s.Delta
					prev = s.End
				}
				if sum != res.TotalTime {
					t.Errorf("sum of deltas = %d, TotalTime = %d", sum, res.TotalTime)
				}

				// Capacity.
				for ts := 0; ts < res.TotalTime; ts++ {
					busy := 0
					for _, sp := range res.Spans {
						if sp.Start <= ts && ts < sp.End {
							busy++
						}
					}
					if busy > workers {
						t.Fatalf("%d tasks running at t=%d with %d workers", busy, ts, workers)
					}
				}
			})
		}
	}
}

func TestRun_SingleWorkerReduction(t *testing.T) {
	t.Parallel()
	letter := cost.Letter(60, 1)

	for name, g := range map[string]*dag.DAG[string]{"sample": sampleGraph(t), "wide": wideGraph(t)} {
		g := g
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res := run(t, g, Options[string]{Workers: 1, Cost: letter})

			want, err := Order(g)
			if err != nil {
				t.Fatalf("Order: %v", err)
			}
			if diff := cmp.Diff(want, res.Order); diff != "" {
				t.Errorf("order mismatch (-topological +simulated):\n%s", diff)
			}

			total := 0
			for _, id := range g.Tasks() {
				d, _ := letter(id)
				total += d
			}
			if res.TotalTime != total {
				t.Errorf("TotalTime = %d, want sum of costs %d", res.TotalTime, total)
			}
		})
	}
}

func TestRun_IntegerIdentifiers(t *testing.T) {
	t.Parallel()
	g, _ := dag.FromEdges([]dag.Edge[int]{{Before: 10, After: 2}, {Before: 10, After: 3}})
	res, err := Run(context.Background(), g, Options[int]{
		Workers: 2,
		Cost:    cost.Table(map[int]int{10: 1, 2: 4, 3: 2}),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]int{10, 3, 2}, res.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if res.TotalTime != 5 {
		t.Errorf("TotalTime = %d, want 5", res.TotalTime)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	cyclic, _ := dag.FromEdges([]dag.Edge[string]{{Before: "A", After: "B"}, {Before: "B", After: "A"}})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), cyclic, Options[string]{Workers: 2, Cost: cost.Constant[string](1)})
		if !errors.Is(err, dag.ErrCycle) {
			t.Fatalf("got %v, want ErrCycle", err)
		}
		var ce *dag.CycleError[string]
		if !errors.As(err, &ce) {
			t.Fatalf("got %T, want *dag.CycleError", err)
		}
		if diff := cmp.Diff([]string{"A", "B"}, ce.Cycle); diff != "" {
			t.Errorf("cycle mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown task in cost", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), sampleGraph(t), Options[string]{
			Workers: 2,
			Cost:    cost.Table(map[string]int{"C": 1, "A": 1}),
		})
		if !errors.Is(err, cost.ErrUnknownTask) {
			t.Fatalf("got %v, want ErrUnknownTask", err)
		}
		if !strings.Contains(err.Error(), "F") {
			t.Errorf("error %q should name task F", err)
		}
	})

	t.Run("non-positive duration", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), sampleGraph(t), Options[string]{Workers: 1, Cost: cost.Constant[string](0)})
		if !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("got %v, want ErrInvalidDuration", err)
		}
	})

	t.Run("no workers", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), sampleGraph(t), Options[string]{Workers: 0, Cost: cost.Constant[string](1)})
		if !errors.Is(err, pool.ErrNoWorkers) {
			t.Errorf("got %v, want ErrNoWorkers", err)
		}
	})

	t.Run("no cost", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), sampleGraph(t), Options[string]{Workers: 1})
		if !errors.Is(err, ErrNoCost) {
			t.Errorf("got %v, want ErrNoCost", err)
		}
	})

	t.Run("unknown readiness", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), sampleGraph(t), Options[string]{
			Workers: 1, Cost: cost.Constant[string](1), Readiness: Readiness(9),
		})
		if err == nil {
			t.Error("expected error for unknown readiness mode")
		}
	})
}

func TestRun_LogsSteps(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := ctxlog.New("debug", "text", &buf)
	if err != nil {
		t.Fatalf("ctxlog.New: %v", err)
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)

	if _, err := Run(ctx, sampleGraph(t), Options[string]{Workers: 2, Cost: cost.Letter(0, 1)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"simulation starting", "msg=step", "total_time=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
