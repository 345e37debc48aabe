// Package plan loads task graphs from plan files. Four formats are accepted:
// instruction text ("Step C must be finished before step A can begin."),
// TOML, HCL and YAML. The format is chosen by file extension.
package plan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/papapumpkin/sleigh/internal/ctxlog"
	"github.com/papapumpkin/sleigh/internal/dag"
)

// ErrEmptyPlan is returned when a plan declares no tasks at all.
var ErrEmptyPlan = errors.New("plan declares no tasks")

// ErrInvalidCost is returned when a plan gives a task a non-positive cost.
var ErrInvalidCost = errors.New("cost must be positive")

// Format identifies a plan file syntax.
type Format string

// Supported plan formats.
const (
	FormatText Format = "text"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
)

// TaskSpec is one task entry of a structured plan file. After lists the
// task's prerequisites. Cost, when set, overrides the configured duration
// function for this task.
type TaskSpec struct {
	ID    string   `toml:"id" yaml:"id"`
	After []string `toml:"after" yaml:"after"`
	Cost  int      `toml:"cost" yaml:"cost"`
}

// Plan is a loaded plan file: declared tasks, prerequisite edges and any
// explicit costs.
type Plan struct {
	// Source is the path the plan was read from, if any.
	Source string
	// Tasks lists every task named by the plan, in first-seen order.
	Tasks []string
	// Edges lists prerequisite edges in file order.
	Edges []dag.Edge[string]
	// Costs holds explicit per-task durations.
	Costs map[string]int
}

// DetectFormat picks the format from a file name's extension. Unknown
// extensions are treated as instruction text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".hcl":
		return FormatHCL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Load reads and parses the plan file at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	p, err := Parse(path, data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	p.Source = path
	return p, nil
}

// Parse decodes data in the given format. name is used in HCL diagnostics.
func Parse(name string, data []byte, format Format) (*Plan, error) {
	switch format {
	case FormatText:
		return ParseText(data)
	case FormatTOML:
		return ParseTOML(data)
	case FormatHCL:
		return ParseHCL(name, data)
	case FormatYAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
}

// Graph builds the task graph. Self-edges are dropped and logged as
// warnings on the context logger; they do not fail the build.
func (p *Plan) Graph(ctx context.Context) *dag.DAG[string] {
	logger := ctxlog.FromContext(ctx)
	g := dag.New[string]()
	for _, id := range p.Tasks {
		g.AddTask(id)
	}
	for _, e := range p.Edges {
		if err := g.AddEdge(e.Before, e.After); err != nil {
			logger.Warn("skipping edge", "before", e.Before, "after", e.After, "error", err)
		}
	}
	return g
}

// fromSpecs converts structured task entries into a Plan. Tasks named only
// in an After list are added to the universe as well.
func fromSpecs(specs []TaskSpec) (*Plan, error) {
	p := &Plan{Costs: make(map[string]int)}
	for i, s := range specs {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("task %d: missing id", i+1)
		}
		p.addTask(id)
		if s.Cost < 0 {
			return nil, fmt.Errorf("task %q: %w (got %d)", id, ErrInvalidCost, s.Cost)
		}
		if s.Cost > 0 {
			p.Costs[id] = s.Cost
		}
		for _, before := range s.After {
			before = strings.TrimSpace(before)
			if before == "" {
				return nil, fmt.Errorf("task %q: empty prerequisite", id)
			}
			p.addTask(before)
			p.Edges = append(p.Edges, dag.Edge[string]{Before: before, After: id})
		}
	}
	if len(p.Tasks) == 0 {
		return nil, ErrEmptyPlan
	}
	return p, nil
}

func (p *Plan) addTask(id string) {
	if !slices.Contains(p.Tasks, id) {
		p.Tasks = append(p.Tasks, id)
	}
}
