// Package telemetry provides a JSONL event stream for recording simulation
// runs. Every run start, task assignment, task completion and run end is
// written as one structured JSON event tagged with the run's ID, making
// schedules auditable and easy to diff between configurations.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papapumpkin/sleigh/internal/sched"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart      = "run_start"
	KindTaskAssigned  = "task_assigned"
	KindTaskCompleted = "task_completed"
	KindRunDone       = "run_done"
)

// Event represents a single telemetry record. Timestamp is wall-clock time
// of emission; At is the simulated clock value the event describes.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	TaskID    string    `json:"task,omitempty"`
	At        int       `json:"at"`
	Data      any       `json:"data,omitempty"`
}

// NewRunID returns a fresh identifier for a simulation run.
func NewRunID() string {
	return uuid.NewString()
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event to the JSONL file. It is safe for concurrent use.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// RunInfo is the payload of a run_start event.
type RunInfo struct {
	Source    string `json:"source,omitempty"`
	Tasks     int    `json:"tasks"`
	Workers   int    `json:"workers"`
	Readiness string `json:"readiness"`
}

// Record writes the full event stream for a finished simulation: one
// run_start, an assignment and a completion per task in step order, and a
// closing run_done carrying the total time and completion order. Calling
// Record on a nil Emitter is a no-op.
func (e *Emitter) Record(runID string, info RunInfo, res *sched.Result[string]) error {
	if e == nil {
		return nil
	}
	emit := func(kind, task string, at int, data any) error {
		return e.Emit(Event{Timestamp: e.now(), Kind: kind, RunID: runID, TaskID: task, At: at, Data: data})
	}

	if err := emit(KindRunStart, "", 0, info); err != nil {
		return err
	}
	for _, step := range res.Steps {
		for _, a := range step.Assigned {
			data := map[string]int{"worker": a.Worker, "duration": a.Duration}
			if err := emit(KindTaskAssigned, a.Task, step.Start, data); err != nil {
				return err
			}
		}
		for _, id := range step.Completed {
			data := map[string]int{"worker": res.Spans[id].Worker}
			if err := emit(KindTaskCompleted, id, step.End, data); err != nil {
				return err
			}
		}
	}
	done := map[string]any{"total_time": res.TotalTime, "order": res.Order}
	return emit(KindRunDone, "", res.TotalTime, done)
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
