// Package report renders simulation results for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/sleigh/internal/sched"
)

// idle marks a worker with nothing assigned in a timeline row.
const idle = "."

// Printer writes styled output to a single writer. Colors are only emitted
// when the writer is a terminal that supports them.
type Printer struct {
	w io.Writer

	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	busy    lipgloss.Style
	idle    lipgloss.Style
	success lipgloss.Style
}

// New returns a Printer that writes to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF")),
		label:   r.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		value:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EEEEEE")),
		busy:    r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		idle:    r.NewStyle().Foreground(lipgloss.Color("#636363")),
		success: r.NewStyle().Foreground(lipgloss.Color("#00E676")),
	}
}

// Order prints a completion order on its own line.
func (p *Printer) Order(order []string) {
	fmt.Fprintln(p.w, JoinIDs(order))
}

// Summary prints the total time and completion order of a run.
func (p *Printer) Summary(res *sched.Result[string]) {
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("workers:"), p.value.Render(strconv.Itoa(res.Workers)))
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("order:"), p.value.Render(JoinIDs(res.Order)))
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("total time:"), p.success.Render(strconv.Itoa(res.TotalTime)))
}

// Valid prints the outcome of a successful validation.
func (p *Printer) Valid(source string, tasks, edges int) {
	fmt.Fprintf(p.w, "%s %s %s\n",
		p.success.Render("✓"),
		p.value.Render(source),
		p.label.Render(fmt.Sprintf("(%d tasks, %d edges)", tasks, edges)))
}

// Tracks prints the independent tracks of a plan, one per line.
func (p *Printer) Tracks(tracks [][]string) {
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("tracks:"), p.value.Render(strconv.Itoa(len(tracks))))
	for i, track := range tracks {
		fmt.Fprintf(p.w, "  %s %s\n", p.label.Render(fmt.Sprintf("%d.", i+1)), p.busy.Render(JoinIDs(track)))
	}
}

// CriticalPath prints the heaviest prerequisite chain and its length.
func (p *Printer) CriticalPath(path []string, length int) {
	fmt.Fprintf(p.w, "%s %s %s\n",
		p.label.Render("critical path:"),
		p.value.Render(strings.Join(path, " → ")),
		p.label.Render(fmt.Sprintf("(%d)", length)))
}

// Timeline prints one row per step: the time the step began, the task
// each worker was running, and the tasks finished before that time.
func (p *Printer) Timeline(res *sched.Result[string]) {
	rows := TimelineRows(res)

	headers := []string{"Time"}
	for i := 0; i < res.Workers; i++ {
		headers = append(headers, fmt.Sprintf("Worker %d", i+1))
	}
	headers = append(headers, "Done")

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row.cells() {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(p.header.Width(widths[i] + 2).Render(h))
	}
	b.WriteByte('\n')
	for _, row := range rows {
		for i, cell := range row.cells() {
			var style lipgloss.Style
			switch {
			case i == 0:
				style = p.label
			case i > len(row.Workers):
				style = p.success
			case cell == idle:
				style = p.idle
			default:
				style = p.busy
			}
			b.WriteString(style.Width(widths[i] + 2).Render(cell))
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(p.w, b.String())
}

// Row is one line of a timeline.
type Row struct {
	At      int
	Workers []string
	Done    string
}

func (r Row) cells() []string {
	cells := make([]string, 0, len(r.Workers)+2)
	cells = append(cells, strconv.Itoa(r.At))
	cells = append(cells, r.Workers...)
	return append(cells, r.Done)
}

// TimelineRows derives timeline rows from a result's step trace. A worker
// shows a task for every step that starts while the task is running.
func TimelineRows(res *sched.Result[string]) []Row {
	running := make([]string, res.Workers)
	for i := range running {
		running[i] = idle
	}
	var done []string
	rows := make([]Row, 0, len(res.Steps))
	for _, step := range res.Steps {
		for _, a := range step.Assigned {
			running[a.Worker] = a.Task
		}
		rows = append(rows, Row{
			At:      step.Start,
			Workers: append([]string(nil), running...),
			Done:    JoinIDs(done),
		})
		for _, id := range step.Completed {
			running[res.Spans[id].Worker] = idle
			done = append(done, id)
		}
	}
	return rows
}

// JoinIDs concatenates single-character identifiers directly, the way
// instruction answers are written, and separates longer ones with spaces.
func JoinIDs(ids []string) string {
	for _, id := range ids {
		if len(id) != 1 {
			return strings.Join(ids, " ")
		}
	}
	return strings.Join(ids, "")
}
