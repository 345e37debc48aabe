package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/sleigh/internal/config"
	"github.com/papapumpkin/sleigh/internal/cost"
	"github.com/papapumpkin/sleigh/internal/ctxlog"
	"github.com/papapumpkin/sleigh/internal/plan"
	"github.com/papapumpkin/sleigh/internal/report"
	"github.com/papapumpkin/sleigh/internal/sched"
	"github.com/papapumpkin/sleigh/internal/telemetry"
	"github.com/papapumpkin/sleigh/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run PLAN",
	Short: "Simulate a pool of workers completing the plan",
	Long: `Simulates a fixed number of workers. Whenever a worker is idle it takes the
alphabetically smallest task whose prerequisites are complete. A task's
duration is its explicit plan cost, or base-cost + step-cost * N for the Nth
letter of the alphabet.

With --watch, the plan is re-simulated each time the file is saved until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("workers", 5, "number of workers")
	runCmd.Flags().Int("base-cost", 60, "fixed duration added to every lettered task")
	runCmd.Flags().Int("step-cost", 1, "duration added per letter position")
	runCmd.Flags().String("readiness", "scan", "ready-set strategy: scan or queue")
	runCmd.Flags().String("telemetry", "", "append JSONL run events to this file")
	runCmd.Flags().Bool("timeline", false, "print the per-step worker timeline")
	runCmd.Flags().Bool("watch", false, "re-run whenever the plan file changes")

	_ = viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("base_cost", runCmd.Flags().Lookup("base-cost"))
	_ = viper.BindPFlag("step_cost", runCmd.Flags().Lookup("step-cost"))
	_ = viper.BindPFlag("readiness", runCmd.Flags().Lookup("readiness"))
	_ = viper.BindPFlag("telemetry_path", runCmd.Flags().Lookup("telemetry"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	timeline, _ := cmd.Flags().GetBool("timeline")
	sim := &simulation{
		cfg:      cfg,
		printer:  report.New(cmd.OutOrStdout()),
		timeline: timeline,
	}

	if watching, _ := cmd.Flags().GetBool("watch"); !watching {
		return sim.run(ctx, args[0])
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return sim.watch(ctx, args[0])
}

// simulation runs plans against a fixed configuration.
type simulation struct {
	cfg      config.Config
	printer  *report.Printer
	timeline bool
}

// run loads the plan at path, simulates it and prints the result. When a
// telemetry path is configured the run's events are appended to it.
func (s *simulation) run(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)

	p, err := plan.Load(path)
	if err != nil {
		return err
	}
	mode, err := sched.ParseReadiness(s.cfg.Readiness)
	if err != nil {
		return err
	}
	g := p.Graph(ctx)
	opts := sched.Options[string]{
		Workers:   s.cfg.Workers,
		Cost:      planCost(p, s.cfg),
		Readiness: mode,
	}
	res, err := sched.Run(ctx, g, opts)
	if err != nil {
		return err
	}

	s.printer.Summary(res)
	if s.timeline {
		s.printer.Timeline(res)
	}

	if s.cfg.TelemetryPath == "" {
		return nil
	}
	em, err := telemetry.NewEmitter(s.cfg.TelemetryPath)
	if err != nil {
		return err
	}
	runID := telemetry.NewRunID()
	info := telemetry.RunInfo{Source: path, Tasks: g.Len(), Workers: opts.Workers, Readiness: mode.String()}
	if err := em.Record(runID, info, res); err != nil {
		_ = em.Close()
		return err
	}
	logger.Info("run recorded", "run", runID, "path", s.cfg.TelemetryPath)
	return em.Close()
}

// planCost prices tasks by their explicit plan cost, falling back to the
// configured per-letter durations.
func planCost(p *plan.Plan, cfg config.Config) cost.Func[string] {
	return cost.Fallback(cost.Table(p.Costs), cost.Letter(cfg.BaseCost, cfg.StepCost))
}

// watch runs the plan once, then again every time the file changes, until
// ctx is cancelled. Failures of individual runs are logged and do not stop
// the watch.
func (s *simulation) watch(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)

	w, err := watch.New(path)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	if err := s.run(ctx, path); err != nil {
		logger.Error("run failed", "error", err)
	}
	logger.Info("watching for changes", "path", w.Path)

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case changed, ok := <-w.Changes:
			if !ok {
				return fmt.Errorf("watcher for %s closed", path)
			}
			logger.Info("plan changed", "path", changed)
			if err := s.run(ctx, path); err != nil {
				logger.Error("run failed", "error", err)
			}
		}
	}
}
