package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/sleigh/internal/config"
	"github.com/papapumpkin/sleigh/internal/ctxlog"
	"github.com/papapumpkin/sleigh/internal/plan"
	"github.com/papapumpkin/sleigh/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate PLAN",
	Short: "Check that a plan parses and has no dependency cycles",
	Long: `Checks that a plan parses and is acyclic, then reports its independent
tracks and its critical path: the heaviest prerequisite chain, which bounds
the total time from below regardless of worker count.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := setup(cmd)
		if err != nil {
			return err
		}
		return validatePlan(ctx, cmd.OutOrStdout(), args[0], cfg)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validatePlan loads the plan at path, checks it is acyclic and writes a
// summary to w. A critical path that cannot be priced is logged and left
// out of the summary.
func validatePlan(ctx context.Context, w io.Writer, path string, cfg config.Config) error {
	p, err := plan.Load(path)
	if err != nil {
		return err
	}
	g := p.Graph(ctx)
	if err := g.Validate(); err != nil {
		return err
	}
	tracks, err := g.Tracks()
	if err != nil {
		return err
	}

	printer := report.New(w)
	printer.Valid(path, g.Len(), len(g.Edges()))
	printer.Tracks(tracks)

	critical, length, err := g.CriticalPath(planCost(p, cfg))
	if err != nil {
		ctxlog.FromContext(ctx).Warn("critical path unavailable", "error", err)
		return nil
	}
	printer.CriticalPath(critical, length)
	return nil
}
