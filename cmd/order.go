package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/sleigh/internal/plan"
	"github.com/papapumpkin/sleigh/internal/report"
	"github.com/papapumpkin/sleigh/internal/sched"
)

var orderCmd = &cobra.Command{
	Use:   "order PLAN",
	Short: "Print the order a single worker would complete the plan's tasks",
	Long: `Prints a topological order of the plan's tasks in which every ready task is
taken in ascending identifier order. This is the order one worker follows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctx, err := setup(cmd)
		if err != nil {
			return err
		}
		return printOrder(ctx, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
}

// printOrder loads the plan at path and writes its single-worker order to w.
func printOrder(ctx context.Context, w io.Writer, path string) error {
	p, err := plan.Load(path)
	if err != nil {
		return err
	}
	order, err := sched.Order(p.Graph(ctx))
	if err != nil {
		return err
	}
	report.New(w).Order(order)
	return nil
}
