package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"leadplan/engine/internal/diff"
	"leadplan/engine/internal/plan"
)

var (
	diffContext int
	diffJSON    bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <before.json> <after.json>",
	Short: "Compare two saved plans",
	Long:  "Compare two plans saved by `leadplan generate` (either the {plan, source} envelope or a bare plan). Both must satisfy the plan schema.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := plan.LoadPlan(args[0])
		if err != nil {
			return err
		}
		after, err := plan.LoadPlan(args[1])
		if err != nil {
			return err
		}
		hunks, stats := diff.Plans(before, after, diffContext)
		current.logger.Debug("leadplan.diff", "hunks", len(hunks), "added", stats.Added, "removed", stats.Removed)
		out := cmd.OutOrStdout()
		if diffJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"hunks": hunks, "stats": stats})
		}
		if len(hunks) == 0 {
			_, err := fmt.Fprintln(out, "plans are identical")
			return err
		}
		if _, err := fmt.Fprint(out, diff.Unified(hunks)); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d added, %d removed\n", stats.Added, stats.Removed)
		return err
	},
}

func init() {
	diffCmd.Flags().IntVarP(&diffContext, "context", "U", diff.DefaultContext, "Unchanged lines shown around each change (-1 for all)")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Print hunks as JSON")
}
