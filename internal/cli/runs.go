// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bearbattle/dag-scheduling-sim/internal/runlog"
)

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDB, "db", "", "Run log directory (required)")
	runsCmd.Flags().StringVarP(&runsPolicy, "policy", "p", "", "Only show runs of this policy")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to show (0 = all)")
	runsCmd.Flags().BoolVar(&runsSummary, "summary", false, "Aggregate per policy instead of listing runs")

	_ = runsCmd.MarkFlagRequired("db")
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or summarize recorded runs",
	Long: `List episodes recorded by 'run --db' and 'bench --db', newest first, or
aggregate them per policy with --summary.

Example:
  dagsim runs --db ~/.dagsim/runs
  dagsim runs --db ~/.dagsim/runs -p greedy --limit 5
  dagsim runs --db ~/.dagsim/runs --summary`,
	RunE: runRuns,
}

var (
	runsDB      string
	runsPolicy  string
	runsLimit   int
	runsSummary bool
)

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := runlog.Open(runsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if runsSummary {
		return printSummaries(db)
	}
	return printRuns(db)
}

func printRuns(db *runlog.DB) error {
	runs, err := db.ListRuns(runsPolicy, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded. Run 'dagsim run --db <dir>' to record one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tPOLICY\tSEED\tJOBS\tREWARD\tMAKESPAN")
	for _, r := range runs {
		jobs := fmt.Sprintf("%d/%d", r.JobsCompleted, r.JobsArrived)
		if r.Truncated {
			jobs += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.5f\t%.1f\n",
			shortID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Policy,
			r.Seed,
			jobs,
			r.TotalReward,
			r.Makespan,
		)
	}
	return w.Flush()
}

func printSummaries(db *runlog.DB) error {
	summaries, err := db.SummarizeByPolicy()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No runs recorded. Run 'dagsim run --db <dir>' to record one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLICY\tRUNS\tJOBS\tMEAN REWARD\tMEAN MAKESPAN")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.5f\t%.1f\n",
			s.Policy, s.Runs, s.JobsCompleted, s.MeanReward, s.MeanMakespan)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
