package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karatelabs/karate-v2-sub006/packages/db"
)

var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history <db-path>",
	Short: "Show recent runs from a history database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(context.Background(), historyLimitFlag)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
			return nil
		}
		for _, r := range runs {
			status := "PASS"
			if r.Failed > 0 {
				status = "FAIL"
			}
			env := r.Env
			if env == "" {
				env = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  env=%s  %d passed, %d failed  (%s)\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), status, r.Path, env,
				r.Passed, r.Failed, r.Duration)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n",
		getEnvInt("KARATE_HISTORY_LIMIT", 20), "Maximum runs to show (env: KARATE_HISTORY_LIMIT)")
}
