package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/orchestrator"
)

var eventsCmd = &cobra.Command{
	Use:   "events [user]",
	Short: "Show the user's logged events, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return run(cmd, func(_ context.Context, orch *orchestrator.Orchestrator) error {
			evs, err := orch.Events(args[0], limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, evs)
			}
			if len(evs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tSTEP\tACTION\tDETAIL")
			for _, e := range evs {
				step := ""
				if e.StepNumber > 0 {
					step = fmt.Sprint(e.StepNumber)
				}
				detail := e.Detail
				if len(detail) > 60 {
					detail = detail[:57] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Event, step, e.ActionID, detail)
			}
			return w.Flush()
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [user]",
	Short: "Show answer attempt statistics per action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(_ context.Context, orch *orchestrator.Orchestrator) error {
			stats, err := orch.Stats(args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, stats)
			}
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attempts logged.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROADMAP\tACTION\tATTEMPTS\tBEST\tLAST\tDONE")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%v\n", s.RoadmapID, s.ActionID, s.Attempts, s.BestScore, s.LastScore, s.Satisfied)
			}
			return w.Flush()
		})
	},
}

func init() {
	eventsCmd.Flags().Int("limit", 20, "Maximum number of events (0 for all)")
}
