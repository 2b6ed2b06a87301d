package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/analytics"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Query learning progress analytics from the event log",
}

var analyticsStepDurationCmd = &cobra.Command{
	Use:   "step-duration",
	Short: "Average and percentile hours spent per step",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, since := analyticsFilters(cmd)
		d, cleanup, err := openEventsDB()
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := analytics.QueryStepDurations(d, user, since)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd, results)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tCOUNT\tAVG(h)\tP50(h)\tP95(h)")
		for _, r := range results {
			fmt.Fprintf(w, "%d\t%d\t%.1f\t%.1f\t%.1f\n", r.Step, r.Count, r.Avg, r.P50, r.P95)
		}
		return w.Flush()
	},
}

var analyticsAttemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Distribution of attempts needed per action",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, since := analyticsFilters(cmd)
		d, cleanup, err := openEventsDB()
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := analytics.QueryAttemptDistribution(d, user, since)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd, results)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROADMAP\tACTIONS\t1st\t2nd\t3+\tOPEN")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%.1f%%\t%.1f%%\t%.1f%%\n", r.RoadmapID, r.Actions, r.FirstTry, r.SecondTry, r.ThreePlus, r.Open)
		}
		return w.Flush()
	},
}

var analyticsWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Actions, steps, and reroutes per week",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, since := analyticsFilters(cmd)
		d, cleanup, err := openEventsDB()
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := analytics.QueryWeeklyActivity(d, user, since)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd, results)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WEEK\tACTIONS\tREVIEW\tSTEPS\tREROUTES\tAVG SCORE")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.2f\n", r.Period, r.ActionsCompleted, r.NeedsReview, r.StepsCompleted, r.Reroutes, r.AvgScore)
		}
		return w.Flush()
	},
}

var analyticsTimelineCmd = &cobra.Command{
	Use:   "timeline [user]",
	Short: "Merged event and attempt history for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, cleanup, err := openEventsDB()
		if err != nil {
			return err
		}
		defer cleanup()

		entries, err := analytics.QueryUserTimeline(d, args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd, entries)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tEVENT\tACTION\tDETAIL")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Type, e.Event, e.ActionID, e.Detail)
		}
		return w.Flush()
	},
}

func analyticsFilters(cmd *cobra.Command) (user, since string) {
	user, _ = cmd.Flags().GetString("user")
	since, _ = cmd.Flags().GetString("since")
	return user, since
}

func init() {
	for _, c := range []*cobra.Command{analyticsStepDurationCmd, analyticsAttemptsCmd, analyticsWeeklyCmd} {
		c.Flags().String("user", "", "Restrict to one user")
		c.Flags().String("since", "", "Only events at or after this timestamp (e.g. 2026-03-01)")
		analyticsCmd.AddCommand(c)
	}
	analyticsCmd.AddCommand(analyticsTimelineCmd)
}
