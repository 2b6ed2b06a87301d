package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/orchestrator"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Generate and inspect learning roadmaps",
}

var roadmapGenerateCmd = &cobra.Command{
	Use:   "generate [user]",
	Short: "Plan a new roadmap toward the user's target role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.GenerateRoadmap(ctx, orchestrator.GenerateRoadmapOpts{UserID: args[0], TargetRole: role})
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Roadmap %s for %s (%d steps)\n\n", res.RoadmapID, res.TargetRole, res.TotalSteps)
			return printRoadmap(w, res.Roadmap)
		})
	},
}

var roadmapStatusCmd = &cobra.Command{
	Use:   "status [user]",
	Short: "Show progress on the active roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.GetRoadmapStatus(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			p := res.Progress
			fmt.Fprintf(w, "Roadmap:\t%s (%s)\n", res.RoadmapID, res.RoadmapStatus)
			fmt.Fprintf(w, "Target:\t%s (%s path)\n", res.TargetRole, res.CurrentPathType)
			fmt.Fprintf(w, "Progress:\t%d/%d steps (%.0f%%)\n", p.CompletedStepCount, p.TotalSteps, p.ProgressPercentage)
			if p.CurrentStepTitle != "" {
				fmt.Fprintf(w, "Current step:\t%d. %s\n", res.CurrentStepNumber, p.CurrentStepTitle)
			}
			if len(p.PendingActionsInCurrentStep) > 0 {
				fmt.Fprintf(w, "Pending actions:\t%s\n", strings.Join(p.PendingActionsInCurrentStep, ", "))
			}
			fmt.Fprintf(w, "Reroute phase:\t%s\n", res.Phase)
			if res.IsRerouting {
				fmt.Fprintf(w, "Alternative progress:\t%.0f%%\n", res.AlternativeCompletionPercentage)
			}
			if res.RedirectAvailable {
				fmt.Fprintln(w, "Redirect:\tavailable (reroute accept|decline)")
			}
			return w.Flush()
		})
	},
}

func printRoadmap(out io.Writer, r *roadmap.Roadmap) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tACTION\tSTATUS\tTITLE")
	for _, s := range r.Steps {
		fmt.Fprintf(w, "%d\t\t%s\t%s\n", s.StepNumber, s.Status, s.Title)
		for _, a := range s.Actions {
			title := a.Title
			if len(title) > 60 {
				title = title[:57] + "..."
			}
			fmt.Fprintf(w, "\t%s\t%s\t%s\n", a.ActionID, a.Status, title)
		}
	}
	return w.Flush()
}

func init() {
	roadmapGenerateCmd.Flags().String("role", "", "New target role (defaults to the current one)")
	roadmapCmd.AddCommand(roadmapGenerateCmd)
	roadmapCmd.AddCommand(roadmapStatusCmd)
}
