package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/orchestrator"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [user]",
	Short: "Ask for a review of the learner's progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.AnalyzeProgress(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Overall: %s\n", res.OverallProgressRating)
			if res.VelocityAssessment != "" {
				fmt.Fprintf(w, "Velocity: %s\n", res.VelocityAssessment)
			}
			fmt.Fprintf(w, "Confidence: %.2f", res.UpdatedConfidenceScore)
			if res.UpdatedDeviationRisk != "" {
				fmt.Fprintf(w, "  Deviation risk: %s", res.UpdatedDeviationRisk)
			}
			fmt.Fprintln(w)
			printList(w, "Strengths", res.Strengths)
			printList(w, "Concerns", res.Concerns)
			printList(w, "Recommendations", res.Recommendations)
			return nil
		})
	},
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
