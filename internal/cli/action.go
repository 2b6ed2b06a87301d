package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/orchestrator"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Work through roadmap actions",
}

var actionBeginCmd = &cobra.Command{
	Use:   "begin [user] [action-id]",
	Short: "Start or resume an action and print its questions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.BeginAction(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			w := cmd.OutOrStdout()
			verb := "Started"
			if res.Resumed {
				verb = "Resumed"
			}
			fmt.Fprintf(w, "%s %s (step %d)\n\n", verb, res.ActionID, res.StepNumber)
			for i, q := range res.Questions {
				fmt.Fprintf(w, "%d. %s\n", i+1, q.Text)
			}
			return nil
		})
	},
}

var actionSubmitCmd = &cobra.Command{
	Use:   "submit [user] [action-id]",
	Short: "Submit answers for an in-progress action",
	Long: `Submit one answer per question, in order, either with repeated --answer
flags or with --answers-file pointing at a JSON array of strings.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := readAnswers(cmd)
		if err != nil {
			return err
		}
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.SubmitActionAnswers(ctx, args[0], args[1], answers)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}

			w := cmd.OutOrStdout()
			switch {
			case res.AlreadyCompleted:
				fmt.Fprintf(w, "%s was already completed (score %.2f).\n", res.ActionID, res.RelevanceScore)
				return nil
			case res.AgentSatisfied:
				fmt.Fprintf(w, "%s completed: score %.2f after %d attempt(s).\n", res.ActionID, res.RelevanceScore, res.Attempts)
			default:
				fmt.Fprintf(w, "%s needs review: score %.2f (attempt %d). Begin it again to retry.\n", res.ActionID, res.RelevanceScore, res.Attempts)
			}
			if res.Feedback != "" {
				fmt.Fprintf(w, "Feedback: %s\n", res.Feedback)
			}
			if res.NextSteps != "" {
				fmt.Fprintf(w, "Next: %s\n", res.NextSteps)
			}
			if res.AppendedActionID != "" {
				fmt.Fprintf(w, "Added follow-up action %s.\n", res.AppendedActionID)
			}
			if t := res.Transition; t != nil && t.StepCompleted {
				if t.RoadmapCompleted {
					fmt.Fprintln(w, "Roadmap completed!")
				} else {
					fmt.Fprintf(w, "Step %d completed; now on step %d.\n", t.StepNumber, t.NextStepNumber)
				}
			}
			fmt.Fprintf(w, "Progress: %.0f%%\n", res.Progress.ProgressPercentage)
			return nil
		})
	},
}

func readAnswers(cmd *cobra.Command) ([]string, error) {
	answers, _ := cmd.Flags().GetStringArray("answer")
	path, _ := cmd.Flags().GetString("answers-file")
	if path == "" {
		return answers, nil
	}
	if len(answers) > 0 {
		return nil, apperr.Validation("use either --answer or --answers-file, not both")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.IO(err, "read answers file")
	}
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, apperr.Validation("answers file must be a JSON array of strings: %v", err)
	}
	return answers, nil
}

func init() {
	actionSubmitCmd.Flags().StringArray("answer", nil, "Answer to the next question (repeat once per question)")
	actionSubmitCmd.Flags().String("answers-file", "", "JSON file with an array of answers")
	actionCmd.AddCommand(actionBeginCmd)
	actionCmd.AddCommand(actionSubmitCmd)
}
