package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/orchestrator"
)

var rerouteCmd = &cobra.Command{
	Use:   "reroute",
	Short: "Detect deviations and manage alternative paths",
}

var rerouteDetectCmd = &cobra.Command{
	Use:   "detect [user] [reason...]",
	Short: "Record a deviation and offer alternative paths",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason := strings.Join(args[1:], " ")
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.DetectDeviationAndReroute(ctx, args[0], reason)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deviation recorded: %s\n\n", res.Reason)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPTION\tTARGET\tSUCCESS\tMONTHS\tRATIONALE")
			for _, p := range res.Alternatives {
				rationale := p.Rationale
				if len(rationale) > 60 {
					rationale = rationale[:57] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%d\t%s\n", p.OptionID, p.TargetRole, 100*p.SuccessProbability, p.TimelineMonths, rationale)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nChoose with: careerpath reroute select <user> <option>")
			return nil
		})
	},
}

var rerouteSelectCmd = &cobra.Command{
	Use:   "select [user] [option]",
	Short: "Switch to an offered alternative",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.SelectRerouteOption(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now on %s: roadmap %s (%d steps). Original roadmap %s is kept.\n",
				res.NewTargetRole, res.RoadmapID, res.TotalSteps, res.OriginalRoadmapID)
			return nil
		})
	},
}

var rerouteCompleteCmd = &cobra.Command{
	Use:   "complete [user]",
	Short: "Finish a completed alternative roadmap and unlock the redirect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.CompleteRerouteRoadmap(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s. Return to %s with 'reroute accept', or keep this path with 'reroute decline'.\n",
				res.CompletedRole, res.OriginalTargetRole)
			return nil
		})
	},
}

var rerouteAcceptCmd = &cobra.Command{
	Use:   "accept [user]",
	Short: "Return to the original roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			return printRedirect(cmd, orch.AcceptRedirect)(ctx, args[0])
		})
	},
}

var rerouteDeclineCmd = &cobra.Command{
	Use:   "decline [user]",
	Short: "Keep the alternative roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			return printRedirect(cmd, orch.DeclineRedirect)(ctx, args[0])
		})
	},
}

func printRedirect(cmd *cobra.Command, op func(context.Context, string) (*orchestrator.RedirectResult, error)) func(context.Context, string) error {
	return func(ctx context.Context, userID string) error {
		res, err := op(ctx, userID)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd, res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Redirect %s. Active target: %s (roadmap %s)\n", res.Decision, res.TargetRole, res.RoadmapID)
		return nil
	}
}

var rerouteDismissCmd = &cobra.Command{
	Use:   "dismiss [user]",
	Short: "Discard offered alternatives and stay on the current path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.DismissAlternatives(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alternatives dismissed. Continuing toward %s.\n", res.TargetRole)
			return nil
		})
	},
}

func init() {
	rerouteCmd.AddCommand(rerouteDetectCmd)
	rerouteCmd.AddCommand(rerouteSelectCmd)
	rerouteCmd.AddCommand(rerouteCompleteCmd)
	rerouteCmd.AddCommand(rerouteAcceptCmd)
	rerouteCmd.AddCommand(rerouteDeclineCmd)
	rerouteCmd.AddCommand(rerouteDismissCmd)
}
