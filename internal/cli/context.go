package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/orchestrator"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "List, inspect, export, and import user contexts",
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			ids, err := orch.ListUsers(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, ids)
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		})
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show [user]",
	Short: "Print the stored context document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			data, err := orch.Export(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var contextExportCmd = &cobra.Command{
	Use:   "export [user] [file]",
	Short: "Write the user's context document to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			data, err := orch.Export(ctx, args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return apperr.IO(err, "write export file")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], args[1])
			return nil
		})
	},
}

var contextImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Validate and store a previously exported context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return apperr.IO(err, "read import file")
		}
		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.Import(ctx, data)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			verb := "Imported"
			if res.Replaced {
				verb = "Replaced"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s context for %s\n", verb, res.UserID)
			return nil
		})
	},
}

func init() {
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextExportCmd)
	contextCmd.AddCommand(contextImportCmd)
}
