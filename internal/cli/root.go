package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	configFile   string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "careerpath",
	Short: "careerpath: learning roadmaps with answer-verified progress and rerouting",
	Long: `careerpath keeps a learner's roadmap toward a target role: steps of actions,
each completed by answering generated questions that are scored against the
action's success criteria. Learners who drift can reroute to an alternative
target and later return to the original roadmap.

Contexts are stored under ~/.careerpath/ (one JSON document per user, or
Postgres), with a SQLite log of events and answer attempts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Failures are reported on the command's
// output in the selected format before being returned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to careerpath config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "output format: text or json")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(roadmapCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(rerouteCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(promptsCmd)
}
