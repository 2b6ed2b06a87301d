package cli

import (
	"fmt"

	"github.com/lucasnoah/careerpath/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and inspect careerpath configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if jsonOutput() {
			issues := make([]map[string]string, 0, len(errs))
			for _, e := range errs {
				issues = append(issues, map[string]string{"field": e.Field, "message": e.Message})
			}
			if err := writeJSON(cmd, map[string]any{"valid": len(errs) == 0, "errors": issues}); err != nil {
				return err
			}
		} else if len(errs) == 0 {
			cmd.Println("Configuration is valid.")
		} else {
			cmd.Println("Validation errors:")
			for _, e := range errs {
				cmd.Printf("  - %s\n", e)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("config has %d validation error(s)", len(errs))
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration with defaults merged",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd, cfg)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}
		cmd.Print(string(data))
		fmt.Fprintf(cmd.OutOrStdout(), "# contexts: %s\n# events:   %s\n", cfg.ContextDir(), cfg.EventsDBPath())
		return nil
	},
}

// loadConfig reads .env, then the --config file or the default locations.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
