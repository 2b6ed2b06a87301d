package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/careerpath/internal/orchestrator"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard [user]",
	Short: "Create a learner's context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		role, _ := f.GetString("role")
		opts := orchestrator.OnboardOpts{UserID: args[0], TargetRole: role}

		p := &opts.Profile
		p.Name, _ = f.GetString("name")
		p.Education, _ = f.GetString("education")
		p.Institution, _ = f.GetString("institution")
		p.CurrentYear, _ = f.GetInt("year")
		p.ExperienceLevel, _ = f.GetString("experience")
		p.TechnicalSkills, _ = f.GetStringSlice("skills")
		p.SoftSkills, _ = f.GetStringSlice("soft-skills")
		p.StrengthAreas, _ = f.GetStringSlice("strengths")
		p.WeaknessAreas, _ = f.GetStringSlice("weaknesses")
		p.Projects, _ = f.GetStringSlice("projects")
		p.LearningCapacity, _ = f.GetString("capacity")
		p.HoursPerWeek, _ = f.GetInt("hours")

		opts.Goals.StatedGoal, _ = f.GetString("goal")
		opts.Goals.CommitmentLevel, _ = f.GetString("commitment")
		opts.Goals.TimelineMonths, _ = f.GetInt("timeline")
		opts.Market.DemandLevel, _ = f.GetString("demand")
		opts.Market.SalaryRange, _ = f.GetString("salary")

		return run(cmd, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			res, err := orch.Onboard(ctx, opts)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Onboarded %s (target: %s)\n", res.UserID, orNone(res.TargetRole))
			return nil
		})
	},
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func init() {
	f := onboardCmd.Flags()
	f.String("role", "", "Target role")
	f.String("name", "", "Learner name")
	f.String("education", "", "Education, e.g. \"BSc Computer Science\"")
	f.String("institution", "", "Institution")
	f.Int("year", 0, "Current year of study")
	f.String("experience", "", "Experience level: beginner, intermediate, advanced")
	f.StringSlice("skills", nil, "Technical skills (comma-separated)")
	f.StringSlice("soft-skills", nil, "Soft skills (comma-separated)")
	f.StringSlice("strengths", nil, "Strength areas (comma-separated)")
	f.StringSlice("weaknesses", nil, "Weakness areas (comma-separated)")
	f.StringSlice("projects", nil, "Projects (comma-separated)")
	f.String("capacity", "", "Learning capacity")
	f.Int("hours", 0, "Hours available per week")
	f.String("goal", "", "Stated career goal")
	f.String("commitment", "", "Commitment level")
	f.Int("timeline", 0, "Goal timeline in months")
	f.String("demand", "", "Market demand level for the target role")
	f.String("salary", "", "Salary range for the target role")
}
