package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qosha1/easysdk/internal/analyzer"
	"github.com/qosha1/easysdk/internal/cli/config"
)

var validateProject string

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a project can be analyzed",
		Long: `Run the pre-flight checks against a project root and report every
problem found. Generation runs these same checks before doing any work.`,
		Example: `  # Validate the project from easysdk.yml
  easysdk validate

  # Validate an explicit path
  easysdk validate --project ../shop`,
		RunE: runValidate,
	}

	cmd.Flags().StringVarP(&validateProject, "project", "p", "", "Project root to validate")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	root := validateProject
	if root == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		root = cfg.ProjectPath
	}

	scanner := analyzer.NewScanner(nil, nil)
	reasons := scanner.ValidateProject(root)
	if len(reasons) > 0 {
		printValidationFailure(reasons)
		return fmt.Errorf("%d validation problems", len(reasons))
	}

	apps, err := scanner.DiscoverApps(root)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		printValidationFailure([]string{"no discoverable apps in project"})
		return fmt.Errorf("1 validation problem")
	}

	okColor := color.New(color.FgGreen, color.Bold)
	okColor.Printf("Project %s is valid (%d apps)\n", root, len(apps))
	return nil
}
