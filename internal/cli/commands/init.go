package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qosha1/easysdk/internal/cli/config"
)

var initForce bool

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an easysdk.yml through an interactive wizard",
		Long: `Ask a few questions about the project and write an easysdk.yml in the
current directory. Re-run with --force to overwrite an existing file.`,
		RunE: runInit,
	}

	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

// initAnswers collects the wizard responses.
type initAnswers struct {
	ProjectPath string
	OutputDir   string
	Languages   []string
	MultiNaming bool
	DocsFormat  string
	Provider    string
}

func runInit(cmd *cobra.Command, args []string) error {
	if config.InProject() && !initForce {
		return fmt.Errorf("easysdk.yml already exists (use --force to overwrite)")
	}

	questions := []*survey.Question{
		{
			Name: "ProjectPath",
			Prompt: &survey.Input{
				Message: "Path to the Django project:",
				Default: ".",
			},
			Validate: survey.Required,
		},
		{
			Name: "OutputDir",
			Prompt: &survey.Input{
				Message: "Output directory for generated code:",
				Default: "generated",
			},
		},
		{
			Name: "Languages",
			Prompt: &survey.MultiSelect{
				Message: "Target languages:",
				Options: []string{"typescript", "python", "java"},
				Default: []string{"typescript"},
			},
		},
		{
			Name: "MultiNaming",
			Prompt: &survey.Confirm{
				Message: "Generate multiple naming-convention variants?",
			},
		},
		{
			Name: "DocsFormat",
			Prompt: &survey.Select{
				Message: "Documentation format:",
				Options: []string{"none", "docusaurus", "sphinx"},
				Default: "none",
			},
		},
		{
			Name: "Provider",
			Prompt: &survey.Select{
				Message: "AI enrichment provider:",
				Options: []string{"local", "anthropic", "openai"},
				Default: "local",
			},
		},
	}

	var answers initAnswers
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	content := renderConfig(&answers)
	if err := os.WriteFile(config.FileName+".yml", []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	okColor := color.New(color.FgGreen, color.Bold)
	okColor.Println("Wrote easysdk.yml")
	color.White("Run 'easysdk generate' to build your SDK.")
	return nil
}

// renderConfig writes the wizard answers as a commented YAML file.
func renderConfig(a *initAnswers) string {
	var b strings.Builder

	fmt.Fprintf(&b, "project_path: %s\n\n", a.ProjectPath)

	b.WriteString("output:\n")
	fmt.Fprintf(&b, "  dir: %s\n", a.OutputDir)
	b.WriteString("  languages:\n")
	for _, lang := range a.Languages {
		fmt.Fprintf(&b, "    - %s\n", lang)
	}
	b.WriteString("  interface_naming: PascalCase\n")
	b.WriteString("  property_naming: camelCase\n")
	fmt.Fprintf(&b, "  multi_naming: %t\n", a.MultiNaming)

	if a.DocsFormat != "" && a.DocsFormat != "none" {
		b.WriteString("\ndocs:\n")
		fmt.Fprintf(&b, "  format: %s\n", a.DocsFormat)
		b.WriteString("  dir: docs/api\n")
	}

	b.WriteString("\nenrichment:\n")
	fmt.Fprintf(&b, "  provider: %s\n", a.Provider)
	if a.Provider != "local" {
		b.WriteString("  # api_key is read from ANTHROPIC_API_KEY / OPENAI_API_KEY\n")
		b.WriteString("  calls_per_minute: 20\n")
		b.WriteString("  cache:\n")
		b.WriteString("    backend: sqlite\n")
		b.WriteString("    path: .easysdk-cache.db\n")
	}

	return b.String()
}
