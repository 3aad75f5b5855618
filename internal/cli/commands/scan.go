package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qosha1/easysdk/internal/analyzer"
	"github.com/qosha1/easysdk/internal/cli/config"
)

var (
	scanProject string
	scanDetail  bool
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List apps and entities without generating anything",
		Long: `Discover the project's apps and extract their models, serializers, and
views, then print what was found. Useful for checking coverage before a
full generation run.`,
		Example: `  # Scan the project from easysdk.yml
  easysdk scan

  # Scan an explicit path with per-entity detail
  easysdk scan --project ../shop --detail`,
		RunE: runScan,
	}

	cmd.Flags().StringVarP(&scanProject, "project", "p", "", "Project root to scan")
	cmd.Flags().BoolVarP(&scanDetail, "detail", "d", false, "List every entity per app")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	root := cfg.ProjectPath
	if scanProject != "" {
		root = scanProject
	}

	scanner := analyzer.NewScanner(cfg.Apps.Include, cfg.Apps.Exclude)
	if reasons := scanner.ValidateProject(root); len(reasons) > 0 {
		printValidationFailure(reasons)
		return fmt.Errorf("%d validation problems", len(reasons))
	}

	apps, err := scanner.DiscoverApps(root)
	if err != nil {
		return err
	}

	extractor := analyzer.NewExtractor(nil)
	appColor := color.New(color.FgCyan, color.Bold)
	warnColor := color.New(color.FgYellow)

	for _, app := range apps {
		var models, serializers, views int
		var entities []*analyzer.EntityDefinition
		for _, file := range app.SourceFiles() {
			found, err := extractor.ExtractFile(file)
			if err != nil {
				warnColor.Printf("  skipped %s: %v\n", file, err)
				continue
			}
			entities = append(entities, found...)
		}
		for _, entity := range entities {
			switch entity.Kind {
			case analyzer.KindModel:
				models++
			case analyzer.KindSerializer:
				serializers++
			case analyzer.KindView:
				views++
			}
		}

		appColor.Printf("%s", app.Name)
		color.White("  %d models, %d serializers, %d views", models, serializers, views)

		if scanDetail {
			for _, entity := range entities {
				color.White("    %-12s %s (%d fields)", entity.Kind, entity.Name, len(entity.Fields))
			}
		}
	}

	return nil
}
