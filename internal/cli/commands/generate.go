package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qosha1/easysdk/internal/cli/config"
	"github.com/qosha1/easysdk/internal/enrich"
	"github.com/qosha1/easysdk/internal/enrich/cache"
	"github.com/qosha1/easysdk/internal/generator"
)

var (
	generateConfigFile string
	generateProject    string
	generateOutput     string
	generateLanguages  []string
	generateInterface  string
	generateProperty   string
	generatePreserve   bool
	generateMultiLang  bool
	generateMultiName  bool
	generateDocs       string
	generateDocsDir    string
	generateProvider   string
	generateModel      string
	generateDryRun     bool
	generateVerbose    bool
	generateWorkers    int
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Analyze a project and generate SDK code and docs",
		Long: `Analyze the Django project, extract its API schema, and generate typed
client code for each configured (language, naming) combination, plus
optional documentation.

Failures in single files or entities are reported as warnings; only an
invalid project layout aborts the run.`,
		Example: `  # Generate with settings from easysdk.yml
  easysdk generate

  # Generate TypeScript and Python clients from an explicit project path
  easysdk generate --project ../shop --languages typescript,python

  # Preview the plan without writing anything
  easysdk generate --dry-run

  # Generate every language and naming variant, plus Docusaurus docs
  easysdk generate --multi-language --multi-naming --docs docusaurus`,
		RunE: runGenerate,
	}

	cmd.Flags().StringVarP(&generateConfigFile, "config", "c", "", "Config file path (default: ./easysdk.yml)")
	cmd.Flags().StringVarP(&generateProject, "project", "p", "", "Project root to analyze")
	cmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output directory for generated code")
	cmd.Flags().StringSliceVarP(&generateLanguages, "languages", "l", nil, "Target languages (typescript, python, java)")
	cmd.Flags().StringVar(&generateInterface, "interface-naming", "", "Interface naming convention")
	cmd.Flags().StringVar(&generateProperty, "property-naming", "", "Property naming convention")
	cmd.Flags().BoolVar(&generatePreserve, "preserve-names", false, "Keep original field names")
	cmd.Flags().BoolVar(&generateMultiLang, "multi-language", false, "Generate every supported language")
	cmd.Flags().BoolVar(&generateMultiName, "multi-naming", false, "Generate the standard naming variants")
	cmd.Flags().StringVar(&generateDocs, "docs", "", "Documentation format (docusaurus, sphinx)")
	cmd.Flags().StringVar(&generateDocsDir, "docs-dir", "", "Documentation output directory")
	cmd.Flags().StringVar(&generateProvider, "enrich", "", "Enrichment provider (local, anthropic, openai)")
	cmd.Flags().StringVar(&generateModel, "model", "", "Enrichment model identifier")
	cmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Plan the run without writing files")
	cmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Show detailed progress")
	cmd.Flags().IntVar(&generateWorkers, "workers", 0, "Parse worker count (default: number of CPUs)")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(generateConfigFile)
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)

	languages, err := cfg.Languages()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if generateVerbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	enricher, closeCache, err := buildEnricher(cfg)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	opts := generator.Options{
		ProjectPath:        cfg.ProjectPath,
		IncludeApps:        cfg.Apps.Include,
		ExcludeApps:        cfg.Apps.Exclude,
		OutputDir:          cfg.Output.Dir,
		Languages:          languages,
		Variants:           cfg.Variants(),
		InterfaceSuffix:    cfg.Output.InterfaceSuffix,
		PreserveFieldNames: cfg.Output.PreserveNames,
		DocsFormat:         cfg.Docs.Format,
		DocsDir:            cfg.Docs.Dir,
		Enricher:           enricher,
		EnrichTimeout:      cfg.Enrichment.Timeout,
		Workers:            generateWorkers,
		DryRun:             generateDryRun,
		Logger:             logger,
	}

	summary, err := generator.New(opts).Run(cmd.Context())
	if err != nil {
		var verr *generator.ValidationError
		if errors.As(err, &verr) {
			printValidationFailure(verr.Reasons)
		}
		return err
	}

	printSummary(summary, generateDryRun)
	return nil
}

// applyGenerateFlags overlays explicitly set flags onto the loaded config.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("project") {
		cfg.ProjectPath = generateProject
	}
	if flags.Changed("output") {
		cfg.Output.Dir = generateOutput
	}
	if flags.Changed("languages") {
		cfg.Output.Languages = generateLanguages
	}
	if flags.Changed("interface-naming") {
		cfg.Output.InterfaceNaming = generateInterface
	}
	if flags.Changed("property-naming") {
		cfg.Output.PropertyNaming = generateProperty
	}
	if flags.Changed("preserve-names") {
		cfg.Output.PreserveNames = generatePreserve
	}
	if flags.Changed("multi-language") {
		cfg.Output.MultiLanguage = generateMultiLang
	}
	if flags.Changed("multi-naming") {
		cfg.Output.MultiNaming = generateMultiName
	}
	if flags.Changed("docs") {
		cfg.Docs.Format = generateDocs
	}
	if flags.Changed("docs-dir") {
		cfg.Docs.Dir = generateDocsDir
	}
	if flags.Changed("enrich") {
		cfg.Enrichment.Provider = generateProvider
	}
	if flags.Changed("model") {
		cfg.Enrichment.Model = generateModel
	}
}

// buildEnricher constructs the configured enricher plus its insight cache.
// The returned closer releases the cache backend, and is nil when no cache
// is attached.
func buildEnricher(cfg *config.Config) (enrich.Enricher, func(), error) {
	if cfg.Enrichment.Provider == "" || cfg.Enrichment.Provider == "local" {
		return nil, nil, nil
	}

	enricher, err := enrich.New(enrich.Config{
		Provider:       cfg.Enrichment.Provider,
		Model:          cfg.Enrichment.Model,
		APIKey:         cfg.Enrichment.APIKey,
		Timeout:        cfg.Enrichment.Timeout,
		CallsPerMinute: cfg.Enrichment.CallsPerMinute,
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := buildInsightCache(cfg.Enrichment.Cache)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return enricher, nil, nil
	}

	closer := func() { store.Close() }
	return enrich.WithCache(enricher, store), closer, nil
}

func buildInsightCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "memory":
		return cache.NewMemoryCache(), nil
	case "sqlite":
		return cache.NewSQLiteCache(cfg.Path)
	case "redis":
		redisCfg := cache.DefaultRedisConfig()
		redisCfg.Addr = cfg.Addr
		return cache.NewRedisCache(redisCfg)
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

func printValidationFailure(reasons []string) {
	errorColor := color.New(color.FgRed, color.Bold)
	errorColor.Println("Project validation failed:")
	for _, reason := range reasons {
		color.Red("  - %s", reason)
	}
}

func printSummary(summary *generator.Summary, dryRun bool) {
	headline := color.New(color.FgGreen, color.Bold)
	if dryRun {
		headline = color.New(color.FgYellow, color.Bold)
		headline.Println("Dry run - no files were written")
	}

	headline.Printf("Generated %d files from %d apps (%d entities, %d endpoints) in %s\n",
		len(summary.Files), summary.Apps, summary.Entities, summary.Endpoints,
		summary.Duration.Round(time.Millisecond))

	if len(summary.Warnings) > 0 {
		warnColor := color.New(color.FgYellow)
		warnColor.Printf("\n%d warnings:\n", len(summary.Warnings))
		shown := summary.Warnings
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for _, w := range shown {
			warnColor.Printf("  - %s\n", w)
		}
		if rest := len(summary.Warnings) - len(shown); rest > 0 {
			warnColor.Printf("  +%d more\n", rest)
		}
	}
}
