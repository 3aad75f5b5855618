// Package generator orchestrates a full generation run: validate the
// project, discover apps, parse and extract in parallel, resolve
// relationships, optionally enrich, then dispatch to the code and
// documentation emitters.
package generator

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qosha1/easysdk/internal/analyzer"
	"github.com/qosha1/easysdk/internal/codegen"
	"github.com/qosha1/easysdk/internal/docs"
	"github.com/qosha1/easysdk/internal/enrich"
	"github.com/qosha1/easysdk/internal/naming"
)

// Options configures one generation run.
type Options struct {
	// ProjectPath is the root of the source project to analyze.
	ProjectPath string
	// IncludeApps and ExcludeApps filter discovered apps by glob.
	IncludeApps []string
	ExcludeApps []string

	// OutputDir is the root of the generated SDK tree.
	OutputDir string
	// Languages and Variants define the fan-out matrix.
	Languages []codegen.Language
	Variants  []codegen.Variant

	InterfaceSuffix    string
	PreserveFieldNames bool

	// DocsFormat selects a documentation emitter ("docusaurus", "sphinx").
	// Empty disables documentation output.
	DocsFormat string
	// DocsDir is the documentation output root.
	DocsDir string

	// Enricher augments schemas with descriptions. Nil disables enrichment.
	Enricher enrich.Enricher
	// EnrichTimeout bounds the enrichment step per app.
	EnrichTimeout time.Duration

	// Workers sizes the parse worker pool. Zero means GOMAXPROCS.
	Workers int

	// DryRun plans and renders everything but writes nothing.
	DryRun bool

	Logger *zap.Logger
}

// ValidationError is the fatal pre-flight failure: the project cannot be
// analyzed at all. Reasons is the complete list, not the first hit.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "project validation failed: " + strings.Join(e.Reasons, "; ")
}

// Generator drives one or more runs over a project.
type Generator struct {
	opts      Options
	logger    *zap.Logger
	scanner   *analyzer.Scanner
	extractor *analyzer.Extractor
	resolver  *analyzer.Resolver
}

// New creates a Generator. The zero Options value is usable for dry runs
// against the current directory.
func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Variants) == 0 {
		opts.Variants = []codegen.Variant{
			{Interface: naming.PascalCase, Property: naming.CamelCase},
		}
	}
	return &Generator{
		opts:      opts,
		logger:    logger.Named("generator"),
		scanner:   analyzer.NewScanner(opts.IncludeApps, opts.ExcludeApps),
		extractor: analyzer.NewExtractor(nil),
		resolver:  analyzer.NewResolver(nil),
	}
}

// Run executes the pipeline and returns the run summary. Only validation
// failures and output I/O failures are returned as errors; everything
// smaller degrades to warnings in the summary.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}

	logger := g.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("starting generation",
		zap.String("project", g.opts.ProjectPath),
		zap.Bool("dry_run", g.opts.DryRun))

	if reasons := g.scanner.ValidateProject(g.opts.ProjectPath); len(reasons) > 0 {
		return nil, &ValidationError{Reasons: reasons}
	}

	apps, err := g.scanner.DiscoverApps(g.opts.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("discovering apps: %w", err)
	}
	if len(apps) == 0 {
		return nil, &ValidationError{Reasons: []string{"no discoverable apps in project"}}
	}

	schemas, warnings := g.analyze(ctx, apps)
	summary.Warnings = append(summary.Warnings, warnings...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.resolver.Resolve(schemas)

	if g.opts.Enricher != nil {
		summary.Warnings = append(summary.Warnings, g.enrichSchemas(ctx, schemas)...)
	}

	result, err := codegen.Generate(ctx, schemas, codegen.Options{
		OutputRoot:         g.opts.OutputDir,
		Languages:          g.opts.Languages,
		Variants:           g.opts.Variants,
		InterfaceSuffix:    g.opts.InterfaceSuffix,
		PreserveFieldNames: g.opts.PreserveFieldNames,
		DryRun:             g.opts.DryRun,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}
	summary.Files = append(summary.Files, result.Files...)
	summary.Warnings = append(summary.Warnings, result.Warnings...)

	if g.opts.DocsFormat != "" && !g.opts.DryRun {
		docFiles, err := g.generateDocs(schemas)
		if err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, docFiles...)
	}

	for _, schema := range schemas {
		summary.Apps++
		for _, entity := range schema.Entities() {
			summary.Entities++
			summary.Endpoints += len(entity.Endpoints)
		}
	}
	summary.Duration = time.Since(start)

	logger.Info("generation finished",
		zap.Int("apps", summary.Apps),
		zap.Int("entities", summary.Entities),
		zap.Int("files", len(summary.Files)),
		zap.Int("warnings", len(summary.Warnings)),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

// parseJob is one source file awaiting extraction.
type parseJob struct {
	appIndex int
	file     string
}

// parseResult carries extracted entities back to the reducer in job order.
type parseResult struct {
	entities []*analyzer.EntityDefinition
	err      error
}

// analyze parses every app source file through a worker pool and reduces
// the results into per-app schemas on a single goroutine. Parse failures
// skip the file with a warning.
func (g *Generator) analyze(ctx context.Context, apps []*analyzer.ProjectApp) ([]*analyzer.AppSchema, []string) {
	var jobs []parseJob
	for i, app := range apps {
		for _, file := range app.SourceFiles() {
			jobs = append(jobs, parseJob{appIndex: i, file: file})
		}
	}

	workers := g.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	results := make([]parseResult, len(jobs))
	jobCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				entities, err := g.extractor.ExtractFile(jobs[i].file)
				results[i] = parseResult{entities: entities, err: err}
			}
		}()
	}

	// Stop submitting on cancellation; in-flight parses finish on their own.
submit:
	for i := range jobs {
		select {
		case jobCh <- i:
		case <-ctx.Done():
			break submit
		}
	}
	close(jobCh)
	wg.Wait()

	// Single-threaded reduce in deterministic job order.
	schemas := make([]*analyzer.AppSchema, len(apps))
	for i, app := range apps {
		schemas[i] = &analyzer.AppSchema{AppName: app.Name}
	}

	var warnings []string
	for i, job := range jobs {
		res := results[i]
		if res.err != nil {
			warnings = append(warnings, res.err.Error())
			g.logger.Warn("skipping unparsable file",
				zap.String("file", job.file), zap.Error(res.err))
			continue
		}
		schema := schemas[job.appIndex]
		for _, entity := range res.entities {
			switch entity.Kind {
			case analyzer.KindModel:
				schema.Models = append(schema.Models, entity)
			case analyzer.KindSerializer:
				schema.Serializers = append(schema.Serializers, entity)
			case analyzer.KindView:
				schema.Views = append(schema.Views, entity)
			}
		}
	}

	for i, app := range apps {
		patterns, urlWarnings := g.urlPatterns(app)
		warnings = append(warnings, urlWarnings...)
		if len(patterns) > 0 {
			analyzer.ApplyURLPatterns(schemas[i].Views, patterns)
		}
	}

	return schemas, warnings
}

// urlPatterns merges every urls.py of an app into one view-to-path table.
func (g *Generator) urlPatterns(app *analyzer.ProjectApp) (map[string]string, []string) {
	merged := make(map[string]string)
	var warnings []string

	files := append([]string(nil), app.URLFiles...)
	sort.Strings(files)
	for _, file := range files {
		patterns, err := analyzer.ExtractURLPatterns(file)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		for view, pattern := range patterns {
			if _, exists := merged[view]; !exists {
				merged[view] = pattern
			}
		}
	}
	return merged, warnings
}

// enrichSchemas runs the enrichment step per app. Every failure degrades to
// a warning; the structural schema is never blocked.
func (g *Generator) enrichSchemas(ctx context.Context, schemas []*analyzer.AppSchema) []string {
	var warnings []string
	for _, schema := range schemas {
		enrichCtx := ctx
		var cancel context.CancelFunc
		if g.opts.EnrichTimeout > 0 {
			enrichCtx, cancel = context.WithTimeout(ctx, g.opts.EnrichTimeout)
		}

		insights, err := g.opts.Enricher.Enrich(enrichCtx, schema.Entities())
		if cancel != nil {
			cancel()
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("enrichment failed for app %s: %v", schema.AppName, err))
			g.logger.Warn("continuing with un-enriched schema",
				zap.String("app", schema.AppName), zap.Error(err))
			continue
		}

		applied := enrich.Apply(schema, insights)
		g.logger.Debug("applied enrichment insights",
			zap.String("app", schema.AppName), zap.Int("applied", applied))
	}
	return warnings
}

// generateDocs dispatches the resolved schemas to a documentation emitter.
func (g *Generator) generateDocs(schemas []*analyzer.AppSchema) ([]string, error) {
	docGen, err := docs.NewGenerator(g.opts.DocsFormat, docs.Config{
		OutputDir:   g.opts.DocsDir,
		ProjectName: "API Reference",
	})
	if err != nil {
		return nil, err
	}

	files, err := docGen.Generate(schemas)
	if err != nil {
		return nil, fmt.Errorf("generating documentation: %w", err)
	}
	return files, nil
}
