package codegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// Options configures one fan-out run.
type Options struct {
	OutputRoot string
	Languages  []Language
	Variants   []Variant

	InterfaceSuffix    string
	PreserveFieldNames bool

	// DryRun renders everything but writes nothing.
	DryRun bool

	Logger *zap.Logger
}

// Result aggregates the outcome of a fan-out run.
type Result struct {
	Files    []string
	Warnings []string
}

// Generate renders every (language, variant) combination into its own
// output subtree: output_root/<language>/<interface>_<property>/<app>.<ext>.
// Combinations share no state and run in parallel; a failure inside one
// combination is recorded as warnings without stopping the others.
func Generate(ctx context.Context, apps []*analyzer.AppSchema, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []Language{LangTypeScript}
	}
	if len(opts.Variants) == 0 {
		return nil, fmt.Errorf("no naming variants configured")
	}

	type combo struct {
		lang    Language
		variant Variant
	}
	var combos []combo
	for _, lang := range opts.Languages {
		for _, v := range opts.Variants {
			combos = append(combos, combo{lang, v})
		}
	}

	results := make([]Result, len(combos))
	var wg sync.WaitGroup
	for i, c := range combos {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, c combo) {
			defer wg.Done()
			results[i] = emitCombination(apps, c.lang, c.variant, opts, logger)
		}(i, c)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Result{}
	for _, r := range results {
		out.Files = append(out.Files, r.Files...)
		out.Warnings = append(out.Warnings, r.Warnings...)
	}
	sort.Strings(out.Files)
	return out, nil
}

// emitCombination renders one (language, variant) subtree. Per-app render
// failures become warnings; only output-root write errors surface as
// warnings covering the whole combination.
func emitCombination(apps []*analyzer.AppSchema, lang Language, variant Variant, opts Options, logger *zap.Logger) Result {
	var res Result

	emitter, err := NewEmitter(lang)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return res
	}
	cfg := LanguageConfig{
		Language:           lang,
		Variant:            variant,
		InterfaceSuffix:    opts.InterfaceSuffix,
		PreserveFieldNames: opts.PreserveFieldNames,
	}
	dir := filepath.Join(opts.OutputRoot, string(lang), variant.Dir())

	var emitted []string
	for _, app := range apps {
		content, warnings, err := emitter.EmitApp(app, cfg)
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s/%s: %v", lang, variant.Dir(), err))
			continue
		}
		path := filepath.Join(dir, app.AppName+lang.Extension())
		if err := writeOutput(path, content, opts.DryRun); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("write %s: %v", path, err))
			continue
		}
		res.Files = append(res.Files, path)
		emitted = append(emitted, app.AppName)
		logger.Debug("emitted app types",
			zap.String("language", string(lang)),
			zap.String("variant", variant.Dir()),
			zap.String("app", app.AppName),
		)
	}

	if len(emitted) > 0 {
		indexPath := filepath.Join(dir, "index"+lang.Extension())
		if err := writeOutput(indexPath, emitter.EmitIndex(emitted, cfg), opts.DryRun); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("write %s: %v", indexPath, err))
		} else {
			res.Files = append(res.Files, indexPath)
		}
	}
	return res
}

// writeOutput writes a whole file atomically: temp file in the target
// directory, then rename. Directory creation is idempotent.
func writeOutput(path, content string, dryRun bool) error {
	if dryRun {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".easysdk-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
