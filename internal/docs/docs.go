// Package docs renders extracted schemas into documentation trees:
// Docusaurus-flavored Markdown and Sphinx-flavored reStructuredText. Each
// app gets an entities page and an endpoints page; generated sections in a
// pre-existing documentation project are delimited by markers so unrelated
// content is never touched.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// Config carries the documentation output settings.
type Config struct {
	OutputDir   string
	ProjectName string
	Version     string
	BaseURL     string
}

// Generator renders one documentation format for a set of app schemas.
type Generator interface {
	Format() string
	Generate(apps []*analyzer.AppSchema) ([]string, error)
}

// NewGenerator returns the generator for a format name ("docusaurus" or
// "sphinx").
func NewGenerator(format string, config Config) (Generator, error) {
	switch format {
	case "docusaurus", "markdown":
		return &DocusaurusGenerator{config: config}, nil
	case "sphinx", "rst":
		return &SphinxGenerator{config: config}, nil
	}
	return nil, fmt.Errorf("unsupported documentation format %q", format)
}

// fieldTypeLabel is the human-readable type shown in field tables.
func fieldTypeLabel(f *analyzer.FieldDefinition) string {
	label := f.SourceType
	if f.RelatedEntity != "" {
		label = f.RelatedEntity
	}
	if f.IsArray {
		label += "[]"
	}
	return label
}

// fieldConstraints summarizes validation attributes for display.
func fieldConstraints(f *analyzer.FieldDefinition) string {
	var parts []string
	if f.MaxLength != nil {
		parts = append(parts, fmt.Sprintf("max_length=%d", *f.MaxLength))
	}
	if f.MinLength != nil {
		parts = append(parts, fmt.Sprintf("min_length=%d", *f.MinLength))
	}
	if f.MaxValue != nil {
		parts = append(parts, fmt.Sprintf("max_value=%g", *f.MaxValue))
	}
	if f.MinValue != nil {
		parts = append(parts, fmt.Sprintf("min_value=%g", *f.MinValue))
	}
	if len(f.Choices) > 0 {
		values := make([]string, 0, len(f.Choices))
		for _, c := range f.Choices {
			values = append(values, fmt.Sprintf("%v", c.Value))
		}
		parts = append(parts, "choices: "+strings.Join(values, ", "))
	}
	if f.Nullable {
		parts = append(parts, "nullable")
	}
	if f.ReadOnly {
		parts = append(parts, "read-only")
	}
	if f.WriteOnly {
		parts = append(parts, "write-only")
	}
	return strings.Join(parts, "; ")
}

func fieldDescription(f *analyzer.FieldDefinition) string {
	if f.Description != "" {
		return f.Description
	}
	return f.HelpText
}

func entitySummary(e *analyzer.EntityDefinition) string {
	if e.Summary != "" {
		return e.Summary
	}
	return e.Docstring
}

// writeDocFile writes one page, creating parent directories as needed.
func writeDocFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create doc directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write doc file: %w", err)
	}
	return nil
}
