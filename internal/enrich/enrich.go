// Package enrich layers optional AI-generated descriptions onto extracted
// schemas. Enrichment is strictly additive: it fills entity summaries and
// field descriptions but never alters structural fields, and every failure
// degrades to the un-enriched schema plus a warning.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// Insights holds the descriptive metadata produced for one batch of
// entities, keyed by entity name.
type Insights struct {
	Entities map[string]EntityInsight
}

// EntityInsight is the additive metadata for a single entity.
type EntityInsight struct {
	// Summary is a one-sentence description of the entity's purpose.
	Summary string
	// Fields maps field names to one-line descriptions.
	Fields map[string]string
}

// Enricher produces insights for a batch of entities. Implementations must
// respect ctx cancellation and return promptly when the deadline passes.
type Enricher interface {
	// Enrich returns insights for the given entities. A partial result is
	// valid; entities absent from the result are left untouched.
	Enrich(ctx context.Context, entities []*analyzer.EntityDefinition) (*Insights, error)

	// Provider returns a short identifier for logging, e.g. "anthropic".
	Provider() string
}

// Config selects and tunes an enrichment provider.
type Config struct {
	// Provider is "anthropic", "openai", or "local" (the no-op enricher).
	Provider string
	// Model is the provider-specific model identifier.
	Model string
	// APIKey authenticates against the provider. Ignored for "local".
	APIKey string
	// Timeout bounds a single provider call.
	Timeout time.Duration
	// MaxRetries is the number of retries after a failed call.
	MaxRetries int
	// CallsPerMinute caps outbound calls in any rolling 60s window.
	CallsPerMinute int
	// BaseURL overrides the provider endpoint, for tests.
	BaseURL string
}

// DefaultConfig returns the local no-op provider with the standard rate
// ceiling applied once a remote provider is selected.
func DefaultConfig() Config {
	return Config{
		Provider:       "local",
		Timeout:        60 * time.Second,
		MaxRetries:     3,
		CallsPerMinute: 20,
	}
}

// New builds the enricher named by cfg.Provider.
func New(cfg Config) (Enricher, error) {
	switch cfg.Provider {
	case "", "local":
		return &localEnricher{}, nil
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic enricher requires an API key")
		}
		return newAnthropicEnricher(cfg), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai enricher requires an API key")
		}
		return newOpenAIEnricher(cfg), nil
	default:
		return nil, fmt.Errorf("unknown enrichment provider: %s", cfg.Provider)
	}
}

// localEnricher is the "local" provider: it produces no insights and never
// fails, so pipelines run identically with enrichment disabled.
type localEnricher struct{}

func (l *localEnricher) Enrich(ctx context.Context, entities []*analyzer.EntityDefinition) (*Insights, error) {
	return &Insights{Entities: map[string]EntityInsight{}}, nil
}

func (l *localEnricher) Provider() string { return "local" }

// Apply layers insights onto the schema. Only empty Summary and Description
// slots are filled; existing text and all structural fields are untouched.
func Apply(schema *analyzer.AppSchema, insights *Insights) int {
	if schema == nil || insights == nil {
		return 0
	}
	applied := 0
	for _, entity := range schema.Entities() {
		insight, ok := insights.Entities[entity.Name]
		if !ok {
			continue
		}
		if entity.Summary == "" && insight.Summary != "" {
			entity.Summary = insight.Summary
			applied++
		}
		for name, desc := range insight.Fields {
			field := entity.Field(name)
			if field == nil || field.Description != "" || desc == "" {
				continue
			}
			field.Description = desc
			applied++
		}
	}
	return applied
}
