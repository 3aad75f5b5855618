package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/qosha1/easysdk/internal/analyzer"
	"github.com/qosha1/easysdk/internal/enrich/cache"
)

// cachedEnricher wraps another enricher with an insight cache keyed by
// entity content hash. Entities whose structure has not changed since a
// previous run are answered from the cache without a provider call.
type cachedEnricher struct {
	inner Enricher
	store cache.Cache
}

// WithCache layers an insight cache over an enricher. A nil store returns
// the enricher unchanged.
func WithCache(inner Enricher, store cache.Cache) Enricher {
	if store == nil {
		return inner
	}
	return &cachedEnricher{inner: inner, store: store}
}

func (c *cachedEnricher) Provider() string { return c.inner.Provider() }

func (c *cachedEnricher) Enrich(ctx context.Context, entities []*analyzer.EntityDefinition) (*Insights, error) {
	insights := &Insights{Entities: make(map[string]EntityInsight, len(entities))}

	var misses []*analyzer.EntityDefinition
	keys := make(map[string]string, len(entities))

	for _, entity := range entities {
		key := entityHash(entity)
		keys[entity.Name] = key

		data, err := c.store.Get(ctx, key)
		if err != nil {
			if !cache.IsCacheMiss(err) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Backend errors and misses are treated the same: ask the
			// provider.
			misses = append(misses, entity)
			continue
		}

		var insight EntityInsight
		if err := json.Unmarshal(data, &insight); err != nil {
			misses = append(misses, entity)
			continue
		}
		insights.Entities[entity.Name] = insight
	}

	if len(misses) == 0 {
		return insights, nil
	}

	fresh, err := c.inner.Enrich(ctx, misses)
	if err != nil {
		return nil, err
	}

	for name, insight := range fresh.Entities {
		insights.Entities[name] = insight

		key, ok := keys[name]
		if !ok {
			continue
		}
		data, err := json.Marshal(insight)
		if err != nil {
			continue
		}
		// Cache write failures never fail the enrichment itself.
		_ = c.store.Set(ctx, key, data, 0)
	}

	return insights, nil
}

// entityHash fingerprints the structural shape of an entity. Descriptive
// fields are excluded so that enrichment output never invalidates its own
// cache entry.
func entityHash(entity *analyzer.EntityDefinition) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\n", entity.Name, entity.Kind, entity.Docstring)
	for _, f := range entity.Fields {
		fmt.Fprintf(h, "%s\x00%s\x00%t%t%t%t\x00%s\x00%t\n",
			f.Name, f.SourceType,
			f.Required, f.ReadOnly, f.WriteOnly, f.Nullable,
			f.RelatedEntity, f.IsArray)
	}
	return hex.EncodeToString(h.Sum(nil))
}
