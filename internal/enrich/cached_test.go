package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qosha1/easysdk/internal/analyzer"
	"github.com/qosha1/easysdk/internal/enrich/cache"
)

// countingEnricher records how many provider calls reached it.
type countingEnricher struct {
	calls    int
	insights map[string]EntityInsight
}

func (c *countingEnricher) Provider() string { return "counting" }

func (c *countingEnricher) Enrich(ctx context.Context, entities []*analyzer.EntityDefinition) (*Insights, error) {
	c.calls++
	out := &Insights{Entities: map[string]EntityInsight{}}
	for _, e := range entities {
		if insight, ok := c.insights[e.Name]; ok {
			out.Entities[e.Name] = insight
		}
	}
	return out, nil
}

func TestWithCache_SecondRunSkipsProvider(t *testing.T) {
	store := cache.NewMemoryCache()
	defer store.Close()

	inner := &countingEnricher{insights: map[string]EntityInsight{
		"ProductSerializer": {Summary: "A sellable item."},
	}}
	enricher := WithCache(inner, store)

	ctx := context.Background()

	first, err := enricher.Enrich(ctx, []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "A sellable item.", first.Entities["ProductSerializer"].Summary)

	second, err := enricher.Enrich(ctx, []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "unchanged entity must be served from cache")
	assert.Equal(t, "A sellable item.", second.Entities["ProductSerializer"].Summary)
}

func TestWithCache_StructuralChangeInvalidates(t *testing.T) {
	store := cache.NewMemoryCache()
	defer store.Close()

	inner := &countingEnricher{insights: map[string]EntityInsight{
		"ProductSerializer": {Summary: "A sellable item."},
	}}
	enricher := WithCache(inner, store)

	ctx := context.Background()

	_, err := enricher.Enrich(ctx, []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)

	changed := productEntity()
	changed.Fields = append(changed.Fields, &analyzer.FieldDefinition{
		Name: "sku", SourceType: "CharField",
	})

	_, err = enricher.Enrich(ctx, []*analyzer.EntityDefinition{changed})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "changed entity must reach the provider")
}

func TestWithCache_MixedBatchOnlyForwardsMisses(t *testing.T) {
	store := cache.NewMemoryCache()
	defer store.Close()

	inner := &countingEnricher{insights: map[string]EntityInsight{
		"ProductSerializer":  {Summary: "A sellable item."},
		"CategorySerializer": {Summary: "A grouping of items."},
	}}
	enricher := WithCache(inner, store)

	ctx := context.Background()

	_, err := enricher.Enrich(ctx, []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)

	category := &analyzer.EntityDefinition{
		Name: "CategorySerializer",
		Kind: analyzer.KindSerializer,
		Fields: []*analyzer.FieldDefinition{
			{Name: "name", SourceType: "CharField", Required: true},
		},
	}

	insights, err := enricher.Enrich(ctx, []*analyzer.EntityDefinition{productEntity(), category})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Len(t, insights.Entities, 2)
	assert.Equal(t, "A grouping of items.", insights.Entities["CategorySerializer"].Summary)
}

func TestWithCache_NilStorePassesThrough(t *testing.T) {
	inner := &countingEnricher{}
	assert.Same(t, inner, WithCache(inner, nil))
}

func TestEntityHash_IgnoresDescriptiveFields(t *testing.T) {
	a := productEntity()
	b := productEntity()
	b.Summary = "documented"
	b.Fields[0].Description = "documented field"

	assert.Equal(t, entityHash(a), entityHash(b))

	b.Fields[0].Required = false
	assert.NotEqual(t, entityHash(a), entityHash(b))
}
