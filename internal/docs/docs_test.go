package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qosha1/easysdk/internal/analyzer"
)

func docFixture() []*analyzer.AppSchema {
	maxLen := 200
	product := &analyzer.EntityDefinition{
		Name:      "Product",
		Kind:      analyzer.KindModel,
		Docstring: "A purchasable item.",
		Fields: []*analyzer.FieldDefinition{
			{Name: "name", SourceType: "CharField", Required: true, MaxLength: &maxLen, HelpText: "Display name"},
			{Name: "price", SourceType: "DecimalField", Required: true},
			{Name: "category", SourceType: "ForeignKey", RelatedEntity: "Category"},
		},
		Reverse: []analyzer.ReverseRelation{
			{Name: "order_set", FromEntity: "Order", FromField: "product"},
		},
	}
	serializer := &analyzer.EntityDefinition{
		Name: "ProductSerializer",
		Kind: analyzer.KindSerializer,
		Fields: []*analyzer.FieldDefinition{
			{Name: "name", SourceType: "CharField", Required: true},
		},
	}
	view := &analyzer.EntityDefinition{
		Name:            "ProductViewSet",
		Kind:            analyzer.KindView,
		SerializerClass: "ProductSerializer",
		Endpoints: []*analyzer.EndpointDefinition{
			{
				Method:         "GET",
				Path:           "/products/{id}/",
				OwningView:     "ProductViewSet",
				Action:         "retrieve",
				ResponseEntity: "ProductSerializer",
				RequiresAuth:   true,
				Parameters:     []analyzer.Parameter{{Name: "id", In: "path", Type: "integer"}},
				Description:    "Retrieve a specific Product instance",
			},
		},
	}
	return []*analyzer.AppSchema{{
		AppName:     "shop",
		Models:      []*analyzer.EntityDefinition{product},
		Serializers: []*analyzer.EntityDefinition{serializer},
		Views:       []*analyzer.EntityDefinition{view},
	}}
}

func TestDocusaurus_GeneratesTree(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator("docusaurus", Config{OutputDir: dir, ProjectName: "Shop", Version: "1.2.0"})
	require.NoError(t, err)

	files, err := g.Generate(docFixture())
	require.NoError(t, err)
	require.Len(t, files, 3)

	entities, err := os.ReadFile(filepath.Join(dir, "shop", "entities.md"))
	require.NoError(t, err)
	content := string(entities)
	assert.Contains(t, content, "# shop Entities")
	assert.Contains(t, content, "### Product")
	assert.Contains(t, content, "> A purchasable item.")
	assert.Contains(t, content, "| `name` | `CharField` | Yes | max_length=200 | Display name |")
	assert.Contains(t, content, "| `category` | `Category` |")
	assert.Contains(t, content, "- `order_set` ← Order.product")

	endpoints, err := os.ReadFile(filepath.Join(dir, "shop", "endpoints.md"))
	require.NoError(t, err)
	assert.Contains(t, string(endpoints), "GET /products/{id}/")
	assert.Contains(t, string(endpoints), "Requires authentication.")
	assert.Contains(t, string(endpoints), "| `id` | path | integer |")

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "# Shop API Reference")
	assert.Contains(t, string(index), "**Version:** 1.2.0")
	assert.Contains(t, string(index), "[entities](shop/entities.md)")
}

func TestDocusaurus_MergesIntoExistingProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docusaurus.config.js"), []byte("module.exports = {};"), 0o644))

	apiDir := filepath.Join(dir, "docs", "api-reference")
	require.NoError(t, os.MkdirAll(apiDir, 0o755))
	userContent := "# My Handwritten Intro\n\nKeep me.\n"
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, "index.md"), []byte(userContent), 0o644))

	g, err := NewGenerator("docusaurus", Config{OutputDir: dir})
	require.NoError(t, err)
	_, err = g.Generate(docFixture())
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(apiDir, "index.md"))
	require.NoError(t, err)
	content := string(index)
	assert.Contains(t, content, "# My Handwritten Intro")
	assert.Contains(t, content, "<!-- BEGIN GENERATED API REFERENCE -->")
	assert.Contains(t, content, "<!-- END GENERATED API REFERENCE -->")

	// Regeneration replaces only the delimited section.
	_, err = g.Generate(docFixture())
	require.NoError(t, err)
	again, err := os.ReadFile(filepath.Join(apiDir, "index.md"))
	require.NoError(t, err)
	assert.Equal(t, content, string(again))
}

func TestSphinx_GeneratesTree(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator("sphinx", Config{OutputDir: dir, ProjectName: "Shop"})
	require.NoError(t, err)

	files, err := g.Generate(docFixture())
	require.NoError(t, err)
	require.Len(t, files, 3)

	entities, err := os.ReadFile(filepath.Join(dir, "shop", "entities.rst"))
	require.NoError(t, err)
	content := string(entities)
	assert.Contains(t, content, "shop entities\n=============")
	assert.Contains(t, content, "Product\n~~~~~~~")
	assert.Contains(t, content, ".. list-table::")
	assert.Contains(t, content, "``CharField``")

	endpoints, err := os.ReadFile(filepath.Join(dir, "shop", "endpoints.rst"))
	require.NoError(t, err)
	assert.Contains(t, string(endpoints), ".. http:get:: /products/{id}/")
	assert.Contains(t, string(endpoints), ":param id: integer")

	index, err := os.ReadFile(filepath.Join(dir, "index.rst"))
	require.NoError(t, err)
	assert.Contains(t, string(index), ".. toctree::")
	assert.Contains(t, string(index), "shop/entities")
}

func TestSphinx_MergesIntoExistingProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conf.py"), []byte("project = 'x'"), 0o644))

	g, err := NewGenerator("sphinx", Config{OutputDir: dir})
	require.NoError(t, err)
	_, err = g.Generate(docFixture())
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(dir, "source", "api", "index.rst"))
	require.NoError(t, err)
	assert.Contains(t, string(index), ".. BEGIN GENERATED API REFERENCE")
	assert.Contains(t, string(index), ".. toctree::")
}

func TestMergeSection_AppendsWhenNoMarkers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.md")
	require.NoError(t, os.WriteFile(path, []byte("existing text"), 0o644))

	require.NoError(t, mergeSection(path, "generated", "docusaurus"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "existing text\n")
	assert.Contains(t, string(content), "<!-- BEGIN GENERATED API REFERENCE -->\ngenerated\n<!-- END GENERATED API REFERENCE -->")
}

func TestNewGenerator_UnknownFormat(t *testing.T) {
	_, err := NewGenerator("latex", Config{})
	assert.Error(t, err)
}
