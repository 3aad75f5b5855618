package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelSource = `
from django.db import models


class Category(models.Model):
    """Product grouping."""

    name = models.CharField(max_length=100)
    slug = models.SlugField(max_length=100)


class Product(models.Model):
    STATUS_CHOICES = [('draft', 'Draft'), ('active', 'Active')]

    name = models.CharField(max_length=200, help_text='Display name')
    price = models.DecimalField(max_digits=10, decimal_places=2)
    status = models.CharField(max_length=10, choices=[('draft', 'Draft'), ('active', 'Active')], default='draft')
    category = models.ForeignKey(Category, on_delete=models.CASCADE, related_name='products')
    tags = models.ManyToManyField('Tag', blank=True)
    notes = models.TextField(null=True, blank=True)
`

const serializerSource = `
from rest_framework import serializers

from .models import Product


class CategorySerializer(serializers.ModelSerializer):
    class Meta:
        model = Category
        fields = '__all__'


class ProductSerializer(serializers.ModelSerializer):
    name = serializers.CharField(max_length=200)
    price = serializers.DecimalField(max_digits=10, decimal_places=2, min_value=0)
    internal_notes = serializers.CharField(write_only=True, required=False)
    created_at = serializers.DateTimeField(read_only=True)
    category = CategorySerializer()
    tag_ids = serializers.PrimaryKeyRelatedField(many=True, queryset=Tag.objects.all())

    class Meta:
        model = Product
        fields = ['name', 'price', 'internal_notes', 'created_at', 'category', 'tag_ids']
`

func TestExtractor_Models(t *testing.T) {
	x := NewExtractor(nil)

	entities, err := x.ExtractSource("models.py", modelSource)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	category := entities[0]
	assert.Equal(t, "Category", category.Name)
	assert.Equal(t, KindModel, category.Kind)
	assert.Equal(t, "Product grouping.", category.Docstring)

	product := entities[1]
	require.Len(t, product.Fields, 6)

	name := product.Field("name")
	require.NotNil(t, name)
	assert.Equal(t, "CharField", name.SourceType)
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, 200, *name.MaxLength)
	assert.Equal(t, "Display name", name.HelpText)
	assert.True(t, name.Required)

	status := product.Field("status")
	require.NotNil(t, status)
	require.Len(t, status.Choices, 2)
	assert.Equal(t, "draft", status.Choices[0].Value)
	assert.Equal(t, "Draft", status.Choices[0].Label)
	assert.True(t, status.HasDefault)
	assert.Equal(t, "draft", status.Default)
	assert.False(t, status.Required)

	category2 := product.Field("category")
	require.NotNil(t, category2)
	assert.Equal(t, "Category", category2.RelatedEntity)
	assert.Equal(t, "products", category2.ReverseName)
	assert.False(t, category2.IsArray)

	tags := product.Field("tags")
	require.NotNil(t, tags)
	assert.Equal(t, "Tag", tags.RelatedEntity)
	assert.True(t, tags.IsArray)

	notes := product.Field("notes")
	require.NotNil(t, notes)
	assert.True(t, notes.Nullable)
	assert.True(t, notes.Blank)
	assert.False(t, notes.Required)

	// Class constants that are not field constructors are skipped.
	assert.Nil(t, product.Field("STATUS_CHOICES"))
}

func TestExtractor_Serializers(t *testing.T) {
	x := NewExtractor(nil)

	entities, err := x.ExtractSource("serializers.py", serializerSource)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	product := entities[1]
	assert.Equal(t, KindSerializer, product.Kind)
	assert.Equal(t, "Product", product.ModelName)
	require.Len(t, product.Fields, 6)

	internal := product.Field("internal_notes")
	require.NotNil(t, internal)
	assert.True(t, internal.WriteOnly)
	assert.False(t, internal.Required)

	created := product.Field("created_at")
	require.NotNil(t, created)
	assert.True(t, created.ReadOnly)
	assert.False(t, created.Required)

	nested := product.Field("category")
	require.NotNil(t, nested)
	assert.Equal(t, "CategorySerializer", nested.SourceType)
	assert.Equal(t, "CategorySerializer", nested.RelatedEntity)

	tagIDs := product.Field("tag_ids")
	require.NotNil(t, tagIDs)
	assert.True(t, tagIDs.IsArray)
	assert.Equal(t, "Tag", tagIDs.RelatedEntity)

	price := product.Field("price")
	require.NotNil(t, price)
	require.NotNil(t, price.MinValue)
	assert.Equal(t, 0.0, *price.MinValue)

	meta := product.Meta
	require.NotNil(t, meta)
	fields, ok := meta["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 6)
}

func TestExtractor_SyntaxErrorIsPerFile(t *testing.T) {
	x := NewExtractor(nil)

	_, err := x.ExtractSource("broken.py", "class Broken(\n    name = x\n")
	assert.Error(t, err)

	// A clean file still extracts after a broken one.
	entities, err := x.ExtractSource("models.py", modelSource)
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestExtractor_IgnoresUnrelatedClasses(t *testing.T) {
	x := NewExtractor(nil)

	source := `
class Helper:
    value = 1


class Plain(object):
    pass
`
	entities, err := x.ExtractSource("util.py", source)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestExtractor_AliasedImports(t *testing.T) {
	x := NewExtractor(nil)

	source := `
from rest_framework import serializers as drf


class OrderSerializer(drf.ModelSerializer):
    total = drf.DecimalField(max_digits=8, decimal_places=2)
`
	entities, err := x.ExtractSource("serializers.py", source)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, KindSerializer, entities[0].Kind)
	assert.Equal(t, []string{"rest_framework.serializers.ModelSerializer"}, entities[0].BaseClasses)
}

func TestExtractor_ForwardReferenceKeepsQualifier(t *testing.T) {
	x := NewExtractor(nil)

	source := `
from django.db import models


class Order(models.Model):
    product = models.ForeignKey('catalog.Product', on_delete=models.CASCADE)
`
	entities, err := x.ExtractSource("models.py", source)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	field := entities[0].Field("product")
	require.NotNil(t, field)
	assert.Equal(t, "catalog.Product", field.RelatedEntity)
}

func TestExtractFile_MissingFile(t *testing.T) {
	x := NewExtractor(nil)

	_, err := x.ExtractFile(filepath.Join(t.TempDir(), "absent.py"))
	assert.Error(t, err)
}

func TestExtractFile_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.py")
	require.NoError(t, os.WriteFile(path, []byte(modelSource), 0o644))

	x := NewExtractor(nil)
	entities, err := x.ExtractFile(path)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, path, entities[0].SourceFile)
}
