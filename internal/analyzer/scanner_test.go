package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a minimal project on disk for scanner tests.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestScanner_ValidateProject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"manage.py":          "#!/usr/bin/env python",
		"config/settings.py": "DEBUG = True",
	})

	s := NewScanner(nil, nil)
	assert.Empty(t, s.ValidateProject(root))
}

func TestScanner_ValidateRejectsNonProject(t *testing.T) {
	s := NewScanner(nil, nil)

	reasons := s.ValidateProject(t.TempDir())
	require.Len(t, reasons, 2)
	assert.Contains(t, reasons[0], "manage.py")
	assert.Contains(t, reasons[1], "settings")

	reasons = s.ValidateProject(filepath.Join(t.TempDir(), "missing"))
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "does not exist")
}

func TestScanner_DiscoverApps(t *testing.T) {
	root := writeProject(t, map[string]string{
		"manage.py":               "",
		"config/settings.py":      "",
		"shop/__init__.py":        "",
		"shop/models.py":          modelSource,
		"shop/serializers.py":     serializerSource,
		"shop/views.py":           viewSource,
		"shop/urls.py":            "",
		"accounts/__init__.py":    "",
		"accounts/models.py":      "",
		"static/css/site.css":     "",
		"notapp/readme.txt":       "",
		"plainpkg/__init__.py":    "",
		"plainpkg/helpers.py":     "",
		"shop/migrations/0001.py": "",
	})

	s := NewScanner(nil, nil)
	apps, err := s.DiscoverApps(root)
	require.NoError(t, err)
	require.Len(t, apps, 2)

	// Sorted by name.
	assert.Equal(t, "accounts", apps[0].Name)
	shop := apps[1]
	assert.Equal(t, "shop", shop.Name)
	require.Len(t, shop.ModelFiles, 1)
	require.Len(t, shop.SerializerFiles, 1)
	require.Len(t, shop.ViewFiles, 1)
	require.Len(t, shop.URLFiles, 1)

	// Migrations never count as sources.
	for _, f := range shop.SourceFiles() {
		assert.NotContains(t, f, "migrations")
	}
}

func TestScanner_IncludeExclude(t *testing.T) {
	root := writeProject(t, map[string]string{
		"shop/__init__.py":     "",
		"shop/models.py":       "",
		"accounts/__init__.py": "",
		"accounts/models.py":   "",
		"internal/__init__.py": "",
		"internal/models.py":   "",
	})

	s := NewScanner([]string{"shop", "accounts"}, []string{"accounts"})
	apps, err := s.DiscoverApps(root)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "shop", apps[0].Name)

	s = NewScanner(nil, []string{"int*"})
	apps, err = s.DiscoverApps(root)
	require.NoError(t, err)
	require.Len(t, apps, 2)
}

func TestScanner_SourceFilesDeduplicated(t *testing.T) {
	root := writeProject(t, map[string]string{
		"shop/__init__.py":        "",
		"shop/models.py":          "",
		"shop/api/__init__.py":    "",
		"shop/api/serializers.py": "",
	})

	s := NewScanner(nil, nil)
	apps, err := s.DiscoverApps(root)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	// api/serializers.py qualifies as both serializer and view source but
	// appears once.
	files := apps[0].SourceFiles()
	seen := make(map[string]int)
	for _, f := range files {
		seen[f]++
	}
	for f, n := range seen {
		assert.Equal(t, 1, n, "file %s listed %d times", f, n)
	}
}

func TestExtractURLPatterns(t *testing.T) {
	root := writeProject(t, map[string]string{
		"shop/urls.py": `
from django.urls import path

from .views import ProductViewSet, ProductListView

urlpatterns = [
    path('api/products/', ProductListView.as_view()),
    path('api/products/<int:pk>/', ProductViewSet.as_view({'get': 'retrieve'})),
]
`,
	})

	patterns, err := ExtractURLPatterns(filepath.Join(root, "shop", "urls.py"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ProductListView": "api/products/",
		"ProductViewSet":  "api/products/<int:pk>/",
	}, patterns)
}

func TestExtractURLPatterns_BadFile(t *testing.T) {
	_, err := ExtractURLPatterns(filepath.Join(t.TempDir(), "urls.py"))
	assert.Error(t, err)
}
