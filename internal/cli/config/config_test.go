package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qosha1/easysdk/internal/codegen"
	"github.com/qosha1/easysdk/internal/naming"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "easysdk.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.ProjectPath)
	assert.Equal(t, "generated", cfg.Output.Dir)
	assert.Equal(t, []string{"typescript"}, cfg.Output.Languages)
	assert.Equal(t, string(naming.PascalCase), cfg.Output.InterfaceNaming)
	assert.Equal(t, string(naming.CamelCase), cfg.Output.PropertyNaming)
	assert.Equal(t, "local", cfg.Enrichment.Provider)
	assert.Equal(t, 20, cfg.Enrichment.CallsPerMinute)
	assert.Equal(t, 60*time.Second, cfg.Enrichment.Timeout)
	assert.Equal(t, "memory", cfg.Enrichment.Cache.Backend)
}

func TestLoadFrom_FullFile(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `
project_path: ../shop
apps:
  include: ["catalog", "orders"]
  exclude: ["legacy_*"]
output:
  dir: sdk
  languages: [typescript, python]
  interface_naming: PascalCase
  property_naming: snake_case
  preserve_names: true
docs:
  format: sphinx
  dir: docs/source/api
enrichment:
  provider: openai
  model: gpt-4o
  api_key: test-key
  calls_per_minute: 5
  cache:
    backend: sqlite
    path: /tmp/insights.db
`))
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean("../shop"), cfg.ProjectPath)
	assert.Equal(t, []string{"catalog", "orders"}, cfg.Apps.Include)
	assert.Equal(t, []string{"legacy_*"}, cfg.Apps.Exclude)
	assert.Equal(t, "sdk", cfg.Output.Dir)
	assert.True(t, cfg.Output.PreserveNames)
	assert.Equal(t, "sphinx", cfg.Docs.Format)
	assert.Equal(t, "openai", cfg.Enrichment.Provider)
	assert.Equal(t, "test-key", cfg.Enrichment.APIKey)
	assert.Equal(t, 5, cfg.Enrichment.CallsPerMinute)
	assert.Equal(t, "sqlite", cfg.Enrichment.Cache.Backend)
}

func TestLoadFrom_RejectsUnknownValues(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"language", "output:\n  languages: [cobol]\n", "unsupported language"},
		{"interface naming", "output:\n  interface_naming: SHOUTING\n", "unknown convention"},
		{"property naming", "output:\n  property_naming: dots.case\n", "unknown convention"},
		{"provider", "enrichment:\n  provider: cohere\n", "unknown provider"},
		{"cache backend", "enrichment:\n  cache:\n    backend: memcached\n", "unknown backend"},
		{"docs format", "docs:\n  format: asciidoc\n", "unknown format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFrom_MissingExplicitFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestConfig_Languages(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "output:\n  languages: [python, java]\n"))
	require.NoError(t, err)

	langs, err := cfg.Languages()
	require.NoError(t, err)
	assert.Equal(t, []codegen.Language{codegen.LangPython, codegen.LangJava}, langs)
}

func TestConfig_LanguagesMultiToggle(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "output:\n  multi_language: true\n"))
	require.NoError(t, err)

	langs, err := cfg.Languages()
	require.NoError(t, err)
	assert.Equal(t, codegen.Languages(), langs)
}

func TestConfig_Variants(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "output:\n  interface_naming: PascalCase\n  property_naming: snake_case\n"))
	require.NoError(t, err)

	variants := cfg.Variants()
	require.Len(t, variants, 1)
	assert.Equal(t, naming.PascalCase, variants[0].Interface)
	assert.Equal(t, naming.SnakeCase, variants[0].Property)
}

func TestConfig_VariantsMultiToggle(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "output:\n  multi_naming: true\n"))
	require.NoError(t, err)

	variants := cfg.Variants()
	require.Len(t, variants, 4)

	dirs := make(map[string]bool)
	for _, v := range variants {
		dirs[v.Dir()] = true
	}
	assert.True(t, dirs["PascalCase_camelCase"])
	assert.True(t, dirs["PascalCase_snake_case"])
}
