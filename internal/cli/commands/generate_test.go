package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureModels = `
from django.db import models

class Book(models.Model):
    title = models.CharField(max_length=200)
    published = models.BooleanField(default=False)
`

const fixtureSerializers = `
from rest_framework import serializers

class BookSerializer(serializers.ModelSerializer):
    title = serializers.CharField(required=True)
    published = serializers.BooleanField(default=False)
`

func writeFixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"manage.py":              "",
		"config/settings.py":     "",
		"library/__init__.py":    "",
		"library/models.py":      fixtureModels,
		"library/serializers.py": fixtureSerializers,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestGenerateCommand_EndToEnd(t *testing.T) {
	root := writeFixtureProject(t)
	output := t.TempDir()

	err := execute(t, "generate", "--project", root, "--output", output)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(output, "typescript", "PascalCase_camelCase", "library.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "export interface Book ")
}

func TestGenerateCommand_DryRun(t *testing.T) {
	root := writeFixtureProject(t)
	output := filepath.Join(t.TempDir(), "out")

	err := execute(t, "generate", "--project", root, "--output", output, "--dry-run")
	require.NoError(t, err)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateCommand_InvalidProject(t *testing.T) {
	err := execute(t, "generate", "--project", t.TempDir(), "--output", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestGenerateCommand_UnknownLanguage(t *testing.T) {
	root := writeFixtureProject(t)

	err := execute(t, "generate", "--project", root, "--languages", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestValidateCommand(t *testing.T) {
	root := writeFixtureProject(t)

	require.NoError(t, execute(t, "validate", "--project", root))

	err := execute(t, "validate", "--project", t.TempDir())
	require.Error(t, err)
}

func TestScanCommand(t *testing.T) {
	root := writeFixtureProject(t)

	require.NoError(t, execute(t, "scan", "--project", root, "--detail"))
}
