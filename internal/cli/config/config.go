// Package config loads the easysdk.yml project configuration with viper,
// applying defaults and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/qosha1/easysdk/internal/codegen"
	"github.com/qosha1/easysdk/internal/naming"
)

// Config is the full easysdk configuration surface.
type Config struct {
	// ProjectPath is the root of the source project to analyze.
	ProjectPath string `mapstructure:"project_path"`

	Apps       AppsConfig       `mapstructure:"apps"`
	Output     OutputConfig     `mapstructure:"output"`
	Docs       DocsConfig       `mapstructure:"docs"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
}

// AppsConfig filters which discovered apps are processed.
type AppsConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

// OutputConfig controls the generated SDK tree.
type OutputConfig struct {
	Dir       string   `mapstructure:"dir"`
	Languages []string `mapstructure:"languages"`

	InterfaceNaming string `mapstructure:"interface_naming"`
	PropertyNaming  string `mapstructure:"property_naming"`
	InterfaceSuffix string `mapstructure:"interface_suffix"`
	PreserveNames   bool   `mapstructure:"preserve_names"`

	// MultiLanguage emits every supported language instead of Languages.
	MultiLanguage bool `mapstructure:"multi_language"`
	// MultiNaming emits the standard set of naming variants instead of the
	// single configured pair.
	MultiNaming bool `mapstructure:"multi_naming"`
}

// DocsConfig controls documentation output. An empty format disables it.
type DocsConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// EnrichmentConfig controls the optional AI enrichment step.
type EnrichmentConfig struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	CallsPerMinute int           `mapstructure:"calls_per_minute"`
	Timeout        time.Duration `mapstructure:"timeout"`

	Cache CacheConfig `mapstructure:"cache"`
}

// CacheConfig selects the insight cache backend.
type CacheConfig struct {
	// Backend is "memory", "sqlite", "redis", or "" for no cache.
	Backend string `mapstructure:"backend"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
	// Addr is the Redis server address.
	Addr string `mapstructure:"addr"`
}

// FileName is the config file base name searched in the working directory.
const FileName = "easysdk"

// Load reads easysdk.yml (or .yaml) from the current directory. A missing
// file yields the defaults.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from an explicit file path, or from the
// working directory when path is empty.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("project_path", ".")
	v.SetDefault("output.dir", "generated")
	v.SetDefault("output.languages", []string{"typescript"})
	v.SetDefault("output.interface_naming", string(naming.PascalCase))
	v.SetDefault("output.property_naming", string(naming.CamelCase))
	v.SetDefault("docs.dir", "docs/api")
	v.SetDefault("enrichment.provider", "local")
	v.SetDefault("enrichment.calls_per_minute", 20)
	v.SetDefault("enrichment.timeout", 60*time.Second)
	v.SetDefault("enrichment.cache.backend", "memory")
	v.SetDefault("enrichment.cache.path", ".easysdk-cache.db")
	v.SetDefault("enrichment.cache.addr", "localhost:6379")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("EASYSDK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file found; defaults apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Enrichment.APIKey == "" {
		config.Enrichment.APIKey = apiKeyFromEnv(config.Enrichment.Provider)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Languages resolves the configured language set, honoring the
// multi-language toggle.
func (c *Config) Languages() ([]codegen.Language, error) {
	if c.Output.MultiLanguage {
		return codegen.Languages(), nil
	}
	var langs []codegen.Language
	for _, name := range c.Output.Languages {
		lang, err := codegen.ParseLanguage(name)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// Variants resolves the naming variant set, honoring the multi-naming
// toggle.
func (c *Config) Variants() []codegen.Variant {
	if c.Output.MultiNaming {
		return []codegen.Variant{
			{Interface: naming.PascalCase, Property: naming.CamelCase},
			{Interface: naming.PascalCase, Property: naming.SnakeCase},
			{Interface: naming.CamelCase, Property: naming.CamelCase},
			{Interface: naming.SnakeCase, Property: naming.SnakeCase},
		}
	}
	return []codegen.Variant{{
		Interface: naming.Convention(c.Output.InterfaceNaming),
		Property:  naming.Convention(c.Output.PropertyNaming),
	}}
}

// InProject reports whether the working directory holds an easysdk config
// file.
func InProject() bool {
	for _, name := range []string{FileName + ".yml", FileName + ".yaml"} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// apiKeyFromEnv falls back to the conventional environment variable for a
// provider.
func apiKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

func validateConfig(cfg *Config) error {
	if !cfg.Output.MultiLanguage {
		for _, lang := range cfg.Output.Languages {
			if _, err := codegen.ParseLanguage(lang); err != nil {
				return fmt.Errorf("output.languages: %w", err)
			}
		}
	}

	if !validConvention(cfg.Output.InterfaceNaming) {
		return fmt.Errorf("output.interface_naming: unknown convention %q", cfg.Output.InterfaceNaming)
	}
	if !validConvention(cfg.Output.PropertyNaming) {
		return fmt.Errorf("output.property_naming: unknown convention %q", cfg.Output.PropertyNaming)
	}

	switch cfg.Enrichment.Provider {
	case "", "local", "anthropic", "claude", "openai":
	default:
		return fmt.Errorf("enrichment.provider: unknown provider %q", cfg.Enrichment.Provider)
	}

	switch cfg.Enrichment.Cache.Backend {
	case "", "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("enrichment.cache.backend: unknown backend %q", cfg.Enrichment.Cache.Backend)
	}

	if cfg.Docs.Format != "" {
		switch cfg.Docs.Format {
		case "docusaurus", "markdown", "sphinx", "rst":
		default:
			return fmt.Errorf("docs.format: unknown format %q", cfg.Docs.Format)
		}
	}

	if cfg.ProjectPath == "" {
		return fmt.Errorf("project_path must not be empty")
	}
	cfg.ProjectPath = filepath.Clean(cfg.ProjectPath)

	return nil
}

func validConvention(name string) bool {
	for _, c := range naming.Conventions() {
		if string(c) == name {
			return true
		}
	}
	return false
}
