package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for varmap.
type Config struct {
	// Mapping settings
	Mapping MappingConfig `koanf:"mapping"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// MappingConfig controls which inputs feed the mapping and which variable
// names participate.
type MappingConfig struct {
	// VariableRegex restricts which referenced names are treated as
	// configuration variables. Matched against the whole name; empty
	// accepts every name.
	VariableRegex string `koanf:"variable_regex"`

	// KconfigFile is the root Kconfig file, relative to the scanned
	// directory. Empty means autodetect ("Kconfig").
	KconfigFile string `koanf:"kconfig_file"`

	// VariableListFile is a plain variable-name list used instead of a
	// Kconfig tree. Such models carry no constraint-usage metadata.
	VariableListFile string `koanf:"variable_list_file"`

	// BuildFiles are the build file names mined for presence conditions.
	BuildFiles []string `koanf:"build_files"`

	// SourceExtensions are the code file extensions scanned for
	// preprocessor conditionals.
	SourceExtensions []string `koanf:"source_extensions"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mapping: MappingConfig{
			VariableRegex:    "CONFIG_.*",
			KconfigFile:      "Kconfig",
			BuildFiles:       []string{"Makefile", "Kbuild"},
			SourceExtensions: []string{".c", ".h"},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.mod.c",
			},
			Dirs: []string{
				".git",
				".varmap",
				"Documentation",
				"scripts",
				"tools",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"varmap.toml",
		"varmap.yaml",
		"varmap.yml",
		"varmap.json",
		".varmap.toml",
		".varmap.yaml",
		".varmap.yml",
		".varmap.json",
	}

	searchDirs := []string{".", ".varmap"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// VariableFilter compiles the configured variable-name pattern. A nil filter
// means every name participates.
func (c *Config) VariableFilter() (*regexp.Regexp, error) {
	pattern := c.Mapping.VariableRegex
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid variable_regex: %w", err)
	}
	return re, nil
}

// IsSourceFile reports whether the path has one of the configured source
// extensions.
func (c *Config) IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Mapping.SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ShouldExclude checks if a path should be excluded from scanning.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
