// Package config provides configuration loading and management for syntaxrules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/syntaxrules/export"
	"github.com/c360studio/syntaxrules/graph"
	"github.com/c360studio/syntaxrules/tree"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// Config represents the complete syntaxrules configuration
type Config struct {
	Namespace NamespaceConfig `yaml:"namespace"`
	Rules     RulesConfig     `yaml:"rules"`
	Output    OutputConfig    `yaml:"output"`
	NATS      NATSConfig      `yaml:"nats"`
	Log       LogConfig       `yaml:"log"`
}

// NamespaceConfig configures token and predicate IRIs
type NamespaceConfig struct {
	// Base is the namespace of token nodes and their predicates
	Base string `yaml:"base"`
	// Prefixes are extra prefixes available in rules, next to ':' (Base),
	// rdf, rdfs and xsd
	Prefixes map[string]string `yaml:"prefixes,omitempty"`
}

// RulesConfig configures which rulesets are applied
type RulesConfig struct {
	// Paths are ruleset files or glob patterns (** supported), applied in
	// sorted path order
	Paths []string `yaml:"paths"`
	// ContinueOnError keeps applying rules after one fails
	ContinueOnError bool `yaml:"continue_on_error"`
}

// OutputConfig configures the materialized output
type OutputConfig struct {
	// Format is one of the export formats (json, minimal, dot, ntriples, turtle, jsonld)
	Format string `yaml:"format"`
	// KeepRel keeps the generic rel edges in the tree
	KeepRel bool `yaml:"keep_rel"`
	// IgnoreGrammatical drops rel_* edges from the tree
	IgnoreGrammatical bool `yaml:"ignore_grammatical"`
	// Predicates, when set, is the allow-list of edge predicates
	Predicates []string `yaml:"predicates,omitempty"`
}

// NATSConfig configures publishing of materialized trees
type NATSConfig struct {
	// URL is the NATS server URL (empty = do not publish)
	URL string `yaml:"url"`
	// Subject is the subject trees are published on
	Subject string `yaml:"subject"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Namespace: NamespaceConfig{
			Base: syntax.DefaultBase,
		},
		Rules: RulesConfig{
			Paths: []string{"rules/**/*.yaml", "rules/**/*.json"},
		},
		Output: OutputConfig{
			Format: string(export.FormatJSON),
		},
		NATS: NATSConfig{
			URL:     "", // Publishing disabled
			Subject: graph.DefaultSubject,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Namespace.Base == "" {
		return fmt.Errorf("namespace.base is required")
	}
	if !strings.HasSuffix(c.Namespace.Base, "/") && !strings.HasSuffix(c.Namespace.Base, "#") {
		return fmt.Errorf("namespace.base must end with '/' or '#'")
	}
	if _, ok := c.Namespace.Prefixes[""]; ok {
		return fmt.Errorf("namespace.prefixes cannot redefine the empty prefix, set namespace.base instead")
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// BaseNamespace returns the configured base namespace.
func (c *Config) BaseNamespace() syntax.Namespace {
	return syntax.Namespace(c.Namespace.Base)
}

// Prefixes returns the prefix map used for rules and Turtle output.
func (c *Config) Prefixes() map[string]string {
	prefixes := syntax.DefaultPrefixes(c.BaseNamespace())
	for k, v := range c.Namespace.Prefixes {
		prefixes[k] = v
	}
	return prefixes
}

// TreeOptions returns the materializer options.
func (c *Config) TreeOptions() tree.Options {
	return tree.Options{
		IgnoreRel:         !c.Output.KeepRel,
		IgnoreGrammatical: c.Output.IgnoreGrammatical,
		PredicateFilter:   c.Output.Predicates,
	}
}

// ResolvePaths makes relative rule paths relative to dir, the directory of
// the file they were read from.
func (c *Config) ResolvePaths(dir string) {
	for i, p := range c.Rules.Paths {
		if !filepath.IsAbs(p) {
			c.Rules.Paths[i] = filepath.Join(dir, p)
		}
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// parseLayer decodes YAML into an empty Config.
func parseLayer(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Namespace
	if other.Namespace.Base != "" {
		c.Namespace.Base = other.Namespace.Base
	}
	if len(other.Namespace.Prefixes) > 0 {
		if c.Namespace.Prefixes == nil {
			c.Namespace.Prefixes = make(map[string]string)
		}
		for k, v := range other.Namespace.Prefixes {
			c.Namespace.Prefixes[k] = v
		}
	}

	// Rules
	if len(other.Rules.Paths) > 0 {
		c.Rules.Paths = other.Rules.Paths
	}
	if other.Rules.ContinueOnError {
		c.Rules.ContinueOnError = true
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.KeepRel {
		c.Output.KeepRel = true
	}
	if other.Output.IgnoreGrammatical {
		c.Output.IgnoreGrammatical = true
	}
	if len(other.Output.Predicates) > 0 {
		c.Output.Predicates = other.Output.Predicates
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
