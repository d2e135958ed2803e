// CLAUDE:SUMMARY Defines bridge config structs and parses YAML configuration files with defaults.
// Package config handles bridge configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level bridge configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Bundle   BundleConfig   `yaml:"bundle"`
	Document DocumentConfig `yaml:"document"`
	Sinks    []SinkConfig   `yaml:"sinks"`
	HTTP     HTTPConfig     `yaml:"http"`
	Probe    *bool          `yaml:"probe"`
}

// BrowserConfig controls the Chrome instance hosting the editor.
type BrowserConfig struct {
	Remote            string        `yaml:"remote"` // ws URL; empty = launch locally
	Headless          *bool         `yaml:"headless"`
	Stealth           *bool         `yaml:"stealth"`
	CapabilityVersion int           `yaml:"capability_version"`
	UniversalAccess   bool          `yaml:"universal_access"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
}

// BundleConfig locates the packaged editor application.
type BundleConfig struct {
	Dir   string `yaml:"dir"`
	Index string `yaml:"index"`
	Watch bool   `yaml:"watch"`
}

// DocumentConfig selects the initial document.
type DocumentConfig struct {
	Path       string `yaml:"path"` // empty = built-in sample
	EntryPoint string `yaml:"entry_point"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | sqlite | files
	URL  string `yaml:"url"`  // for webhook
	Path string `yaml:"path"` // sqlite database or files directory

	// Diagnostics also posts console and probe events to a webhook.
	Diagnostics bool `yaml:"diagnostics"`
}

// HTTPConfig controls the optional local status endpoint.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Sink types accepted in SinkConfig.Type.
const (
	SinkStdout  = "stdout"
	SinkWebhook = "webhook"
	SinkSQLite  = "sqlite"
	SinkFiles   = "files"
)

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.Headless == nil {
		c.Browser.Headless = boolPtr(true)
	}
	if c.Browser.Stealth == nil {
		c.Browser.Stealth = boolPtr(true)
	}
	if c.Browser.CapabilityVersion <= 0 {
		c.Browser.CapabilityVersion = 1
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
	if c.Bundle.Dir == "" {
		c.Bundle.Dir = "./editor"
	}
	if c.Bundle.Index == "" {
		c.Bundle.Index = "index.html"
	}
	if c.Document.EntryPoint == "" {
		c.Document.EntryPoint = "__polotnoReceiveInitialDoc"
	}
	if c.Probe == nil {
		c.Probe = boolPtr(true)
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: SinkStdout}}
	}
}

func (c *Config) validate() error {
	for i, s := range c.Sinks {
		switch s.Type {
		case SinkStdout:
		case SinkWebhook:
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook requires url", i)
			}
		case SinkSQLite, SinkFiles:
			if s.Path == "" {
				return fmt.Errorf("config: sinks[%d]: %s requires path", i, s.Type)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}

// IsHeadless reports the effective headless setting.
func (b BrowserConfig) IsHeadless() bool { return b.Headless == nil || *b.Headless }

// UseStealth reports the effective stealth setting.
func (b BrowserConfig) UseStealth() bool { return b.Stealth == nil || *b.Stealth }

// ProbeEnabled reports whether the diagnostic probe runs.
func (c *Config) ProbeEnabled() bool { return c.Probe == nil || *c.Probe }

// SetHeadless overrides the headless setting, e.g. from a CLI flag.
func (b *BrowserConfig) SetHeadless(v bool) { b.Headless = boolPtr(v) }

func boolPtr(v bool) *bool { return &v }
