package bridge

import (
	"github.com/hazyhaar/designbridge/bridge/internal/config"
)

// Config is the top-level bridge configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls the Chrome instance hosting the editor.
type BrowserConfig = config.BrowserConfig

// BundleConfig locates the packaged editor application.
type BundleConfig = config.BundleConfig

// DocumentConfig selects the initial document.
type DocumentConfig = config.DocumentConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// Sink types.
const (
	SinkStdout  = config.SinkStdout
	SinkWebhook = config.SinkWebhook
	SinkSQLite  = config.SinkSQLite
	SinkFiles   = config.SinkFiles
)

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
