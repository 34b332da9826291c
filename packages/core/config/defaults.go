package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultTimeout      = 30000 // 30 seconds
	DefaultMaxRedirects = 10
	DefaultConcurrency  = 1
	DefaultOutput       = "console"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		MaxRedirects: DefaultMaxRedirects,
		Concurrency:  DefaultConcurrency,
		Output:       DefaultOutput,
		History:      DefaultHistoryPath(),
	}
}

// DefaultHistoryPath is ~/.curlspec/history.db, or a file in the working
// directory when no home directory is known.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".curlspec-history.db"
	}
	return filepath.Join(home, ".curlspec", "history.db")
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.DefaultEnvironment == defaults.DefaultEnvironment &&
		c.Timeout == defaults.Timeout &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.Rate == defaults.Rate &&
		c.Concurrency == defaults.Concurrency &&
		c.Output == defaults.Output &&
		c.History == defaults.History &&
		c.NoHistory == nil &&
		c.NoColor == nil &&
		c.Verbose == nil &&
		len(c.EnvFiles) == 0 &&
		len(c.Environments) == 0
}
