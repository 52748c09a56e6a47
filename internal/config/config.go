// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"cleanquote/core/types"
	"cleanquote/internal/logging"
)

// EnvPrefix is the prefix for environment variable overrides (CLEANQUOTE_PRICING_SOURCE, ...)
const EnvPrefix = "CLEANQUOTE"

// Pricing config source kinds
const (
	SourceDefaults = "defaults"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceStore    = "store"
	SourceStatic   = "static"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" mapstructure:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing" mapstructure:"pricing"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Output contains output configuration
	Output OutputConfig `json:"output" mapstructure:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" mapstructure:"logging"`
}

// PricingConfig selects where active rate documents come from
type PricingConfig struct {
	// Source is one of defaults, static, file, http, store
	Source string `json:"source" mapstructure:"source"`

	// RatesDir holds <service>.hcl rate cards for the file source
	RatesDir string `json:"rates_dir" mapstructure:"rates_dir"`

	// ServiceURL is the base URL of the configuration service for the http source
	ServiceURL string `json:"service_url" mapstructure:"service_url"`

	// DatabasePath is the sqlite file for the store source and the server
	DatabasePath string `json:"database_path" mapstructure:"database_path"`

	// FetchTimeoutSeconds bounds a single config fetch
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds" mapstructure:"fetch_timeout_seconds"`

	// RetryAttempts is the total number of attempts for transient fetch errors
	RetryAttempts int `json:"retry_attempts" mapstructure:"retry_attempts"`

	// Currency is the quote currency
	Currency types.Currency `json:"currency" mapstructure:"currency"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Address to listen on
	Address string `json:"address" mapstructure:"address"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" mapstructure:"default_format"`

	// ShowLineItems prints each service's line items
	ShowLineItems bool `json:"show_line_items" mapstructure:"show_line_items"`

	// NoColor disables ANSI colours
	NoColor bool `json:"no_color" mapstructure:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".cleanquote")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Source:              SourceDefaults,
			RatesDir:            filepath.Join(baseDir, "ratecards"),
			ServiceURL:          "http://localhost:8080",
			DatabasePath:        filepath.Join(baseDir, "pricing.db"),
			FetchTimeoutSeconds: 10,
			RetryAttempts:       3,
			Currency:            types.CurrencyUSD,
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowLineItems: false,
			NoColor:       false,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file (JSON or YAML), then applies
// CLEANQUOTE_* environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, eris.Wrapf(err, "config: read %s", path)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("pricing.source", d.Pricing.Source)
	v.SetDefault("pricing.rates_dir", d.Pricing.RatesDir)
	v.SetDefault("pricing.service_url", d.Pricing.ServiceURL)
	v.SetDefault("pricing.database_path", d.Pricing.DatabasePath)
	v.SetDefault("pricing.fetch_timeout_seconds", d.Pricing.FetchTimeoutSeconds)
	v.SetDefault("pricing.retry_attempts", d.Pricing.RetryAttempts)
	v.SetDefault("pricing.currency", string(d.Pricing.Currency))
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("output.default_format", d.Output.DefaultFormat)
	v.SetDefault("output.show_line_items", d.Output.ShowLineItems)
	v.SetDefault("output.no_color", d.Output.NoColor)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.development", d.Logging.Development)
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrap(err, "config: create directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return eris.Wrap(err, "config: marshal")
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
