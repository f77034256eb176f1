// Package config loads exporter settings and presets.
package config

import (
	wire "github.com/flywave/go-wire"
	"github.com/flywave/go-wire/internal/logger"
)

// Config holds every wirexport setting.
type Config struct {
	Export  wire.ExportOptions `yaml:"export" toml:"export"`
	Logging LoggingConfig      `yaml:"logging" toml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string            `yaml:"level" toml:"level"`
	File  logger.FileConfig `yaml:"file" toml:"file"`
}

// Default returns the exporter defaults.
func Default() *Config {
	return &Config{
		Export: wire.DefaultExportOptions(),
		Logging: LoggingConfig{
			Level: "info",
			File:  logger.DefaultFileConfig(""),
		},
	}
}

// ExportOptions returns a copy of the export section.
func (c *Config) ExportOptions() wire.ExportOptions {
	return c.Export
}

// Validate checks the export section.
func (c *Config) Validate() error {
	return c.Export.Validate()
}
