package config

import (
	"fmt"

	"github.com/kbukum/voicekit/capture"
	"github.com/kbukum/voicekit/engine"
	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/transcribe"
	"github.com/kbukum/voicekit/validation"
)

// AppConfig identifies the running application.
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"omitempty,oneof=development staging production"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults fills in zero-value fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "voicekit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// HistoryConfig bounds the transcription result history.
type HistoryConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit" validate:"omitempty,gte=1,lte=200"`
}

// ApplyDefaults fills in zero-value fields.
func (c *HistoryConfig) ApplyDefaults() {
	if c.Limit == 0 {
		c.Limit = engine.DefaultHistoryLimit
	}
}

// TelemetryConfig controls the optional OTLP trace and metric export.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills in zero-value fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Config is the full application configuration.
type Config struct {
	App       AppConfig         `yaml:"app" mapstructure:"app"`
	Logging   logger.Config     `yaml:"logging" mapstructure:"logging"`
	Backend   transcribe.Config `yaml:"backend" mapstructure:"backend"`
	Capture   capture.Config    `yaml:"capture" mapstructure:"capture"`
	History   HistoryConfig     `yaml:"history" mapstructure:"history"`
	Telemetry TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills in zero-value fields across every section.
func (c *Config) ApplyDefaults() {
	c.App.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Backend.ApplyDefaults()
	c.Capture.ApplyDefaults()
	c.History.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks the configuration. Call ApplyDefaults first; the
// checks assume defaults have been filled in.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
