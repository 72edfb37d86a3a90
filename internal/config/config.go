// Package config handles YAML configuration for ec2man.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	AWS    AWSConfig    `yaml:"aws"`
	Launch LaunchConfig `yaml:"launch"`
	OTEL   OTELConfig   `yaml:"otel"`
	Log    LogConfig    `yaml:"log"`
}

// AWSConfig holds AWS provider settings.
type AWSConfig struct {
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// LaunchConfig holds the launch policy literals and the machines file location.
type LaunchConfig struct {
	DefaultSecurityGroup  string `yaml:"default_security_group"`
	MicroInstanceType     string `yaml:"micro_instance_type"`
	OverrideRegion        string `yaml:"override_region"`
	OverrideSecurityGroup string `yaml:"override_security_group"`
	MachinesFile          string `yaml:"machines_file"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Insecure    bool          `yaml:"insecure"`
	ServiceName string        `yaml:"service_name"`
	Traces      TracesConfig  `yaml:"traces"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sample_rate"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Launch.DefaultSecurityGroup == "" {
		cfg.Launch.DefaultSecurityGroup = "sg-0a98f6952f8c78610"
	}
	if cfg.Launch.MicroInstanceType == "" {
		cfg.Launch.MicroInstanceType = "t2.micro"
	}
	if cfg.Launch.OverrideRegion == "" {
		cfg.Launch.OverrideRegion = "us-east-2"
	}
	if cfg.Launch.OverrideSecurityGroup == "" {
		cfg.Launch.OverrideSecurityGroup = "sg-098524cf5a5d0011f"
	}
	if cfg.Launch.MachinesFile == "" {
		cfg.Launch.MachinesFile = "ec2man/machines"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "ec2man"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
