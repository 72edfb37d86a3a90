package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
aws:
  region: us-east-2
  profile: research

launch:
  default_security_group: sg-111
  micro_instance_type: t3.micro
  override_region: eu-west-1
  override_security_group: sg-222
  machines_file: /tmp/machines

otel:
  endpoint: localhost:4317
  insecure: true
  service_name: launcher
  traces:
    enabled: true
    sample_rate: 0.5
  metrics:
    enabled: true

log:
  level: debug
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "us-east-2", cfg.AWS.Region)
	assert.Equal(t, "research", cfg.AWS.Profile)
	assert.Equal(t, "sg-111", cfg.Launch.DefaultSecurityGroup)
	assert.Equal(t, "t3.micro", cfg.Launch.MicroInstanceType)
	assert.Equal(t, "eu-west-1", cfg.Launch.OverrideRegion)
	assert.Equal(t, "sg-222", cfg.Launch.OverrideSecurityGroup)
	assert.Equal(t, "/tmp/machines", cfg.Launch.MachinesFile)
	assert.Equal(t, "localhost:4317", cfg.OTEL.Endpoint)
	assert.True(t, cfg.OTEL.Insecure)
	assert.Equal(t, "launcher", cfg.OTEL.ServiceName)
	assert.True(t, cfg.OTEL.Traces.Enabled)
	assert.Equal(t, 0.5, cfg.OTEL.Traces.SampleRate)
	assert.True(t, cfg.OTEL.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, "aws:\n  region: us-east-1\n")
	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "sg-0a98f6952f8c78610", cfg.Launch.DefaultSecurityGroup)
	assert.Equal(t, "t2.micro", cfg.Launch.MicroInstanceType)
	assert.Equal(t, "us-east-2", cfg.Launch.OverrideRegion)
	assert.Equal(t, "sg-098524cf5a5d0011f", cfg.Launch.OverrideSecurityGroup)
	assert.Equal(t, "ec2man/machines", cfg.Launch.MachinesFile)
	assert.Equal(t, "ec2man", cfg.OTEL.ServiceName)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ec2man/machines", cfg.Launch.MachinesFile)
	assert.Empty(t, cfg.AWS.Region)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "aws: [region\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestConfig_Validate_SampleRate(t *testing.T) {
	cfg := Default()
	cfg.OTEL.Traces.SampleRate = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_rate")
}

func TestConfig_Validate_LogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log")
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}
