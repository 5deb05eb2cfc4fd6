package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracletally/internal/tally"
)

// clearTallyEnv unsets every TALLY_* variable for the duration of the test
func clearTallyEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		content     string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
				assert.Equal(t, tally.DefaultParams(), cfg.Params())
			},
		},
		{
			name: "yaml file",
			file: "tally.yaml",
			content: `
engine:
  bootstrap_resamples: 50
  fallback_price: 1000000
logging:
  level: debug
replay:
  concurrency: 8
  export_format: both
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 50, cfg.Engine.BootstrapResamples)
				assert.Equal(t, uint64(1_000_000), cfg.Engine.FallbackPrice)
				assert.Equal(t, tally.MaxPrice, cfg.Engine.MaxPrice, "absent keys keep defaults")
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, 8, cfg.Replay.Concurrency)
				assert.Equal(t, "both", cfg.Replay.ExportFormat)
			},
		},
		{
			name: "toml file",
			file: "tally.toml",
			content: `
[engine]
bootstrap_resamples = 0

[telemetry]
tracing_enabled = true
trace_exporter = "stdout"
metrics_textfile = "metrics/tally.prom"
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Zero(t, cfg.Engine.BootstrapResamples)
				assert.True(t, cfg.Telemetry.TracingEnabled)
				assert.True(t, cfg.Telemetry.MetricsEnabled)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
				assert.Equal(t, "metrics/tally.prom", cfg.Telemetry.MetricsTextfile)
			},
		},
		{
			name: "environment overrides file",
			env: map[string]string{
				"TALLY_LOGGING_LEVEL":            "warn",
				"TALLY_REPLAY_CONCURRENCY":       "2",
				"TALLY_ENGINE_MIN_PRICE":         "100",
				"TALLY_TELEMETRY_TRACE_EXPORTER": "stdout",
			},
			file: "tally.yml",
			content: `
logging:
  level: debug
replay:
  concurrency: 16
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, 2, cfg.Replay.Concurrency)
				assert.Equal(t, uint64(100), cfg.Engine.MinPrice)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name:    "unknown yaml key",
			file:    "tally.yaml",
			content: "engine:\n  bootstrap: 10\n",
			wantErr: "failed to load config from file",
		},
		{
			name:    "unknown toml key",
			file:    "tally.toml",
			content: "[engine]\nresamples = 10\n",
			wantErr: "unknown keys",
		},
		{
			name:    "unsupported extension",
			file:    "tally.json",
			content: "{}",
			wantErr: "unsupported config format",
		},
		{
			name:    "malformed environment value",
			env:     map[string]string{"TALLY_REPLAY_CONCURRENCY": "many"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "invalid merged value",
			env:     map[string]string{"TALLY_LOGGING_LEVEL": "verbose"},
			wantErr: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTallyEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.content)
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearTallyEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// TestValidate tests constraint checking on the merged configuration
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero min price", mutate: func(c *Config) { c.Engine.MinPrice = 0 }, wantErr: "MinPrice"},
		{name: "inverted bounds", mutate: func(c *Config) { c.Engine.MaxPrice = 10; c.Engine.MinPrice = 20 }, wantErr: "MaxPrice"},
		{name: "max price above engine cap", mutate: func(c *Config) { c.Engine.MaxPrice = tally.MaxPrice + 1 }, wantErr: "MaxPrice"},
		{name: "max price at engine cap", mutate: func(c *Config) { c.Engine.MaxPrice = tally.MaxPrice }},
		{name: "too many resamples", mutate: func(c *Config) { c.Engine.BootstrapResamples = 10_001 }, wantErr: "BootstrapResamples"},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "Format"},
		{name: "file output without path", mutate: func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, wantErr: "FilePath"},
		{name: "console output without path", mutate: func(c *Config) { c.Logging.FilePath = "" }},
		{name: "unknown trace exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, wantErr: "TraceExporter"},
		{name: "no workers", mutate: func(c *Config) { c.Replay.Concurrency = 0 }, wantErr: "Concurrency"},
		{name: "unknown export", mutate: func(c *Config) { c.Replay.ExportFormat = "pdf" }, wantErr: "ExportFormat"},
		{name: "empty output dir", mutate: func(c *Config) { c.Replay.OutputDir = "" }, wantErr: "OutputDir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	cfg.Replay.Concurrency = 100

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Logging.Level")
	assert.Contains(t, err.Error(), "Config.Replay.Concurrency")
}

func TestParams(t *testing.T) {
	cfg := Default()
	cfg.Engine.FallbackPrice = 42
	cfg.Engine.BootstrapResamples = 10

	params := cfg.Params()
	assert.Equal(t, uint64(42), params.FallbackPrice)
	assert.Equal(t, 10, params.BootstrapResamples)
	assert.True(t, params.IsValid())
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Replay.OutputDir = filepath.Join(dir, "out")
	cfg.Logging.Output = "both"
	cfg.Logging.FilePath = filepath.Join(dir, "logs", "tally.log")
	cfg.Telemetry.MetricsTextfile = filepath.Join(dir, "metrics", "tally.prom")

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", ResultsCSVFile), paths.ResultsCSV)
	assert.Equal(t, filepath.Join(dir, "out", ResultsXLSXFile), paths.ResultsXLSX)
	assert.Equal(t, cfg.Logging.FilePath, paths.LogFile)

	require.NoError(t, paths.EnsureDirectories())
	for _, sub := range []string{"out", "logs", "metrics"} {
		assert.True(t, FileExists(filepath.Join(dir, sub)), sub)
	}
}

func TestResolvePathsConsoleOnly(t *testing.T) {
	paths, err := Default().ResolvePaths()
	require.NoError(t, err)
	assert.Empty(t, paths.LogFile)
	assert.Empty(t, paths.MetricsTextfile)
	assert.True(t, filepath.IsAbs(paths.OutputDir))
}
