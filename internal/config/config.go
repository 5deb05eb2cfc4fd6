package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"oracletally/internal/tally"
)

// EnvPrefix prefixes every environment variable, e.g. TALLY_LOGGING_LEVEL.
const EnvPrefix = "TALLY"

// Config represents the complete application configuration
type Config struct {
	Engine    EngineConfig    `yaml:"engine" toml:"engine" envconfig:"ENGINE"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry" envconfig:"TELEMETRY"`
	Replay    ReplayConfig    `yaml:"replay" toml:"replay" envconfig:"REPLAY"`
}

// EngineConfig holds the tally parameters. Every node answering the same
// request must run with identical values.
type EngineConfig struct {
	MinPrice           uint64 `yaml:"min_price" toml:"min_price" envconfig:"MIN_PRICE" validate:"min=1"`
	MaxPrice           uint64 `yaml:"max_price" toml:"max_price" envconfig:"MAX_PRICE" validate:"gtefield=MinPrice,max=1000000000000"`
	FallbackPrice      uint64 `yaml:"fallback_price" toml:"fallback_price" envconfig:"FALLBACK_PRICE"`
	BootstrapResamples int    `yaml:"bootstrap_resamples" toml:"bootstrap_resamples" envconfig:"BOOTSTRAP_RESAMPLES" validate:"min=0,max=10000"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" toml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" toml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" toml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" toml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" toml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TracingEnabled  bool   `yaml:"tracing_enabled" toml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled  bool   `yaml:"metrics_enabled" toml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TraceExporter   string `yaml:"trace_exporter" toml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricsTextfile string `yaml:"metrics_textfile" toml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// ReplayConfig controls batch replay and audit export
type ReplayConfig struct {
	Concurrency  int    `yaml:"concurrency" toml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
	ExportFormat string `yaml:"export_format" toml:"export_format" envconfig:"EXPORT_FORMAT" validate:"oneof=csv xlsx both none"`
	OutputDir    string `yaml:"output_dir" toml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in increasing precedence. An empty path skips the file
// unless one is found in a well-known location.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags: only variables that are set override the file.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile decodes a YAML or TOML file over cfg. Keys absent from the
// file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		return yaml.UnmarshalStrict(data, cfg)
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys in %s: %v", filePath, undecoded)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

// getConfigFilePath returns the first config file found in the working directory
func getConfigFilePath() string {
	locations := []string{
		"tally.yaml",
		"tally.yml",
		"tally.toml",
		"configs/tally.yaml",
		"configs/tally.toml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Params converts the engine section into tally parameters
func (c *Config) Params() tally.Params {
	return tally.Params{
		MinPrice:           c.Engine.MinPrice,
		MaxPrice:           c.Engine.MaxPrice,
		FallbackPrice:      c.Engine.FallbackPrice,
		BootstrapResamples: c.Engine.BootstrapResamples,
	}
}

// Default returns default configuration
func Default() *Config {
	params := tally.DefaultParams()
	return &Config{
		Engine: EngineConfig{
			MinPrice:           params.MinPrice,
			MaxPrice:           params.MaxPrice,
			FallbackPrice:      params.FallbackPrice,
			BootstrapResamples: params.BootstrapResamples,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TracingEnabled: false,
			MetricsEnabled: true,
			TraceExporter:  "none",
		},
		Replay: ReplayConfig{
			Concurrency:  DefaultReplayConcurrency,
			ExportFormat: "csv",
			OutputDir:    DefaultReportsDir,
		},
	}
}
