// Package config provides configuration management for the tally tools.
// It handles loading configuration from multiple sources, validation, and
// conversion into engine parameters.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML or TOML, chosen by extension)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern TALLY_<SECTION>_<KEY>:
//
//	TALLY_ENGINE_BOOTSTRAP_RESAMPLES=200
//	TALLY_ENGINE_FALLBACK_PRICE=0
//	TALLY_LOGGING_LEVEL=debug
//	TALLY_TELEMETRY_TRACE_EXPORTER=stdout
//	TALLY_REPLAY_CONCURRENCY=8
//
// # Configuration File
//
//	engine:
//	  bootstrap_resamples: 200
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/tally.log
//	replay:
//	  export_format: both
//	  output_dir: reports
//
// Unknown keys are rejected so a typo cannot silently change engine parameters.
//
// # Validation
//
// The merged configuration is validated with struct tags. Engine bounds must
// be ordered, enumerations must use known values and replay concurrency is
// limited to 64 workers.
//
// # Usage
//
//	cfg, err := config.Load(configPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := tally.New(cfg.Params(), logger)
package config
