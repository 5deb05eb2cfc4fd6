package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved output locations for a replay run
type Paths struct {
	OutputDir       string
	LogFile         string
	ResultsCSV      string
	ResultsXLSX     string
	MetricsTextfile string
}

// ResolvePaths makes every configured path absolute. Relative paths are
// taken from the working directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	outputDir, err := filepath.Abs(c.Replay.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output dir %q: %w", c.Replay.OutputDir, err)
	}

	paths := &Paths{
		OutputDir:   outputDir,
		ResultsCSV:  filepath.Join(outputDir, ResultsCSVFile),
		ResultsXLSX: filepath.Join(outputDir, ResultsXLSXFile),
	}

	if c.Logging.Output != "console" {
		if paths.LogFile, err = filepath.Abs(c.Logging.FilePath); err != nil {
			return nil, fmt.Errorf("failed to resolve log file %q: %w", c.Logging.FilePath, err)
		}
	}
	if c.Telemetry.MetricsTextfile != "" {
		if paths.MetricsTextfile, err = filepath.Abs(c.Telemetry.MetricsTextfile); err != nil {
			return nil, fmt.Errorf("failed to resolve metrics textfile %q: %w", c.Telemetry.MetricsTextfile, err)
		}
	}
	return paths, nil
}

// EnsureDirectories creates the directories the run writes into
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.OutputDir}
	if p.LogFile != "" {
		directories = append(directories, filepath.Dir(p.LogFile))
	}
	if p.MetricsTextfile != "" {
		directories = append(directories, filepath.Dir(p.MetricsTextfile))
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
