package dataprocessing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "oracletally/internal/errors"
	"oracletally/pkg/contracts/domain"
)

// Format is a fixture file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the fixture format from a file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".xlsx":
		return FormatXLSX, true
	default:
		return "", false
	}
}

// revealFixture is the on-disk shape of one reveal. A missing in_consensus
// means the host accepted the reveal.
type revealFixture struct {
	ExitCode    int    `json:"exit_code" yaml:"exit_code"`
	GasUsed     uint64 `json:"gas_used" yaml:"gas_used"`
	InConsensus *bool  `json:"in_consensus" yaml:"in_consensus"`
	Result      string `json:"result" yaml:"result"`
}

type batchFixture struct {
	RequestID string          `json:"request_id" yaml:"request_id"`
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Reveals   []revealFixture `json:"reveals" yaml:"reveals"`
}

func (f revealFixture) record() (domain.RevealRecord, error) {
	payload, err := DecodePayload(f.Result)
	if err != nil {
		return domain.RevealRecord{}, err
	}
	inConsensus := true
	if f.InConsensus != nil {
		inConsensus = *f.InConsensus
	}
	return domain.RevealRecord{
		ExitCode:    f.ExitCode,
		GasUsed:     f.GasUsed,
		InConsensus: inConsensus,
		Result:      payload,
	}, nil
}

func (f batchFixture) batch() (domain.RevealBatch, error) {
	batch := domain.RevealBatch{
		RequestID: f.RequestID,
		Symbol:    f.Symbol,
		Reveals:   make([]domain.RevealRecord, 0, len(f.Reveals)),
	}
	for i, rf := range f.Reveals {
		rec, err := rf.record()
		if err != nil {
			return domain.RevealBatch{}, fmt.Errorf("reveal %d: %w", i, err)
		}
		batch.Reveals = append(batch.Reveals, rec)
	}
	return batch, nil
}

// Fixture is a reveal batch together with the file it came from
type Fixture struct {
	Path  string
	Batch domain.RevealBatch
}

// Name returns the fixture file name without its extension
func (f Fixture) Name() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Loader reads recorded reveal batches from disk
type Loader struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewLoader creates a fixture loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "fixture_loader"),
	}
}

// Parse decodes a JSON or YAML fixture and validates the resulting batch
func (l *Loader) Parse(data []byte, format Format) (domain.RevealBatch, error) {
	var fx batchFixture
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fx); err != nil {
			return domain.RevealBatch{}, apperrors.NewParsingError("invalid JSON fixture", err)
		}
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, &fx); err != nil {
			return domain.RevealBatch{}, apperrors.NewParsingError("invalid YAML fixture", err)
		}
	default:
		return domain.RevealBatch{}, apperrors.NewParsingError(fmt.Sprintf("unsupported fixture format %q", format), nil)
	}

	batch, err := fx.batch()
	if err != nil {
		return domain.RevealBatch{}, apperrors.NewParsingError("invalid reveal payload", err)
	}
	return batch, l.check(batch)
}

func (l *Loader) check(batch domain.RevealBatch) error {
	if err := l.validate.Struct(batch); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "reveal batch violates contract", err)
	}
	return nil
}

// LoadFile reads one fixture file. The format follows the extension.
func (l *Loader) LoadFile(path string) (domain.RevealBatch, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return domain.RevealBatch{}, apperrors.NewParsingError("unrecognised fixture extension", nil).
			WithContext("path", path)
	}

	if format == FormatXLSX {
		batch, err := ReadWorkbook(path)
		if err != nil {
			return domain.RevealBatch{}, err
		}
		return batch, l.check(batch)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RevealBatch{}, apperrors.NewStorageError("failed to read fixture", err).
			WithContext("path", path)
	}

	batch, err := l.Parse(data, format)
	if err != nil {
		return domain.RevealBatch{}, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Debug("fixture loaded",
		"path", path,
		"symbol", batch.Symbol,
		"reveals", batch.Len(),
	)
	return batch, nil
}

// LoadDir loads every fixture in dir in file name order. Files with other
// extensions and subdirectories are skipped.
func (l *Loader) LoadDir(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read fixture directory", err).
			WithContext("dir", dir)
	}

	var fixtures []Fixture
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FormatFromPath(entry.Name()); !ok {
			l.logger.Debug("skipping non-fixture file", "name", entry.Name())
			continue
		}

		path := filepath.Join(dir, entry.Name())
		batch, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, Fixture{Path: path, Batch: batch})
	}

	l.logger.Info("fixtures loaded", "dir", dir, "count", len(fixtures))
	return fixtures, nil
}

// Batches returns the batches of fixtures in order
func Batches(fixtures []Fixture) []domain.RevealBatch {
	out := make([]domain.RevealBatch, len(fixtures))
	for i, f := range fixtures {
		out[i] = f.Batch
	}
	return out
}
