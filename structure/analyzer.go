// Package structure discovers the fillable fields of a document. It walks a
// decoded workbook or word-processing document, classifies text as labels,
// and resolves where each label's value belongs.
//
// Analysis is deterministic: field IDs are derived from coordinates, so the
// same bytes always produce the same field map.
package structure

import (
	"errors"
	"fmt"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/docx"
	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/xlsx"
)

// ErrStructureAnalysis is wrapped by every decode failure of Analyze.
var ErrStructureAnalysis = errors.New("structure analysis failed")

// Config holds analyzer configuration.
type Config struct {
	// Grid scan window. Cells outside it are never inspected.
	MaxRows int
	MaxCols int

	// How far the grid resolver looks for a value slot.
	RightScan int
	BelowScan int

	// Rules classifies text. Nil means classify.Default.
	Rules *classify.Rules
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxRows:   200,
		MaxCols:   50,
		RightScan: 3,
		BelowScan: 2,
	}
}

// Analyzer builds field maps. It holds no per-document state and may be used
// from multiple goroutines.
type Analyzer struct {
	cfg   Config
	rules *classify.Rules
}

// New returns an Analyzer. Non-positive limits fall back to the defaults.
func New(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = def.MaxRows
	}
	if cfg.MaxCols <= 0 {
		cfg.MaxCols = def.MaxCols
	}
	if cfg.RightScan <= 0 {
		cfg.RightScan = def.RightScan
	}
	if cfg.BelowScan <= 0 {
		cfg.BelowScan = def.BelowScan
	}
	rules := cfg.Rules
	if rules == nil {
		rules = classify.Default
	}
	return &Analyzer{cfg: cfg, rules: rules}
}

var defaultAnalyzer = New(DefaultConfig())

// Analyze decodes data as the given format and returns its field map.
func Analyze(data []byte, f format.Format) (model.FieldMap, error) {
	return defaultAnalyzer.Analyze(data, f)
}

// Analyze decodes data as the given format and returns its field map.
// Decode failures wrap ErrStructureAnalysis; no partial map is returned.
func (a *Analyzer) Analyze(data []byte, f format.Format) (model.FieldMap, error) {
	switch f {
	case format.XLSX:
		r, err := xlsx.OpenBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStructureAnalysis, err)
		}
		return a.Workbook(r), nil
	case format.DOCX:
		d, err := docx.OpenBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStructureAnalysis, err)
		}
		return a.Document(d), nil
	default:
		return nil, fmt.Errorf("%w: %s", format.ErrUnsupportedFormat, f)
	}
}
