package formfill

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/fill"
	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/structure"
)

// Form provides a fluent interface over one XLSX or DOCX form.
// Each configuration method returns a new Form, so a configured Form can be
// shared; the lazy file read of a Form from Open is not synchronized, so
// call a terminal operation once before sharing it between goroutines.
type Form struct {
	// Source
	filename string
	format   format.Format

	// Content, read on first use
	data   []byte
	loaded bool

	// Configuration
	options formOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a copy of the Form with copied options.
func (f *Form) clone() *Form {
	return &Form{
		filename: f.filename,
		format:   f.format,
		data:     f.data,
		loaded:   f.loaded,
		options:  f.options.clone(),
		err:      f.err,
	}
}

// ensureLoaded reads the file and checks its content against its extension.
func (f *Form) ensureLoaded() error {
	if f.err != nil {
		return f.err
	}
	if f.loaded {
		return nil
	}
	if f.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	data, err := os.ReadFile(f.filename)
	if err != nil {
		return fmt.Errorf("reading form: %w", err)
	}
	ft, err := format.Resolve(f.filename, data)
	if err != nil {
		f.err = err
		return err
	}
	f.data = data
	f.format = ft
	f.loaded = true
	return nil
}

// ============================================================================
// Configuration Methods (return new Form instance)
// ============================================================================

// Rules sets the classifier used to find labels and guess field types.
//
// Example:
//
//	rules := classify.New(classify.WithLabelKeywords([]string{"品名", "日期"}))
//	fields, err := formfill.Open("form.xlsx").Rules(rules).Fields()
func (f *Form) Rules(r *classify.Rules) *Form {
	nf := f.clone()
	if r != nil {
		nf.options.rules = r
	}
	return nf
}

// LowConfidence sets the confidence below which Preview warns.
func (f *Form) LowConfidence(threshold float64) *Form {
	nf := f.clone()
	nf.options.lowConfidence = threshold
	return nf
}

// Logger sets the logger that receives skipped write targets.
func (f *Form) Logger(l *slog.Logger) *Form {
	nf := f.clone()
	if l != nil {
		nf.options.logger = l
	}
	return nf
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Format returns the form's format after checking its content.
func (f *Form) Format() (format.Format, error) {
	if err := f.ensureLoaded(); err != nil {
		return format.Unknown, err
	}
	return f.format, nil
}

// Bytes returns the form's content.
func (f *Form) Bytes() ([]byte, error) {
	if err := f.ensureLoaded(); err != nil {
		return nil, err
	}
	return f.data, nil
}

// Fields analyses the form and returns its field position map.
func (f *Form) Fields() (model.FieldMap, error) {
	if err := f.ensureLoaded(); err != nil {
		return nil, err
	}
	a := structure.New(structure.Config{Rules: f.options.rules})
	return a.Analyze(f.data, f.format)
}

// Preview analyses the form and reports what filling values would do.
func (f *Form) Preview(values []model.FillValue) (model.PreviewResult, error) {
	fields, err := f.Fields()
	if err != nil {
		return model.PreviewResult{}, err
	}
	return fill.PreviewWithThreshold(fields, values, f.options.lowConfidence), nil
}

// Fill analyses the form and returns a copy with values written into it.
func (f *Form) Fill(values []model.FillValue) ([]byte, error) {
	fields, err := f.Fields()
	if err != nil {
		return nil, err
	}
	return f.FillFields(fields, values)
}

// FillFields writes values at the slots of an existing field map, skipping
// analysis. Use it with a map that was analysed earlier and then stored.
func (f *Form) FillFields(fields model.FieldMap, values []model.FillValue) ([]byte, error) {
	if err := f.ensureLoaded(); err != nil {
		return nil, err
	}
	w := fill.NewWriter(fill.WithLogger(f.options.logger))
	return w.Fill(f.data, f.format, fields, values)
}
