// Package formfill discovers the fillable fields of inspection forms and
// writes values into them without disturbing anything else in the file.
//
// Forms are XLSX workbooks (grid documents) or DOCX documents (flow
// documents). Analysis returns a field position map: every label found in
// the document and the coordinate its value belongs in.
//
// Basic usage:
//
//	fields, err := formfill.Open("monthly-check.xlsx").Fields()
//	if err != nil {
//	    // handle error
//	}
//	for _, f := range fields {
//	    fmt.Println(f.FieldID, f.FieldName, f.FieldType)
//	}
//
// Filling:
//
//	out, err := formfill.Open("monthly-check.xlsx").Fill(values)
//
// For template storage, mapping suggestions and report generation use
// Service.
package formfill

import (
	"github.com/tsawler/formfill/fill"
	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/structure"
)

// Analyze returns the field position map of data. Decode failures wrap
// structure.ErrStructureAnalysis; other formats return
// format.ErrUnsupportedFormat.
func Analyze(data []byte, f format.Format) (model.FieldMap, error) {
	return structure.Analyze(data, f)
}

// ResolvePreview joins fields with values and reports what a fill would do.
// It never fails.
func ResolvePreview(fields model.FieldMap, values []model.FillValue) model.PreviewResult {
	return fill.Preview(fields, values)
}

// Fill writes values into a copy of data at the slots recorded in fields.
func Fill(data []byte, f format.Format, fields model.FieldMap, values []model.FillValue) ([]byte, error) {
	return fill.Fill(data, f, fields, values)
}

// Open returns a Form reading filename. The file is read lazily by the first
// terminal operation.
//
// Example:
//
//	fields, err := formfill.Open("form.docx").Fields()
func Open(filename string) *Form {
	return &Form{
		filename: filename,
		format:   format.Detect(filename),
		options:  defaultOptions(),
	}
}

// FromBytes returns a Form over data. An Unknown format is detected from the
// content.
//
// Example:
//
//	fields, err := formfill.FromBytes(upload, format.Unknown).Fields()
func FromBytes(data []byte, f format.Format) *Form {
	form := &Form{
		data:    data,
		format:  f,
		loaded:  true,
		options: defaultOptions(),
	}
	if f == format.Unknown {
		form.format, form.err = format.DetectBytes(data)
	}
	return form
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	fields := formfill.Must(formfill.Open("form.xlsx").Fields())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
