// Package store persists templates and generated reports behind a small
// repository interface, so analysis and filling never depend on a storage
// technology.
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/model"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Record is a storable value. Clone returns a copy that shares no mutable
// state with the receiver.
type Record[T any] interface {
	RecordID() string
	Clone() T
}

// Repository stores records by ID.
type Repository[T Record[T]] interface {
	Get(ctx context.Context, id string) (T, error)
	Put(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
	// List returns records in insertion order.
	List(ctx context.Context) ([]T, error)
}

// Template is an analysed vendor template and the original file it came
// from.
type Template struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	VendorName  string         `json:"vendor_name"`
	Format      format.Format  `json:"file_type"`
	Description string         `json:"description,omitempty"`
	Fields      model.FieldMap `json:"fields"`
	Content     []byte         `json:"file_content"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RecordID implements Record.
func (t Template) RecordID() string { return t.ID }

// Clone implements Record.
func (t Template) Clone() Template {
	c := t
	c.Fields = cloneFields(t.Fields)
	c.Content = slices.Clone(t.Content)
	return c
}

// ReportStatus is the outcome of report generation.
type ReportStatus string

const (
	StatusCompleted ReportStatus = "completed"
	StatusFailed    ReportStatus = "failed"
)

// Report is a filled template.
type Report struct {
	ID         string        `json:"id"`
	TemplateID string        `json:"template_id"`
	Status     ReportStatus  `json:"status"`
	Error      string        `json:"error,omitempty"`
	Format     format.Format `json:"file_type"`
	Content    []byte        `json:"content,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// RecordID implements Record.
func (r Report) RecordID() string { return r.ID }

// Clone implements Record.
func (r Report) Clone() Report {
	c := r
	c.Content = slices.Clone(r.Content)
	c.Warnings = slices.Clone(r.Warnings)
	return c
}

func cloneFields(fields model.FieldMap) model.FieldMap {
	if fields == nil {
		return nil
	}
	out := make(model.FieldMap, len(fields))
	for i, f := range fields {
		if f.ValueLocation != nil {
			v := *f.ValueLocation
			f.ValueLocation = &v
		}
		if f.MergeInfo != nil {
			m := *f.MergeInfo
			f.MergeInfo = &m
		}
		out[i] = f
	}
	return out
}
