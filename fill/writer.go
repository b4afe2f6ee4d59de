package fill

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/docx"
	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/structure"
	"github.com/tsawler/formfill/xlsx"
)

// Writer fills documents. It keeps no document state between calls; each
// Fill decodes the given bytes and returns new ones.
type Writer struct {
	logger *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger that receives skipped targets.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter returns a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Fill writes values into a copy of data using a default Writer.
func Fill(data []byte, f format.Format, fields model.FieldMap, values []model.FillValue) ([]byte, error) {
	return NewWriter().Fill(data, f, fields, values)
}

// Fill writes values into a copy of data. Values without a matching field
// or a usable target are skipped and logged; the document is still returned.
// Decode failures wrap structure.ErrStructureAnalysis.
func (w *Writer) Fill(data []byte, f format.Format, fields model.FieldMap, values []model.FillValue) ([]byte, error) {
	var (
		out []byte
		n   int
		err error
	)
	switch {
	case f.IsGrid():
		out, n, err = w.fillWorkbook(data, fields.Index(), values)
	case f == format.DOCX:
		out, n, err = w.fillDocument(data, fields.Index(), values)
	default:
		return nil, fmt.Errorf("%w: %s", format.ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, err
	}
	w.logger.Debug("filled document", "format", f, "written", n, "values", len(values))
	return out, nil
}

func (w *Writer) fillWorkbook(data []byte, fields map[string]*model.FieldDescriptor, values []model.FillValue) ([]byte, int, error) {
	r, err := xlsx.OpenBytes(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", structure.ErrStructureAnalysis, err)
	}
	wr := r.NewWriter()

	for _, v := range values {
		field, ok := fields[v.FieldID]
		if !ok {
			w.logger.Warn("no field for value, skipping", "field_id", v.FieldID)
			continue
		}

		// Without a slot the label cell itself takes the value.
		target := field.LabelLocation
		if field.Fillable() {
			target = *field.ValueLocation
		}
		if target.Kind != model.KindCell || target.Sheet == "" || target.Cell == "" {
			w.logger.Warn("field has no cell target, skipping", "field_id", v.FieldID, "target", target.String())
			continue
		}

		prev, err := wr.Set(target.Sheet, target.Cell, Convert(v.Value, field.FieldType))
		if err != nil {
			w.logger.Warn("cannot write cell, skipping", "field_id", v.FieldID, "sheet", target.Sheet, "cell", target.Cell, "error", err)
			continue
		}
		w.logger.Debug("cell written", "field_id", v.FieldID, "cell", target.Cell,
			"style", prev.Index, "font", prev.Font.Name, "num_fmt", prev.NumFmtCode)
	}

	out, err := wr.Bytes()
	if err != nil {
		return nil, 0, fmt.Errorf("writing workbook: %w", err)
	}
	return out, wr.Pending(), nil
}

func (w *Writer) fillDocument(data []byte, fields map[string]*model.FieldDescriptor, values []model.FillValue) ([]byte, int, error) {
	d, err := docx.OpenBytes(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", structure.ErrStructureAnalysis, err)
	}
	wr := d.NewWriter()

	for _, v := range values {
		field, ok := fields[v.FieldID]
		if !ok {
			w.logger.Warn("no field for value, skipping", "field_id", v.FieldID)
			continue
		}
		if !field.Fillable() {
			w.logger.Warn("field has no value slot, skipping", "field_id", v.FieldID)
			continue
		}

		if err := writeFlow(d, wr, *field.ValueLocation, ConvertText(v.Value, field.FieldType)); err != nil {
			w.logger.Warn("cannot write value, skipping", "field_id", v.FieldID, "error", err)
		}
	}

	out, err := wr.Bytes()
	if err != nil {
		return nil, 0, fmt.Errorf("writing document: %w", err)
	}
	return out, wr.Pending(), nil
}

var errNoColon = errors.New("paragraph has no colon")

func writeFlow(d *docx.Document, wr *docx.Writer, loc model.Location, text string) error {
	switch loc.Kind {
	case model.KindParagraph:
		p := d.Paragraph(loc.ParagraphIndex)
		if p == nil {
			return fmt.Errorf("paragraph %d out of range", loc.ParagraphIndex)
		}
		if loc.ReplacePattern == model.Whole {
			return wr.SetParagraph(p.Index, text)
		}
		prefix, _, ok := classify.SplitAtColon(p.Text)
		if !ok {
			return errNoColon
		}
		return wr.SetParagraph(p.Index, prefix+" "+text)
	case model.KindTable:
		return wr.SetCell(loc.TableIndex, loc.RowIndex, loc.CellIndex, text)
	default:
		return fmt.Errorf("unsupported target %s", loc.String())
	}
}
