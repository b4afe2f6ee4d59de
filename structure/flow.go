package structure

import (
	"fmt"
	"strings"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/docx"
	"github.com/tsawler/formfill/model"
)

// Document returns the field map of a word-processing document: body
// paragraphs first, then table cells in table order.
func (a *Analyzer) Document(d *docx.Document) model.FieldMap {
	fields := make(model.FieldMap, 0)
	for _, p := range d.Paragraphs {
		if f, ok := a.paragraphField(p); ok {
			fields = append(fields, f)
		}
	}
	for _, t := range d.Tables {
		fields = append(fields, a.Table(t)...)
	}
	return fields
}

// paragraphField treats the paragraph as both label and slot. The value is
// the text after the first colon, or the whole paragraph without one.
func (a *Analyzer) paragraphField(p *docx.Paragraph) (model.FieldDescriptor, bool) {
	text := strings.TrimSpace(p.Text)
	if text == "" || !a.rules.IsParagraphField(text) {
		return model.FieldDescriptor{}, false
	}

	name := classify.ParagraphFieldName(text)
	slot := model.ParagraphAt(p.Index)
	slot.ReplacePattern = model.Whole
	if classify.HasColon(text) {
		slot.ReplacePattern = model.AfterColon
	}

	return model.FieldDescriptor{
		FieldID:       fmt.Sprintf("word_para_%d", p.Index),
		FieldName:     name,
		FieldType:     a.rules.GuessFieldType(name),
		LabelLocation: model.ParagraphAt(p.Index),
		ValueLocation: &slot,
	}, true
}

// Table returns the label cells of one table. Cells are addressed by grid
// column so spanned cells keep stable indices.
func (a *Analyzer) Table(t *docx.Table) []model.FieldDescriptor {
	var fields []model.FieldDescriptor
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			if cell.IsMergedContinuation() {
				continue
			}
			text := strings.TrimSpace(cell.Text)
			if text == "" || classify.IsPlaceholder(text) || !a.rules.IsFieldLabel(text) {
				continue
			}

			name := classify.TableFieldName(text)
			fields = append(fields, model.FieldDescriptor{
				FieldID:       fmt.Sprintf("word_t%d_r%d_c%d", t.Index, row.Index, cell.Col),
				FieldName:     name,
				FieldType:     a.rules.GuessFieldType(name),
				LabelLocation: model.TableCellAt(t.Index, row.Index, cell.Col),
				ValueLocation: tableSlot(t, cell),
			})
		}
	}
	return fields
}

// tableSlot checks the next cell right, then the cell directly below. Only
// blank or placeholder cells qualify.
func tableSlot(t *docx.Table, label *docx.TableCell) *model.Location {
	if c := t.Cell(label.Row, label.Col+label.ColSpan); tableCandidate(c) {
		loc := model.TableCellAt(t.Index, c.Row, c.Col)
		loc.Direction, loc.Offset = model.Right, 1
		return &loc
	}
	if c := t.Cell(label.Row+1, label.Col); tableCandidate(c) {
		loc := model.TableCellAt(t.Index, c.Row, c.Col)
		loc.Direction, loc.Offset = model.Below, 1
		return &loc
	}
	return nil
}

func tableCandidate(c *docx.TableCell) bool {
	return c != nil && !c.IsMergedContinuation() && classify.IsPlaceholder(c.Text)
}
