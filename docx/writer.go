package docx

import (
	"fmt"
	"strings"

	"github.com/tsawler/formfill/internal/ooxml"
)

// Writer collects paragraph and table cell updates and produces a new package
// in which only word/document.xml differs from the source, and within it only
// the updated paragraphs.
//
// A paragraph update clears the text of every run and puts the new text in
// the first run that carried text, so that run's properties style the whole
// paragraph. Run properties, paragraph properties and non-text run content
// such as drawings are kept.
type Writer struct {
	d     *Document
	paras map[*Paragraph]string
	cells map[*TableCell]string // cells without paragraphs
}

// NewWriter returns a Writer for the document.
func (d *Document) NewWriter() *Writer {
	return &Writer{
		d:     d,
		paras: make(map[*Paragraph]string),
		cells: make(map[*TableCell]string),
	}
}

// SetParagraph replaces the text of the body paragraph at index.
func (w *Writer) SetParagraph(index int, text string) error {
	p := w.d.Paragraph(index)
	if p == nil {
		return fmt.Errorf("paragraph %d out of range (0-%d)", index, len(w.d.Paragraphs)-1)
	}
	w.paras[p] = text
	return nil
}

// SetCell replaces the text of the cell covering grid column col. The text
// goes into the cell's first paragraph; other paragraphs are left alone.
func (w *Writer) SetCell(table, row, col int, text string) error {
	t := w.d.Table(table)
	if t == nil {
		return fmt.Errorf("table %d out of range (0-%d)", table, len(w.d.Tables)-1)
	}
	cell := t.Cell(row, col)
	if cell == nil {
		return fmt.Errorf("table %d has no cell at row %d, column %d", table, row, col)
	}
	if len(cell.Paragraphs) > 0 {
		w.paras[cell.Paragraphs[0]] = text
		return nil
	}
	w.cells[cell] = text
	return nil
}

// Pending reports the number of scheduled updates.
func (w *Writer) Pending() int {
	return len(w.paras) + len(w.cells)
}

// Bytes returns the rewritten package.
func (w *Writer) Bytes() ([]byte, error) {
	if w.Pending() == 0 {
		return w.d.pkg.Rewrite(nil)
	}

	var edits []ooxml.Edit
	for p, text := range w.paras {
		edits = append(edits, paragraphEdits(w.d.data, p, text)...)
	}
	for c, text := range w.cells {
		edits = append(edits, cellEdits(w.d.data, c, text))
	}

	part, err := ooxml.Apply(w.d.data, edits)
	if err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}
	return w.d.pkg.Rewrite(map[string][]byte{documentPart: part})
}

func paragraphEdits(data []byte, p *Paragraph, text string) []ooxml.Edit {
	pfx := p.el.Prefix
	if len(p.Runs) == 0 {
		run := runXML(pfx, "", text)
		if p.el.SelfClosing {
			return []ooxml.Edit{wrap(data, p.el, run)}
		}
		return []ooxml.Edit{{Start: p.el.EndStart, End: p.el.EndStart, Text: []byte(run)}}
	}

	target := p.Runs[0]
	for _, r := range p.Runs {
		if r.Text != "" {
			target = r
			break
		}
	}

	var edits []ooxml.Edit
	for _, r := range p.Runs {
		if r.el.SelfClosing {
			if r == target {
				edits = append(edits, wrap(data, r.el, textXML(r.el.Prefix, text)))
			}
			continue
		}

		inserted := r != target
		for _, c := range r.el.Children {
			if !isTextChild(c) {
				continue
			}
			if !inserted {
				edits = append(edits, ooxml.Edit{Start: c.Start, End: c.Start, Text: []byte(textXML(r.el.Prefix, text))})
				inserted = true
			}
			edits = append(edits, ooxml.Edit{Start: c.Start, End: c.End})
		}
		if !inserted {
			at := r.el.StartEnd
			if rPr := r.el.Child("rPr"); rPr != nil {
				at = rPr.End
			}
			edits = append(edits, ooxml.Edit{Start: at, End: at, Text: []byte(textXML(r.el.Prefix, text))})
		}
	}
	return edits
}

func cellEdits(data []byte, c *TableCell, text string) ooxml.Edit {
	pfx := c.el.Prefix
	para := "<" + ooxml.Qualify(pfx, "p") + ">" + runXML(pfx, "", text) + "</" + ooxml.Qualify(pfx, "p") + ">"
	if c.el.SelfClosing {
		return wrap(data, c.el, para)
	}
	return ooxml.Edit{Start: c.el.EndStart, End: c.el.EndStart, Text: []byte(para)}
}

// wrap expands a self-closing element so it holds inner.
func wrap(data []byte, el *ooxml.Element, inner string) ooxml.Edit {
	q := el.QName()
	text := "<" + q + el.RawAttrs(data) + ">" + inner + "</" + q + ">"
	return ooxml.Edit{Start: el.Start, End: el.End, Text: []byte(text)}
}

func runXML(pfx, props, text string) string {
	r := ooxml.Qualify(pfx, "r")
	return "<" + r + ">" + props + textXML(pfx, text) + "</" + r + ">"
}

// textXML renders text as run content. Newlines become breaks and tabs
// become tab elements.
func textXML(pfx, text string) string {
	t := ooxml.Qualify(pfx, "t")
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<" + ooxml.Qualify(pfx, "br") + "/>")
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				b.WriteString("<" + ooxml.Qualify(pfx, "tab") + "/>")
			}
			if seg == "" && (i > 0 || j > 0) {
				continue
			}
			b.WriteString("<" + t + ` xml:space="preserve">` + ooxml.Escape(seg) + "</" + t + ">")
		}
	}
	return b.String()
}
