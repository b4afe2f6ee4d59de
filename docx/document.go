package docx

import (
	"strconv"
	"strings"

	"github.com/tsawler/formfill/internal/ooxml"
)

// Run is a text run (<w:r>) of a paragraph.
type Run struct {
	Text string
	el   *ooxml.Element
}

// Paragraph is a <w:p> element. Index is its position among the body's
// paragraphs, or among the cell's paragraphs for table content.
type Paragraph struct {
	Index   int
	Text    string
	StyleID string
	Runs    []*Run
	el      *ooxml.Element
}

// VMerge is the vertical merge state of a table cell.
type VMerge int

const (
	// VMergeNone means the cell is not vertically merged.
	VMergeNone VMerge = iota
	// VMergeRestart starts a vertically merged region.
	VMergeRestart
	// VMergeContinue continues the region started above.
	VMergeContinue
)

// TableCell is a <w:tc> element. Col is the grid column the cell starts at.
type TableCell struct {
	Row        int
	Col        int
	ColSpan    int
	VMerge     VMerge
	Paragraphs []*Paragraph
	Text       string // paragraph texts joined with "\n"
	el         *ooxml.Element
}

// IsMergedContinuation reports whether the cell continues a vertical merge
// and so shows the content of a cell above it.
func (c *TableCell) IsMergedContinuation() bool {
	return c.VMerge == VMergeContinue
}

// TableRow is a <w:tr> element.
type TableRow struct {
	Index int
	Cells []*TableCell
}

// Table is a <w:tbl> element that is a direct child of the body.
type Table struct {
	Index int
	Rows  []*TableRow
}

// Cell returns the cell covering grid column col of the given row, or nil.
func (t *Table) Cell(row, col int) *TableCell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	for _, c := range t.Rows[row].Cells {
		if col >= c.Col && col < c.Col+c.ColSpan {
			return c
		}
	}
	return nil
}

// parseBody collects the body's direct paragraphs and tables in order.
func parseBody(body *ooxml.Element) ([]*Paragraph, []*Table) {
	var paras []*Paragraph
	var tables []*Table
	for _, el := range body.Children {
		switch el.Name.Local {
		case "p":
			paras = append(paras, parseParagraph(el, len(paras)))
		case "tbl":
			tables = append(tables, parseTable(el, len(tables)))
		}
	}
	return paras, tables
}

func parseParagraph(el *ooxml.Element, index int) *Paragraph {
	p := &Paragraph{Index: index, el: el}
	if ppr := el.Child("pPr"); ppr != nil {
		if style := ppr.Child("pStyle"); style != nil {
			p.StyleID, _ = style.AttrValue("val")
		}
	}

	var text strings.Builder
	for _, r := range paragraphRuns(el) {
		run := &Run{Text: runText(r), el: r}
		p.Runs = append(p.Runs, run)
		text.WriteString(run.Text)
	}
	p.Text = text.String()
	return p
}

// paragraphRuns returns the runs of a paragraph in document order, including
// runs wrapped in hyperlinks, insertions and smart tags.
func paragraphRuns(p *ooxml.Element) []*ooxml.Element {
	var runs []*ooxml.Element
	for _, c := range p.Children {
		switch c.Name.Local {
		case "r":
			runs = append(runs, c)
		case "hyperlink", "ins", "smartTag", "fldSimple":
			runs = append(runs, paragraphRuns(c)...)
		}
	}
	return runs
}

// textChildren maps run children that carry content to their plain text.
// Writing a run removes all of them.
var textChildren = map[string]string{
	"t":             "",
	"tab":           "\t",
	"br":            "\n",
	"cr":            "\n",
	"noBreakHyphen": "-",
	"softHyphen":    "",
	"sym":           "",
	"ptab":          "\t",
}

func isTextChild(el *ooxml.Element) bool {
	_, ok := textChildren[el.Name.Local]
	return ok
}

func runText(r *ooxml.Element) string {
	var b strings.Builder
	for _, c := range r.Children {
		if c.Name.Local == "t" {
			b.WriteString(c.Text)
			continue
		}
		b.WriteString(textChildren[c.Name.Local])
	}
	return b.String()
}

func parseTable(el *ooxml.Element, index int) *Table {
	t := &Table{Index: index}
	for _, tr := range el.ChildrenNamed("tr") {
		row := &TableRow{Index: len(t.Rows)}
		col := 0
		for _, tc := range tr.ChildrenNamed("tc") {
			cell := parseCell(tc, row.Index, col)
			row.Cells = append(row.Cells, cell)
			col += cell.ColSpan
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func parseCell(el *ooxml.Element, row, col int) *TableCell {
	cell := &TableCell{Row: row, Col: col, ColSpan: 1, el: el}

	if tcPr := el.Child("tcPr"); tcPr != nil {
		if span := tcPr.Child("gridSpan"); span != nil {
			if v, ok := span.AttrValue("val"); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 1 {
					cell.ColSpan = n
				}
			}
		}
		if vm := tcPr.Child("vMerge"); vm != nil {
			if v, _ := vm.AttrValue("val"); v == "restart" {
				cell.VMerge = VMergeRestart
			} else {
				cell.VMerge = VMergeContinue
			}
		}
	}

	texts := make([]string, 0, len(el.Children))
	for _, p := range el.ChildrenNamed("p") {
		para := parseParagraph(p, len(cell.Paragraphs))
		cell.Paragraphs = append(cell.Paragraphs, para)
		texts = append(texts, para.Text)
	}
	cell.Text = strings.Join(texts, "\n")
	return cell
}
