package xlsx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/formfill/internal/ooxml"
)

// ValueKind selects how a cell value is stored.
type ValueKind int

const (
	// StringValue is stored as an inline string.
	StringValue ValueKind = iota
	// NumberValue is stored as a numeric <v>.
	NumberValue
)

// Value is content to be written into a cell.
type Value struct {
	Kind ValueKind
	Text string
}

// String returns a string cell value.
func String(s string) Value { return Value{Kind: StringValue, Text: s} }

// Number returns a numeric cell value. The text must be a valid number.
func Number(s string) Value { return Value{Kind: NumberValue, Text: s} }

type update struct {
	row, col int
	value    Value
	style    StyleSnapshot
}

// Writer collects cell updates against a decoded workbook and produces a new
// package in which only the touched worksheet parts differ from the source.
//
// Shared strings, styles and every other part of the package are copied
// untouched. Strings are written inline so the shared string table never
// has to be renumbered.
type Writer struct {
	r       *Reader
	updates map[*Sheet]map[[2]int]update
}

// NewWriter returns a Writer for the workbook.
func (r *Reader) NewWriter() *Writer {
	return &Writer{r: r, updates: make(map[*Sheet]map[[2]int]update)}
}

// Set schedules ref on the named sheet to receive v. It returns the style the
// cell will keep. A later Set on the same cell replaces the earlier one.
func (w *Writer) Set(sheetName, ref string, v Value) (StyleSnapshot, error) {
	sheet, err := w.r.SheetByName(sheetName)
	if err != nil {
		return StyleSnapshot{}, err
	}
	col, row, err := ParseCellRef(ref)
	if err != nil {
		return StyleSnapshot{}, err
	}
	if v.Kind == NumberValue {
		if _, err := strconv.ParseFloat(v.Text, 64); err != nil {
			return StyleSnapshot{}, fmt.Errorf("invalid number %q for %s", v.Text, ref)
		}
	}

	u := update{row: row, col: col, value: v}
	if c := sheet.CellByRef(ref); c != nil && c.Defined {
		u.style = w.r.CellStyle(c)
	} else if idx, ok := sheet.DefaultStyle(row, col); ok {
		u.style = w.r.Style(idx)
	}

	if w.updates[sheet] == nil {
		w.updates[sheet] = make(map[[2]int]update)
	}
	w.updates[sheet][[2]int{row, col}] = u
	return u.style, nil
}

// Pending reports the number of scheduled cell updates.
func (w *Writer) Pending() int {
	n := 0
	for _, m := range w.updates {
		n += len(m)
	}
	return n
}

// Bytes returns the rewritten package.
//
// When an update replaces a formula cell the workbook's calculation chain
// would name a cell that no longer holds a formula, so the chain part is
// dropped together with its relationship and content type. Excel rebuilds
// it on the next calculation.
func (w *Writer) Bytes() ([]byte, error) {
	parts := make(map[string][]byte)
	formulas := 0
	for _, sheet := range w.r.sheets {
		ups := w.updates[sheet]
		if len(ups) == 0 {
			continue
		}
		data, err := w.r.pkg.Read(sheet.Part)
		if err != nil {
			return nil, err
		}
		out, n, err := patchSheet(data, ups)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		parts[sheet.Part] = out
		formulas += n
	}

	var drop []string
	if formulas > 0 && w.r.pkg.Has(calcChainPart) {
		if err := w.unlinkCalcChain(parts); err != nil {
			return nil, fmt.Errorf("dropping calculation chain: %w", err)
		}
		drop = append(drop, calcChainPart)
	}
	return w.r.pkg.Rewrite(parts, drop...)
}

const calcChainPart = "xl/calcChain.xml"

// unlinkCalcChain removes the references to the calculation chain from the
// workbook relationships and the content types.
func (w *Writer) unlinkCalcChain(parts map[string][]byte) error {
	const rels = "xl/_rels/workbook.xml.rels"
	if w.r.pkg.Has(rels) {
		data, err := w.r.pkg.Read(rels)
		if err != nil {
			return err
		}
		out, _, err := ooxml.RemoveChildren(data, "Relationship", func(el *ooxml.Element) bool {
			typ, _ := el.AttrValue("Type")
			return strings.HasSuffix(typ, "/calcChain")
		})
		if err != nil {
			return err
		}
		parts[rels] = out
	}

	const types = "[Content_Types].xml"
	data, err := w.r.pkg.Read(types)
	if err != nil {
		return err
	}
	out, _, err := ooxml.RemoveChildren(data, "Override", func(el *ooxml.Element) bool {
		name, _ := el.AttrValue("PartName")
		return name == "/"+calcChainPart
	})
	if err != nil {
		return err
	}
	parts[types] = out
	return nil
}

// rowNode is a <row> element with its cells indexed by column.
type rowNode struct {
	el    *ooxml.Element
	index int
	cells map[int]*ooxml.Element
	order []int // columns in document order
}

// patchSheet applies the updates to one worksheet part. It also reports how
// many formula cells were overwritten.
func patchSheet(data []byte, ups map[[2]int]update) ([]byte, int, error) {
	root, err := ooxml.Parse(data)
	if err != nil {
		return nil, 0, err
	}
	sd := root.Child("sheetData")
	if sd == nil {
		return nil, 0, fmt.Errorf("worksheet has no sheetData")
	}
	pfx := sd.Prefix

	rows := indexRows(sd)
	byIndex := make(map[int]*rowNode, len(rows))
	for _, rn := range rows {
		byIndex[rn.index] = rn
	}

	grouped := make(map[int][]update)
	for _, u := range ups {
		grouped[u.row] = append(grouped[u.row], u)
	}
	rowIdxs := make([]int, 0, len(grouped))
	for r := range grouped {
		rowIdxs = append(rowIdxs, r)
		sort.Slice(grouped[r], func(i, j int) bool { return grouped[r][i].col < grouped[r][j].col })
	}
	sort.Ints(rowIdxs)

	var edits []ooxml.Edit
	var newRows strings.Builder // only used when sheetData is self-closing
	formulas := 0

	for _, r := range rowIdxs {
		cells := grouped[r]
		rn := byIndex[r]
		if rn == nil {
			xml := newRowXML(pfx, r, cells)
			if sd.SelfClosing {
				newRows.WriteString(xml)
				continue
			}
			edits = append(edits, ooxml.Edit{Start: rowInsertPoint(sd, rows, r), End: rowInsertPoint(sd, rows, r), Text: []byte(xml)})
			continue
		}
		rowEdits, n := patchRow(data, rn, pfx, cells)
		edits = append(edits, rowEdits...)
		formulas += n
	}

	if sd.SelfClosing && newRows.Len() > 0 {
		q := sd.QName()
		text := "<" + q + sd.RawAttrs(data) + ">" + newRows.String() + "</" + q + ">"
		edits = append(edits, ooxml.Edit{Start: sd.Start, End: sd.End, Text: []byte(text)})
	}

	out, err := ooxml.Apply(data, edits)
	return out, formulas, err
}

func indexRows(sd *ooxml.Element) []*rowNode {
	var rows []*rowNode
	prev := -1
	for _, el := range sd.ChildrenNamed("row") {
		idx := prev + 1
		if v, ok := el.AttrValue("r"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				idx = n - 1
			}
		}
		prev = idx

		rn := &rowNode{el: el, index: idx, cells: make(map[int]*ooxml.Element)}
		prevCol := -1
		for _, c := range el.ChildrenNamed("c") {
			col := prevCol + 1
			if ref, ok := c.AttrValue("r"); ok {
				if cc, _, err := ParseCellRef(ref); err == nil {
					col = cc
				}
			}
			prevCol = col
			rn.cells[col] = c
			rn.order = append(rn.order, col)
		}
		rows = append(rows, rn)
	}
	return rows
}

// rowInsertPoint returns the offset a new row r is inserted at so row order
// is kept.
func rowInsertPoint(sd *ooxml.Element, rows []*rowNode, r int) int64 {
	for _, rn := range rows {
		if rn.index > r {
			return rn.el.Start
		}
	}
	return sd.EndStart
}

func patchRow(data []byte, rn *rowNode, pfx string, cells []update) ([]ooxml.Edit, int) {
	var edits []ooxml.Edit
	var appended strings.Builder
	formulas := 0

	for _, u := range cells {
		if el := rn.cells[u.col]; el != nil {
			if el.Child("f") != nil {
				formulas++
			}
			attrs := ooxml.WithoutAttr(ooxml.WithoutAttr(el.RawAttrs(data), "t"), "s")
			if _, had := el.AttrValue("s"); had || u.style.Index > 0 {
				attrs += fmt.Sprintf(` s="%d"`, u.style.Index)
			}
			text := renderCell(el.Prefix, attrs, u.value)
			edits = append(edits, ooxml.Edit{Start: el.Start, End: el.End, Text: []byte(text)})
			continue
		}

		text := newCellXML(pfx, u)
		if rn.el.SelfClosing {
			appended.WriteString(text)
			continue
		}
		at := rn.el.EndStart
		for _, col := range rn.order {
			if col > u.col {
				at = rn.cells[col].Start
				break
			}
		}
		edits = append(edits, ooxml.Edit{Start: at, End: at, Text: []byte(text)})
	}

	if rn.el.SelfClosing && appended.Len() > 0 {
		q := rn.el.QName()
		text := "<" + q + rn.el.RawAttrs(data) + ">" + appended.String() + "</" + q + ">"
		edits = append(edits, ooxml.Edit{Start: rn.el.Start, End: rn.el.End, Text: []byte(text)})
	}
	return edits, formulas
}

func newRowXML(pfx string, r int, cells []update) string {
	q := ooxml.Qualify(pfx, "row")
	var b strings.Builder
	fmt.Fprintf(&b, `<%s r="%d">`, q, r+1)
	for _, u := range cells {
		b.WriteString(newCellXML(pfx, u))
	}
	b.WriteString("</" + q + ">")
	return b.String()
}

func newCellXML(pfx string, u update) string {
	attrs := fmt.Sprintf(` r="%s"`, CellRef(u.col, u.row))
	if u.style.Index > 0 {
		attrs += fmt.Sprintf(` s="%d"`, u.style.Index)
	}
	return renderCell(pfx, attrs, u.value)
}

// renderCell renders a <c> element with the given attribute text.
func renderCell(pfx, attrs string, v Value) string {
	c := ooxml.Qualify(pfx, "c")
	if v.Kind == NumberValue {
		vq := ooxml.Qualify(pfx, "v")
		return "<" + c + attrs + "><" + vq + ">" + ooxml.Escape(v.Text) + "</" + vq + "></" + c + ">"
	}
	if v.Text == "" {
		return "<" + c + attrs + "/>"
	}
	is := ooxml.Qualify(pfx, "is")
	t := ooxml.Qualify(pfx, "t")
	space := ""
	if strings.TrimSpace(v.Text) != v.Text {
		space = ` xml:space="preserve"`
	}
	return "<" + c + attrs + ` t="inlineStr"><` + is + "><" + t + space + ">" +
		ooxml.Escape(v.Text) + "</" + t + "></" + is + "></" + c + ">"
}
