package xlsx

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/formfill/internal/ooxml"
)

// Reader provides access to XLSX workbook content.
type Reader struct {
	pkg           *ooxml.Package
	workbook      *workbookXML
	sharedStrings []string
	styles        *stylesXML
	sheets        []*Sheet
	sheetRels     map[string]string // RID -> target path
}

// Open reads an XLSX file from disk.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return OpenBytes(data)
}

// OpenBytes decodes an XLSX workbook held in memory. The Reader keeps no
// reference to external resources and does not need to be closed.
func OpenBytes(data []byte) (*Reader, error) {
	pkg, err := ooxml.Open(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		pkg:       pkg,
		sheetRels: make(map[string]string),
	}

	// Validate required files exist
	if err := pkg.Validate("[Content_Types].xml", "xl/workbook.xml"); err != nil {
		return nil, err
	}

	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}

	if err := r.parseWorkbook(); err != nil {
		return nil, fmt.Errorf("parsing workbook: %w", err)
	}

	// Shared strings and styles are optional
	_ = r.parseSharedStrings()
	_ = r.parseStyles()

	if err := r.parseWorksheets(); err != nil {
		return nil, fmt.Errorf("parsing worksheets: %w", err)
	}

	return r, nil
}

// parseRelationships parses the workbook relationships file.
func (r *Reader) parseRelationships() error {
	data, err := r.pkg.Read("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil // Relationships are optional
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationship {
		r.sheetRels[rel.ID] = rel.Target
	}
	return nil
}

// parseWorkbook parses the main workbook file.
func (r *Reader) parseWorkbook() error {
	data, err := r.pkg.Read("xl/workbook.xml")
	if err != nil {
		return err
	}

	r.workbook = &workbookXML{}
	return xml.Unmarshal(data, r.workbook)
}

// parseSharedStrings parses the shared strings table.
func (r *Reader) parseSharedStrings() error {
	data, err := r.pkg.Read("xl/sharedStrings.xml")
	if err != nil {
		return err
	}

	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return err
	}

	r.sharedStrings = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		r.sharedStrings[i] = richText(si.T, si.R)
	}
	return nil
}

// richText returns plain text when present, otherwise the joined runs.
func richText(plain string, runs []rXML) string {
	if plain != "" || len(runs) == 0 {
		return plain
	}
	var text strings.Builder
	for _, run := range runs {
		text.WriteString(run.T)
	}
	return text.String()
}

// parseStyles parses the styles file.
func (r *Reader) parseStyles() error {
	data, err := r.pkg.Read("xl/styles.xml")
	if err != nil {
		return err
	}

	r.styles = &stylesXML{}
	return xml.Unmarshal(data, r.styles)
}

// sheetPart resolves the archive path of the i-th sheet.
func (r *Reader) sheetPart(i int, ref sheetRefXML) string {
	target := r.sheetRels[ref.RID]
	if target == "" {
		target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	if !strings.HasPrefix(target, "xl/") {
		target = "xl/" + target
	}
	return target
}

// parseWorksheets parses all worksheet files.
func (r *Reader) parseWorksheets() error {
	r.sheets = make([]*Sheet, 0, len(r.workbook.Sheets.Sheet))

	for i, ref := range r.workbook.Sheets.Sheet {
		part := r.sheetPart(i, ref)
		data, err := r.pkg.Read(part)
		if err != nil {
			continue // Skip sheets we can't read
		}

		sheet, err := r.parseWorksheet(data, ref.Name, i)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", ref.Name, err)
		}
		sheet.Part = part
		r.sheets = append(r.sheets, sheet)
	}

	if len(r.sheets) == 0 {
		return fmt.Errorf("no worksheets found")
	}
	return nil
}

// parseWorksheet parses a single worksheet.
func (r *Reader) parseWorksheet(data []byte, name string, index int) (*Sheet, error) {
	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	sheet := &Sheet{
		Name:      name,
		Index:     index,
		MaxRow:    -1,
		MaxCol:    -1,
		rowStyles: make(map[int]int),
	}
	if ws.Cols != nil {
		sheet.cols = ws.Cols.Col
	}

	if ws.MergeCells != nil {
		for _, mc := range ws.MergeCells.MergeCell {
			startCol, startRow, endCol, endRow, err := ParseRangeRef(mc.Ref)
			if err != nil {
				continue
			}
			sheet.MergedRegions = append(sheet.MergedRegions, MergedRegion{
				StartRow: startRow,
				StartCol: startCol,
				EndRow:   endRow,
				EndCol:   endCol,
			})
		}
	}

	// Rows and cells may omit their r attribute, in which case position
	// follows the previous sibling. Cells are kept sparse so a stray far
	// reference costs one entry, not the rectangle up to it.
	sheet.cells = make(map[[2]int]*Cell)
	prevRow := -1
	for _, row := range ws.SheetData.Rows {
		rowIdx := prevRow + 1
		if row.R > 0 {
			rowIdx = row.R - 1
		}
		prevRow = rowIdx
		if row.CustomFormat == "1" || row.CustomFormat == "true" {
			sheet.rowStyles[rowIdx] = row.S
		}
		if rowIdx > sheet.MaxRow {
			sheet.MaxRow = rowIdx
		}

		prevCol := -1
		for _, c := range row.Cells {
			colIdx := prevCol + 1
			if c.R != "" {
				col, _, err := ParseCellRef(c.R)
				if err != nil {
					continue
				}
				colIdx = col
			}
			prevCol = colIdx
			if colIdx > sheet.MaxCol {
				sheet.MaxCol = colIdx
			}

			cell := &Cell{
				Row:        rowIdx,
				Col:        colIdx,
				Type:       CellTypeEmpty,
				Defined:    true,
				RawValue:   c.V,
				StyleIndex: c.S,
				Formula:    c.F,
			}
			r.decodeValue(cell, c)
			sheet.cells[[2]int{rowIdx, colIdx}] = cell
		}
	}

	// Merged regions belong to the used range even where no <c> exists.
	for _, m := range sheet.MergedRegions {
		sheet.MaxRow = max(sheet.MaxRow, m.EndRow)
		sheet.MaxCol = max(sheet.MaxCol, m.EndCol)
	}

	return sheet, nil
}

// decodeValue sets the cell's type and display value.
func (r *Reader) decodeValue(cell *Cell, c cellXML) {
	switch c.T {
	case "s": // Shared string
		cell.Type = CellTypeString
		idx, err := strconv.Atoi(c.V)
		if err == nil && idx >= 0 && idx < len(r.sharedStrings) {
			cell.Value = r.sharedStrings[idx]
		}
	case "b":
		cell.Type = CellTypeBoolean
		if c.V == "1" {
			cell.Value = "TRUE"
		} else {
			cell.Value = "FALSE"
		}
	case "e":
		cell.Type = CellTypeError
		cell.Value = c.V
	case "str": // Formula string result
		cell.Type = CellTypeString
		cell.Value = c.V
	case "inlineStr":
		cell.Type = CellTypeString
		if c.Is != nil {
			cell.Value = richText(c.Is.T, c.Is.R)
		}
	default: // Number or empty
		if c.V != "" {
			cell.Type = CellTypeNumber
			cell.Value = c.V
		} else if c.F != "" {
			cell.Type = CellTypeFormula
		}
	}
	if cell.Value == "" && cell.Type == CellTypeString {
		cell.Type = CellTypeEmpty
	}
}

// SheetCount returns the number of sheets in the workbook.
func (r *Reader) SheetCount() int {
	return len(r.sheets)
}

// SheetNames returns the names of all sheets.
func (r *Reader) SheetNames() []string {
	names := make([]string, len(r.sheets))
	for i, s := range r.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheets returns all decoded sheets in workbook order.
func (r *Reader) Sheets() []*Sheet {
	return r.sheets
}

// Sheet returns the sheet at the given index (0-indexed).
func (r *Reader) Sheet(index int) (*Sheet, error) {
	if index < 0 || index >= len(r.sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (0-%d)", index, len(r.sheets)-1)
	}
	return r.sheets[index], nil
}

// SheetByName returns the sheet with the given name.
func (r *Reader) SheetByName(name string) (*Sheet, error) {
	for _, s := range r.sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("sheet not found: %s", name)
}
