package structure

import (
	"fmt"
	"strings"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/xlsx"
)

// Workbook returns the field map of every sheet, concatenated in sheet order.
func (a *Analyzer) Workbook(r *xlsx.Reader) model.FieldMap {
	fields := make(model.FieldMap, 0)
	for _, sh := range r.Sheets() {
		fields = append(fields, a.Sheet(sh)...)
	}
	return fields
}

// Sheet scans the sheet row by row within the configured window.
func (a *Analyzer) Sheet(sh *xlsx.Sheet) []model.FieldDescriptor {
	maxRow := min(sh.RowCount(), a.cfg.MaxRows) - 1
	maxCol := min(sh.ColCount(), a.cfg.MaxCols) - 1
	idx := NewMergeIndex(sh.MergedRegions, maxRow+1, maxCol+1)

	var fields []model.FieldDescriptor
	for row := 0; row <= maxRow; row++ {
		for col := 0; col <= maxCol; col++ {
			if idx.IsCovered(row, col) {
				continue
			}
			text := cellText(sh, row, col)
			if text == "" || classify.IsPlaceholder(text) || !a.rules.IsFieldLabel(text) {
				continue
			}

			ref := xlsx.CellRef(col, row)
			f := model.FieldDescriptor{
				FieldID:       fmt.Sprintf("excel_%s_%s", sh.Name, ref),
				FieldName:     classify.CellFieldName(text),
				FieldType:     a.rules.GuessFieldType(text),
				LabelLocation: model.CellAt(sh.Name, ref, row+1, col+1),
				ValueLocation: a.gridSlot(sh, idx, row, col, maxRow, maxCol),
			}
			if m, ok := idx.Region(row, col); ok {
				f.IsMerged = true
				f.MergeInfo = mergeInfo(m)
			}
			fields = append(fields, f)
		}
	}
	return fields
}

// gridSlot looks right of the label, then below it. A merged label is
// measured from the far edge of its region.
func (a *Analyzer) gridSlot(sh *xlsx.Sheet, idx *MergeIndex, row, col, maxRow, maxCol int) *model.Location {
	endRow, endCol := row, col
	if m, ok := idx.Region(row, col); ok {
		endRow, endCol = m.EndRow, m.EndCol
	}

	for off := 1; off <= a.cfg.RightScan; off++ {
		c := endCol + off
		if c > maxCol {
			break
		}
		if loc, ok := a.gridCandidate(sh, idx, row, c); ok {
			loc.Direction, loc.Offset = model.Right, off
			return &loc
		}
	}

	for off := 1; off <= a.cfg.BelowScan; off++ {
		r := endRow + off
		if r > maxRow {
			break
		}
		if loc, ok := a.gridCandidate(sh, idx, r, col); ok {
			loc.Direction, loc.Offset = model.Below, off
			return &loc
		}
	}
	return nil
}

// gridCandidate accepts a blank or placeholder cell, or a cell whose text
// reads as a value rather than another label. The last kind is marked
// occupied since filling it overwrites existing content.
func (a *Analyzer) gridCandidate(sh *xlsx.Sheet, idx *MergeIndex, row, col int) (model.Location, bool) {
	if idx.IsCovered(row, col) {
		return model.Location{}, false
	}
	text := cellText(sh, row, col)
	loc := model.CellAt(sh.Name, xlsx.CellRef(col, row), row+1, col+1)
	switch {
	case classify.IsPlaceholder(text):
		return loc, true
	case !a.rules.IsFieldLabel(text):
		loc.Occupied = true
		return loc, true
	}
	return model.Location{}, false
}

func cellText(sh *xlsx.Sheet, row, col int) string {
	c := sh.Cell(row, col)
	if c == nil || c.IsEmpty() {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
