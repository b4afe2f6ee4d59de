package structure

import (
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/xlsx"
)

// MergeIndex answers which merged region covers a position. Only positions
// inside a rows×cols window are indexed, so whole-column or whole-row
// merges cost no more than the window they overlap. It is built once per
// sheet.
type MergeIndex struct {
	regions []xlsx.MergedRegion
	byRow   map[int][]int // row -> indices into regions, in document order
}

// NewMergeIndex indexes the regions that overlap the first rows rows and
// cols columns of a sheet.
func NewMergeIndex(regions []xlsx.MergedRegion, rows, cols int) *MergeIndex {
	idx := &MergeIndex{byRow: make(map[int][]int)}
	for _, m := range regions {
		if m.StartRow >= rows || m.StartCol >= cols || m.EndRow < m.StartRow || m.EndCol < m.StartCol {
			continue
		}
		i := len(idx.regions)
		idx.regions = append(idx.regions, m)
		for r := m.StartRow; r <= min(m.EndRow, rows-1); r++ {
			idx.byRow[r] = append(idx.byRow[r], i)
		}
	}
	return idx
}

// Region returns the merged region covering the 0-indexed position. The
// first region wins on malformed overlaps.
func (x *MergeIndex) Region(row, col int) (*xlsx.MergedRegion, bool) {
	for _, i := range x.byRow[row] {
		if m := &x.regions[i]; m.Contains(row, col) {
			return m, true
		}
	}
	return nil, false
}

// IsCovered reports whether the position is inside a region but is not its
// anchor. Covered positions are never labels or value slots.
func (x *MergeIndex) IsCovered(row, col int) bool {
	m, ok := x.Region(row, col)
	return ok && (m.StartRow != row || m.StartCol != col)
}

// Len returns the number of indexed regions.
func (x *MergeIndex) Len() int {
	return len(x.regions)
}

func mergeInfo(m *xlsx.MergedRegion) *model.MergeRegion {
	return &model.MergeRegion{
		Range:   m.Ref(),
		TopLeft: xlsx.CellRef(m.StartCol, m.StartRow),
		Rows:    m.EndRow - m.StartRow + 1,
		Cols:    m.EndCol - m.StartCol + 1,
	}
}
