package model

import (
	"encoding/json"
	"fmt"
)

// LocationKind is the kind of unit a Location addresses.
type LocationKind string

const (
	// KindCell addresses a worksheet cell.
	KindCell LocationKind = "cell"
	// KindParagraph addresses a body paragraph.
	KindParagraph LocationKind = "paragraph"
	// KindTable addresses a table cell in a word-processing document.
	KindTable LocationKind = "table"
)

// Direction is where a value slot lies relative to its label.
type Direction string

const (
	Right Direction = "right"
	Below Direction = "below"
)

// ReplacePattern says which part of a paragraph receives the value.
type ReplacePattern string

const (
	// AfterColon replaces the text after the first colon.
	AfterColon ReplacePattern = "after_colon"
	// Whole replaces the paragraph text.
	Whole ReplacePattern = "whole"
)

// Location identifies a cell, paragraph or table cell. Row and Column are
// 1-indexed to match the A1 reference in Cell; the flow indexes are 0-indexed.
type Location struct {
	Kind LocationKind

	Sheet  string
	Cell   string
	Row    int
	Column int

	ParagraphIndex int

	TableIndex int
	RowIndex   int
	CellIndex  int // grid column

	// Set on value slots.
	Direction      Direction
	Offset         int
	ReplacePattern ReplacePattern
	// Occupied marks a slot that already holds non-placeholder text.
	Occupied bool
}

// CellAt returns a worksheet cell location.
func CellAt(sheet, cell string, row, column int) Location {
	return Location{Kind: KindCell, Sheet: sheet, Cell: cell, Row: row, Column: column}
}

// ParagraphAt returns a body paragraph location.
func ParagraphAt(index int) Location {
	return Location{Kind: KindParagraph, ParagraphIndex: index}
}

// TableCellAt returns a table cell location.
func TableCellAt(table, row, cell int) Location {
	return Location{Kind: KindTable, TableIndex: table, RowIndex: row, CellIndex: cell}
}

// SamePlace reports whether both locations address the same unit, ignoring
// slot attributes.
func (l Location) SamePlace(o Location) bool {
	if l.Kind != o.Kind {
		return false
	}
	switch l.Kind {
	case KindCell:
		return l.Sheet == o.Sheet && l.Row == o.Row && l.Column == o.Column
	case KindParagraph:
		return l.ParagraphIndex == o.ParagraphIndex
	case KindTable:
		return l.TableIndex == o.TableIndex && l.RowIndex == o.RowIndex && l.CellIndex == o.CellIndex
	}
	return false
}

// String returns a short human readable form.
func (l Location) String() string {
	switch l.Kind {
	case KindCell:
		return l.Sheet + "!" + l.Cell
	case KindParagraph:
		return fmt.Sprintf("paragraph %d", l.ParagraphIndex)
	case KindTable:
		return fmt.Sprintf("table %d row %d cell %d", l.TableIndex, l.RowIndex, l.CellIndex)
	}
	return "unknown location"
}

type locationJSON struct {
	Type           LocationKind   `json:"type,omitempty"`
	Sheet          string         `json:"sheet,omitempty"`
	Cell           string         `json:"cell,omitempty"`
	Row            *int           `json:"row,omitempty"`
	Column         *int           `json:"column,omitempty"`
	ParagraphIndex *int           `json:"paragraph_index,omitempty"`
	TableIndex     *int           `json:"table_index,omitempty"`
	RowIndex       *int           `json:"row_index,omitempty"`
	CellIndex      *int           `json:"cell_index,omitempty"`
	Direction      Direction      `json:"direction,omitempty"`
	Offset         int            `json:"offset,omitempty"`
	ReplacePattern ReplacePattern `json:"replace_pattern,omitempty"`
	Occupied       bool           `json:"occupied,omitempty"`
}

// MarshalJSON writes only the keys that belong to the location's kind.
func (l Location) MarshalJSON() ([]byte, error) {
	w := locationJSON{
		Type:           l.Kind,
		Direction:      l.Direction,
		Offset:         l.Offset,
		ReplacePattern: l.ReplacePattern,
		Occupied:       l.Occupied,
	}
	switch l.Kind {
	case KindCell:
		w.Sheet, w.Cell = l.Sheet, l.Cell
		w.Row, w.Column = intPtr(l.Row), intPtr(l.Column)
	case KindParagraph:
		w.ParagraphIndex = intPtr(l.ParagraphIndex)
	case KindTable:
		w.TableIndex = intPtr(l.TableIndex)
		w.RowIndex, w.CellIndex = intPtr(l.RowIndex), intPtr(l.CellIndex)
	default:
		return nil, fmt.Errorf("unknown location kind %q", l.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the kind-specific keys. A location without a type
// that names a sheet or cell is read as a worksheet cell.
func (l *Location) UnmarshalJSON(data []byte) error {
	var w locationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	kind := w.Type
	if kind == "" && (w.Sheet != "" || w.Cell != "") {
		kind = KindCell
	}

	out := Location{
		Kind:           kind,
		Direction:      w.Direction,
		Offset:         w.Offset,
		ReplacePattern: w.ReplacePattern,
		Occupied:       w.Occupied,
	}
	switch kind {
	case KindCell:
		out.Sheet, out.Cell = w.Sheet, w.Cell
		out.Row, out.Column = intVal(w.Row), intVal(w.Column)
	case KindParagraph:
		if w.ParagraphIndex == nil {
			return fmt.Errorf("paragraph location without paragraph_index")
		}
		out.ParagraphIndex = *w.ParagraphIndex
	case KindTable:
		if w.TableIndex == nil || w.RowIndex == nil || w.CellIndex == nil {
			return fmt.Errorf("table location is missing an index")
		}
		out.TableIndex, out.RowIndex, out.CellIndex = *w.TableIndex, *w.RowIndex, *w.CellIndex
	default:
		return fmt.Errorf("unknown location type %q", w.Type)
	}

	*l = out
	return nil
}

func intPtr(v int) *int { return &v }

func intVal(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
