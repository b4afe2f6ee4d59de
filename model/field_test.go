package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLocation_JSON(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{
			"cell slot",
			Location{Kind: KindCell, Sheet: "S", Cell: "B1", Row: 1, Column: 2, Direction: Right, Offset: 1},
			`{"type":"cell","sheet":"S","cell":"B1","row":1,"column":2,"direction":"right","offset":1}`,
		},
		{
			"paragraph zero",
			Location{Kind: KindParagraph, ParagraphIndex: 0, ReplacePattern: AfterColon},
			`{"type":"paragraph","paragraph_index":0,"replace_pattern":"after_colon"}`,
		},
		{
			"table",
			Location{Kind: KindTable, TableIndex: 0, RowIndex: 2, CellIndex: 1, Direction: Below, Occupied: true},
			`{"type":"table","table_index":0,"row_index":2,"cell_index":1,"direction":"below","occupied":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.loc)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s\nwant      %s", got, tt.want)
			}

			var back Location
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if back != tt.loc {
				t.Errorf("round trip = %+v, want %+v", back, tt.loc)
			}
		})
	}
}

func TestLocation_UnmarshalUntypedCell(t *testing.T) {
	var loc Location
	if err := json.Unmarshal([]byte(`{"sheet":"表1","cell":"C3","row":3,"column":3}`), &loc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if loc.Kind != KindCell || loc.Cell != "C3" || loc.Row != 3 {
		t.Errorf("loc = %+v", loc)
	}
}

func TestLocation_UnmarshalErrors(t *testing.T) {
	inputs := []string{
		`{"type":"paragraph"}`,
		`{"type":"table","table_index":0}`,
		`{"type":"slide"}`,
		`{}`,
	}
	for _, in := range inputs {
		var loc Location
		if err := json.Unmarshal([]byte(in), &loc); err == nil {
			t.Errorf("Unmarshal(%s) expected error", in)
		}
	}
	if _, err := json.Marshal(Location{}); err == nil {
		t.Error("Marshal of zero Location expected error")
	}
}

func TestLocation_SamePlace(t *testing.T) {
	a := CellAt("S", "A1", 1, 1)
	b := a
	b.Direction, b.Offset = Right, 1
	if !a.SamePlace(b) {
		t.Error("slot attributes should be ignored")
	}
	if a.SamePlace(CellAt("T", "A1", 1, 1)) {
		t.Error("different sheets are different places")
	}
	if ParagraphAt(1).SamePlace(TableCellAt(1, 0, 0)) {
		t.Error("different kinds are different places")
	}
	if got := TableCellAt(1, 2, 3).String(); got != "table 1 row 2 cell 3" {
		t.Errorf("String() = %q", got)
	}
}

func TestFieldDescriptor_JSON(t *testing.T) {
	slot := CellAt("S", "C1", 1, 3)
	slot.Direction, slot.Offset = Right, 1
	f := FieldDescriptor{
		FieldID:       "excel_S_A1",
		FieldName:     "姓名",
		FieldType:     TypeText,
		LabelLocation: CellAt("S", "A1", 1, 1),
		ValueLocation: &slot,
		IsMerged:      true,
		MergeInfo:     &MergeRegion{Range: "A1:B1", TopLeft: "A1", Rows: 1, Cols: 2},
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"field_id":"excel_S_A1"`, `"is_merged":true`, `"top_left":"A1"`, `"direction":"right"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
	if strings.Contains(s, "mapping") {
		t.Errorf("empty mapping should be omitted: %s", s)
	}

	var back FieldDescriptor
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.ValueLocation == nil || *back.ValueLocation != slot || *back.MergeInfo != *f.MergeInfo {
		t.Errorf("round trip = %+v", back)
	}

	var unfilled FieldDescriptor
	if err := json.Unmarshal([]byte(`{"field_id":"x","field_name":"x","field_type":"text","label_location":{"type":"paragraph","paragraph_index":2},"value_location":null}`), &unfilled); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if unfilled.Fillable() {
		t.Error("null value_location should not be fillable")
	}
}

func TestFieldMap(t *testing.T) {
	m := FieldMap{
		{FieldID: "a", FieldName: "A", FieldType: TypeText, LabelLocation: ParagraphAt(0)},
		{FieldID: "b", FieldName: "B", FieldType: TypeDate, LabelLocation: ParagraphAt(1)},
	}

	if f, ok := m.Lookup("b"); !ok || f.FieldName != "B" {
		t.Errorf("Lookup(b) = %+v, %v", f, ok)
	}
	if _, ok := m.Lookup("z"); ok {
		t.Error("Lookup(z) should fail")
	}
	if ids := m.IDs(); len(ids) != 2 || ids[1] != "b" {
		t.Errorf("IDs() = %v", ids)
	}
	if s := m.Summaries(); s[1].FieldType != TypeDate {
		t.Errorf("Summaries() = %+v", s)
	}

	unknown := m.ApplyMappings(map[string]string{"a": "inspection_date", "zz": "notes"})
	if m[0].Mapping != "inspection_date" {
		t.Errorf("mapping not applied: %+v", m[0])
	}
	if len(unknown) != 1 || unknown[0] != "zz" {
		t.Errorf("unknown = %v", unknown)
	}

	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	dup := append(FieldMap{}, m[0], m[0])
	if err := dup.Validate(); err == nil {
		t.Error("duplicate IDs should fail validation")
	}
	self := CellAt("S", "A1", 1, 1)
	bad := FieldMap{{FieldID: "c", FieldType: TypeText, LabelLocation: self, ValueLocation: &self}}
	if err := bad.Validate(); err == nil {
		t.Error("slot equal to label should fail validation")
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{`"23.5"`, "23.5"},
		{`23.5`, "23.5"},
		{`7`, "7"},
		{`true`, "true"},
		{`null`, ""},
		{`"合格"`, "合格"},
	}
	for _, tt := range tests {
		var fv FillValue
		if err := json.Unmarshal([]byte(`{"field_id":"f","value":`+tt.in+`}`), &fv); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
		}
		if fv.Value != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, fv.Value, tt.want)
		}
	}

	var fv FillValue
	if err := json.Unmarshal([]byte(`{"value":{"a":1}}`), &fv); err == nil {
		t.Error("object value should fail")
	}
	if got := FloatValue(23.5); got != "23.5" {
		t.Errorf("FloatValue = %q", got)
	}
}
