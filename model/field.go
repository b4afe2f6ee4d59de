package model

import (
	"fmt"
	"slices"
)

// FieldType is the kind of value a field expects.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeCheckbox FieldType = "checkbox"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeCheckbox:
		return true
	}
	return false
}

// MergeRegion describes the merged range a label belongs to.
type MergeRegion struct {
	Range   string `json:"range"`    // e.g. "A1:B2"
	TopLeft string `json:"top_left"` // anchor cell
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
}

// FieldDescriptor is one discovered field: a label and where its value goes.
type FieldDescriptor struct {
	FieldID       string       `json:"field_id"`
	FieldName     string       `json:"field_name"`
	FieldType     FieldType    `json:"field_type"`
	LabelLocation Location     `json:"label_location"`
	ValueLocation *Location    `json:"value_location"`
	IsMerged      bool         `json:"is_merged"`
	MergeInfo     *MergeRegion `json:"merge_info"`
	// Mapping is the inspection data key confirmed for this field.
	Mapping string `json:"mapping,omitempty"`
}

// Fillable reports whether the field has a resolved value slot.
func (f *FieldDescriptor) Fillable() bool {
	return f.ValueLocation != nil
}

// FieldSummary is the part of a descriptor shared with a suggestion service.
type FieldSummary struct {
	FieldID   string    `json:"field_id"`
	FieldName string    `json:"field_name"`
	FieldType FieldType `json:"field_type"`
}

// FieldMap is the ordered field position map of one document.
type FieldMap []FieldDescriptor

// Lookup returns the descriptor with the given ID.
func (m FieldMap) Lookup(id string) (*FieldDescriptor, bool) {
	for i := range m {
		if m[i].FieldID == id {
			return &m[i], true
		}
	}
	return nil, false
}

// Index returns descriptors keyed by field ID.
func (m FieldMap) Index() map[string]*FieldDescriptor {
	idx := make(map[string]*FieldDescriptor, len(m))
	for i := range m {
		idx[m[i].FieldID] = &m[i]
	}
	return idx
}

// IDs returns the field IDs in map order.
func (m FieldMap) IDs() []string {
	ids := make([]string, len(m))
	for i := range m {
		ids[i] = m[i].FieldID
	}
	return ids
}

// Summaries returns the fields as suggestion input.
func (m FieldMap) Summaries() []FieldSummary {
	out := make([]FieldSummary, len(m))
	for i, f := range m {
		out[i] = FieldSummary{FieldID: f.FieldID, FieldName: f.FieldName, FieldType: f.FieldType}
	}
	return out
}

// ApplyMappings sets Mapping on every descriptor named in mappings and
// returns the IDs that matched no descriptor.
func (m FieldMap) ApplyMappings(mappings map[string]string) []string {
	idx := m.Index()
	var unknown []string
	for id, key := range mappings {
		f, ok := idx[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		f.Mapping = key
	}
	slices.Sort(unknown)
	return unknown
}

// Validate checks the invariants every analysed map holds: unique IDs and
// value slots distinct from their labels.
func (m FieldMap) Validate() error {
	seen := make(map[string]bool, len(m))
	for _, f := range m {
		if seen[f.FieldID] {
			return fmt.Errorf("duplicate field id %q", f.FieldID)
		}
		seen[f.FieldID] = true
		if !f.FieldType.Valid() {
			return fmt.Errorf("field %q: unknown type %q", f.FieldID, f.FieldType)
		}
		if f.ValueLocation != nil && f.ValueLocation.Kind != KindParagraph &&
			f.ValueLocation.SamePlace(f.LabelLocation) {
			return fmt.Errorf("field %q: value slot equals label", f.FieldID)
		}
	}
	return nil
}
