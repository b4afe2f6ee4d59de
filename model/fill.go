package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FillValue is a caller-supplied value for one field.
type FillValue struct {
	FieldID    string  `json:"field_id"`
	Value      Value   `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Value is a fill value in text form. It decodes from JSON strings, numbers
// and booleans so suggestion output can be passed through unchanged.
type Value string

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Value(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Value(n.String())
	}
	return nil
}

// String returns the value text.
func (v Value) String() string { return string(v) }

// FloatValue returns a Value for a number.
func FloatValue(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// PreviewItem joins a descriptor with the value offered for it.
type PreviewItem struct {
	FieldID    string    `json:"field_id"`
	FieldName  string    `json:"field_name"`
	FieldType  FieldType `json:"field_type"`
	Value      *Value    `json:"value"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	HasTarget  bool      `json:"has_target"`
}

// PreviewResult is the outcome of resolving values against a field map.
type PreviewResult struct {
	Items       []PreviewItem `json:"preview_items"`
	Total       int           `json:"total_fields"`
	FilledCount int           `json:"filled_count"`
	Warnings    []string      `json:"warnings"`
}
