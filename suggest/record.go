package suggest

import (
	"encoding/json"
	"strconv"
	"strings"
)

// InspectionRecord is one analysed inspection result: the data a filled
// report draws from.
type InspectionRecord struct {
	EquipmentName       string         `json:"equipment_name"`
	EquipmentType       string         `json:"equipment_type,omitempty"`
	EquipmentID         string         `json:"equipment_id,omitempty"`
	InspectionDate      string         `json:"inspection_date,omitempty"`
	InspectorName       string         `json:"inspector_name,omitempty"`
	Location            string         `json:"location,omitempty"`
	ConditionAssessment string         `json:"condition_assessment,omitempty"`
	AnomalyDescription  string         `json:"anomaly_description,omitempty"`
	IsAnomaly           bool           `json:"is_anomaly"`
	Notes               string         `json:"notes,omitempty"`
	ExtractedValues     map[string]any `json:"extracted_values,omitempty"`
}

// InspectionKey describes one field of InspectionRecord that a template
// field can be mapped to.
type InspectionKey struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"` // a field type, or "dict" for readings
}

// ReadingsKey is the key of the instrument readings map. A single reading is
// addressed as ReadingsKey + "." + name.
const ReadingsKey = "extracted_values"

// InspectionKeys lists the mappable keys in display order.
var InspectionKeys = []InspectionKey{
	{"equipment_name", "設備名稱", "text"},
	{"equipment_type", "設備類型", "text"},
	{"equipment_id", "設備編號", "text"},
	{"inspection_date", "檢查日期", "date"},
	{"inspector_name", "檢查人員", "text"},
	{"location", "位置/廠區", "text"},
	{"condition_assessment", "狀況評估", "text"},
	{"anomaly_description", "異常描述", "text"},
	{"is_anomaly", "是否異常", "checkbox"},
	{"notes", "備註", "text"},
	{ReadingsKey, "儀表讀數/量測值", "dict"},
}

// IsInspectionKey reports whether key names a record field or a reading.
func IsInspectionKey(key string) bool {
	if strings.HasPrefix(key, ReadingsKey+".") {
		return true
	}
	for _, k := range InspectionKeys {
		if k.Key == key {
			return true
		}
	}
	return false
}

// Lookup returns the record's value for a mapping key as text. Empty fields
// and unknown readings report false. A key that is not a record field is
// tried as a reading name.
func (r *InspectionRecord) Lookup(key string) (string, bool) {
	var s string
	switch key {
	case "equipment_name":
		s = r.EquipmentName
	case "equipment_type":
		s = r.EquipmentType
	case "equipment_id":
		s = r.EquipmentID
	case "inspection_date":
		s = r.InspectionDate
	case "inspector_name":
		s = r.InspectorName
	case "location":
		s = r.Location
	case "condition_assessment":
		s = r.ConditionAssessment
	case "anomaly_description":
		s = r.AnomalyDescription
	case "notes":
		s = r.Notes
	case "is_anomaly":
		return strconv.FormatBool(r.IsAnomaly), true
	case ReadingsKey:
		if len(r.ExtractedValues) == 0 {
			return "", false
		}
		return formatAny(r.ExtractedValues), true
	default:
		name := strings.TrimPrefix(key, ReadingsKey+".")
		v, ok := r.ExtractedValues[name]
		if !ok || v == nil {
			return "", false
		}
		return formatAny(v), true
	}
	return s, s != ""
}

// Evidence summarises the record for a suggestion prompt.
func (r *InspectionRecord) Evidence(index int) map[string]any {
	readings := r.ExtractedValues
	if readings == nil {
		readings = map[string]any{}
	}
	return map[string]any{
		"index":           index,
		"equipment_name":  r.EquipmentName,
		"equipment_type":  r.EquipmentType,
		"equipment_id":    r.EquipmentID,
		"inspection_date": r.InspectionDate,
		"inspector_name":  r.InspectorName,
		"location":        r.Location,
		"condition":       r.ConditionAssessment,
		"is_anomaly":      r.IsAnomaly,
		"readings":        readings,
		"anomaly":         r.AnomalyDescription,
		"notes":           r.Notes,
	}
}

// Evidence summarises records in order.
func Evidence(records []InspectionRecord) []map[string]any {
	out := make([]map[string]any, len(records))
	for i := range records {
		out[i] = records[i].Evidence(i)
	}
	return out
}

func formatAny(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
