package suggest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tsawler/formfill/model"
)

var (
	jsonArray  = regexp.MustCompile(`\[[\s\S]*\]`)
	jsonObject = regexp.MustCompile(`\{[^{}]+\}`)
)

type suggestionJSON struct {
	FieldID        string      `json:"field_id"`
	SuggestedValue model.Value `json:"suggested_value"`
	Value          model.Value `json:"value"`
	Source         string      `json:"source"`
	Confidence     float64     `json:"confidence"`
}

// ParseValues extracts fill values from a model reply. The reply may wrap
// the JSON array in prose or a code fence.
func ParseValues(reply string) ([]model.FillValue, error) {
	raw := jsonArray.FindString(reply)
	if raw == "" {
		return nil, ErrNoSuggestions
	}
	var items []suggestionJSON
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSuggestions, err)
	}

	out := make([]model.FillValue, 0, len(items))
	for _, it := range items {
		if it.FieldID == "" {
			continue
		}
		v := it.SuggestedValue
		if v == "" {
			v = it.Value
		}
		out = append(out, model.FillValue{
			FieldID:    it.FieldID,
			Value:      v,
			Source:     it.Source,
			Confidence: min(max(it.Confidence, 0), 1),
		})
	}
	return out, nil
}

// ParseMappings extracts a field_id to inspection key object from a model
// reply. Null and non-string values are dropped.
func ParseMappings(reply string) (map[string]string, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		return nil, ErrNoSuggestions
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSuggestions, err)
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out[k] = strings.TrimSpace(s)
		}
	}
	return out, nil
}
