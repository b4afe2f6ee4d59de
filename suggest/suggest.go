// Package suggest proposes fill values and inspection-key mappings for the
// fields of an analysed template.
//
// Suggestions come from an external service and are advisory: a failing
// service yields an empty result with an error message, never a broken
// field map.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tsawler/formfill/model"
)

// ErrNoSuggestions is returned when a reply holds no usable suggestions.
var ErrNoSuggestions = errors.New("no suggestions in reply")

// FailureMessage is the user-facing error of a failed suggestion call.
const FailureMessage = "AI 映射失敗，請手動設定"

// Suggester proposes a value for each field from inspection evidence.
type Suggester interface {
	Suggest(ctx context.Context, fields []model.FieldSummary, evidence []map[string]any) ([]model.FillValue, error)
}

// Mapper proposes which inspection key each template field draws from.
type Mapper interface {
	SuggestMappings(ctx context.Context, fields []model.FieldSummary) (map[string]string, error)
}

// Result is the outcome of MapFields.
type Result struct {
	Success        bool              `json:"success"`
	Mappings       []model.FillValue `json:"mappings"`
	UnmappedFields []string          `json:"unmapped_fields"`
	Error          string            `json:"error,omitempty"`
}

// MapFields asks s for values of every field in fields. A failure is logged
// and reported in the result rather than returned; every field is then
// unmapped.
func MapFields(ctx context.Context, s Suggester, fields model.FieldMap, records []InspectionRecord, log *slog.Logger) Result {
	if log == nil {
		log = slog.Default()
	}

	values, err := s.Suggest(ctx, fields.Summaries(), Evidence(records))
	if err != nil {
		log.Error("suggesting field values failed", "fields", len(fields), "records", len(records), "error", err)
		return Result{
			Mappings:       []model.FillValue{},
			UnmappedFields: fields.IDs(),
			Error:          FailureMessage,
		}
	}
	if values == nil {
		values = []model.FillValue{}
	}

	mapped := make(map[string]bool, len(values))
	for _, v := range values {
		mapped[v.FieldID] = true
	}
	unmapped := make([]string, 0)
	for _, id := range fields.IDs() {
		if !mapped[id] {
			unmapped = append(unmapped, id)
		}
	}

	return Result{Success: true, Mappings: values, UnmappedFields: unmapped}
}

// SuggestMappings asks m for inspection-key mappings. Failures are logged and
// yield an empty map. Keys the record model does not know are dropped.
func SuggestMappings(ctx context.Context, m Mapper, fields model.FieldMap, log *slog.Logger) map[string]string {
	if log == nil {
		log = slog.Default()
	}

	out := make(map[string]string)
	mappings, err := m.SuggestMappings(ctx, fields.Summaries())
	if err != nil {
		log.Error("suggesting mappings failed", "fields", len(fields), "error", err)
		return out
	}

	known := fields.Index()
	for id, key := range mappings {
		if _, ok := known[id]; !ok || key == "" {
			continue
		}
		if !IsInspectionKey(key) {
			log.Warn("dropping unknown inspection key", "field_id", id, "key", key)
			continue
		}
		out[id] = key
	}
	return out
}

// FromMappings builds fill values for every field with a confirmed mapping
// from the record. Mapped fields whose data is missing produce a warning
// instead of a value.
func FromMappings(fields model.FieldMap, rec *InspectionRecord) ([]model.FillValue, []string) {
	values := make([]model.FillValue, 0, len(fields))
	warnings := make([]string, 0)
	for _, f := range fields {
		if f.Mapping == "" {
			continue
		}
		s, ok := rec.Lookup(f.Mapping)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("欄位 '%s' 對應的資料不存在", f.FieldName))
			continue
		}
		values = append(values, model.FillValue{
			FieldID:    f.FieldID,
			Value:      model.Value(s),
			Confidence: 1,
			Source:     f.Mapping,
		})
	}
	return values, warnings
}

// Static returns fixed answers. It is used offline and in tests.
type Static struct {
	Values   []model.FillValue
	Mappings map[string]string
	Err      error
}

// Suggest implements Suggester.
func (s *Static) Suggest(context.Context, []model.FieldSummary, []map[string]any) ([]model.FillValue, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return slices.Clone(s.Values), nil
}

// SuggestMappings implements Mapper.
func (s *Static) SuggestMappings(context.Context, []model.FieldSummary) (map[string]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]string, len(s.Mappings))
	for k, v := range s.Mappings {
		out[k] = v
	}
	return out, nil
}
