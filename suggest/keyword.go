package suggest

import (
	"context"
	"strings"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/model"
)

type keywordRule struct {
	key      string
	keywords []string
}

// keywordRules are checked in order; the first rule with a keyword contained
// in the field name wins.
var keywordRules = []keywordRule{
	{"equipment_id", []string{"編號", "serial"}},
	{"equipment_type", []string{"類型", "型號", "型式", "type", "model"}},
	{"inspection_date", []string{"日期", "date"}},
	{"inspector_name", []string{"人員", "檢查員", "巡檢員", "inspector"}},
	{"location", []string{"位置", "廠區", "地點", "location"}},
	{"anomaly_description", []string{"異常描述", "異常說明", "異常內容"}},
	{"is_anomaly", []string{"是否異常", "異常"}},
	{"condition_assessment", []string{"狀況", "狀態", "評估", "判定", "結果", "condition"}},
	{"notes", []string{"備註", "說明", "note", "remark"}},
	{"equipment_name", []string{"名稱", "設備", "equipment", "name"}},
}

// Keyword maps fields to inspection keys by the words in their names. It
// needs no network access and serves as the offline Mapper.
type Keyword struct{}

// SuggestMappings implements Mapper. Number fields that match no rule are
// mapped to the reading of the same name.
func (Keyword) SuggestMappings(_ context.Context, fields []model.FieldSummary) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if key, ok := keywordKey(f.FieldName); ok {
			out[f.FieldID] = key
			continue
		}
		if f.FieldType == model.TypeNumber && f.FieldName != "" {
			out[f.FieldID] = ReadingsKey + "." + f.FieldName
		}
	}
	return out, nil
}

func keywordKey(name string) (string, bool) {
	n := strings.ToLower(classify.Normalize(name))
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(n, kw) {
				return r.key, true
			}
		}
	}
	return "", false
}
