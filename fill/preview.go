// Package fill resolves caller values against a field map and writes them
// into the original document.
//
// Preview is pure and never touches document bytes. The writers patch only
// the located value slots; every other part of the document is copied
// through unchanged.
package fill

import (
	"fmt"

	"github.com/tsawler/formfill/model"
)

// DefaultLowConfidence is the confidence below which a value is flagged for
// review.
const DefaultLowConfidence = 0.7

// Preview joins the field map with values using DefaultLowConfidence.
func Preview(fields model.FieldMap, values []model.FillValue) model.PreviewResult {
	return PreviewWithThreshold(fields, values, DefaultLowConfidence)
}

// PreviewWithThreshold joins the field map with values. Every field yields
// exactly one item in map order. When a field_id appears more than once the
// last value wins.
func PreviewWithThreshold(fields model.FieldMap, values []model.FillValue, lowConfidence float64) model.PreviewResult {
	byID := make(map[string]model.FillValue, len(values))
	for _, v := range values {
		byID[v.FieldID] = v
	}

	res := model.PreviewResult{
		Items:    make([]model.PreviewItem, 0, len(fields)),
		Total:    len(fields),
		Warnings: make([]string, 0),
	}

	for _, f := range fields {
		item := model.PreviewItem{
			FieldID:   f.FieldID,
			FieldName: f.FieldName,
			FieldType: f.FieldType,
			HasTarget: f.Fillable(),
		}

		fv, ok := byID[f.FieldID]
		if ok {
			val := fv.Value
			item.Value = &val
			item.Confidence = fv.Confidence
			item.Source = fv.Source
			res.FilledCount++
		}

		switch {
		case !ok:
			res.Warnings = append(res.Warnings, fmt.Sprintf("欄位 '%s' 無對應值", f.FieldName))
		case fv.Confidence < lowConfidence:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("欄位 '%s' 映射信心度較低 (%.0f%%)，建議確認", f.FieldName, fv.Confidence*100))
		}
		if !item.HasTarget {
			res.Warnings = append(res.Warnings, fmt.Sprintf("欄位 '%s' 找不到值儲存格位置，無法回填", f.FieldName))
		} else if ok && f.ValueLocation.Occupied {
			res.Warnings = append(res.Warnings, fmt.Sprintf("欄位 '%s' 的值儲存格已有內容，回填將覆寫", f.FieldName))
		}

		res.Items = append(res.Items, item)
	}

	// Values that match no field are skipped at fill time.
	known := fields.Index()
	reported := make(map[string]bool)
	for _, v := range values {
		if _, ok := known[v.FieldID]; ok || reported[v.FieldID] {
			continue
		}
		reported[v.FieldID] = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("填入值 '%s' 找不到對應欄位", v.FieldID))
	}

	return res
}
