package suggest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/formfill/model"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testFields() model.FieldMap {
	slot := model.CellAt("S", "B1", 1, 2)
	return model.FieldMap{
		{FieldID: "excel_S_A1", FieldName: "設備名稱", FieldType: model.TypeText, LabelLocation: model.CellAt("S", "A1", 1, 1), ValueLocation: &slot},
		{FieldID: "excel_S_A2", FieldName: "檢查日期", FieldType: model.TypeDate, LabelLocation: model.CellAt("S", "A2", 2, 1)},
		{FieldID: "excel_S_A3", FieldName: "溫度", FieldType: model.TypeNumber, LabelLocation: model.CellAt("S", "A3", 3, 1)},
	}
}

func testRecord() InspectionRecord {
	return InspectionRecord{
		EquipmentName:  "空壓機 A",
		EquipmentID:    "EQ-001",
		InspectionDate: "2024-03-01",
		InspectorName:  "王小明",
		IsAnomaly:      true,
		ExtractedValues: map[string]any{
			"溫度": 23.5,
			"狀態": "運轉中",
		},
	}
}

func TestMapFields_Success(t *testing.T) {
	s := &Static{Values: []model.FillValue{
		{FieldID: "excel_S_A1", Value: "空壓機 A", Confidence: 0.95, Source: "equipment_name"},
	}}

	res := MapFields(context.Background(), s, testFields(), []InspectionRecord{testRecord()}, quiet)

	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	require.Len(t, res.Mappings, 1)
	assert.Equal(t, []string{"excel_S_A2", "excel_S_A3"}, res.UnmappedFields)
}

func TestMapFields_FailureIsAbsorbed(t *testing.T) {
	s := &Static{Err: errors.New("quota exceeded")}

	res := MapFields(context.Background(), s, testFields(), nil, quiet)

	assert.False(t, res.Success)
	assert.Equal(t, FailureMessage, res.Error)
	assert.Equal(t, "AI 映射失敗，請手動設定", res.Error)
	assert.Empty(t, res.Mappings)
	assert.NotNil(t, res.Mappings)
	assert.Equal(t, testFields().IDs(), res.UnmappedFields)
}

func TestSuggestMappings_Filters(t *testing.T) {
	m := &Static{Mappings: map[string]string{
		"excel_S_A1": "equipment_name",
		"excel_S_A2": "inspection_date",
		"excel_S_A3": "extracted_values.溫度",
		"ghost":      "notes",
		"excel_S_A9": "",
	}}
	fields := testFields()
	fields = append(fields, model.FieldDescriptor{FieldID: "excel_S_A4", FieldName: "x", FieldType: model.TypeText})
	m.Mappings["excel_S_A4"] = "favourite_colour"

	got := SuggestMappings(context.Background(), m, fields, quiet)

	assert.Equal(t, map[string]string{
		"excel_S_A1": "equipment_name",
		"excel_S_A2": "inspection_date",
		"excel_S_A3": "extracted_values.溫度",
	}, got)

	failed := SuggestMappings(context.Background(), &Static{Err: errors.New("down")}, fields, quiet)
	assert.NotNil(t, failed)
	assert.Empty(t, failed)
}

func TestFromMappings(t *testing.T) {
	fields := testFields()
	fields[0].Mapping = "equipment_name"
	fields[1].Mapping = "location" // empty in the record
	fields[2].Mapping = "extracted_values.溫度"

	rec := testRecord()
	values, warnings := FromMappings(fields, &rec)

	require.Len(t, values, 2)
	assert.Equal(t, model.Value("空壓機 A"), values[0].Value)
	assert.Equal(t, "equipment_name", values[0].Source)
	assert.InDelta(t, 1.0, values[0].Confidence, 0)
	assert.Equal(t, model.Value("23.5"), values[1].Value)
	assert.Equal(t, []string{"欄位 '檢查日期' 對應的資料不存在"}, warnings)
}

func TestInspectionRecord_Lookup(t *testing.T) {
	rec := testRecord()

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"equipment_name", "空壓機 A", true},
		{"equipment_id", "EQ-001", true},
		{"notes", "", false},
		{"is_anomaly", "true", true},
		{"extracted_values.溫度", "23.5", true},
		{"溫度", "23.5", true},
		{"extracted_values.壓力", "", false},
		{"extracted_values", `{"溫度":23.5,"狀態":"運轉中"}`, true},
	}
	for _, tt := range tests {
		got, ok := rec.Lookup(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.key == "extracted_values" {
			assert.Contains(t, got, `"溫度":23.5`)
			continue
		}
		assert.Equal(t, tt.want, got, tt.key)
	}

	assert.True(t, IsInspectionKey("notes"))
	assert.True(t, IsInspectionKey("extracted_values.壓力"))
	assert.False(t, IsInspectionKey("溫度"))
}

func TestEvidence(t *testing.T) {
	ev := Evidence([]InspectionRecord{testRecord(), {EquipmentName: "泵浦"}})

	require.Len(t, ev, 2)
	assert.Equal(t, 1, ev[1]["index"])
	assert.Equal(t, "空壓機 A", ev[0]["equipment_name"])
	assert.Equal(t, true, ev[0]["is_anomaly"])
	assert.NotNil(t, ev[1]["readings"])
}

func TestParseValues(t *testing.T) {
	reply := "好的，以下是結果：\n```json\n" + `[
  {"field_id": "excel_S_A1", "suggested_value": "空壓機 A", "source": "結果0.equipment_name", "confidence": 0.95},
  {"field_id": "excel_S_A3", "suggested_value": 23.5, "confidence": 1.4},
  {"field_id": "excel_S_A2", "value": "2024-03-01", "confidence": -1},
  {"suggested_value": "orphan"}
]` + "\n```"

	got, err := ParseValues(reply)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.Value("空壓機 A"), got[0].Value)
	assert.Equal(t, model.Value("23.5"), got[1].Value)
	assert.InDelta(t, 1.0, got[1].Confidence, 1e-9)
	assert.Equal(t, model.Value("2024-03-01"), got[2].Value)
	assert.InDelta(t, 0.0, got[2].Confidence, 1e-9)

	_, err = ParseValues("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoSuggestions)
	_, err = ParseValues("[not json]")
	assert.ErrorIs(t, err, ErrNoSuggestions)

	empty, err := ParseValues("[]")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseMappings(t *testing.T) {
	got, err := ParseMappings(`Here you go: {"excel_S_A1": "equipment_name", "excel_S_A2": null, "excel_S_A3": " notes ", "x": 3}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"excel_S_A1": "equipment_name", "excel_S_A3": "notes"}, got)

	_, err = ParseMappings("none")
	assert.ErrorIs(t, err, ErrNoSuggestions)
}

func TestGemini_WithFakeGenerator(t *testing.T) {
	var prompts []string
	g, err := newGemini(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if strings.Contains(prompt, "巡檢資料可用欄位") {
			return `{"excel_S_A1": "equipment_name"}`, nil
		}
		return `[{"field_id": "excel_S_A1", "suggested_value": "空壓機 A", "confidence": 0.9}]`, nil
	}, WithGeminiLogger(quiet))
	require.NoError(t, err)

	res := MapFields(context.Background(), g, testFields(), []InspectionRecord{testRecord()}, quiet)
	require.True(t, res.Success)
	require.Len(t, res.Mappings, 1)
	assert.Equal(t, model.Value("空壓機 A"), res.Mappings[0].Value)

	mappings := SuggestMappings(context.Background(), g, testFields(), quiet)
	assert.Equal(t, map[string]string{"excel_S_A1": "equipment_name"}, mappings)

	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], `"field_name": "設備名稱"`)
	assert.Contains(t, prompts[0], "空壓機 A")
	assert.Contains(t, prompts[0], "「合格」或「不合格」")
	assert.Contains(t, prompts[1], "- excel_S_A2: 檢查日期 (date)")
	assert.Contains(t, prompts[1], "- inspection_date: 檢查日期")
	assert.Contains(t, prompts[1], `"extracted_values.<讀數名稱>"`)
}

func TestGemini_GenerateError(t *testing.T) {
	g, err := newGemini(func(context.Context, string) (string, error) {
		return "", errors.New("503")
	})
	require.NoError(t, err)

	res := MapFields(context.Background(), g, testFields(), nil, quiet)
	assert.False(t, res.Success)
	assert.Len(t, res.UnmappedFields, 3)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "")
	assert.Error(t, err)
}

func TestPrompts_Override(t *testing.T) {
	p, err := NewPrompts(map[string]string{"mappings": "{% for f in fields %}[{{ f }}]{% endfor %}"})
	require.NoError(t, err)

	out, err := p.Mappings(testFields().Summaries())
	require.NoError(t, err)
	assert.Equal(t, "[excel_S_A1: 設備名稱 (text)][excel_S_A2: 檢查日期 (date)][excel_S_A3: 溫度 (number)]", out)

	_, err = (&Prompts{env: p.env, templates: map[string]string{}}).Values(nil, nil)
	assert.Error(t, err)
}

func TestKeyword(t *testing.T) {
	fields := []model.FieldSummary{
		{FieldID: "a", FieldName: "設備編號", FieldType: model.TypeText},
		{FieldID: "b", FieldName: "設備名稱", FieldType: model.TypeText},
		{FieldID: "c", FieldName: "檢查日期", FieldType: model.TypeDate},
		{FieldID: "d", FieldName: "檢查人員", FieldType: model.TypeText},
		{FieldID: "e", FieldName: "異常說明", FieldType: model.TypeText},
		{FieldID: "f", FieldName: "是否異常", FieldType: model.TypeCheckbox},
		{FieldID: "g", FieldName: "判定", FieldType: model.TypeCheckbox},
		{FieldID: "h", FieldName: "壓力", FieldType: model.TypeNumber},
		{FieldID: "i", FieldName: "簽名", FieldType: model.TypeText},
		{FieldID: "j", FieldName: "Inspection Date", FieldType: model.TypeDate},
	}

	got, err := Keyword{}.SuggestMappings(context.Background(), fields)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a": "equipment_id",
		"b": "equipment_name",
		"c": "inspection_date",
		"d": "inspector_name",
		"e": "anomaly_description",
		"f": "is_anomaly",
		"g": "condition_assessment",
		"h": "extracted_values.壓力",
		"j": "inspection_date",
	}, got)
}
