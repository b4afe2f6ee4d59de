package formfill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/internal/testdoc"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/store"
	"github.com/tsawler/formfill/suggest"
	"github.com/tsawler/formfill/structure"
	"github.com/tsawler/formfill/xlsx"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// checkWorkbook is a four-field inspection sheet with blank value cells to
// the right of every label.
func checkWorkbook(t *testing.T) []byte {
	t.Helper()
	sheet := testdoc.Worksheet(`<sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" s="0"/></row>
<row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2" s="0"/></row>
<row r="3"><c r="A3" t="s"><v>2</v></c><c r="B3" s="2"/></row>
<row r="4"><c r="A4" t="s"><v>3</v></c><c r="B4" s="0"/></row>
</sheetData>`)
	return testdoc.XLSX(t, []testdoc.Sheet{{Name: "表", XML: sheet}},
		[]string{"設備名稱", "檢查日期", "溫度", "判定"}, "")
}

func checkRecord() suggest.InspectionRecord {
	return suggest.InspectionRecord{
		EquipmentName:       "空壓機 A",
		InspectionDate:      "2024-03-01",
		ConditionAssessment: "正常",
		ExtractedValues:     map[string]any{"溫度": 23.5},
	}
}

func newTestService(opts ...ServiceOption) *Service {
	s := NewService(append([]ServiceOption{WithLogger(quiet)}, opts...)...)
	var n atomic.Int64
	s.newID = func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func uploadCheck(t *testing.T, s *Service) store.Template {
	t.Helper()
	tmpl, err := s.AnalyzeTemplate(context.Background(), Upload{
		Filename:   "monthly.xlsx",
		Content:    checkWorkbook(t),
		VendorName: "甲公司",
	})
	require.NoError(t, err)
	return tmpl
}

func TestService_AnalyzeTemplate(t *testing.T) {
	s := newTestService()
	tmpl := uploadCheck(t, s)

	assert.Equal(t, "id-1", tmpl.ID)
	assert.Equal(t, "monthly", tmpl.Name)
	assert.Equal(t, "甲公司", tmpl.VendorName)
	assert.Equal(t, format.XLSX, tmpl.Format)
	require.Len(t, tmpl.Fields, 4)

	want := map[string]string{
		"excel_表_A1": "equipment_name",
		"excel_表_A2": "inspection_date",
		"excel_表_A3": "extracted_values.溫度",
		"excel_表_A4": "condition_assessment",
	}
	for _, f := range tmpl.Fields {
		assert.Equal(t, want[f.FieldID], f.Mapping, f.FieldID)
		require.NotNil(t, f.ValueLocation, f.FieldID)
		assert.Equal(t, "B", f.ValueLocation.Cell[:1], f.FieldID)
	}

	stored, err := s.GetTemplate(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl, stored)
}

func TestService_AnalyzeTemplate_Rejects(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.AnalyzeTemplate(ctx, Upload{Filename: "scan.pdf", Content: []byte("%PDF-1.7")})
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)

	_, err = s.AnalyzeTemplate(ctx, Upload{Filename: "form.docx", Content: checkWorkbook(t)})
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)

	list, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_MapperFailureKeepsTemplate(t *testing.T) {
	s := newTestService(WithMapper(&suggest.Static{Err: errors.New("quota exceeded")}))
	tmpl := uploadCheck(t, s)

	require.Len(t, tmpl.Fields, 4)
	for _, f := range tmpl.Fields {
		assert.Empty(t, f.Mapping)
	}
}

func TestService_TemplateLifecycle(t *testing.T) {
	s := newTestService(WithMapper(nil))
	ctx := context.Background()
	tmpl := uploadCheck(t, s)

	updated, err := s.SaveFieldMappings(ctx, tmpl.ID, map[string]string{
		"excel_表_A1": "equipment_id",
		"ghost":      "notes",
	})
	require.NoError(t, err)
	f, ok := updated.Fields.Lookup("excel_表_A1")
	require.True(t, ok)
	assert.Equal(t, "equipment_id", f.Mapping)

	stored, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	f, _ = stored.Fields.Lookup("excel_表_A1")
	assert.Equal(t, "equipment_id", f.Mapping)

	_, err = s.SaveFieldMappings(ctx, "missing", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteTemplate(ctx, tmpl.ID))
	assert.ErrorIs(t, s.DeleteTemplate(ctx, tmpl.ID), store.ErrNotFound)
	_, err = s.GetTemplate(ctx, tmpl.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_PreviewTemplateFill(t *testing.T) {
	s := newTestService()
	tmpl := uploadCheck(t, s)

	rec := checkRecord()
	rec.InspectionDate = ""
	res, err := s.PreviewTemplateFill(context.Background(), tmpl.ID, rec)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 3, res.FilledCount)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "欄位 '檢查日期' 對應的資料不存在", res.Warnings[0])
	assert.Contains(t, res.Warnings, "欄位 '檢查日期' 無對應值")
}

func TestService_PreviewValues(t *testing.T) {
	s := newTestService(WithLowConfidence(0.9))
	tmpl := uploadCheck(t, s)

	res, err := s.PreviewValues(context.Background(), tmpl.ID, []model.FillValue{
		{FieldID: "excel_表_A1", Value: "泵浦", Confidence: 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilledCount)
	assert.Contains(t, res.Warnings, "欄位 '設備名稱' 映射信心度較低 (80%)，建議確認")

	_, err = s.PreviewValues(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_SuggestValues(t *testing.T) {
	ctx := context.Background()

	s := newTestService(WithSuggester(&suggest.Static{Values: []model.FillValue{
		{FieldID: "excel_表_A1", Value: "空壓機 A", Confidence: 0.95},
	}}))
	tmpl := uploadCheck(t, s)
	res, err := s.SuggestValues(ctx, tmpl.ID, []suggest.InspectionRecord{checkRecord()})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, res.UnmappedFields, 3)

	none := newTestService()
	tmpl = uploadCheck(t, none)
	res, err = none.SuggestValues(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, suggest.FailureMessage, res.Error)
}

func TestService_GenerateReport(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	tmpl := uploadCheck(t, s)

	r, err := s.GenerateReport(ctx, tmpl.ID, checkRecord())
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, r.Status)
	assert.Equal(t, tmpl.ID, r.TemplateID)
	assert.Empty(t, r.Warnings)

	status, err := s.ReportStatus(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, status.Status)
	assert.Nil(t, status.Content)

	content, ft, err := s.ReportFile(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, format.XLSX, ft)

	wb, err := xlsx.OpenBytes(content)
	require.NoError(t, err)
	sheet, err := wb.SheetByName("表")
	require.NoError(t, err)
	assert.Equal(t, "空壓機 A", sheet.CellByRef("B1").Value)
	assert.Equal(t, "2024-03-01", sheet.CellByRef("B2").Value)
	b3 := sheet.CellByRef("B3")
	assert.Equal(t, "23.5", b3.Value)
	assert.Equal(t, xlsx.CellTypeNumber, b3.Type)
	assert.Equal(t, 2, b3.StyleIndex)

	// The stored template is untouched.
	again, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, checkWorkbook(t), again.Content)

	_, err = s.GenerateReport(ctx, "missing", checkRecord())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.ReportStatus(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_GenerateReportFailure(t *testing.T) {
	templates := store.NewMemory[store.Template]()
	s := newTestService(WithTemplateStore(templates))
	ctx := context.Background()

	slot := model.CellAt("表", "B1", 1, 2)
	require.NoError(t, templates.Put(ctx, store.Template{
		ID:     "broken",
		Format: format.XLSX,
		Fields: model.FieldMap{{
			FieldID:       "excel_表_A1",
			FieldName:     "設備名稱",
			FieldType:     model.TypeText,
			LabelLocation: model.CellAt("表", "A1", 1, 1),
			ValueLocation: &slot,
			Mapping:       "equipment_name",
		}},
		Content: []byte("not a zip"),
	}))

	r, err := s.GenerateReport(ctx, "broken", checkRecord())
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, r.Status)
	assert.NotEmpty(t, r.Error)
	assert.Nil(t, r.Content)

	_, _, err = s.ReportFile(ctx, r.ID)
	assert.ErrorIs(t, err, ErrReportFailed)

	_, err = s.FillTemplate(ctx, "broken", nil)
	assert.ErrorIs(t, err, structure.ErrStructureAnalysis)
}

func TestService_FillTemplate(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	tmpl := uploadCheck(t, s)

	out, err := s.FillTemplate(ctx, tmpl.ID, []model.FillValue{
		{FieldID: "excel_表_A4", Value: "yes", Confidence: 1},
	})
	require.NoError(t, err)

	wb, err := xlsx.OpenBytes(out)
	require.NoError(t, err)
	sheet, _ := wb.SheetByName("表")
	assert.Equal(t, "合格", sheet.CellByRef("B4").Value)
}
