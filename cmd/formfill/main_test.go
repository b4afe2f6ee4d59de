package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/formfill/internal/testdoc"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/xlsx"
)

func setup(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"LOG_LEVEL", "GEMINI_API_KEY", "GEMINI_MODEL", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	sheet := testdoc.Worksheet(`<sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" s="0"/></row>
<row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2" s="2"/></row>
</sheetData>`)
	data := testdoc.XLSX(t, []testdoc.Sheet{{Name: "表", XML: sheet}}, []string{"設備名稱", "壓力"}, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.xlsx"), data, 0o600))
	return dir
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Analyze(t *testing.T) {
	dir := setup(t)

	code, out, errOut := runCLI("analyze", filepath.Join(dir, "form.xlsx"))
	require.Equal(t, 0, code, errOut)

	var fields model.FieldMap
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, []string{"excel_表_A1", "excel_表_A2"}, fields.IDs())
	assert.Equal(t, model.TypeNumber, fields[1].FieldType)
}

func TestRun_PreviewAndFill(t *testing.T) {
	dir := setup(t)
	form := filepath.Join(dir, "form.xlsx")

	code, mapJSON, errOut := runCLI("analyze", form)
	require.Equal(t, 0, code, errOut)
	mapPath := filepath.Join(dir, "map.json")
	require.NoError(t, os.WriteFile(mapPath, []byte(mapJSON), 0o600))

	valuesPath := filepath.Join(dir, "values.json")
	require.NoError(t, os.WriteFile(valuesPath, []byte(`[
  {"field_id": "excel_表_A1", "value": "空壓機 A", "confidence": 0.95},
  {"field_id": "excel_表_A2", "value": 6.5, "confidence": 0.4},
  {"field_id": "ghost", "value": "x", "confidence": 1}
]`), 0o600))

	code, out, errOut := runCLI("preview", "-map", mapPath, "-values", valuesPath)
	require.Equal(t, 0, code, errOut)
	var res model.PreviewResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.FilledCount)
	assert.Contains(t, res.Warnings, "填入值 'ghost' 找不到對應欄位")

	outPath := filepath.Join(dir, "out.xlsx")
	code, _, errOut = runCLI("fill", form, "-map", mapPath, "-values", valuesPath, "-o", outPath)
	require.Equal(t, 0, code, errOut)

	wb, err := xlsx.Open(outPath)
	require.NoError(t, err)
	sheet, err := wb.SheetByName("表")
	require.NoError(t, err)
	assert.Equal(t, "空壓機 A", sheet.CellByRef("B1").Value)
	assert.Equal(t, "6.5", sheet.CellByRef("B2").Value)
}

func TestRun_SuggestOffline(t *testing.T) {
	dir := setup(t)

	code, out, errOut := runCLI("suggest", "-offline", filepath.Join(dir, "form.xlsx"))
	require.Equal(t, 0, code, errOut)

	var mappings map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &mappings))
	assert.Equal(t, map[string]string{
		"excel_表_A1": "equipment_name",
		"excel_表_A2": "extracted_values.壓力",
	}, mappings)

	// Without an API key the Gemini path refuses to start.
	code, _, _ = runCLI("suggest", filepath.Join(dir, "form.xlsx"))
	assert.Equal(t, 1, code)
}

func TestRun_Report(t *testing.T) {
	dir := setup(t)
	recPath := filepath.Join(dir, "record.json")
	require.NoError(t, os.WriteFile(recPath, []byte(`{
  "equipment_name": "冷卻水塔",
  "extracted_values": {"壓力": 3}
}`), 0o600))
	outPath := filepath.Join(dir, "report.xlsx")

	code, _, errOut := runCLI("report", filepath.Join(dir, "form.xlsx"), "-record", recPath, "-o", outPath)
	require.Equal(t, 0, code, errOut)

	wb, err := xlsx.Open(outPath)
	require.NoError(t, err)
	sheet, err := wb.SheetByName("表")
	require.NoError(t, err)
	assert.Equal(t, "冷卻水塔", sheet.CellByRef("B1").Value)
	assert.Equal(t, "3", sheet.CellByRef("B2").Value)
}

func TestRun_Usage(t *testing.T) {
	setup(t)

	code, _, errOut := runCLI()
	assert.Equal(t, 2, code)
	assert.True(t, strings.Contains(errOut, "usage: formfill"))

	code, _, _ = runCLI("frobnicate")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI("analyze")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI("fill", "form.xlsx")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI("analyze", "missing.xlsx")
	assert.Equal(t, 1, code)
}
