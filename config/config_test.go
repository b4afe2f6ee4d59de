package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/formfill/model"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LOG_LEVEL", "GEMINI_API_KEY", "GEMINI_MODEL", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.InDelta(t, 0.7, cfg.Preview.LowConfidence, 1e-9)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "formfill.yaml", `
log_level: debug
gemini:
  api_key: from-file
database:
  url: postgres://file
preview:
  low_confidence: 0.5
classifier:
  label_keywords: ["品名"]
  max_label_length: 20
`)
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "postgres://file", cfg.Database.URL)
	assert.InDelta(t, 0.5, cfg.Preview.LowConfidence, 1e-9)
	assert.Equal(t, []string{"品名"}, cfg.Classifier.LabelKeywords)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("GEMINI_MODEL")
	env := writeFile(t, "test.env", "DATABASE_URL=postgres://dotenv\nGEMINI_MODEL=gemini-pro\n")
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("GEMINI_MODEL")
	})

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv", cfg.Database.URL)
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	noEnv := filepath.Join(t.TempDir(), "missing.env")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnv)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "log_level: [\n"), noEnv)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "lvl.yaml", "log_level: loud\n"), noEnv)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "conf.yaml", "preview:\n  low_confidence: 1.5\n"), noEnv)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"", slog.LevelInfo, true},
		{"DEBUG", slog.LevelDebug, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, err == nil, tt.in)
	}
}

func TestRules(t *testing.T) {
	cfg := Default()
	cfg.Classifier.LabelKeywords = []string{"品名"}
	cfg.Classifier.NumberKeywords = []string{"重量"}
	r := cfg.Rules()

	assert.True(t, r.IsFieldLabel("品名"))
	assert.False(t, r.IsFieldLabel("設備"))
	assert.Equal(t, model.TypeNumber, r.GuessFieldType("重量"))
	assert.Equal(t, model.TypeDate, r.GuessFieldType("檢查日期"))
	assert.Equal(t, model.TypeText, r.GuessFieldType("溫度"))

	def := Default().Rules()
	assert.True(t, def.IsFieldLabel("設備名稱"))
	assert.Equal(t, model.TypeNumber, def.GuessFieldType("溫度"))
}
