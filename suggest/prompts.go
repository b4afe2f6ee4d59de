package suggest

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/tyler-sommer/stick"

	"github.com/tsawler/formfill/fill"
	"github.com/tsawler/formfill/model"
)

//go:embed prompts/*.twig
var promptFS embed.FS

// Prompts renders the twig prompt templates.
type Prompts struct {
	env       *stick.Env
	templates map[string]string
}

// NewPrompts loads the built-in templates, then any overrides keyed by
// template name ("values", "mappings").
func NewPrompts(overrides map[string]string) (*Prompts, error) {
	p := &Prompts{env: stick.New(nil), templates: make(map[string]string)}

	entries, err := fs.ReadDir(promptFS, "prompts")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		b, err := promptFS.ReadFile(path.Join("prompts", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		p.templates[strings.TrimSuffix(e.Name(), ".twig")] = string(b)
	}
	for k, v := range overrides {
		p.templates[k] = v
	}
	return p, nil
}

func (p *Prompts) render(name string, ctx map[string]stick.Value) (string, error) {
	tpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	var out strings.Builder
	if err := p.env.Execute(tpl, &out, ctx); err != nil {
		return "", fmt.Errorf("execute %q: %w", name, err)
	}
	return out.String(), nil
}

// Values renders the prompt asking for a value per field.
func (p *Prompts) Values(fields []model.FieldSummary, evidence []map[string]any) (string, error) {
	f, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", err
	}
	r, err := json.MarshalIndent(evidence, "", "  ")
	if err != nil {
		return "", err
	}
	return p.render("values", map[string]stick.Value{
		"fields":  string(f),
		"results": string(r),
		"pass":    fill.Pass,
		"fail":    fill.Fail,
	})
}

// Mappings renders the prompt asking for an inspection key per field.
func (p *Prompts) Mappings(fields []model.FieldSummary) (string, error) {
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf("%s: %s (%s)", f.FieldID, f.FieldName, f.FieldType)
	}
	keys := make([]string, len(InspectionKeys))
	for i, k := range InspectionKeys {
		keys[i] = k.Key + ": " + k.Label
	}
	return p.render("mappings", map[string]stick.Value{
		"fields":   lines,
		"keys":     keys,
		"readings": ReadingsKey,
	})
}
