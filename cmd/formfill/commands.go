package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/formfill"
	"github.com/tsawler/formfill/fill"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/store"
	"github.com/tsawler/formfill/suggest"
)

func newFlags(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseArgs parses flags given before or after the positional file.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return pos, nil
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func (a *app) form(path string) *formfill.Form {
	return formfill.Open(path).
		Rules(a.cfg.Rules()).
		LowConfidence(a.cfg.Preview.LowConfidence).
		Logger(a.log)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func oneFile(pos []string) (string, error) {
	if len(pos) != 1 {
		return "", fmt.Errorf("%w: expected one file, got %d", errUsage, len(pos))
	}
	return pos[0], nil
}

// fieldsFor returns the map stored in mapPath, or analyses file.
func (a *app) fieldsFor(mapPath, file string) (model.FieldMap, error) {
	if mapPath != "" {
		var fields model.FieldMap
		if err := readJSON(mapPath, &fields); err != nil {
			return nil, err
		}
		return fields, fields.Validate()
	}
	if file == "" {
		return nil, fmt.Errorf("%w: need -map or a file", errUsage)
	}
	return a.form(file).Fields()
}

func analyzeCmd(_ context.Context, a *app, args []string) error {
	fs := newFlags("analyze", a)
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	file, err := oneFile(pos)
	if err != nil {
		return err
	}
	fields, err := a.form(file).Fields()
	if err != nil {
		return err
	}
	a.log.Info("analysed", "file", file, "fields", len(fields))
	return a.printJSON(fields)
}

func previewCmd(_ context.Context, a *app, args []string) error {
	fs := newFlags("preview", a)
	mapPath := fs.String("map", "", "field map JSON from analyze")
	valuesPath := fs.String("values", "", "fill values JSON")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if *valuesPath == "" {
		return fmt.Errorf("%w: -values is required", errUsage)
	}
	var file string
	if len(pos) > 0 {
		file = pos[0]
	}
	fields, err := a.fieldsFor(*mapPath, file)
	if err != nil {
		return err
	}
	var values []model.FillValue
	if err := readJSON(*valuesPath, &values); err != nil {
		return err
	}
	return a.printJSON(fill.PreviewWithThreshold(fields, values, a.cfg.Preview.LowConfidence))
}

func suggestCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("suggest", a)
	recordsPath := fs.String("records", "", "inspection records JSON; without it only mappings are suggested")
	offline := fs.Bool("offline", false, "use the keyword mapper instead of Gemini")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	file, err := oneFile(pos)
	if err != nil {
		return err
	}
	fields, err := a.form(file).Fields()
	if err != nil {
		return err
	}

	if *recordsPath == "" {
		var m suggest.Mapper = suggest.Keyword{}
		if !*offline {
			g, err := a.gemini(ctx)
			if err != nil {
				return err
			}
			m = g
		}
		return a.printJSON(suggest.SuggestMappings(ctx, m, fields, a.log))
	}

	if *offline {
		return fmt.Errorf("%w: value suggestions need Gemini; drop -offline", errUsage)
	}
	var records []suggest.InspectionRecord
	if err := readJSON(*recordsPath, &records); err != nil {
		return err
	}
	g, err := a.gemini(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(suggest.MapFields(ctx, g, fields, records, a.log))
}

func (a *app) gemini(ctx context.Context) (*suggest.Gemini, error) {
	if a.cfg.Gemini.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set; use -offline for keyword mappings")
	}
	return suggest.NewGemini(ctx, a.cfg.Gemini.APIKey,
		suggest.WithModel(a.cfg.Gemini.Model),
		suggest.WithGeminiLogger(a.log))
}

func fillCmd(_ context.Context, a *app, args []string) error {
	fs := newFlags("fill", a)
	mapPath := fs.String("map", "", "field map JSON from analyze (default: analyse the file)")
	valuesPath := fs.String("values", "", "fill values JSON")
	out := fs.String("o", "", "output file")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	file, err := oneFile(pos)
	if err != nil {
		return err
	}
	if *valuesPath == "" || *out == "" {
		return fmt.Errorf("%w: -values and -o are required", errUsage)
	}

	fields, err := a.fieldsFor(*mapPath, file)
	if err != nil {
		return err
	}
	var values []model.FillValue
	if err := readJSON(*valuesPath, &values); err != nil {
		return err
	}

	res := fill.PreviewWithThreshold(fields, values, a.cfg.Preview.LowConfidence)
	for _, w := range res.Warnings {
		a.log.Warn(w)
	}
	data, err := a.form(file).FillFields(fields, values)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	a.log.Info("filled", "file", file, "out", *out, "filled", res.FilledCount, "fields", res.Total)
	return nil
}

func reportCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("report", a)
	recordPath := fs.String("record", "", "inspection record JSON")
	out := fs.String("o", "", "output file")
	vendor := fs.String("vendor", "", "vendor name stored with the template")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	file, err := oneFile(pos)
	if err != nil {
		return err
	}
	if *recordPath == "" || *out == "" {
		return fmt.Errorf("%w: -record and -o are required", errUsage)
	}
	var rec suggest.InspectionRecord
	if err := readJSON(*recordPath, &rec); err != nil {
		return err
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	svc, closeFn, err := a.service(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	tmpl, err := svc.AnalyzeTemplate(ctx, formfill.Upload{
		Filename:   filepath.Base(file),
		Content:    content,
		VendorName: *vendor,
	})
	if err != nil {
		return err
	}
	preview, err := svc.PreviewTemplateFill(ctx, tmpl.ID, rec)
	if err != nil {
		return err
	}
	for _, w := range preview.Warnings {
		a.log.Warn(w)
	}

	r, err := svc.GenerateReport(ctx, tmpl.ID, rec)
	if err != nil {
		return err
	}
	data, _, err := svc.ReportFile(ctx, r.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	a.log.Info("report written", "template_id", tmpl.ID, "report_id", r.ID, "out", *out)
	return nil
}

func templatesCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("templates", a)
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	svc, closeFn, err := a.service(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := svc.ListTemplates(ctx)
	if err != nil {
		return err
	}
	type summary struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		VendorName string `json:"vendor_name"`
		FileType   string `json:"file_type"`
		Fields     int    `json:"field_count"`
	}
	out := make([]summary, len(list))
	for i, t := range list {
		out[i] = summary{t.ID, t.Name, t.VendorName, t.Format.String(), len(t.Fields)}
	}
	return a.printJSON(out)
}

// service builds a Service over PostgreSQL when a database is configured and
// over memory otherwise. Gemini maps template keys when a key is set.
func (a *app) service(ctx context.Context) (*formfill.Service, func(), error) {
	opts := []formfill.ServiceOption{
		formfill.WithLogger(a.log),
		formfill.WithRules(a.cfg.Rules()),
		formfill.WithLowConfidence(a.cfg.Preview.LowConfidence),
	}
	if a.cfg.Gemini.APIKey != "" {
		g, err := a.gemini(ctx)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, formfill.WithMapper(g), formfill.WithSuggester(g))
	}

	closeFn := func() {}
	if a.cfg.Database.URL != "" {
		db, err := store.OpenPostgres(ctx, a.cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { db.Close() }

		templates, err := store.NewPostgres[store.Template](db, "templates")
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		reports, err := store.NewPostgres[store.Report](db, "reports")
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		for _, s := range []interface{ EnsureSchema(context.Context) error }{templates, reports} {
			if err := s.EnsureSchema(ctx); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("preparing schema: %w", err)
			}
		}
		opts = append(opts, formfill.WithTemplateStore(templates), formfill.WithReportStore(reports))
		a.log.Debug("using postgres store")
	}
	return formfill.NewService(opts...), closeFn, nil
}
