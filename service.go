package formfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/fill"
	"github.com/tsawler/formfill/format"
	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/store"
	"github.com/tsawler/formfill/structure"
	"github.com/tsawler/formfill/suggest"
)

// ErrReportFailed is returned when the content of a failed report is
// requested.
var ErrReportFailed = errors.New("report generation failed")

// Service manages vendor templates and the reports filled from them.
// It is safe for concurrent use when its repositories are.
type Service struct {
	templates store.Repository[store.Template]
	reports   store.Repository[store.Report]

	rules         *classify.Rules
	analyzer      *structure.Analyzer
	writer        *fill.Writer
	mapper        suggest.Mapper
	suggester     suggest.Suggester
	lowConfidence float64
	concurrency   int

	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTemplateStore sets where templates are kept.
func WithTemplateStore(r store.Repository[store.Template]) ServiceOption {
	return func(s *Service) { s.templates = r }
}

// WithReportStore sets where reports are kept.
func WithReportStore(r store.Repository[store.Report]) ServiceOption {
	return func(s *Service) { s.reports = r }
}

// WithRules sets the classifier used for analysis.
func WithRules(r *classify.Rules) ServiceOption {
	return func(s *Service) { s.rules = r }
}

// WithMapper sets the source of template key mappings. Nil disables mapping
// suggestions.
func WithMapper(m suggest.Mapper) ServiceOption {
	return func(s *Service) { s.mapper = m }
}

// WithSuggester sets the source of value suggestions.
func WithSuggester(sg suggest.Suggester) ServiceOption {
	return func(s *Service) { s.suggester = sg }
}

// WithLowConfidence sets the preview warning threshold.
func WithLowConfidence(t float64) ServiceOption {
	return func(s *Service) { s.lowConfidence = t }
}

// WithConcurrency limits batch operations to n documents at a time.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService returns a Service. Without options it keeps everything in
// memory and suggests mappings with the offline keyword mapper.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		rules:         classify.Default,
		mapper:        suggest.Keyword{},
		lowConfidence: fill.DefaultLowConfidence,
		concurrency:   runtime.NumCPU(),
		log:           slog.Default(),
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.templates == nil {
		s.templates = store.NewMemory[store.Template]()
	}
	if s.reports == nil {
		s.reports = store.NewMemory[store.Report]()
	}
	s.analyzer = structure.New(structure.Config{Rules: s.rules})
	s.writer = fill.NewWriter(fill.WithLogger(s.log))
	return s
}

// Upload is a template file submitted for analysis.
type Upload struct {
	Filename    string
	Content     []byte
	Name        string
	VendorName  string
	Description string
}

// AnalyzeTemplate analyses an uploaded form, suggests inspection-key
// mappings for its fields and stores it. A failing mapper leaves the fields
// unmapped; it never fails the upload.
func (s *Service) AnalyzeTemplate(ctx context.Context, up Upload) (store.Template, error) {
	ft, err := format.Resolve(up.Filename, up.Content)
	if err != nil {
		return store.Template{}, err
	}
	fields, err := s.analyzer.Analyze(up.Content, ft)
	if err != nil {
		return store.Template{}, err
	}

	if s.mapper != nil && len(fields) > 0 {
		mappings := suggest.SuggestMappings(ctx, s.mapper, fields, s.log)
		fields.ApplyMappings(mappings)
	}

	name := up.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(up.Filename), filepath.Ext(up.Filename))
	}
	t := store.Template{
		ID:          s.newID(),
		Name:        name,
		VendorName:  up.VendorName,
		Format:      ft,
		Description: up.Description,
		Fields:      fields,
		Content:     up.Content,
		CreatedAt:   s.now(),
	}
	if err := s.templates.Put(ctx, t); err != nil {
		return store.Template{}, fmt.Errorf("storing template: %w", err)
	}
	s.log.Info("template analysed", "template_id", t.ID, "name", t.Name, "format", ft, "fields", len(fields))
	return t, nil
}

// ListTemplates returns every stored template.
func (s *Service) ListTemplates(ctx context.Context) ([]store.Template, error) {
	return s.templates.List(ctx)
}

// GetTemplate returns one template or store.ErrNotFound.
func (s *Service) GetTemplate(ctx context.Context, id string) (store.Template, error) {
	return s.templates.Get(ctx, id)
}

// DeleteTemplate removes a template. Reports generated from it are kept.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("template deleted", "template_id", id)
	return nil
}

// SaveFieldMappings confirms inspection-key mappings for a template's fields.
// An empty key clears a mapping. Unknown field IDs are ignored and logged.
func (s *Service) SaveFieldMappings(ctx context.Context, id string, mappings map[string]string) (store.Template, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return store.Template{}, err
	}
	if unknown := t.Fields.ApplyMappings(mappings); len(unknown) > 0 {
		s.log.Warn("ignoring mappings for unknown fields", "template_id", id, "field_ids", unknown)
	}
	if err := s.templates.Put(ctx, t); err != nil {
		return store.Template{}, fmt.Errorf("storing template: %w", err)
	}
	return t, nil
}

// SuggestValues asks the suggester for values of a template's fields from
// inspection records. Without a suggester, or when it fails, the result
// reports failure and every field is unmapped.
func (s *Service) SuggestValues(ctx context.Context, id string, records []suggest.InspectionRecord) (suggest.Result, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return suggest.Result{}, err
	}
	sg := s.suggester
	if sg == nil {
		sg = &suggest.Static{Err: errors.New("no suggester configured")}
	}
	return suggest.MapFields(ctx, sg, t.Fields, records, s.log), nil
}

// PreviewValues resolves explicit values against a stored template.
func (s *Service) PreviewValues(ctx context.Context, id string, values []model.FillValue) (model.PreviewResult, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return model.PreviewResult{}, err
	}
	return fill.PreviewWithThreshold(t.Fields, values, s.lowConfidence), nil
}

// PreviewTemplateFill previews filling a template from one inspection record
// through its confirmed mappings. Mapped fields whose data is missing are
// reported ahead of the preview warnings.
func (s *Service) PreviewTemplateFill(ctx context.Context, id string, rec suggest.InspectionRecord) (model.PreviewResult, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return model.PreviewResult{}, err
	}
	values, missing := suggest.FromMappings(t.Fields, &rec)
	res := fill.PreviewWithThreshold(t.Fields, values, s.lowConfidence)
	res.Warnings = append(missing, res.Warnings...)
	return res, nil
}

// FillTemplate writes explicit values into a copy of a stored template.
func (s *Service) FillTemplate(ctx context.Context, id string, values []model.FillValue) ([]byte, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.writer.Fill(t.Content, t.Format, t.Fields, values)
}

// GenerateReport fills a template from one inspection record and stores the
// result. A fill failure is recorded on the report with status failed; only
// a missing template or a storage failure is returned as an error.
func (s *Service) GenerateReport(ctx context.Context, id string, rec suggest.InspectionRecord) (store.Report, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return store.Report{}, err
	}

	values, warnings := suggest.FromMappings(t.Fields, &rec)
	r := store.Report{
		ID:         s.newID(),
		TemplateID: t.ID,
		Format:     t.Format,
		Warnings:   warnings,
		CreatedAt:  s.now(),
	}
	out, err := s.writer.Fill(t.Content, t.Format, t.Fields, values)
	if err != nil {
		r.Status = store.StatusFailed
		r.Error = err.Error()
		s.log.Error("report generation failed", "template_id", t.ID, "report_id", r.ID, "error", err)
	} else {
		r.Status = store.StatusCompleted
		r.Content = out
	}

	if err := s.reports.Put(ctx, r); err != nil {
		return store.Report{}, fmt.Errorf("storing report: %w", err)
	}
	s.log.Info("report generated", "template_id", t.ID, "report_id", r.ID, "status", r.Status, "values", len(values))
	return r, nil
}

// ReportStatus returns a report without its content.
func (s *Service) ReportStatus(ctx context.Context, id string) (store.Report, error) {
	r, err := s.reports.Get(ctx, id)
	if err != nil {
		return store.Report{}, err
	}
	r.Content = nil
	return r, nil
}

// ReportFile returns the filled document of a completed report.
func (s *Service) ReportFile(ctx context.Context, id string) ([]byte, format.Format, error) {
	r, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, format.Unknown, err
	}
	if r.Status != store.StatusCompleted {
		return nil, format.Unknown, fmt.Errorf("%w: %s", ErrReportFailed, r.Error)
	}
	return r.Content, r.Format, nil
}
