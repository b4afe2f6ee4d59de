package formfill

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/formfill/store"
	"github.com/tsawler/formfill/suggest"
)

// AnalyzeResult is the outcome of one upload in AnalyzeBatch.
type AnalyzeResult struct {
	Filename string
	Template store.Template
	Err      error
}

// AnalyzeBatch analyses uploads concurrently. Results are in upload order; a
// failing upload is reported in its result and does not stop the others.
// Only cancellation of ctx is returned as an error.
func (s *Service) AnalyzeBatch(ctx context.Context, uploads []Upload) ([]AnalyzeResult, error) {
	results := make([]AnalyzeResult, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, up := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := s.AnalyzeTemplate(gctx, up)
			results[i] = AnalyzeResult{Filename: up.Filename, Template: t, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FillBatch generates one report per record from the same template,
// concurrently. Reports are in record order. Fill failures are recorded on
// the reports; a missing template, a storage failure or cancellation stops
// the batch.
func (s *Service) FillBatch(ctx context.Context, templateID string, records []suggest.InspectionRecord) ([]store.Report, error) {
	if _, err := s.templates.Get(ctx, templateID); err != nil {
		return nil, err
	}

	reports := make([]store.Report, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.GenerateReport(gctx, templateID, rec)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
