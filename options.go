package formfill

import (
	"log/slog"

	"github.com/tsawler/formfill/classify"
	"github.com/tsawler/formfill/fill"
)

// formOptions holds configuration for a Form.
type formOptions struct {
	// Classification
	rules *classify.Rules // read-only once built

	// Preview
	lowConfidence float64

	// Writer diagnostics
	logger *slog.Logger
}

// defaultOptions returns the default form options.
func defaultOptions() formOptions {
	return formOptions{
		rules:         classify.Default,
		lowConfidence: fill.DefaultLowConfidence,
		logger:        slog.Default(),
	}
}

// clone copies the options. Rules and loggers are shared; both are safe for
// concurrent use.
func (o formOptions) clone() formOptions {
	return formOptions{
		rules:         o.rules,
		lowConfidence: o.lowConfidence,
		logger:        o.logger,
	}
}
