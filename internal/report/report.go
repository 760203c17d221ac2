// Package report produces the comparative report across a user's finance options. The report
// text comes from a pluggable Generator: a chat-completions provider, or an offline summary when
// no provider is configured.
package report

import (
	"context"
	"errors"

	"github.com/iwvelando/loan-compare/internal/cache"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"go.uber.org/zap"
)

// ErrNoOptions is returned when a report is requested without any finance option.
var ErrNoOptions = errors.New("at least one finance option is required to generate a report")

// Offer is a finance option as sent to the report generator: the source name, the flattened
// loan terms and, when already known, the computed results.
type Offer struct {
	SourceName string `json:"financeSourceName" yaml:"financeSourceName"`
	loans.LoanInput
	LoanTerms *loans.LoanResult `json:"loanTerms,omitempty" yaml:"loanTerms,omitempty"`
}

// Terms returns the offer's results, computing them when they were not supplied.
func (o Offer) Terms() loans.LoanResult {
	if o.LoanTerms != nil {
		return *o.LoanTerms
	}
	return loans.Compute(o.LoanInput)
}

// Request is the input of a comparative report.
type Request struct {
	FinanceOptions []Offer `json:"financeOptions"`
}

// Response carries the generated report text.
type Response struct {
	ComparativeReport string `json:"comparativeReport"`
}

// Generator turns a set of finance options into a comparative report.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// New builds the generator described by cfg. The chat-completions provider is used when it is
// selected and an API key is available; otherwise the offline summary is. Provider calls are
// retried, and results are cached when c is not nil.
func New(cfg config.ReportConfig, c cache.Cache, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	var generator Generator
	if cfg.Provider != constants.ReportProviderStatic && cfg.APIKey != "" {
		generator = NewOpenAIGenerator(cfg, logger)
		if cfg.MaxAttempts > 1 {
			generator = NewRetryingGenerator(generator, cfg.MaxAttempts, cfg.BaseDelay, logger)
		}
	} else {
		logger.Info("using offline comparative report",
			zap.String("op", "report.New"),
			zap.String("provider", cfg.Provider),
		)
		generator = StaticGenerator{}
	}

	if c != nil {
		generator = NewCachedGenerator(generator, c, logger)
	}
	return generator
}
