// Package service is the application layer behind the CLI and the HTTP API: it validates finance
// options, computes their loan terms, persists them and requests comparative reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/loan-compare/internal/finance"
	"github.com/iwvelando/loan-compare/internal/report"
	"github.com/iwvelando/loan-compare/internal/storage"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/iwvelando/loan-compare/pkg/validation"
	"go.uber.org/zap"
)

// ValidationError reports input that was rejected before any computation or persistence.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// ReportError wraps a failure of the report generator. Its message is the generator's message.
type ReportError struct {
	Err error
}

func (e *ReportError) Error() string { return e.Err.Error() }

func (e *ReportError) Unwrap() error { return e.Err }

// Service coordinates the store and the report generator.
type Service struct {
	store         storage.Store
	generator     report.Generator
	logger        *zap.Logger
	reportTimeout time.Duration
	now           func() time.Time
}

// New builds a Service. A non-positive reportTimeout uses the default.
func New(store storage.Store, generator report.Generator, logger *zap.Logger, reportTimeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reportTimeout <= 0 {
		reportTimeout = constants.DefaultReportTimeout
	}
	return &Service{
		store:         store,
		generator:     generator,
		logger:        logger,
		reportTimeout: reportTimeout,
		now:           time.Now,
	}
}

// Calculate validates input and returns its loan terms and any advisories.
func (s *Service) Calculate(input loans.LoanInput) (loans.LoanResult, []string, error) {
	if err := validation.ValidateLoanInput(input); err != nil {
		return loans.LoanResult{}, nil, &ValidationError{Err: err}
	}
	return loans.Compute(input), validation.LoanInputWarnings(input), nil
}

// Create validates, computes and stores a new option for userID.
func (s *Service) Create(ctx context.Context, userID, sourceName string, input loans.LoanInput) (finance.Option, error) {
	if err := validateOption(sourceName, input); err != nil {
		return finance.Option{}, err
	}

	option := finance.NewOption(userID, sourceName, input, s.now())
	if err := s.store.Save(ctx, option); err != nil {
		return finance.Option{}, fmt.Errorf("failed to save finance option: %w", err)
	}

	s.logger.Info("finance option created",
		zap.String("op", "service.Create"),
		zap.String("id", option.ID),
		zap.String("costOfFinance", option.Result.CostOfFinance),
	)
	return option, nil
}

// Update replaces the terms of an existing option and recomputes its results. The stored record
// is unchanged when validation or persistence fails.
func (s *Service) Update(ctx context.Context, userID, id, sourceName string, input loans.LoanInput) (finance.Option, error) {
	if err := validateOption(sourceName, input); err != nil {
		return finance.Option{}, err
	}

	existing, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return finance.Option{}, err
	}

	revised := existing.Revise(sourceName, input, s.now())
	if err := s.store.Save(ctx, revised); err != nil {
		return finance.Option{}, fmt.Errorf("failed to save finance option: %w", err)
	}

	s.logger.Info("finance option updated",
		zap.String("op", "service.Update"),
		zap.String("id", revised.ID),
		zap.String("costOfFinance", revised.Result.CostOfFinance),
	)
	return revised, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (finance.Option, error) {
	return s.store.Get(ctx, userID, id)
}

// List returns the user's options in creation order.
func (s *Service) List(ctx context.Context, userID string) ([]finance.Option, error) {
	options, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finance options: %w", err)
	}
	return options, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("finance option deleted",
		zap.String("op", "service.Delete"),
		zap.String("id", id),
	)
	return nil
}

// Compare requests a report over the user's options with the given ids, or over all of the
// user's options when ids is empty. Stored results are sent as they are.
func (s *Service) Compare(ctx context.Context, userID string, ids []string) (string, error) {
	var options []finance.Option
	if len(ids) == 0 {
		all, err := s.List(ctx, userID)
		if err != nil {
			return "", err
		}
		options = all
	} else {
		for _, id := range ids {
			option, err := s.store.Get(ctx, userID, id)
			if err != nil {
				return "", err
			}
			options = append(options, option)
		}
	}

	offers := make([]report.Offer, len(options))
	for i, option := range options {
		terms := option.Result
		offers[i] = report.Offer{SourceName: option.SourceName, LoanInput: option.Input, LoanTerms: &terms}
	}
	return s.generate(ctx, offers, "service.Compare")
}

// CompareOffers requests a report over offers that are not stored. Offers without loan terms
// have them computed first.
func (s *Service) CompareOffers(ctx context.Context, offers []report.Offer) (string, error) {
	var errs []error
	completed := make([]report.Offer, len(offers))
	for i, offer := range offers {
		if err := validateOption(offer.SourceName, offer.LoanInput); err != nil {
			errs = append(errs, fmt.Errorf("option %d: %w", i+1, err))
			continue
		}
		if offer.LoanTerms == nil {
			terms := loans.Compute(offer.LoanInput)
			offer.LoanTerms = &terms
		}
		completed[i] = offer
	}
	if len(errs) > 0 {
		return "", &ValidationError{Err: errors.Join(errs...)}
	}
	return s.generate(ctx, completed, "service.CompareOffers")
}

func (s *Service) generate(ctx context.Context, offers []report.Offer, op string) (string, error) {
	if len(offers) == 0 {
		return "", &ValidationError{Err: report.ErrNoOptions}
	}

	ctx, cancel := context.WithTimeout(ctx, s.reportTimeout)
	defer cancel()

	start := s.now()
	resp, err := s.generator.Generate(ctx, report.Request{FinanceOptions: offers})
	if err != nil {
		s.logger.Error("comparative report failed",
			zap.String("op", op),
			zap.Int("options", len(offers)),
			zap.Error(err),
		)
		return "", &ReportError{Err: err}
	}

	s.logger.Info("comparative report generated",
		zap.String("op", op),
		zap.Int("options", len(offers)),
		zap.Duration("duration", s.now().Sub(start)),
	)
	return resp.ComparativeReport, nil
}

func validateOption(sourceName string, input loans.LoanInput) error {
	err := errors.Join(validation.ValidateSourceName(sourceName), validation.ValidateLoanInput(input))
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
