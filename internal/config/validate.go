package config

import (
	"errors"
	"fmt"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/iwvelando/loan-compare/pkg/validation"
)

// ValidateConfiguration performs general validation of the configuration and returns warnings.
// Nothing reported here prevents the application from starting.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	switch c.Storage.Driver {
	case "", constants.StorageMemory:
		warnings = append(warnings, "storage driver is memory; saved finance options are lost on restart")
	case constants.StorageSQLite, constants.StoragePostgres:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown storage driver %q", c.Storage.Driver))
	}

	switch c.Cache.Driver {
	case "", constants.CacheNone, constants.CacheMemory, constants.CacheRedis:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown cache driver %q; reports are not cached", c.Cache.Driver))
	}

	switch c.Report.Provider {
	case constants.ReportProviderStatic:
	case "", constants.ReportProviderOpenAI:
		if c.Report.APIKey == "" {
			warnings = append(warnings, "no report API key configured; comparative reports use the offline summary")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown report provider %q; comparative reports use the offline summary", c.Report.Provider))
	}

	if len(c.Auth.Secret) < constants.MinAuthSecretLength {
		warnings = append(warnings, fmt.Sprintf("auth secret is shorter than %d characters", constants.MinAuthSecretLength))
	}

	for i, option := range c.Options {
		for _, warning := range validation.LoanInputWarnings(option.LoanInput) {
			warnings = append(warnings, fmt.Sprintf("option %d (%s): %s", i+1, option.SourceName, warning))
		}
	}

	return warnings
}

// ValidateOptions checks every configured finance option. All problems are reported together.
func (c *Configuration) ValidateOptions() error {
	if len(c.Options) == 0 {
		return errors.New("no finance options configured")
	}

	var errs []error
	for i, option := range c.Options {
		if err := validation.ValidateSourceName(option.SourceName); err != nil {
			errs = append(errs, fmt.Errorf("option %d: %w", i+1, err))
		}
		if err := validation.ValidateLoanInput(option.LoanInput); err != nil {
			errs = append(errs, fmt.Errorf("option %d (%s): %w", i+1, option.SourceName, err))
		}
	}
	return errors.Join(errs...)
}

// LoanInputs returns the terms of the configured options in order.
func (c *Configuration) LoanInputs() []loans.LoanInput {
	inputs := make([]loans.LoanInput, len(c.Options))
	for i, option := range c.Options {
		inputs[i] = option.LoanInput
	}
	return inputs
}
