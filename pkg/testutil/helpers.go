// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/loan-compare/internal/finance"
)

// FindOption finds an option by source name in the options slice.
// Returns a pointer to the option if found, nil otherwise.
func FindOption(options []finance.Option, sourceName string) *finance.Option {
	for i := range options {
		if options[i].SourceName == sourceName {
			return &options[i]
		}
	}
	return nil
}
