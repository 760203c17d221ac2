// Package finance defines a user's saved finance option: the offer terms entered by the user and
// the cost metrics computed from them.
package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-compare/pkg/loans"
)

// Option is a persisted finance offer. Result is always the output of loans.Compute for Input;
// editing an option produces a new Option rather than mutating Result.
type Option struct {
	ID         string           `json:"id" yaml:"-"`
	UserID     string           `json:"-" yaml:"-"`
	SourceName string           `json:"financeSourceName" yaml:"financeSourceName"`
	Input      loans.LoanInput  `json:"input" yaml:",inline"`
	Result     loans.LoanResult `json:"loanTerms" yaml:"-"`
	CreatedAt  time.Time        `json:"createdAt" yaml:"-"`
	UpdatedAt  time.Time        `json:"updatedAt" yaml:"-"`
}

// NewOption computes the result for input and returns a new option owned by userID.
func NewOption(userID, sourceName string, input loans.LoanInput, now time.Time) Option {
	return Option{
		ID:         uuid.NewString(),
		UserID:     userID,
		SourceName: sourceName,
		Input:      input,
		Result:     loans.Compute(input),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Revise returns a copy of o with new terms and a freshly computed result. Identity and creation
// time are kept.
func (o Option) Revise(sourceName string, input loans.LoanInput, now time.Time) Option {
	return Option{
		ID:         o.ID,
		UserID:     o.UserID,
		SourceName: sourceName,
		Input:      input,
		Result:     loans.Compute(input),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  now,
	}
}

// Inputs returns the loan inputs of options in order.
func Inputs(options []Option) []loans.LoanInput {
	inputs := make([]loans.LoanInput, len(options))
	for i, option := range options {
		inputs[i] = option.Input
	}
	return inputs
}
