// Package loans provides the loan term calculation engine: it turns the terms of a finance
// offer into interest, insurance and cost of finance figures.
package loans

import (
	"sync"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/format"
	"github.com/iwvelando/loan-compare/pkg/mathutil"
)

// ExtraCost is an informational add-on cost attached to an offer. It is carried through to
// reports but never folded into the computed totals.
type ExtraCost struct {
	Name   string  `json:"name" yaml:"name" mapstructure:"name"`
	Amount float64 `json:"amount" yaml:"amount" mapstructure:"amount"`
}

// LoanInput holds the terms of a single finance offer. Optional numeric fields are nil when
// absent and encode as JSON null.
type LoanInput struct {
	LoanAmount                   float64     `json:"loanAmount" yaml:"loanAmount" mapstructure:"loanAmount"`
	AnnualInterestRatePct        float64     `json:"annualInterestRate" yaml:"annualInterestRate" mapstructure:"annualInterestRate"`
	InsuranceRatePct             *float64    `json:"insuranceRatePercentage" yaml:"insuranceRatePercentage" mapstructure:"insuranceRatePercentage"`
	InsuranceAmount              *float64    `json:"insuranceAmount" yaml:"insuranceAmount" mapstructure:"insuranceAmount"`
	SecurityDeposit              float64     `json:"securityDeposit" yaml:"securityDeposit" mapstructure:"securityDeposit"`
	SecurityDepositRepayable     bool        `json:"securityDepositRepayable" yaml:"securityDepositRepayable" mapstructure:"securityDepositRepayable"`
	MonthlyRepaymentAmount       *float64    `json:"monthlyRepaymentAmount" yaml:"monthlyRepaymentAmount" mapstructure:"monthlyRepaymentAmount"`
	MonthlyRepaymentIsPercentage bool        `json:"monthlyRepaymentIsPercentage" yaml:"monthlyRepaymentIsPercentage" mapstructure:"monthlyRepaymentIsPercentage"`
	LoanTermMonths               int         `json:"loanTermMonths" yaml:"loanTermMonths" mapstructure:"loanTermMonths"`
	LoanAmountPaidAtTermEnd      bool        `json:"loanAmountPaidAtTermEnd" yaml:"loanAmountPaidAtTermEnd" mapstructure:"loanAmountPaidAtTermEnd"`
	CanRenew                     bool        `json:"canRenew" yaml:"canRenew" mapstructure:"canRenew"`
	LoanRenewalPercentagePct     *float64    `json:"loanRenewalPercentage" yaml:"loanRenewalPercentage" mapstructure:"loanRenewalPercentage"`
	LoanRenewalFixedCost         *float64    `json:"loanRenewalFixedCost" yaml:"loanRenewalFixedCost" mapstructure:"loanRenewalFixedCost"`
	ExtraLoanCosts               []ExtraCost `json:"extraLoanCosts" yaml:"extraLoanCosts" mapstructure:"extraLoanCosts"`
}

// LoanResult holds the derived cost metrics of a LoanInput.
type LoanResult struct {
	LoanTermMonths           int     `json:"loanTermMonths" yaml:"loanTermMonths"`
	TotalInterestPaid        float64 `json:"totalInterestPaid" yaml:"totalInterestPaid"`
	TotalInsuranceCost       float64 `json:"totalInsuranceCost" yaml:"totalInsuranceCost"`
	TotalCostAboveLoanAmount float64 `json:"totalCostAboveLoanAmount" yaml:"totalCostAboveLoanAmount"`
	CostOfFinance            string  `json:"costOfFinance" yaml:"costOfFinance"`
	LoanRenewalCost          *string `json:"loanRenewalCost,omitempty" yaml:"loanRenewalCost,omitempty"`
}

// Amortization describes how the principal evolved over the simulated term.
type Amortization struct {
	TotalInterest    float64
	Periods          int
	RemainingBalance float64
	// NegativeAmortization is set when a month's repayment did not cover its interest, so the
	// balance grew instead of shrinking.
	NegativeAmortization bool
}

// Float returns a pointer to v, for populating optional LoanInput fields.
func Float(v float64) *float64 {
	return &v
}

// EffectiveMonthlyRepayment returns the monthly repayment as a currency amount.
func EffectiveMonthlyRepayment(input LoanInput) float64 {
	amount := mathutil.ValueOrZero(input.MonthlyRepaymentAmount)
	if input.MonthlyRepaymentIsPercentage {
		return input.LoanAmount * amount / constants.PercentageMultiplier
	}
	return amount
}

// MonthlyInterestRate converts a nominal annual percentage rate to a monthly fraction.
func MonthlyInterestRate(annualInterestRatePct float64) float64 {
	return annualInterestRatePct / constants.PercentageMultiplier / constants.MonthsPerYear
}

// CalculateInterestPayment calculates the interest accrued on a balance for one month.
func CalculateInterestPayment(remainingBalance, annualInterestRatePct float64) float64 {
	return remainingBalance * MonthlyInterestRate(annualInterestRatePct)
}

// Simulate runs the interest accrual for the loan term.
//
// Bullet loans and amortizing loans without a repayment amount accrue simple interest on the
// full principal. Otherwise the balance is reduced month by month by the repayment net of
// interest, stopping early once it reaches zero. A repayment smaller than the interest grows the
// balance; that is kept as is and flagged.
func Simulate(input LoanInput) Amortization {
	r := MonthlyInterestRate(input.AnnualInterestRatePct)
	months := input.LoanTermMonths

	if input.LoanAmountPaidAtTermEnd {
		return Amortization{
			TotalInterest:    float64(months) * input.LoanAmount * r,
			Periods:          nonNegative(months),
			RemainingBalance: input.LoanAmount,
		}
	}

	repayment := EffectiveMonthlyRepayment(input)
	if repayment == 0 {
		return Amortization{
			TotalInterest:    input.LoanAmount * r * float64(months),
			Periods:          nonNegative(months),
			RemainingBalance: input.LoanAmount,
		}
	}

	var result Amortization
	balance := input.LoanAmount
	for i := 0; i < months; i++ {
		interest := CalculateInterestPayment(balance, input.AnnualInterestRatePct)
		result.TotalInterest += interest

		principal := mathutil.Min(repayment-interest, balance)
		if principal < 0 {
			result.NegativeAmortization = true
		}
		balance -= principal
		result.Periods++

		if balance <= 0 {
			break
		}
	}
	result.RemainingBalance = balance

	return result
}

// InsuranceCost returns the annual insurance premium. A non-zero rate takes precedence over a
// fixed amount. The premium is charged once regardless of the term length.
func InsuranceCost(input LoanInput) float64 {
	if input.InsuranceRatePct != nil && *input.InsuranceRatePct != 0 {
		return mathutil.ApplyPercentage(input.LoanAmount, *input.InsuranceRatePct)
	}
	if input.InsuranceAmount != nil {
		return *input.InsuranceAmount
	}
	return 0
}

// CostOfFinance returns the net cost of taking the loan. A deposit that is not returned at term
// end is a sunk cost and is included; a repayable deposit is not.
func CostOfFinance(input LoanInput, totalInterestPaid, totalInsuranceCost float64) float64 {
	cost := totalInsuranceCost + totalInterestPaid
	if !input.SecurityDepositRepayable {
		cost += input.SecurityDeposit
	}
	return cost
}

// RenewalFee returns the cost of renewing the loan; percentage and fixed parts are additive.
func RenewalFee(input LoanInput) float64 {
	return input.LoanAmount*mathutil.ValueOrZero(input.LoanRenewalPercentagePct)/constants.PercentageMultiplier +
		mathutil.ValueOrZero(input.LoanRenewalFixedCost)
}

// Compute maps a loan's terms to its cost metrics. It is pure and safe for concurrent use.
func Compute(input LoanInput) LoanResult {
	amortization := Simulate(input)
	insurance := InsuranceCost(input)

	result := LoanResult{
		LoanTermMonths:           input.LoanTermMonths,
		TotalInterestPaid:        amortization.TotalInterest,
		TotalInsuranceCost:       insurance,
		TotalCostAboveLoanAmount: amortization.TotalInterest + insurance,
		CostOfFinance:            format.Currency(CostOfFinance(input, amortization.TotalInterest, insurance)),
	}

	if input.CanRenew {
		renewal := format.Currency(RenewalFee(input))
		result.LoanRenewalCost = &renewal
	}

	return result
}

// ComputeAll computes each input concurrently. Results are returned in input order.
func ComputeAll(inputs []LoanInput) []LoanResult {
	results := make([]LoanResult, len(inputs))

	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Compute(inputs[i])
		}(i)
	}
	wg.Wait()

	return results
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
