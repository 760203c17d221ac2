package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/iwvelando/loan-compare/pkg/mathutil"
)

// MinSourceNameLength is the shortest accepted finance source name.
const MinSourceNameLength = 2

// ValidateSourceName checks the free-text name identifying a finance offer.
func ValidateSourceName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < MinSourceNameLength {
		return fmt.Errorf("finance source name must be at least %d characters", MinSourceNameLength)
	}
	return nil
}

// ValidateLoanInput enforces the business rules the calculator assumes. All problems are
// reported together.
func ValidateLoanInput(input loans.LoanInput) error {
	var errs []error

	if !mathutil.IsFinite(input.LoanAmount) || input.LoanAmount <= 0 {
		errs = append(errs, errors.New("loanAmount must be greater than 0"))
	}
	if !mathutil.IsFinite(input.AnnualInterestRatePct) || input.AnnualInterestRatePct < 0 {
		errs = append(errs, errors.New("annualInterestRate must be 0 or greater"))
	}
	if !mathutil.IsFinite(input.SecurityDeposit) || input.SecurityDeposit < 0 {
		errs = append(errs, errors.New("securityDeposit must be 0 or greater"))
	}
	if input.LoanTermMonths <= 0 {
		errs = append(errs, errors.New("loanTermMonths must be greater than 0"))
	} else if input.LoanTermMonths > constants.MaxLoanTermMonths {
		errs = append(errs, fmt.Errorf("loanTermMonths must be at most %d", constants.MaxLoanTermMonths))
	}

	optionals := []struct {
		name  string
		value *float64
	}{
		{"insuranceRatePercentage", input.InsuranceRatePct},
		{"insuranceAmount", input.InsuranceAmount},
		{"monthlyRepaymentAmount", input.MonthlyRepaymentAmount},
		{"loanRenewalPercentage", input.LoanRenewalPercentagePct},
		{"loanRenewalFixedCost", input.LoanRenewalFixedCost},
	}
	for _, field := range optionals {
		if field.value == nil {
			continue
		}
		if !mathutil.IsFinite(*field.value) || *field.value < 0 {
			errs = append(errs, fmt.Errorf("%s must be 0 or greater when provided", field.name))
		}
	}

	for i, cost := range input.ExtraLoanCosts {
		if strings.TrimSpace(cost.Name) == "" {
			errs = append(errs, fmt.Errorf("extraLoanCosts[%d]: name is required", i))
		}
		if !mathutil.IsFinite(cost.Amount) || cost.Amount < 0 {
			errs = append(errs, fmt.Errorf("extraLoanCosts[%d]: amount must be 0 or greater", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return validateComputable(input)
}

// validateComputable rejects terms whose amounts overflow once interest and fees are applied.
func validateComputable(input loans.LoanInput) error {
	amortization := loans.Simulate(input)
	insurance := loans.InsuranceCost(input)

	figures := []struct {
		name  string
		value float64
	}{
		{"total interest", amortization.TotalInterest},
		{"total insurance cost", insurance},
		{"total cost above loan amount", amortization.TotalInterest + insurance},
		{"cost of finance", loans.CostOfFinance(input, amortization.TotalInterest, insurance)},
	}
	if input.CanRenew {
		figures = append(figures, struct {
			name  string
			value float64
		}{"renewal cost", loans.RenewalFee(input)})
	}

	for _, figure := range figures {
		if !mathutil.IsFinite(figure.value) {
			return fmt.Errorf("loan terms are too large to compute: %s overflows", figure.name)
		}
	}
	return nil
}

// LoanInputWarnings returns advisories about terms that are valid but likely unintended.
func LoanInputWarnings(input loans.LoanInput) []string {
	var warnings []string

	if input.InsuranceRatePct != nil && *input.InsuranceRatePct != 0 && input.InsuranceAmount != nil {
		warnings = append(warnings, "both insuranceRatePercentage and insuranceAmount given; the rate is used")
	}
	if !input.CanRenew && (input.LoanRenewalPercentagePct != nil || input.LoanRenewalFixedCost != nil) {
		warnings = append(warnings, "renewal terms given but canRenew is false; no renewal cost is computed")
	}

	if input.LoanAmountPaidAtTermEnd {
		return warnings
	}

	repayment := loans.EffectiveMonthlyRepayment(input)
	if repayment == 0 {
		warnings = append(warnings, "no monthly repayment amount; interest is charged on the full principal for the whole term")
		return warnings
	}

	amortization := loans.Simulate(input)
	if amortization.NegativeAmortization {
		warnings = append(warnings, fmt.Sprintf(
			"monthly repayment %.2f does not cover the interest accrued; the balance grows to %.2f",
			repayment, amortization.RemainingBalance))
	} else if mathutil.Round(amortization.RemainingBalance) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"balance of %.2f remains outstanding at the end of the term", amortization.RemainingBalance))
	}

	return warnings
}
