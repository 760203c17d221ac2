package report

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/shopspring/decimal"
)

// SystemPrompt frames the provider as the advisor writing the report.
const SystemPrompt = "You are a financial advisor who specializes in generating comparative reports for different finance options. Amounts are in Naira."

const promptTemplate = `Given the following finance options, generate a concise and easy-to-understand comparative report, highlighting the pros and cons of each option. Provide a ranked recommendation for which option the user should choose, considering factors such as loan term, interest rates, security deposit, and renewal costs.

For short-term loans (less than 12 months) that are renewable, compare the cost of finance with comparative longer-term loan options and provide an overview of total costs at the end of 12 months, including potential renewal fees and interest rate changes.

When the monthly repayment is a percentage, it is a percentage of the loan amount: the portion of the loan amount repaid each month. Take into account how the computed results below were derived.

Insurance costs are paid upfront annually, regardless of the loan term.

Report repayable security deposits in terms of opportunity cost. For example, a repayable security deposit of 1000 on a 10000 loan means the user only has access to 9000, even though interest is paid on the full 10000.

Finance Options:
{{- range $i, $o := .FinanceOptions}}
{{- $t := $o.Terms}}

Option {{inc $i}}:
- Finance Source: {{$o.SourceName}}
- Loan Amount: {{num $o.LoanAmount}}
- Annual Interest Rate: {{num $o.AnnualInterestRatePct}}%
- Insurance Rate Percentage: {{optional $o.InsuranceRatePct "%"}} (paid upfront annually)
- Insurance Amount: {{optional $o.InsuranceAmount ""}} (paid upfront annually)
- Security Deposit: {{num $o.SecurityDeposit}}
- Security Deposit Repayable: {{$o.SecurityDepositRepayable}}
- Monthly Repayment Amount: {{optional $o.MonthlyRepaymentAmount ""}}
- Monthly Repayment Is Percentage: {{$o.MonthlyRepaymentIsPercentage}}
- Loan Term (Months): {{$o.LoanTermMonths}}
- Loan Amount Paid At Term End: {{$o.LoanAmountPaidAtTermEnd}}
- Can Renew: {{$o.CanRenew}}
{{- if $o.ExtraLoanCosts}}
- Extra Loan Costs (total {{extraTotal $o.ExtraLoanCosts}}):
{{- range $o.ExtraLoanCosts}}
  - {{.Name}}: {{num .Amount}}
{{- end}}
{{- else}}
- No Extra Loan Costs
{{- end}}
- Computed Results:
  - Total Interest Paid: {{num $t.TotalInterestPaid}}
  - Total Insurance Cost: {{num $t.TotalInsuranceCost}}
  - Total Cost Above Loan Amount: {{num $t.TotalCostAboveLoanAmount}}
  - Cost Of Finance: {{$t.CostOfFinance}}
{{- if $t.LoanRenewalCost}}
  - Loan Renewal Cost: {{deref $t.LoanRenewalCost}}
{{- end}}
{{- end}}

Provide a clear, ranked recommendation based on a comprehensive analysis of all options, considering all these factors.
`

var prompt = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"num": formatNumber,
	"optional": func(v *float64, suffix string) string {
		if v == nil || *v == 0 {
			return "N/A"
		}
		return formatNumber(*v) + suffix
	},
	"deref":      func(s *string) string { return *s },
	"extraTotal": func(costs []loans.ExtraCost) string { return ExtraCostsTotal(costs).StringFixed(2) },
}).Parse(promptTemplate))

// BuildPrompt renders the instructions and the option listing sent to the provider.
func BuildPrompt(req Request) (string, error) {
	if len(req.FinanceOptions) == 0 {
		return "", ErrNoOptions
	}

	var b strings.Builder
	if err := prompt.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render report prompt: %w", err)
	}
	return b.String(), nil
}

// ExtraCostsTotal sums the extra costs exactly.
func ExtraCostsTotal(costs []loans.ExtraCost) decimal.Decimal {
	total := decimal.Zero
	for _, cost := range costs {
		total = total.Add(decimal.NewFromFloat(cost.Amount))
	}
	return total
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
