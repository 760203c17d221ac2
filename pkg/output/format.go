// Package output provides utilities for formatting and displaying finance option results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-compare/internal/finance"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var csvHeader = []string{
	"financeSourceName",
	"loanAmount",
	"loanTermMonths",
	"totalInterestPaid",
	"totalInsuranceCost",
	"totalCostAboveLoanAmount",
	"costOfFinance",
	"loanRenewalCost",
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, options []finance.Option) {
	p := message.NewPrinter(language.English)
	symbol := constants.CurrencySymbol

	_, _ = fmt.Fprintf(w, "--- Loan terms for %d finance options ---\n", len(options))
	_, _ = fmt.Fprintf(w, "Source | Loan amount | Term | Interest | Insurance | Above loan amount | Cost of finance | Renewal\n")
	_, _ = fmt.Fprintf(w, "______ | ___________ | ____ | ________ | _________ | _________________ | _______________ | _______\n")
	for _, option := range options {
		result := option.Result
		renewal := "-"
		if result.LoanRenewalCost != nil {
			renewal = *result.LoanRenewalCost
		}
		_, _ = p.Fprintf(w, "%s | %s%.2f | %d months | %s%.2f | %s%.2f | %s%.2f | %s | %s\n",
			option.SourceName,
			symbol, option.Input.LoanAmount,
			result.LoanTermMonths,
			symbol, result.TotalInterestPaid,
			symbol, result.TotalInsuranceCost,
			symbol, result.TotalCostAboveLoanAmount,
			result.CostOfFinance,
			renewal,
		)
		for _, cost := range option.Input.ExtraLoanCosts {
			_, _ = p.Fprintf(w, "    + %s: %s%.2f (not included above)\n", cost.Name, symbol, cost.Amount)
		}
	}
}

// CsvFormat writes the options in comma-separated value format.
func CsvFormat(w io.Writer, options []finance.Option) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, option := range options {
		result := option.Result
		renewal := ""
		if result.LoanRenewalCost != nil {
			renewal = *result.LoanRenewalCost
		}
		record := []string{
			option.SourceName,
			formatFloat(option.Input.LoanAmount),
			strconv.Itoa(result.LoanTermMonths),
			formatFloat(result.TotalInterestPaid),
			formatFloat(result.TotalInsuranceCost),
			formatFloat(result.TotalCostAboveLoanAmount),
			result.CostOfFinance,
			renewal,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CSV representation of options.
func CsvString(options []finance.Option) string {
	var b strings.Builder
	if err := CsvFormat(&b, options); err != nil {
		return ""
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
