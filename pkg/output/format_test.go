package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/loan-compare/internal/finance"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/iwvelando/loan-compare/pkg/testutil"
)

func sampleOptions() []finance.Option {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []finance.Option{
		finance.NewOption("u", "Bank A", loans.LoanInput{
			LoanAmount:              50000,
			AnnualInterestRatePct:   20,
			InsuranceAmount:         loans.Float(1000),
			LoanTermMonths:          6,
			LoanAmountPaidAtTermEnd: true,
			ExtraLoanCosts:          []loans.ExtraCost{{Name: "Processing fee", Amount: 1250}},
		}, now),
		finance.NewOption("u", "Lender, B", loans.LoanInput{
			LoanAmount:            1000,
			AnnualInterestRatePct: 12,
			LoanTermMonths:        2,
			CanRenew:              true,
			LoanRenewalFixedCost:  loans.Float(15),
		}, now),
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, sampleOptions())
	output := buf.String()

	for _, want := range []string{
		"--- Loan terms for 2 finance options ---",
		"Source | Loan amount | Term |",
		"Bank A | N50,000.00 | 6 months | N5,000.00 | N1,000.00 | N6,000.00 | N6000.00 | -",
		"    + Processing fee: N1,250.00 (not included above)",
		"Lender, B | N1,000.00 | 2 months",
		"| N15.00\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat missing %q in:\n%s", want, output)
		}
	}
}

func TestCsvFormat(t *testing.T) {
	out := CsvString(sampleOptions())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v\n%s", err, out)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "financeSourceName" || records[0][6] != "costOfFinance" {
		t.Errorf("unexpected header: %v", records[0])
	}

	bank := records[1]
	if bank[0] != "Bank A" || bank[1] != "50000.00" || bank[3] != "5000.00" || bank[6] != "N6000.00" || bank[7] != "" {
		t.Errorf("unexpected Bank A row: %v", bank)
	}
	lender := records[2]
	if lender[0] != "Lender, B" || lender[7] != "N15.00" {
		t.Errorf("expected quoted name and renewal cost, got %v", lender)
	}
}

func TestCsvFormatEmpty(t *testing.T) {
	out := CsvString(nil)
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected only the header, got %q", out)
	}
}

func TestOutputsAgreeOnCostOfFinance(t *testing.T) {
	options := sampleOptions()
	bank := testutil.FindOption(options, "Bank A")
	if bank == nil {
		t.Fatal("expected to find Bank A")
	}

	var pretty bytes.Buffer
	PrettyFormat(&pretty, options)
	if !strings.Contains(pretty.String(), bank.Result.CostOfFinance) || !strings.Contains(CsvString(options), bank.Result.CostOfFinance) {
		t.Errorf("expected both outputs to carry %s", bank.Result.CostOfFinance)
	}
}
