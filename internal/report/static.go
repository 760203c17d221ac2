package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/format"
)

// StaticGenerator summarizes options without a provider: options are ranked by cost of finance,
// lowest first. Its output is deterministic.
type StaticGenerator struct{}

func (StaticGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(req.FinanceOptions) == 0 {
		return Response{}, ErrNoOptions
	}

	type ranked struct {
		offer Offer
		cost  float64
	}
	rows := make([]ranked, len(req.FinanceOptions))
	for i, offer := range req.FinanceOptions {
		terms := offer.Terms()
		offer.LoanTerms = &terms
		cost, err := format.ParseCurrency(terms.CostOfFinance)
		if err != nil {
			cost = math.Inf(1)
		}
		rows[i] = ranked{offer: offer, cost: cost}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].cost < rows[j].cost })

	var b strings.Builder
	b.WriteString("Comparative report (offline summary)\n\n")
	b.WriteString("Options ranked by cost of finance, lowest first:\n")
	for i, row := range rows {
		terms := row.offer.LoanTerms
		fmt.Fprintf(&b, "%d. %s: cost of finance %s over %d months (interest %s, insurance %s)",
			i+1, row.offer.SourceName, terms.CostOfFinance, terms.LoanTermMonths,
			format.Currency(terms.TotalInterestPaid), format.Currency(terms.TotalInsuranceCost))
		if terms.LoanRenewalCost != nil {
			fmt.Fprintf(&b, ", renewal %s", *terms.LoanRenewalCost)
		}
		if len(row.offer.ExtraLoanCosts) > 0 {
			fmt.Fprintf(&b, ", extra costs %s%s", constants.CurrencySymbol, ExtraCostsTotal(row.offer.ExtraLoanCosts).StringFixed(2))
		}
		if row.offer.SecurityDepositRepayable && row.offer.SecurityDeposit > 0 {
			fmt.Fprintf(&b, ", repayable deposit %s leaves %s usable",
				format.Grouped(row.offer.SecurityDeposit),
				format.Grouped(row.offer.LoanAmount-row.offer.SecurityDeposit))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nRecommendation: %s has the lowest cost of finance.\n", rows[0].offer.SourceName)

	return Response{ComparativeReport: b.String()}, nil
}
