// Package format renders monetary amounts.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency returns the amount with the currency symbol, exactly two decimals and no
// thousands separators (e.g., "N6000.00", "N-12.50").
func Currency(amount float64) string {
	return constants.CurrencySymbol + strconv.FormatFloat(amount, 'f', 2, 64)
}

// ParseCurrency extracts the numeric value from a string produced by Currency.
func ParseCurrency(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, constants.CurrencySymbol) {
		return 0, fmt.Errorf("invalid currency %q: missing %s prefix", value, constants.CurrencySymbol)
	}
	n, err := strconv.ParseFloat(strings.TrimPrefix(trimmed, constants.CurrencySymbol), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid currency %q: %w", value, err)
	}
	return n, nil
}

// Grouped returns a currency string with thousands separators (e.g., "-N1,234.56"), used for
// prose where readability matters more than round-tripping.
func Grouped(amount float64) string {
	formatted := message.NewPrinter(language.English).Sprintf("%.2f", math.Abs(amount))
	if amount < 0 {
		return "-" + constants.CurrencySymbol + formatted
	}
	return constants.CurrencySymbol + formatted
}
