package format

import (
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Whole amount", 6000, "N6000.00"},
		{"No thousands separators", 1234567.891, "N1234567.89"},
		{"Rounds half cents up", 899.119, "N899.12"},
		{"Zero", 0, "N0.00"},
		{"Negative keeps sign after symbol", -12.5, "N-12.50"},
		{"Float noise is hidden", 5000.000000000001, "N5000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  float64
		wantError bool
	}{
		{"Round trip", "N6000.00", 6000, false},
		{"Negative", "N-12.50", -12.5, false},
		{"Surrounding whitespace", "  N1.25 ", 1.25, false},
		{"Missing symbol", "6000.00", 0, true},
		{"Not a number", "Nabc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.value)
			if tt.wantError {
				if err == nil {
					t.Errorf("ParseCurrency(%q) expected error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCurrency(%q) error = %v", tt.value, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ParseCurrency(%q) = %v, expected %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestGrouped(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{1234.56, "N1,234.56"},
		{-1234567.8, "-N1,234,567.80"},
		{999, "N999.00"},
		{0, "N0.00"},
		{1e9, "N1,000,000,000.00"},
		{12.345, "N12.35"},
	}

	for _, tt := range tests {
		if got := Grouped(tt.amount); got != tt.expected {
			t.Errorf("Grouped(%v) = %q, expected %q", tt.amount, got, tt.expected)
		}
	}
}
