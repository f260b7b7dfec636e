package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePeso converts a persisted weight string into an exact decimal.
// Blank values read as zero; a comma is accepted as decimal separator
// because older documents were typed by hand.
func ParsePeso(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("peso invalido %q: %w", s, err)
	}
	return d, nil
}

// FormatPeso renders a weight the way existing documents store it:
// integral values carry no fractional part ("35", never "35.0").
func FormatPeso(d decimal.Decimal) string {
	return d.String()
}

// SumarPesos adds bag weights with exact decimal arithmetic.
func SumarPesos(bags []BigBag) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bags {
		total = total.Add(b.Peso)
	}
	return total
}
