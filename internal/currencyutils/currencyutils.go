// Package currencyutils provides exact parsing and formatting of the
// locale-specific amount strings found in bank statements.
package currencyutils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseStatementAmount parses an amount string into an exact decimal value,
// preserving sign and fractional digits. decimalComma selects the European
// convention where "," is the decimal separator ("10 282,71", "-1,99");
// amounts already using "." parse unchanged.
func ParseStatementAmount(amountStr string, decimalComma bool) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr, decimalComma)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount string")
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount converts a statement amount string to a form
// decimal.NewFromString accepts: quotes stripped, whitespace (used as a
// thousands separator) removed, locale decimal separator replaced by ".".
func StandardizeAmount(amountStr string, decimalComma bool) string {
	amountStr = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', ' ', ' ', '\t':
			return -1
		}
		return r
	}, amountStr)

	if !decimalComma {
		return amountStr
	}

	// European 1.234,56: the dots are thousands separators only when a
	// decimal comma follows them.
	if strings.Contains(amountStr, ",") && strings.Contains(amountStr, ".") {
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			amountStr = strings.ReplaceAll(amountStr, ".", "")
		}
	}
	return strings.ReplaceAll(amountStr, ",", ".")
}

// FormatStatementAmount renders a decimal back in the statement's own locale
// convention, reproducing the source digits without thousands separators.
// decimal.NewFromString preserves the parsed scale in the exponent, so
// formatting at that scale restores trailing zeros ("900,00" stays "900,00",
// not "900").
func FormatStatementAmount(amount decimal.Decimal, decimalComma bool) string {
	s := amount.String()
	if exp := amount.Exponent(); exp < 0 {
		s = amount.StringFixed(-exp)
	}
	if decimalComma {
		s = strings.ReplaceAll(s, ".", ",")
	}
	return s
}
