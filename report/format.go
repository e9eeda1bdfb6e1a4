package report

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultUnit is appended to amounts in the costs file.
const DefaultUnit = "$usdc"

var printer = message.NewPrinter(language.English)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Upticks formats v with two decimals and an uptick (') as the thousands
// separator: 1234567.891 becomes 1'234'567.89.
func Upticks(v float64) string {
	s := printer.Sprintf("%.2f", Round2(v).InexactFloat64())
	return strings.ReplaceAll(s, ",", "'")
}

// Amount is Upticks followed by a currency unit.
func Amount(v float64, unit string) string {
	if unit == "" {
		return Upticks(v)
	}
	return Upticks(v) + " " + unit
}
