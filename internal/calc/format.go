package calc

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// exponential-notation thresholds, chosen so chat answers stay readable:
// millions and up, and sub-cent fractions, switch to scientific form.
const (
	expUpperBound = 1e6
	expLowerBound = 0.01
)

var printer = message.NewPrinter(language.English)

// FormatResult renders a computed value for display. Magnitudes at or above
// 1e6, and nonzero magnitudes below 0.01, use exponential notation;
// everything else is locale-grouped with up to four fractional digits.
func FormatResult(v float64) string {
	abs := math.Abs(v)
	if abs >= expUpperBound || (abs < expLowerBound && v != 0) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(4)))
}

// UsesExponential reports whether FormatResult would render v in
// exponential notation.
func UsesExponential(v float64) bool {
	abs := math.Abs(v)
	return abs >= expUpperBound || (abs < expLowerBound && v != 0)
}
