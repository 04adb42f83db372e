// Package taxcalc parses GST percentage strings and derives final amounts.
package taxcalc

import (
	"math"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var ratePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// ParseTaxRate extracts the first "digits[.digits]%" value from text.
// Text without a match yields 0.
func ParseTaxRate(text string) float64 {
	match := ratePattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}
	rate, err := strconv.ParseFloat(match[1], 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0
	}
	return rate
}

// ComputeFinalAmount applies the summed SGST, CGST and IGST rates to base.
// The result is not rounded.
func ComputeFinalAmount(base float64, sgst, cgst, igst string) float64 {
	total := ParseTaxRate(sgst) + ParseTaxRate(cgst) + ParseTaxRate(igst)
	return base + base*total/100
}

// Component is one tax line of a Breakdown.
type Component struct {
	Label  string  `json:"label"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// Breakdown itemises the tax applied on top of a base amount.
type Breakdown struct {
	Base        float64   `json:"base"`
	SGST        Component `json:"sgst"`
	CGST        Component `json:"cgst"`
	IGST        Component `json:"igst"`
	TotalRate   float64   `json:"total_rate"`
	TaxAmount   float64   `json:"tax_amount"`
	FinalAmount float64   `json:"final_amount"`
}

// Compute returns the per-component breakdown for base. FinalAmount equals
// ComputeFinalAmount for the same inputs.
func Compute(base float64, sgst, cgst, igst string) Breakdown {
	component := func(label, text string) Component {
		rate := ParseTaxRate(text)
		return Component{Label: label, Rate: rate, Amount: base * rate / 100}
	}
	b := Breakdown{
		Base: base,
		SGST: component("SGST", sgst),
		CGST: component("CGST", cgst),
		IGST: component("IGST", igst),
	}
	b.TotalRate = b.SGST.Rate + b.CGST.Rate + b.IGST.Rate
	b.TaxAmount = base * b.TotalRate / 100
	b.FinalAmount = base + b.TaxAmount
	return b
}

// FormatAmount renders v with a fixed number of decimal places, rounding half
// away from zero. Presentation only; callers keep the unrounded value.
func FormatAmount(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero.StringFixed(places)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
