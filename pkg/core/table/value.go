package table

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CELL VALUES - Number-or-text cells as delivered by data providers
// =============================================================================

// Value is a single cell of a RawTable. Providers deliver either a number or the
// raw text shown in the source document; text is parsed lazily by Decimal.
type Value struct {
	raw     string
	number  decimal.Decimal
	numeric bool
}

// Number wraps an exact decimal cell.
func Number(d decimal.Decimal) Value {
	return Value{raw: d.String(), number: d, numeric: true}
}

// Int wraps an integer cell.
func Int(i int64) Value {
	return Number(decimal.NewFromInt(i))
}

// Float wraps a float cell. NaN and infinities become blank cells.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Number(decimal.NewFromFloat(f))
}

// Text wraps a textual cell such as "(1,234)" or "—".
func Text(s string) Value {
	return Value{raw: s}
}

// IsNumeric reports whether the cell was delivered as a number.
func (v Value) IsNumeric() bool {
	return v.numeric
}

// IsBlank reports whether the cell carries nothing usable.
func (v Value) IsBlank() bool {
	return !v.numeric && strings.TrimSpace(v.raw) == ""
}

// String returns the cell as it was received.
func (v Value) String() string {
	return v.raw
}

// Decimal returns the numeric content of the cell. ok is false for blank or
// non-numeric text.
func (v Value) Decimal() (d decimal.Decimal, ok bool) {
	if v.numeric {
		return v.number, true
	}
	return ParseAmount(v.raw)
}

// Scale multiplies a numeric cell. Text cells are parsed first; cells that do not
// parse are returned unchanged.
func (v Value) Scale(factor decimal.Decimal) Value {
	d, ok := v.Decimal()
	if !ok {
		return v
	}
	return Number(d.Mul(factor))
}

var blankMarkers = map[string]bool{
	"":    true,
	"-":   true,
	"—":   true,
	"–":   true,
	"n/a": true,
	"na":  true,
	"nan": true,
}

var amountReplacer = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"$", "",
	"₫", "",
	"(", "",
	")", "",
)

// ParseAmount parses a financial amount as printed in statements.
// Handles:
//
//	"(1,234)"   → -1234 (parentheses = negative)
//	"1,234.56"  → 1234.56
//	"$ 25,165"  → 25165
//	"—" or "-"  → not ok (blank)
//	"abc"       → not ok
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if blankMarkers[strings.ToLower(raw)] {
		return decimal.Zero, false
	}

	isNegative := strings.Contains(raw, "(") && strings.Contains(raw, ")")

	cleaned := amountReplacer.Replace(raw)
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}

	if isNegative && d.IsPositive() {
		d = d.Neg()
	}
	return d, true
}
