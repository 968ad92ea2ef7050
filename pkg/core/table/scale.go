package table

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale represents the unit a provider reports figures in.
type Scale string

const (
	ScaleUnits     Scale = "units"
	ScaleThousands Scale = "thousands"
	ScaleMillions  Scale = "millions"
	ScaleBillions  Scale = "billions"
	ScaleUnknown   Scale = "unknown"
)

// Multiplier converts a figure in this scale to base currency units.
// Unknown scales are treated as base units.
func (s Scale) Multiplier() decimal.Decimal {
	switch s {
	case ScaleThousands:
		return decimal.New(1, 3)
	case ScaleMillions:
		return decimal.New(1, 6)
	case ScaleBillions:
		return decimal.New(1, 9)
	default:
		return decimal.NewFromInt(1)
	}
}

// ParseScale reads a configured scale name.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "units", "unit", "1":
		return ScaleUnits, nil
	case "thousands", "thousand", "1000":
		return ScaleThousands, nil
	case "millions", "million":
		return ScaleMillions, nil
	case "billions", "billion":
		return ScaleBillions, nil
	}
	return ScaleUnknown, fmt.Errorf("unknown scale %q", s)
}

// DetectScale reads the unit annotation of a table title or column header.
// Examples:
//
//	"(in millions)"       → ScaleMillions
//	"Đơn vị: nghìn đồng"  → ScaleThousands
//	"(tỷ đồng)"           → ScaleBillions
//	"(đồng)"              → ScaleUnits
func DetectScale(text string) Scale {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "million"), strings.Contains(lower, "triệu"):
		return ScaleMillions
	case strings.Contains(lower, "thousand"), strings.Contains(lower, "nghìn"), strings.Contains(lower, "ngàn"):
		return ScaleThousands
	case strings.Contains(lower, "billion"), strings.Contains(lower, "tỷ"):
		return ScaleBillions
	case strings.Contains(lower, "in units"), strings.Contains(lower, "đồng"), strings.Contains(lower, "vnd"):
		return ScaleUnits
	}
	return ScaleUnknown
}
