// Package source retrieves statement tables from storage and reduces them to
// the single period the flow builders work on.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"financial_sankey/pkg/core/table"
)

var (
	ErrNoPeriodColumn = errors.New("no period columns found")
	ErrNoStatement    = errors.New("no statement data available")
)

// metadataColumns never hold figures.
var metadataColumns = map[string]bool{
	"ticker":  true,
	"item":    true,
	"item_id": true,
	"Năm":     true,
	"Kỳ":      true,
}

// IsYearly reports whether period asks for annual figures.
func IsYearly(period string) bool {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "year", "nam", "năm", "yearly":
		return true
	}
	return false
}

// PeriodColumn names the column a provider uses for period: "2024" for a year,
// "2024-Q3" for a quarter ("Q3" and "3" are both accepted).
func PeriodColumn(period string, year int) string {
	if IsYearly(period) {
		return strconv.Itoa(year)
	}
	q := strings.ToUpper(strings.TrimSpace(period))
	if !strings.Contains(q, "Q") {
		q = "Q" + q
	}
	return fmt.Sprintf("%d-%s", year, q)
}

// SelectColumn picks the column of a long-format table (column 0 = labels) for
// period and year. When the exact column is missing it falls back to the newest
// column of that year, then to the first data column. fellBack reports whether
// a fallback was taken.
func SelectColumn(columns []string, period string, year int) (index int, fellBack bool, err error) {
	want := PeriodColumn(period, year)
	for i := 1; i < len(columns); i++ {
		if columns[i] == want {
			return i, false, nil
		}
	}

	prefix := strconv.Itoa(year)
	var sameYear []int
	for i := 1; i < len(columns); i++ {
		if strings.HasPrefix(columns[i], prefix) {
			sameYear = append(sameYear, i)
		}
	}
	if len(sameYear) > 0 {
		sort.SliceStable(sameYear, func(a, b int) bool {
			return columns[sameYear[a]] > columns[sameYear[b]]
		})
		return sameYear[0], true, nil
	}

	for i := 1; i < len(columns); i++ {
		if !metadataColumns[columns[i]] {
			return i, true, nil
		}
	}
	return 0, false, ErrNoPeriodColumn
}

// Reduce turns a long-format statement into the two-column table the builders
// expect, with figures rescaled from the provider unit to base currency units.
func Reduce(long *table.RawTable, period string, year int, scale table.Scale) (*table.RawTable, error) {
	if long.Len() == 0 {
		return nil, ErrNoStatement
	}
	col, _, err := SelectColumn(long.Columns, period, year)
	if err != nil {
		return nil, err
	}
	return ReduceColumn(long, col, scale), nil
}

// ReduceColumn projects column col of long and rescales it to base units.
func ReduceColumn(long *table.RawTable, col int, scale table.Scale) *table.RawTable {
	out := long.Project(col, long.Columns[col])
	out.Rescale(1, scale.Multiplier())
	return out
}
