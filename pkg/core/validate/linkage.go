// Package validate checks that the statements of one company and period agree
// with each other before they are drawn.
package validate

import (
	"github.com/shopspring/decimal"

	"financial_sankey/pkg/core/match"
)

// =============================================================================
// LINKAGE REPORT
// =============================================================================

// Check is one identity between line items, in display units.
type Check struct {
	Name       string `json:"name"`
	Expected   int64  `json:"expected"`
	Actual     int64  `json:"actual"`
	Difference int64  `json:"difference"`
	Passed     bool   `json:"passed"`
}

// Report collects the checks that could be evaluated. Checks whose line items
// are missing are listed in Skipped.
type Report struct {
	Checks       []Check  `json:"checks"`
	AllPassed    bool     `json:"all_passed"`
	FailedChecks []string `json:"failed_checks,omitempty"`
	Skipped      []string `json:"skipped,omitempty"`
}

// Statements holds resolved line items. Balance and income figures are in
// display units; cash flow figures are in base units and are divided by Unit.
// A nil statement skips its checks.
type Statements struct {
	Balance  *match.Values
	Income   *match.Values
	CashFlow *match.Values
	Unit     decimal.Decimal
}

// Names of the checks, in evaluation order.
const (
	BalanceIdentity = "total assets = liabilities + equity"
	AssetSplit      = "total assets = current + non-current assets"
	GrossProfit     = "gross profit = revenue - cost of goods sold"
	CashRollForward = "closing cash = opening cash + net flows + fx effect"
	CashToBalance   = "cash flow closing cash = balance sheet cash"
)

// =============================================================================
// LINKAGE VALIDATION
// =============================================================================

// Linkages evaluates every check the statements allow. A check passes when the
// difference is within tolerance (a fraction of the expected side) or within
// the rounding slack of its display-unit terms.
func Linkages(s Statements, tolerance decimal.Decimal) Report {
	unit := s.Unit
	if !unit.IsPositive() {
		unit = match.DefaultUnitFactor
	}
	l := &linker{tol: tolerance, unit: unit, report: Report{AllPassed: true}}

	if b := s.Balance; b != nil {
		l.check(BalanceIdentity, found(b, "total_assets") && (found(b, "liabilities") || found(b, "equity")),
			func() (decimal.Decimal, decimal.Decimal, int) {
				return dec(b, "total_assets"), dec(b, "liabilities").Add(dec(b, "equity")), 2
			})
		l.check(AssetSplit, found(b, "total_assets", "current_assets", "non_current_assets"),
			func() (decimal.Decimal, decimal.Decimal, int) {
				return dec(b, "total_assets"), dec(b, "current_assets").Add(dec(b, "non_current_assets")), 2
			})
	}

	if i := s.Income; i != nil {
		l.check(GrossProfit, found(i, "revenue", "cogs", "gross_profit"),
			func() (decimal.Decimal, decimal.Decimal, int) {
				return dec(i, "gross_profit"), dec(i, "revenue").Sub(dec(i, "cogs")), 2
			})
	}

	if c := s.CashFlow; c != nil {
		l.check(CashRollForward, found(c, "opening_cash", "closing_cash"),
			func() (decimal.Decimal, decimal.Decimal, int) {
				sum := dec(c, "opening_cash")
				for _, k := range []string{"net_operating", "net_investing", "net_financing", "fx_effect"} {
					sum = sum.Add(dec(c, k))
				}
				return l.display(dec(c, "closing_cash")), l.display(sum), 1
			})
		if b := s.Balance; b != nil {
			l.check(CashToBalance, found(c, "closing_cash") && found(b, "cash"),
				func() (decimal.Decimal, decimal.Decimal, int) {
					return dec(b, "cash"), l.display(dec(c, "closing_cash")), 1
				})
		}
	}

	return l.report
}

type linker struct {
	tol    decimal.Decimal
	unit   decimal.Decimal
	report Report
}

func (l *linker) display(d decimal.Decimal) decimal.Decimal {
	return d.Div(l.unit)
}

// check evaluates one identity. eval returns the expected side, the actual
// side and the number of rounding slack units.
func (l *linker) check(name string, ok bool, eval func() (expected, actual decimal.Decimal, slack int)) {
	if !ok {
		l.report.Skipped = append(l.report.Skipped, name)
		return
	}
	expected, actual, slack := eval()
	diff := actual.Sub(expected)

	allowed := l.tol.Mul(expected.Abs())
	if s := decimal.NewFromInt(int64(slack)); s.GreaterThan(allowed) {
		allowed = s
	}

	c := Check{
		Name:       name,
		Expected:   expected.RoundBank(0).IntPart(),
		Actual:     actual.RoundBank(0).IntPart(),
		Difference: diff.RoundBank(0).IntPart(),
		Passed:     diff.Abs().LessThanOrEqual(allowed),
	}
	l.report.Checks = append(l.report.Checks, c)
	if !c.Passed {
		l.report.AllPassed = false
		l.report.FailedChecks = append(l.report.FailedChecks, name)
	}
}

func found(v *match.Values, keys ...string) bool {
	for _, k := range keys {
		if !v.Found(k) {
			return false
		}
	}
	return true
}

func dec(v *match.Values, key string) decimal.Decimal {
	return decimal.NewFromInt(v.Get(key))
}
