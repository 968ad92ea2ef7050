// Package sankey turns balance sheets, income statements and cash flow
// statements into Sankey flow text.
package sankey

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/match"
	"financial_sankey/pkg/core/table"
)

// ValueColumn is the column builders read figures from. Callers holding a
// multi-period table project the period they want first (table.Project).
const ValueColumn = 1

// Builder renders one statement kind.
type Builder interface {
	// Build returns the flow text, or a single "// Error: ..." line.
	Build(t *table.RawTable) string
	// Resolve returns the concept values Build works from.
	Resolve(t *table.RawTable) match.Values
}

// Settings tunes the builders. Zero fields take the defaults.
type Settings struct {
	UnitFactor          decimal.Decimal // base units per display unit
	BalanceMateriality  decimal.Decimal // fraction of total assets
	IncomeMateriality   decimal.Decimal // fraction of net profit
	CashFlowMateriality decimal.Decimal // fraction of total inflow
	EquityPlugTolerance decimal.Decimal // fraction of total equity
	LinkageTolerance    decimal.Decimal // fraction of the expected side of a cross-statement check
}

// DefaultSettings returns the standard thresholds.
func DefaultSettings() Settings {
	return Settings{
		UnitFactor:          match.DefaultUnitFactor,
		BalanceMateriality:  decimal.RequireFromString("0.01"),
		IncomeMateriality:   decimal.RequireFromString("0.001"),
		CashFlowMateriality: decimal.RequireFromString("0.01"),
		EquityPlugTolerance: decimal.RequireFromString("0.005"),
		LinkageTolerance:    decimal.RequireFromString("0.01"),
	}
}

// WithDefaults fills non-positive fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if !s.UnitFactor.IsPositive() {
		s.UnitFactor = d.UnitFactor
	}
	if !s.BalanceMateriality.IsPositive() {
		s.BalanceMateriality = d.BalanceMateriality
	}
	if !s.IncomeMateriality.IsPositive() {
		s.IncomeMateriality = d.IncomeMateriality
	}
	if !s.CashFlowMateriality.IsPositive() {
		s.CashFlowMateriality = d.CashFlowMateriality
	}
	if !s.EquityPlugTolerance.IsPositive() {
		s.EquityPlugTolerance = d.EquityPlugTolerance
	}
	if !s.LinkageTolerance.IsPositive() {
		s.LinkageTolerance = d.LinkageTolerance
	}
	return s
}

func loggerOrStandard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}

// build runs assemble with the checks every builder shares: the table is
// validated first and a panic during assembly becomes the error line, never a
// partial edge list.
func build(log logrus.FieldLogger, report string, t *table.RawTable, assemble func() *flow.Graph) (out string) {
	log = loggerOrStandard(log).WithField("report", report)

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("flow assembly failed")
			out = flow.ErrorLine(fmt.Errorf("building %s flows: %v", report, rec))
		}
	}()

	if err := t.Validate(ValueColumn); err != nil {
		log.WithError(err).Warn("rejecting table")
		return flow.ErrorLine(err)
	}

	g := assemble()
	log.WithField("edges", g.Len()).Debug("flows built")
	return g.Render()
}

// threshold returns fraction of base, or 1 when base is not positive.
func threshold(base int64, fraction decimal.Decimal) decimal.Decimal {
	if base <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(base).Mul(fraction)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
