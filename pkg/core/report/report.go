// Package report dispatches statement tables to the flow builder of their kind
// and fetches the three statements of a company together.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/match"
	"financial_sankey/pkg/core/sankey"
	"financial_sankey/pkg/core/table"
	"financial_sankey/pkg/core/validate"
)

// Kind is a financial statement type.
type Kind string

const (
	Balance  Kind = "balance"
	Income   Kind = "income"
	CashFlow Kind = "cashflow"
)

// Kinds lists every statement kind in presentation order.
var Kinds = []Kind{Balance, Income, CashFlow}

var ErrUnknownKind = errors.New("invalid report type, must be one of: balance, income, cashflow")

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Balance, Income, CashFlow:
		return k, nil
	case "cash_flow", "cash-flow":
		return CashFlow, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Fetcher retrieves one statement as a two-column table (label, value in base
// currency units).
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, kind Kind, period string, year int) (*table.RawTable, error)
}

// Generator builds flows for any statement kind.
type Generator struct {
	settings sankey.Settings
	log      logrus.FieldLogger
}

// NewGenerator creates a generator. A nil logger logs to the standard logger.
func NewGenerator(settings sankey.Settings, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Generator{settings: settings, log: log}
}

// Builder returns the flow builder for kind.
func (g *Generator) Builder(kind Kind) (sankey.Builder, error) {
	switch kind {
	case Balance:
		return sankey.NewBalanceBuilder(g.settings, g.log), nil
	case Income:
		return sankey.NewIncomeBuilder(g.settings, g.log), nil
	case CashFlow:
		return sankey.NewCashFlowBuilder(g.settings, g.log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// Concepts returns the line items a statement of kind is resolved into.
func Concepts(kind Kind) []match.Concept {
	switch kind {
	case Balance:
		return sankey.BalanceConcepts
	case Income:
		return sankey.IncomeConcepts
	case CashFlow:
		return sankey.CashFlowConcepts
	}
	return nil
}

// Generate renders t as flow text. Table problems are reported in-band as an
// error line; the returned error is only set for an unknown kind.
func (g *Generator) Generate(kind Kind, t *table.RawTable) (string, error) {
	b, err := g.Builder(kind)
	if err != nil {
		return "", err
	}
	return b.Build(t), nil
}

// Inspect lists how each concept of kind resolved against t.
func (g *Generator) Inspect(kind Kind, t *table.RawTable) ([]match.Match, error) {
	b, err := g.Builder(kind)
	if err != nil {
		return nil, err
	}
	return b.Resolve(t).Matches(), nil
}

// Request identifies the statements of one company and period.
type Request struct {
	Symbol string
	Period string
	Year   int
}

// Result is the output of one generated report.
type Result struct {
	ID     string
	Kind   Kind
	Flows  string
	Source string // column the figures were taken from, when known
	// Values are the resolved line items, nil when the table was unusable.
	Values *match.Values
}

// OK reports whether the result holds flows rather than an error line.
func (r Result) OK() bool {
	return r.Flows != "" && !flow.IsError(r.Flows)
}

// Fetch retrieves and renders one report. Fetch failures are returned as
// errors so callers can tell them apart from build problems.
func (g *Generator) Fetch(ctx context.Context, f Fetcher, kind Kind, req Request) (Result, error) {
	res := Result{ID: uuid.NewString(), Kind: kind}
	log := g.log.WithFields(logrus.Fields{
		"report_id": res.ID,
		"symbol":    req.Symbol,
		"kind":      kind,
		"period":    req.Period,
		"year":      req.Year,
	})

	t, err := f.Fetch(ctx, req.Symbol, kind, req.Period, req.Year)
	if err != nil {
		log.WithError(err).Warn("fetching statement failed")
		return res, fmt.Errorf("fetching %s for %s: %w", kind, req.Symbol, err)
	}
	if t != nil && len(t.Columns) > 1 {
		res.Source = t.Columns[1]
	}

	b, err := g.Builder(kind)
	if err != nil {
		return res, err
	}
	res.Flows = b.Build(t)
	if t.Validate(sankey.ValueColumn) == nil {
		v := b.Resolve(t)
		res.Values = &v
	}
	log.WithField("ok", res.OK()).Info("report generated")
	return res, nil
}

// Check runs the cross-statement linkage checks over results from
// GenerateAll. Failed checks are logged as warnings.
func (g *Generator) Check(results map[Kind]Result) validate.Report {
	s := g.settings.WithDefaults()
	rep := validate.Linkages(validate.Statements{
		Balance:  results[Balance].Values,
		Income:   results[Income].Values,
		CashFlow: results[CashFlow].Values,
		Unit:     s.UnitFactor,
	}, s.LinkageTolerance)

	for _, c := range rep.Checks {
		if !c.Passed {
			g.log.WithFields(logrus.Fields{
				"check":      c.Name,
				"expected":   c.Expected,
				"actual":     c.Actual,
				"difference": c.Difference,
			}).Warn("statements do not reconcile")
		}
	}
	return rep
}

// GenerateAll fetches and renders every statement kind concurrently. A failure
// in one report is captured in its own result as an error line and does not
// affect the others.
func (g *Generator) GenerateAll(ctx context.Context, f Fetcher, req Request) (map[Kind]Result, error) {
	results := make([]Result, len(Kinds))

	eg, egctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		i, kind := i, kind
		eg.Go(func() error {
			res, err := g.Fetch(egctx, f, kind, req)
			if err != nil {
				res.Flows = flow.ErrorLine(err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[Kind]Result, len(Kinds))
	for _, r := range results {
		out[r.Kind] = r
	}
	return out, nil
}
