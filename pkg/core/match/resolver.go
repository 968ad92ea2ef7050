package match

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/table"
)

// DefaultUnitFactor turns base currency units into display units (billions).
var DefaultUnitFactor = decimal.New(1, 9)

// Resolver finds line items in a table and returns their scaled value.
// Resolution never fails: anything that goes wrong resolves to 0 and is logged
// at debug level.
type Resolver struct {
	Strategies []Strategy
	UnitFactor decimal.Decimal
	Log        logrus.FieldLogger
}

// NewResolver creates a resolver. With no strategies DefaultStrategies are used.
func NewResolver(unitFactor decimal.Decimal, log logrus.FieldLogger, strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Resolver{Strategies: strategies, UnitFactor: unitFactor, Log: log}
}

// Match describes how a concept was resolved.
type Match struct {
	Key      string
	Value    int64
	Row      int // -1 when nothing matched
	Label    string
	Strategy Strategy
}

// Resolve finds the best row for synonyms and returns the figure in column,
// divided by the unit factor and rounded half to even. magnitude returns the
// absolute value, for cost lines whose sign convention varies by provider.
func (r *Resolver) Resolve(t *table.RawTable, synonyms []string, column int, magnitude bool) int64 {
	c := Concept{Key: fmt.Sprint(synonyms), Synonyms: synonyms, Magnitude: magnitude}
	return r.resolve(t, NormalizedLabels(t), c, column).Value
}

// ResolveAll evaluates a concept table against t.
func (r *Resolver) ResolveAll(t *table.RawTable, column int, concepts []Concept) Values {
	labels := NormalizedLabels(t)
	matches := make([]Match, 0, len(concepts))
	for _, c := range concepts {
		matches = append(matches, r.resolve(t, labels, c, column))
	}
	return newValues(matches)
}

// Find returns the row that synonyms resolve to.
func (r *Resolver) Find(t *table.RawTable, synonyms []string) (row int, strategy Strategy, ok bool) {
	return r.find(NormalizedLabels(t), synonyms)
}

func (r *Resolver) find(labels, synonyms []string) (int, Strategy, bool) {
	targets := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		if n := Normalize(s); n != "" {
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 || len(labels) == 0 {
		return -1, ExactMatch, false
	}

	for _, s := range r.strategies() {
		if row, ok := s.find(labels, targets); ok {
			return row, s, true
		}
	}
	return -1, ExactMatch, false
}

func (r *Resolver) resolve(t *table.RawTable, labels []string, c Concept, column int) (m Match) {
	m = Match{Key: c.Key, Row: -1}
	log := r.logger().WithFields(logrus.Fields{"concept": c.Key, "column": column})

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Debug("line item extraction failed")
			m.Value = 0
		}
	}()

	row, strategy, ok := r.find(labels, c.Synonyms)
	if !ok {
		log.WithField("synonyms", c.Synonyms).Debug("no matching row")
		return m
	}
	m.Row, m.Strategy, m.Label = row, strategy, t.Rows[row].Label

	cell, ok := t.Cell(row, column)
	if !ok {
		log.WithField("label", m.Label).Debug("value column missing")
		return m
	}
	d, ok := cell.Decimal()
	if !ok {
		log.WithFields(logrus.Fields{"label": m.Label, "cell": cell.String()}).Debug("non-numeric cell")
		return m
	}

	scaled := d.Div(r.unitFactor()).RoundBank(0)
	if c.Magnitude {
		scaled = scaled.Abs()
	}
	m.Value = scaled.IntPart()
	return m
}

func (r *Resolver) strategies() []Strategy {
	if len(r.Strategies) == 0 {
		return DefaultStrategies
	}
	return r.Strategies
}

func (r *Resolver) unitFactor() decimal.Decimal {
	if !r.UnitFactor.IsPositive() {
		return DefaultUnitFactor
	}
	return r.UnitFactor
}

func (r *Resolver) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// NormalizedLabels normalizes every row label of t once.
func NormalizedLabels(t *table.RawTable) []string {
	if t == nil {
		return nil
	}
	labels := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		labels[i] = Normalize(row.Label)
	}
	return labels
}
