package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/report"
	"financial_sankey/pkg/core/table"
)

// Connect opens a connection pool for databaseURL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}
	return pool, nil
}

// Querier is the subset of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads statements stored one line item per period:
//
//	statement_items(symbol, report_type, period, position, label, value)
//
// Values are stored in the provider's unit and rescaled on the way out.
type PostgresSource struct {
	db    Querier
	scale table.Scale
	log   logrus.FieldLogger
}

// NewPostgresSource creates a source over db.
func NewPostgresSource(db Querier, scale table.Scale, log logrus.FieldLogger) *PostgresSource {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PostgresSource{db: db, scale: scale, log: log}
}

// StatementItem is one stored figure.
type StatementItem struct {
	Period   string
	Position int
	Label    string
	Value    *string
}

const statementQuery = `
	SELECT period, position, label, value::text
	FROM statement_items
	WHERE symbol = $1 AND report_type = $2
	ORDER BY position, period DESC
`

// Fetch implements report.Fetcher.
func (s *PostgresSource) Fetch(ctx context.Context, symbol string, kind report.Kind, period string, year int) (*table.RawTable, error) {
	rows, err := s.db.Query(ctx, statementQuery, symbol, string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying %s statement: %w", kind, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StatementItem, error) {
		var it StatementItem
		err := row.Scan(&it.Period, &it.Position, &it.Label, &it.Value)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s statement: %w", kind, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w for %s - %s - %s", ErrNoStatement, symbol, kind, period)
	}

	long := Pivot(items)
	col, fellBack, err := SelectColumn(long.Columns, period, year)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", symbol, kind, err)
	}
	if fellBack {
		s.log.WithFields(logrus.Fields{
			"symbol": symbol,
			"kind":   kind,
			"wanted": PeriodColumn(period, year),
			"using":  long.Columns[col],
		}).Warn("period not found, using closest available")
	}
	return ReduceColumn(long, col, s.scale), nil
}

// Pivot arranges stored items into a long-format table: one row per line item
// in position order, one column per period, newest first.
func Pivot(items []StatementItem) *table.RawTable {
	periodSet := map[string]bool{}
	for _, it := range items {
		periodSet[it.Period] = true
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	colOf := make(map[string]int, len(periods))
	for i, p := range periods {
		colOf[p] = i
	}

	type key struct {
		position int
		label    string
	}
	var order []key
	cells := map[key][]table.Value{}
	for _, it := range items {
		k := key{it.Position, it.Label}
		row, ok := cells[k]
		if !ok {
			row = make([]table.Value, len(periods))
			order = append(order, k)
		}
		if it.Value != nil {
			row[colOf[it.Period]] = table.Text(*it.Value)
		}
		cells[k] = row
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].position < order[b].position })

	t := table.New(append([]string{"item"}, periods...)...)
	for _, k := range order {
		t.Append(k.label, cells[k]...)
	}
	t.Clean()
	return t
}
