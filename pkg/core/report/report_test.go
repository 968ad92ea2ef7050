package report

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/sankey"
	"financial_sankey/pkg/core/table"
	"financial_sankey/pkg/core/validate"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  []Kind
	tables map[Kind]*table.RawTable
	errs   map[Kind]error
}

func (f *fakeFetcher) Fetch(_ context.Context, symbol string, kind Kind, period string, year int) (*table.RawTable, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	return f.tables[kind], nil
}

func twoColumn(rows map[string]int64) *table.RawTable {
	t := table.New(table.LabelColumn, "2024")
	for label, v := range rows {
		t.Append(label, table.Int(v))
	}
	return t
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"balance", Balance, false},
		{" Income ", Income, false},
		{"CASHFLOW", CashFlow, false},
		{"cash_flow", CashFlow, false},
		{"equity", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(sankey.DefaultSettings(), quietLogger())
	tbl := twoColumn(map[string]int64{
		"Tiền và tương đương tiền đầu kỳ":               200e9,
		"Lưu chuyển tiền thuần từ hoạt động kinh doanh": 50e9,
		"Tiền và tương đương tiền cuối kỳ":              250e9,
	})

	out, err := g.Generate(CashFlow, tbl)
	require.NoError(t, err)
	assert.Contains(t, out, "Dòng tiền [250] Tiền cuối kỳ")

	out, err = g.Generate(Balance, table.New(table.LabelColumn))
	require.NoError(t, err)
	assert.True(t, flow.IsError(out))

	_, err = g.Generate(Kind("equity"), tbl)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestGenerator_Inspect(t *testing.T) {
	g := NewGenerator(sankey.DefaultSettings(), quietLogger())
	matches, err := g.Inspect(Income, twoColumn(map[string]int64{"Giá vốn hàng bán": -5e9}))
	require.NoError(t, err)
	require.Len(t, matches, len(sankey.IncomeConcepts))

	for _, m := range matches {
		if m.Key == "cogs" {
			assert.Equal(t, int64(5), m.Value)
			assert.Equal(t, "Giá vốn hàng bán", m.Label)
			return
		}
	}
	t.Fatal("cogs concept missing")
}

func TestGenerator_GenerateAll(t *testing.T) {
	f := &fakeFetcher{
		tables: map[Kind]*table.RawTable{
			Balance: twoColumn(map[string]int64{
				"TỔNG CỘNG TÀI SẢN": 1000e9,
				"TÀI SẢN NGẮN HẠN":  1000e9,
			}),
			Income: twoColumn(map[string]int64{}),
		},
		errs: map[Kind]error{CashFlow: errors.New("provider timeout")},
	}

	g := NewGenerator(sankey.DefaultSettings(), quietLogger())
	results, err := g.GenerateAll(context.Background(), f, Request{Symbol: "VNM", Period: "year", Year: 2024})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Len(t, f.calls, 3)

	assert.True(t, results[Balance].OK())
	assert.Contains(t, results[Balance].Flows, "Tài sản ngắn hạn [1000] Tổng tài sản")
	assert.Equal(t, "2024", results[Balance].Source)
	assert.NotEmpty(t, results[Balance].ID)

	assert.False(t, results[Income].OK(), "an empty table yields an error line")
	assert.True(t, flow.IsError(results[Income].Flows))

	assert.True(t, strings.HasPrefix(results[CashFlow].Flows, "// Error: fetching cashflow for VNM"))
	assert.Contains(t, results[CashFlow].Flows, "provider timeout")

	require.NotNil(t, results[Balance].Values)
	assert.Nil(t, results[Income].Values)
	assert.Nil(t, results[CashFlow].Values)
}

func TestGenerator_Check(t *testing.T) {
	results := map[Kind]Result{}
	g := NewGenerator(sankey.DefaultSettings(), quietLogger())
	for kind, tbl := range map[Kind]*table.RawTable{
		Balance: twoColumn(map[string]int64{
			"TỔNG CỘNG TÀI SẢN":                  1000e9,
			"NỢ PHẢI TRẢ":                        600e9,
			"VỐN CHỦ SỞ HỮU":                     300e9,
			"Tiền và các khoản tương đương tiền": 250e9,
		}),
		CashFlow: twoColumn(map[string]int64{
			"Tiền và tương đương tiền đầu kỳ":               200e9,
			"Lưu chuyển tiền thuần từ hoạt động kinh doanh": 50e9,
			"Tiền và tương đương tiền cuối kỳ":              250e9,
		}),
	} {
		res, err := g.Fetch(context.Background(), &fakeFetcher{tables: map[Kind]*table.RawTable{kind: tbl}}, kind, Request{Symbol: "VNM"})
		require.NoError(t, err)
		results[kind] = res
	}

	rep := g.Check(results)
	assert.False(t, rep.AllPassed)
	assert.Equal(t, []string{validate.BalanceIdentity}, rep.FailedChecks)
	assert.Len(t, rep.Checks, 3, "identity, cash roll-forward and cash to balance sheet")
}

func TestGenerator_GenerateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenerator(sankey.DefaultSettings(), quietLogger())
	_, err := g.GenerateAll(ctx, &fakeFetcher{}, Request{Symbol: "VNM", Period: "Q1", Year: 2024})
	assert.ErrorIs(t, err, context.Canceled)
}
