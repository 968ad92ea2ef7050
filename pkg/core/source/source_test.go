package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_sankey/pkg/core/report"
	"financial_sankey/pkg/core/table"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPeriodColumn(t *testing.T) {
	assert.Equal(t, "2024", PeriodColumn("year", 2024))
	assert.Equal(t, "2024", PeriodColumn("NAM", 2024))
	assert.Equal(t, "2024", PeriodColumn("Yearly", 2024))
	assert.Equal(t, "2024-Q3", PeriodColumn("q3", 2024))
	assert.Equal(t, "2023-Q1", PeriodColumn("1", 2023))
}

func TestSelectColumn(t *testing.T) {
	columns := []string{"item", "ticker", "2024-Q3", "2024-Q2", "2024-Q1", "2023", "2022"}

	tests := []struct {
		name     string
		columns  []string
		period   string
		year     int
		want     int
		fellBack bool
		wantErr  bool
	}{
		{"Exact quarter", columns, "Q2", 2024, 3, false, false},
		{"Exact year", columns, "year", 2023, 5, false, false},
		{"Newest of the year", columns, "Q4", 2024, 2, true, false},
		{"Year missing falls back to first data column", columns, "year", 2019, 2, true, false},
		{"Only metadata", []string{"item", "ticker", "Năm", "Kỳ"}, "Q1", 2024, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fellBack, err := SelectColumn(tt.columns, tt.period, tt.year)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoPeriodColumn)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fellBack, fellBack)
		})
	}
}

func str(s string) *string { return &s }

func TestPivot(t *testing.T) {
	items := []StatementItem{
		{Period: "2023", Position: 1, Label: "TỔNG CỘNG TÀI SẢN", Value: str("900")},
		{Period: "2024", Position: 1, Label: "TỔNG CỘNG TÀI SẢN", Value: str("1000")},
		{Period: "2024", Position: 2, Label: "Hàng tồn kho", Value: nil},
		{Period: "2024", Position: 0, Label: "TÀI SẢN NGẮN HẠN", Value: str("600")},
	}

	long := Pivot(items)
	assert.Equal(t, []string{"item", "2024", "2023"}, long.Columns)
	require.Equal(t, 3, long.Len())
	assert.Equal(t, "TÀI SẢN NGẮN HẠN", long.Rows[0].Label)
	assert.Equal(t, "1000", long.Rows[1].Cells[0].String())
	assert.Equal(t, "900", long.Rows[1].Cells[1].String())
	assert.True(t, long.Rows[2].Cells[0].IsBlank())

	reduced, err := Reduce(long, "year", 2024, table.ScaleThousands)
	require.NoError(t, err)
	assert.Equal(t, []string{table.LabelColumn, "2024"}, reduced.Columns)
	d, ok := reduced.Rows[1].Cells[0].Decimal()
	require.True(t, ok)
	assert.Equal(t, int64(1_000_000), d.IntPart())

	_, err = Reduce(table.New("item", "2024"), "year", 2024, table.ScaleUnits)
	assert.ErrorIs(t, err, ErrNoStatement)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestDirSource_Fetch(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "VNM")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	csv := "item,2024-Q2,2024-Q1\n" +
		"Tiền và tương đương tiền đầu kỳ,200000000,150000000\n" +
		"Tiền và tương đương tiền cuối kỳ,250000000,200000000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cashflow.csv"), []byte(csv), 0o644))

	src := NewDirSource(root, table.ScaleThousands, quietLogger())

	tbl, err := src.Fetch(context.Background(), "vnm", report.CashFlow, "Q1", 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{table.LabelColumn, "2024-Q1"}, tbl.Columns)
	d, _ := tbl.Rows[0].Cells[0].Decimal()
	assert.Equal(t, int64(150_000_000_000), d.IntPart())

	tbl, err = src.Fetch(context.Background(), "VNM", report.CashFlow, "Q4", 2024)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q2", tbl.Columns[1], "newest quarter of the year")

	_, err = src.Fetch(context.Background(), "VNM", report.Balance, "Q1", 2024)
	assert.ErrorIs(t, err, ErrNoStatement)
}
