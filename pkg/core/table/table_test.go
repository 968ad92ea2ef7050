package table

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// VALUE PARSING
// =============================================================================

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"Simple integer", "1234", "1234", true},
		{"With commas", "1,234,567", "1234567", true},
		{"Decimal", "1,234.56", "1234.56", true},
		{"Parentheses negative", "(123)", "-123", true},
		{"Large negative", "(123,456,789)", "-123456789", true},
		{"Dollar sign", "$ 25,165", "25165", true},
		{"Explicit minus", "-600000000", "-600000000", true},
		{"Em dash", "—", "0", false},
		{"Hyphen dash", "-", "0", false},
		{"Empty", "", "0", false},
		{"Whitespace", "   ", "0", false},
		{"NaN", "nan", "0", false},
		{"Text", "không có", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "ParseAmount(%q) = %s", tt.raw, got)
		})
	}
}

func TestValue(t *testing.T) {
	d, ok := Int(42).Decimal()
	require.True(t, ok)
	assert.Equal(t, int64(42), d.IntPart())

	_, ok = Float(nan()).Decimal()
	assert.False(t, ok)
	assert.True(t, Float(nan()).IsBlank())

	d, ok = Text("(1,000)").Decimal()
	require.True(t, ok)
	assert.Equal(t, int64(-1000), d.IntPart())

	scaled := Text("12").Scale(decimal.NewFromInt(1000))
	assert.True(t, scaled.IsNumeric())
	d, _ = scaled.Decimal()
	assert.Equal(t, int64(12000), d.IntPart())

	assert.Equal(t, "abc", Text("abc").Scale(decimal.NewFromInt(1000)).String())
}

// =============================================================================
// TABLE INVARIANTS
// =============================================================================

func TestRawTable_CleanAndValidate(t *testing.T) {
	tbl := New(LabelColumn, "2024")
	tbl.Append("  Tổng cộng tài sản  ", Int(1000))
	tbl.Append("", Text(""))
	tbl.Append("   ", Value{})
	tbl.Append("", Int(5))

	tbl.Clean()
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Tổng cộng tài sản", tbl.Rows[0].Label)
	assert.NoError(t, tbl.Validate(1))

	assert.ErrorIs(t, New(LabelColumn).Validate(1), ErrTooFewColumns)
	assert.ErrorIs(t, New(LabelColumn, "2024").Validate(1), ErrNoRows)
	assert.ErrorIs(t, tbl.Validate(2), ErrColumnOutOfRange)
	assert.ErrorIs(t, tbl.Validate(0), ErrColumnOutOfRange)

	var missing *RawTable
	assert.ErrorIs(t, missing.Validate(1), ErrTooFewColumns)
}

func TestRawTable_Cell(t *testing.T) {
	tbl := New(LabelColumn, "2024", "2023")
	tbl.Append("Hàng tồn kho", Int(10))

	v, ok := tbl.Cell(0, 1)
	require.True(t, ok)
	assert.Equal(t, "10", v.String())

	_, ok = tbl.Cell(0, 2)
	assert.False(t, ok, "short row has no second figure")
	_, ok = tbl.Cell(3, 1)
	assert.False(t, ok)
	_, ok = tbl.Cell(0, 0)
	assert.False(t, ok, "label column is not a figure")
}

func TestRawTable_RescaleAndProject(t *testing.T) {
	tbl := New("item", "2024-Q1", "2024-Q2")
	tbl.Append("Tiền", Int(1), Int(2))
	tbl.Append("Ghi chú", Text("n/a"), Text("x"))

	tbl.Rescale(2, ScaleThousands.Multiplier())

	d, _ := tbl.Rows[0].Cells[1].Decimal()
	assert.Equal(t, int64(2000), d.IntPart())
	d, _ = tbl.Rows[0].Cells[0].Decimal()
	assert.Equal(t, int64(1), d.IntPart(), "other columns untouched")

	p := tbl.Project(2, "2024-Q2")
	assert.Equal(t, []string{LabelColumn, "2024-Q2"}, p.Columns)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "x", p.Rows[1].Cells[0].String())
}

func TestDetectScale(t *testing.T) {
	tests := []struct {
		text string
		want Scale
	}{
		{"(in millions)", ScaleMillions},
		{"($ in thousands)", ScaleThousands},
		{"Đơn vị: nghìn đồng", ScaleThousands},
		{"Đơn vị: triệu đồng", ScaleMillions},
		{"(tỷ đồng)", ScaleBillions},
		{"(đồng)", ScaleUnits},
		{"Bảng cân đối kế toán", ScaleUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectScale(tt.text))
		})
	}
}

func TestParseScale(t *testing.T) {
	s, err := ParseScale("Thousands")
	require.NoError(t, err)
	assert.Equal(t, ScaleThousands, s)

	s, err = ParseScale("")
	require.NoError(t, err)
	assert.Equal(t, ScaleUnits, s)

	_, err = ParseScale("lakhs")
	assert.Error(t, err)
}

// =============================================================================
// ADAPTERS
// =============================================================================

func TestParseCSV(t *testing.T) {
	src := "\ufeffCHỈ TIÊU,2024\n" +
		"TỔNG CỘNG TÀI SẢN,\"1,000\"\n" +
		",\n" +
		"Cổ phiếu quỹ,(25)\n"

	tbl, err := ParseCSV(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"CHỈ TIÊU", "2024"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	d, ok := tbl.Rows[1].Cells[0].Decimal()
	require.True(t, ok)
	assert.Equal(t, int64(-25), d.IntPart())

	_, err = ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseHTML(t *testing.T) {
	html := `<html><body>
<p>Bảng cân đối kế toán (đồng)</p>
<table>
  <tr><th>Chỉ tiêu</th><th>2024</th></tr>
  <tr><td>I. Tiền và các khoản
      tương đương tiền</td><td>1,234</td></tr>
  <tr><td>Hàng tồn kho</td><td>(50)</td></tr>
</table>
<table><tr><td>ignored</td></tr></table>
</body></html>`

	tbl, err := ParseHTML(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, []string{"Chỉ tiêu", "2024"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "I. Tiền và các khoản tương đương tiền", tbl.Rows[0].Label)

	_, err = ParseHTML(strings.NewReader("<p>no table</p>"))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseMarkdown(t *testing.T) {
	md := "# Income statement\n\n" +
		"| Chỉ tiêu | 2024 |\n" +
		"|---|---:|\n" +
		"| Doanh thu thuần | 1,000,000,000 |\n" +
		"| Giá vốn hàng bán | (600,000,000) |\n"

	tbl, err := ParseMarkdown([]byte(md))
	require.NoError(t, err)
	assert.Equal(t, []string{"Chỉ tiêu", "2024"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Giá vốn hàng bán", tbl.Rows[1].Label)

	d, ok := tbl.Rows[1].Cells[0].Decimal()
	require.True(t, ok)
	assert.Equal(t, int64(-600000000), d.IntPart())

	_, err = ParseMarkdown([]byte("just text"))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Strict", `{"columns": ["CHỈ TIÊU", "2024"], "rows": [["Tổng cộng tài sản", 1000], ["Ghi chú", null]]}`},
		{"Trailing comma", `{"columns": ["CHỈ TIÊU", "2024"], "rows": [["Tổng cộng tài sản", 1000], ["Ghi chú", null],]}`},
		{"Hjson", "{\n  columns: [\"CHỈ TIÊU\", \"2024\"]\n  rows: [[\"Tổng cộng tài sản\", 1000], [\"Ghi chú\", null]]\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ParseJSON([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, []string{"CHỈ TIÊU", "2024"}, tbl.Columns)
			require.Equal(t, 2, tbl.Len())

			d, ok := tbl.Rows[0].Cells[0].Decimal()
			require.True(t, ok)
			assert.Equal(t, int64(1000), d.IntPart())
		})
	}
}

func TestParseJSON_InfersColumns(t *testing.T) {
	tbl, err := ParseJSON([]byte(`{"rows": [["Doanh thu", "1,000", 900]]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{LabelColumn, "VALUE", "VALUE_2"}, tbl.Columns)

	_, err = ParseJSON([]byte(`{}`))
	assert.ErrorIs(t, err, ErrNoTable)
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
