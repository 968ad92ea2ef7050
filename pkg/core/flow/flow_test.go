package flow

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Render(t *testing.T) {
	g := NewGraph().
		Add("Tài sản ngắn hạn", 600, "Tổng tài sản").
		Add("Dòng tiền", 40, "Hoạt động đầu tư")

	assert.Equal(t, "Tài sản ngắn hạn [600] Tổng tài sản\nDòng tiền [40] Hoạt động đầu tư", g.Render())
	assert.Equal(t, "", NewGraph().Render())
}

func TestGraph_AtLeast(t *testing.T) {
	g := NewGraph().
		Add("a", 9, "b").
		Add("a", 10, "c").
		Add("a", 11, "d")

	kept := g.Add("a", -50, "e").AtLeast(decimal.NewFromInt(10))
	require.Equal(t, 2, kept.Len())
	assert.Equal(t, "c", kept.Edges()[0].Target, "edge at the threshold is retained")
	assert.Equal(t, 4, g.Len(), "filtering does not modify the source graph")

	fractional := g.AtLeast(decimal.RequireFromString("10.01"))
	assert.Equal(t, 1, fractional.Len())
}

func TestGraph_Dedup(t *testing.T) {
	g := NewGraph().
		Add("x", 1, "y").
		Add("x", 2, "y").
		Add("x", 1, "y").
		Add("y", 1, "x")

	assert.Equal(t, "x [1] y\nx [2] y\ny [1] x", g.Dedup().Render())
}

func TestErrorLine(t *testing.T) {
	line := ErrorLine(errors.New("table has no rows"))
	assert.Equal(t, "// Error: table has no rows", line)
	assert.True(t, IsError(line))
	assert.False(t, IsError("Tiền đầu kỳ [200] Dòng tiền"))
	assert.False(t, IsError(""))
}

func TestParse(t *testing.T) {
	out := "Nợ dài hạn [12] Cổ phiếu ưu đãi (Nợ)\n// comment\n\nbroken line\nA [x] B\nLợi nhuận [3] Thông tin khác"
	edges := Parse(out)
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{Source: "Nợ dài hạn", Value: 12, Target: "Cổ phiếu ưu đãi (Nợ)"}, edges[0])
	assert.Equal(t, int64(3), edges[1].Value)
}
