package sankey

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/match"
	"financial_sankey/pkg/core/table"
)

// Cash flow nodes.
const (
	NodeCashPool      = "Dòng tiền"
	NodeOperating     = "Hoạt động kinh doanh"
	NodeInvesting     = "Hoạt động đầu tư"
	NodeFinancing     = "Hoạt động tài chính"
	NodeAdjustments   = "Điều chỉnh (không phải dòng tiền)"
	NodeOpeningCash   = "Tiền đầu kỳ"
	NodeClosingCash   = "Tiền cuối kỳ"
	NodeFXEffect      = "Chênh lệch tỷ giá"
	NodeLoanRecovery  = "Tiền thu hồi cho vay"
	NodeInterestIn    = "Tiền thu lãi cho vay, cổ tức"
	NodeDisposals     = "Thu thanh lý TSCĐ"
	NodeCapex         = "Mua sắm TSCĐ"
	NodeLending       = "Cho vay / mua công cụ nợ"
	NodeBorrowing     = "Tiền vay nhận được"
	NodeRepayment     = "Trả nợ gốc"
	NodeDividendsPaid = "Trả cổ tức"
)

// CashFlowConcepts are the line items a cash flow statement is resolved into.
var CashFlowConcepts = []match.Concept{
	match.Item("net_operating", "Lưu chuyển tiền thuần từ hoạt động kinh doanh"),
	match.Item("net_investing", "Lưu chuyển tiền thuần từ hoạt động đầu tư"),
	match.Item("net_financing", "Lưu chuyển tiền thuần từ hoạt động tài chính"),
	match.Item("opening_cash", "Tiền và tương đương tiền đầu kỳ"),
	match.Item("closing_cash", "Tiền và tương đương tiền cuối kỳ"),
	match.Item("fx_effect", "Ảnh hưởng của thay đổi tỷ giá"),
	match.Item("pretax_profit", "Lợi nhuận trước thuế"),
	match.Item("profit_before_working_capital", "Lợi nhuận từ hoạt động kinh doanh trước thay đổi vốn lưu động"),
	match.Item("disposal_proceeds", "Tiền thu từ thanh lý", "nhượng bán TSCĐ"),
	match.Item("loan_recoveries", "Tiền thu hồi cho vay", "bán lại các công cụ nợ"),
	match.Item("interest_dividends_received", "Tiền thu lãi cho vay", "cổ tức và lợi nhuận được chia"),
	match.Item("capex", "Tiền chi để mua sắm", "xây dựng TSCĐ"),
	match.Item("lending", "Tiền chi cho vay", "mua các công cụ nợ"),
	match.Item("borrowing_proceeds", "Tiền thu từ đi vay"),
	match.Item("principal_repaid", "Tiền trả nợ gốc vay"),
	match.Item("dividends_paid", "Cổ tức, lợi nhuận đã trả", "Cổ tức đã trả"),
}

// cashLeg is a detail line attached to an activity node. Inflows run into the
// activity when positive; outflows run out of it when negative.
type cashLeg struct {
	key    string
	label  string
	inflow bool
}

var (
	investingLegs = []cashLeg{
		{"loan_recoveries", NodeLoanRecovery, true},
		{"interest_dividends_received", NodeInterestIn, true},
		{"disposal_proceeds", NodeDisposals, true},
		{"capex", NodeCapex, false},
		{"lending", NodeLending, false},
		{"disposal_proceeds", NodeDisposals, false},
	}
	financingLegs = []cashLeg{
		{"borrowing_proceeds", NodeBorrowing, true},
		{"principal_repaid", NodeRepayment, false},
		{"dividends_paid", NodeDividendsPaid, false},
	}
)

// CashFlowBuilder routes operating, investing and financing activity through a
// single cash pool bounded by opening and closing cash. Figures are resolved in
// base currency units and rounded to display units per edge.
type CashFlowBuilder struct {
	Settings Settings
	Log      logrus.FieldLogger
}

// NewCashFlowBuilder creates a cash flow builder.
func NewCashFlowBuilder(settings Settings, log logrus.FieldLogger) *CashFlowBuilder {
	return &CashFlowBuilder{Settings: settings.WithDefaults(), Log: log}
}

// Resolve evaluates CashFlowConcepts against t, in base currency units.
func (b *CashFlowBuilder) Resolve(t *table.RawTable) match.Values {
	r := match.NewResolver(decimal.NewFromInt(1), b.Log, match.DefaultStrategies...)
	return r.ResolveAll(t, ValueColumn, CashFlowConcepts)
}

// Build renders the cash flow statement.
func (b *CashFlowBuilder) Build(t *table.RawTable) string {
	return build(b.Log, "cashflow", t, func() *flow.Graph {
		return b.Graph(b.Resolve(t))
	})
}

// cashGraph applies the strict materiality test to raw amounts and converts
// the weights of the edges it keeps to display units.
type cashGraph struct {
	g         *flow.Graph
	threshold decimal.Decimal
	unit      decimal.Decimal
}

func (c *cashGraph) above(v int64) bool {
	return decimal.NewFromInt(v).GreaterThan(c.threshold)
}

func (c *cashGraph) below(v int64) bool {
	return decimal.NewFromInt(v).LessThan(c.threshold.Neg())
}

func (c *cashGraph) add(source string, raw int64, target string) {
	c.g.Add(source, decimal.NewFromInt(abs(raw)).Div(c.unit).RoundBank(0).IntPart(), target)
}

// signed adds node→pool for a material inflow and pool→node for a material
// outflow.
func (c *cashGraph) signed(node string, v int64) {
	switch {
	case c.above(v):
		c.add(node, v, NodeCashPool)
	case c.below(v):
		c.add(NodeCashPool, v, node)
	}
}

func (c *cashGraph) legs(activity string, legs []cashLeg, inflow bool, v match.Values) {
	for _, l := range legs {
		if l.inflow != inflow {
			continue
		}
		amount := v.Get(l.key)
		if inflow && c.above(amount) {
			c.add(l.label, amount, activity)
		}
		if !inflow && c.below(amount) {
			c.add(activity, amount, l.label)
		}
	}
}

// Graph assembles the cash flow edges from raw-unit values. Lines repeated by
// different branches are collapsed to their first occurrence.
func (b *CashFlowBuilder) Graph(v match.Values) *flow.Graph {
	s := b.Settings.WithDefaults()

	opening := v.Get("opening_cash")
	netOp, netInv, netFin := v.Get("net_operating"), v.Get("net_investing"), v.Get("net_financing")
	pbt := v.Get("pretax_profit")

	inflow := max(0, opening) + max(0, netOp) + max(0, netInv) + max(0, netFin)
	c := &cashGraph{
		g:         flow.NewGraph(),
		threshold: decimal.NewFromInt(inflow).Mul(s.CashFlowMateriality),
		unit:      s.UnitFactor,
	}

	if c.above(opening) {
		c.add(NodeOpeningCash, opening, NodeCashPool)
	}

	// The gap between profit and operating cash is shown as non-cash adjustments.
	adj := pbt - netOp
	switch {
	case c.above(adj):
		if c.above(netOp) {
			c.add(NodePreTaxProfit, netOp, NodeOperating)
		}
		c.add(NodePreTaxProfit, adj, NodeAdjustments)
	case c.below(adj):
		if c.above(pbt) {
			c.add(NodePreTaxProfit, pbt, NodeOperating)
		}
		c.add(NodeAdjustments, adj, NodeOperating)
	default:
		if c.above(pbt) {
			c.add(NodePreTaxProfit, pbt, NodeOperating)
		}
	}
	c.signed(NodeOperating, netOp)

	c.legs(NodeInvesting, investingLegs, true, v)
	c.signed(NodeInvesting, netInv)
	c.legs(NodeInvesting, investingLegs, false, v)

	c.legs(NodeFinancing, financingLegs, true, v)
	c.signed(NodeFinancing, netFin)
	c.legs(NodeFinancing, financingLegs, false, v)

	if closing := v.Get("closing_cash"); c.above(closing) {
		c.add(NodeCashPool, closing, NodeClosingCash)
	}
	c.signed(NodeFXEffect, v.Get("fx_effect"))

	return c.g.Dedup()
}
