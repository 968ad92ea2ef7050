package sankey

import (
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/match"
	"financial_sankey/pkg/core/table"
)

// Income statement nodes.
const (
	NodeRevenue          = "Doanh thu thuần"
	NodeCOGS             = "Giá vốn hàng bán"
	NodeGrossProfit      = "Lợi nhuận gộp"
	NodeOperatingProfit  = "Lợi nhuận HĐKD"
	NodeFinancialIncome  = "Doanh thu tài chính"
	NodeFinancialExpense = "Chi phí tài chính"
	NodeSellingExpense   = "Chi phí bán hàng"
	NodeAdminExpense     = "Chi phí quản lý"
	NodePreTaxProfit     = "Lợi nhuận trước thuế"
	NodeOtherProfit      = "Lợi nhuận khác"
	NodeIncomeTax        = "Thuế thu nhập"
	NodeNetProfit        = "Lợi nhuận sau thuế"
)

// IncomeConcepts are the line items an income statement is resolved into.
// Costs resolve as magnitudes; profit lines keep their sign.
var IncomeConcepts = []match.Concept{
	match.Item("revenue", "Doanh thu thuần về bán hàng và cung cấp dịch vụ", "Doanh thu thuần", "Doanh thu"),
	match.Cost("cogs", "Giá vốn hàng bán"),
	match.Item("gross_profit", "Lợi nhuận gộp về bán hàng và cung cấp dịch vụ", "Lợi nhuận gộp", "Lãi gộp"),
	match.Item("financial_income", "Doanh thu hoạt động tài chính", "Thu nhập tài chính", "Thu nhập lãi"),
	match.Cost("financial_expense", "Chi phí tài chính", "Chi phí tiền lãi vay"),
	match.Cost("selling_expense", "Chi phí bán hàng"),
	match.Cost("admin_expense", "Chi phí quản lý doanh nghiệp", "Chi phí quản lý DN"),
	match.Item("operating_profit", "Lợi nhuận thuần từ hoạt động kinh doanh", "Lãi/Lỗ từ hoạt động kinh doanh", "LN trước thuế"),
	match.Item("other_profit", "Lợi nhuận khác"),
	match.Cost("income_tax", "Chi phí thuế TNDN hiện hành"),
	match.Item("net_profit", "Lợi nhuận sau thuế thu nhập doanh nghiệp", "Lợi nhuận thuần", "Lợi nhuận sau thuế của Cổ đông công ty mẹ (đồng)"),
}

// IncomeBuilder renders an income statement as a cascade from revenue down to
// net profit.
type IncomeBuilder struct {
	Settings Settings
	Log      logrus.FieldLogger
}

// NewIncomeBuilder creates an income statement builder.
func NewIncomeBuilder(settings Settings, log logrus.FieldLogger) *IncomeBuilder {
	return &IncomeBuilder{Settings: settings.WithDefaults(), Log: log}
}

// Resolve evaluates IncomeConcepts against t. Income statements use the
// lenient strategies, since some providers suffix their labels.
func (b *IncomeBuilder) Resolve(t *table.RawTable) match.Values {
	r := match.NewResolver(b.Settings.WithDefaults().UnitFactor, b.Log, match.LenientStrategies...)
	return r.ResolveAll(t, ValueColumn, IncomeConcepts)
}

// Build renders the income statement flows.
func (b *IncomeBuilder) Build(t *table.RawTable) string {
	return build(b.Log, "income", t, func() *flow.Graph {
		return b.Graph(b.Resolve(t))
	})
}

// Graph assembles the income statement edges and applies the materiality
// filter. Loss-making lines carry negative weights and fall below it.
func (b *IncomeBuilder) Graph(v match.Values) *flow.Graph {
	s := b.Settings.WithDefaults()
	gross := v.Get("gross_profit")

	g := flow.NewGraph().
		Add(NodeRevenue, v.Get("cogs"), NodeCOGS).
		Add(NodeRevenue, gross, NodeGrossProfit).
		Add(NodeGrossProfit, gross, NodeOperatingProfit).
		Add(NodeFinancialIncome, v.Get("financial_income"), NodeOperatingProfit).
		Add(NodeOperatingProfit, v.Get("financial_expense"), NodeFinancialExpense).
		Add(NodeOperatingProfit, v.Get("selling_expense"), NodeSellingExpense).
		Add(NodeOperatingProfit, v.Get("admin_expense"), NodeAdminExpense).
		Add(NodeOperatingProfit, v.Get("operating_profit"), NodePreTaxProfit).
		Add(NodeOtherProfit, v.Get("other_profit"), NodePreTaxProfit).
		Add(NodePreTaxProfit, v.Get("income_tax"), NodeIncomeTax).
		Add(NodePreTaxProfit, v.Get("net_profit"), NodeNetProfit)

	return g.AtLeast(threshold(v.Get("net_profit"), s.IncomeMateriality))
}
