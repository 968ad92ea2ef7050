package sankey

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/match"
	"financial_sankey/pkg/core/table"
)

// Balance sheet nodes.
const (
	NodeTotalAssets           = "Tổng tài sản"
	NodeCurrentAssets         = "Tài sản ngắn hạn"
	NodeNonCurrentAssets      = "Tài sản dài hạn"
	NodeLiabilities           = "Nợ phải trả"
	NodeEquity                = "Vốn chủ sở hữu"
	NodeCurrentLiabilities    = "Nợ ngắn hạn"
	NodeNonCurrentLiabilities = "Nợ dài hạn"
	NodeCapital               = "Vốn và thặng dư"
	NodeFunds                 = "Các quỹ thuộc VCSH"
	NodeRetained              = "Lợi nhuận"
	NodeOtherEquity           = "Thông tin khác"
)

// detail is a leaf line: its concept key and the node label it renders as.
type detail struct {
	key   string
	label string
}

// branch groups leaves under one node.
type branch struct {
	node  string
	lines []detail
}

var (
	assetBranches = []branch{
		{NodeCurrentAssets, []detail{
			{"cash", "Tiền và các khoản tương đương tiền"},
			{"short_term_investments", "Đầu tư tài chính ngắn hạn"},
			{"short_term_receivables", "Các khoản phải thu ngắn hạn"},
			{"inventory", "Hàng tồn kho"},
			{"other_current_assets", "Tài sản ngắn hạn khác"},
		}},
		{NodeNonCurrentAssets, []detail{
			{"fixed_assets", "Tài sản cố định"},
			{"other_non_current_assets", "Tài sản dài hạn khác"},
			{"long_term_receivables", "Các khoản phải thu dài hạn"},
			{"investment_property", "Bất động sản đầu tư"},
			{"construction_in_progress", "Tài sản dở dang dài hạn"},
			{"long_term_investments", "Đầu tư tài chính dài hạn"},
			{"goodwill", "Lợi thế thương mại"},
		}},
	}

	liabilityBranches = []branch{
		{NodeCurrentLiabilities, []detail{
			{"trade_payables", "Phải trả người bán ngắn hạn"},
			{"customer_advances", "Người mua trả tiền trước ngắn hạn"},
			{"taxes_payable", "Thuế và các khoản phải nộp nhà nước"},
			{"payroll_payable", "Phải trả người lao động"},
			{"accrued_expenses", "Chi phí phải trả ngắn hạn"},
			{"other_current_payables", "Phải trả ngắn hạn khác"},
			{"short_term_borrowings", "Vay và nợ thuê tài chính ngắn hạn"},
			{"bonus_welfare_fund", "Quỹ khen thưởng phúc lợi"},
			{"short_term_provisions", "Dự phòng phải trả ngắn hạn"},
		}},
		{NodeNonCurrentLiabilities, []detail{
			{"long_term_borrowings", "Vay và nợ thuê tài chính dài hạn"},
			{"long_term_trade_payables", "Phải trả nhà cung cấp dài hạn"},
			{"long_term_customer_advances", "Người mua trả tiền trước dài hạn"},
			{"long_term_accrued_expenses", "Chi phí phải trả dài hạn"},
			{"intra_company_capital", "Phải trả nội bộ về vốn kinh doanh"},
			{"intra_company_payables", "Phải trả nội bộ dài hạn"},
			{"unearned_revenue", "Doanh thu chưa thực hiện dài hạn"},
			{"other_long_term_payables", "Phải trả dài hạn khác"},
			{"convertible_bonds", "Trái phiếu chuyển đổi"},
			{"preferred_shares_debt", "Cổ phiếu ưu đãi (Nợ)"},
			{"deferred_tax_liabilities", "Thuế thu nhập hoãn lại phải trả"},
			{"long_term_provisions", "Dự phòng phải trả dài hạn"},
			{"science_fund", "Quỹ phát triển khoa học và công nghệ"},
			{"severance_provision", "Dự phòng trợ cấp mất việc"},
		}},
	}

	equityBranches = []branch{
		{NodeCapital, []detail{
			{"contributed_capital", "Vốn góp"},
			{"share_premium", "Thặng dư vốn cổ phần"},
			{"bond_conversion_option", "Quyền chọn chuyển đổi trái phiếu"},
			{"other_capital", "Vốn khác"},
			{"treasury_shares", "Cổ phiếu quỹ"},
		}},
		{NodeFunds, []detail{
			{"investment_fund", "Quỹ đầu tư phát triển"},
			{"restructuring_fund", "Quỹ hỗ trợ sắp xếp doanh nghiệp"},
			{"other_equity_funds", "Quỹ khác thuộc vốn chủ sở hữu"},
			{"budget_sources", "Nguồn kinh phí và quỹ khác"},
		}},
		{NodeRetained, []detail{
			{"retained_earnings", "Lợi nhuận sau thuế chưa phân phối"},
			{"minority_interest", "Lợi ích cổ đông không kiểm soát"},
			{"revaluation_differences", "Chênh lệch đánh giá lại tài sản"},
			{"exchange_differences", "Chênh lệch tỷ giá hối đoái"},
		}},
	}
)

// BalanceConcepts are the line items a balance sheet is resolved into.
var BalanceConcepts = []match.Concept{
	match.Item("total_assets", "TỔNG CỘNG TÀI SẢN", "TỔNG CỘNG TÀI SẢN (đồng)"),
	match.Item("current_assets", "TÀI SẢN NGẮN HẠN", "TÀI SẢN NGẮN HẠN (đồng)"),
	match.Item("non_current_assets", "TÀI SẢN DÀI HẠN", "TÀI SẢN DÀI HẠN (đồng)"),

	match.Item("cash", "Tiền và các khoản tương đương tiền", "Tiền và tương đương tiền (đồng)"),
	match.Item("short_term_investments", "Đầu tư tài chính ngắn hạn", "Giá trị thuần đầu tư ngắn hạn (đồng)"),
	match.Item("short_term_receivables", "Các khoản phải thu ngắn hạn", "Các khoản phải thu ngắn hạn (đồng)"),
	match.Item("inventory", "Hàng tồn kho", "Hàng tồn kho ròng", "Hàng tồn kho, ròng (đồng)"),
	match.Item("other_current_assets", "Tài sản ngắn hạn khác", "Tài sản lưu động khác"),

	match.Item("fixed_assets", "Tài sản cố định", "Tài sản cố định (đồng)"),
	match.Item("other_non_current_assets", "Tài sản dài hạn khác", "Tài sản dài hạn khác (đồng)"),
	match.Item("long_term_receivables", "Các khoản phải thu dài hạn", "Phải thu dài hạn (đồng)"),
	match.Item("investment_property", "Bất động sản đầu tư", "Giá trị ròng tài sản đầu tư"),
	match.Item("construction_in_progress", "Tài sản dở dang dài hạn", "Chi phí xây dựng cơ bản dở dang", "Chi phí xây dựng cơ bản dở dang (đồng)"),
	match.Item("long_term_investments", "Đầu tư tài chính dài hạn", "Đầu tư dài hạn (đồng)"),
	match.Item("goodwill", "Lợi thế thương mại", "Lợi thế thương mại (đồng)"),

	match.Item("liabilities", "NỢ PHẢI TRẢ", "NỢ PHẢI TRẢ (đồng)"),
	match.Item("equity", "VỐN CHỦ SỞ HỮU", "VỐN CHỦ SỞ HỮU (đồng)"),
	match.Item("current_liabilities", "Nợ ngắn hạn", "Nợ ngắn hạn (đồng)"),
	match.Item("non_current_liabilities", "Nợ dài hạn", "Nợ dài hạn (đồng)"),

	match.Item("trade_payables", "Phải trả người bán ngắn hạn", "Phải trả người bán", "Phải trả cho người bán"),
	match.Item("customer_advances", "Người mua trả tiền trước ngắn hạn", "Người mua trả tiền trước ngắn hạn (đồng)"),
	match.Item("taxes_payable", "Thuế và các khoản phải nộp Nhà nước"),
	match.Item("payroll_payable", "Phải trả người lao động"),
	match.Item("accrued_expenses", "Chi phí phải trả ngắn hạn"),
	match.Item("other_current_payables", "Phải trả ngắn hạn khác"),
	match.Item("short_term_borrowings", "Vay và nợ thuê tài chính ngắn hạn", "Vay và nợ thuê tài chính ngắn hạn (đồng)"),
	match.Item("bonus_welfare_fund", "Quỹ khen thưởng, phúc lợi", "Quỹ khen thưởng phúc lợi", "Quỹ khen thưởng và phúc lợi"),
	match.Item("short_term_provisions", "Dự phòng phải trả ngắn hạn"),

	match.Item("long_term_borrowings", "Vay và nợ thuê tài chính dài hạn", "Vay và nợ thuê tài chính dài hạn (đồng)"),
	match.Item("long_term_trade_payables", "Phải trả nhà cung cấp dài hạn", "Phải trả người bán dài hạn"),
	match.Item("long_term_customer_advances", "Người mua trả tiền trước dài hạn"),
	match.Item("long_term_accrued_expenses", "Chi phí phải trả dài hạn", "Chi phí phải trả dài hạn (đồng)"),
	match.Item("intra_company_capital", "Phải trả nội bộ về vốn kinh doanh"),
	match.Item("intra_company_payables", "Phải trả nội bộ dài hạn"),
	match.Item("unearned_revenue", "Doanh thu chưa thực hiện dài hạn"),
	match.Item("other_long_term_payables", "Phải trả dài hạn khác"),
	match.Item("convertible_bonds", "Trái phiếu chuyển đổi"),
	match.Item("preferred_shares_debt", "Cổ phiếu ưu đãi (Nợ)"),
	match.Item("deferred_tax_liabilities", "Thuế thu nhập hoãn lại phải trả"),
	match.Item("long_term_provisions", "Dự phòng phải trả dài hạn"),
	match.Item("science_fund", "Quỹ phát triển khoa học và công nghệ"),
	match.Item("severance_provision", "Dự phòng trợ cấp mất việc làm"),

	match.Item("contributed_capital", "Vốn góp của chủ sở hữu", "Vốn góp của chủ sở hữu (đồng)"),
	match.Item("share_premium", "Thặng dư vốn cổ phần"),
	match.Item("bond_conversion_option", "Quyền chọn chuyển đổi trái phiếu"),
	match.Item("other_capital", "Vốn khác của chủ sở hữu"),
	match.Item("treasury_shares", "Cổ phiếu quỹ"),
	match.Item("revaluation_differences", "Chênh lệch đánh giá lại tài sản"),
	match.Item("exchange_differences", "Chênh lệch tỷ giá hối đoái"),
	match.Item("investment_fund", "Quỹ đầu tư phát triển", "Quỹ đầu tư và phát triển (đồng)"),
	match.Item("restructuring_fund", "Quỹ hỗ trợ sắp xếp doanh nghiệp"),
	match.Item("other_equity_funds", "Quỹ khác thuộc vốn chủ sở hữu"),
	match.Item("retained_earnings", "Lợi nhuận sau thuế chưa phân phối", "Lãi chưa phân phối (đồng)"),
	match.Item("minority_interest", "Lợi ích cổ đông không kiểm soát", "Lợi ích của cổ đông thiểu số", "LỢI ÍCH CỦA CỔ ĐÔNG THIỂU SỐ"),
	match.Item("budget_sources", "Nguồn kinh phí và quỹ khác"),
}

// BalanceBuilder renders a balance sheet as a four-tier hierarchy: asset lines
// into their category, categories into total assets, total assets out to
// liabilities and equity, and those out to their own lines.
type BalanceBuilder struct {
	Settings Settings
	Log      logrus.FieldLogger
}

// NewBalanceBuilder creates a balance sheet builder.
func NewBalanceBuilder(settings Settings, log logrus.FieldLogger) *BalanceBuilder {
	return &BalanceBuilder{Settings: settings.WithDefaults(), Log: log}
}

func (b *BalanceBuilder) resolver() *match.Resolver {
	return match.NewResolver(b.Settings.WithDefaults().UnitFactor, b.Log, match.DefaultStrategies...)
}

// Resolve evaluates BalanceConcepts against t.
func (b *BalanceBuilder) Resolve(t *table.RawTable) match.Values {
	return b.resolver().ResolveAll(t, ValueColumn, BalanceConcepts)
}

// Build renders the balance sheet flows.
func (b *BalanceBuilder) Build(t *table.RawTable) string {
	return build(b.Log, "balance", t, func() *flow.Graph {
		return b.Graph(b.Resolve(t))
	})
}

// Graph assembles the balance sheet edges from resolved values and applies the
// materiality filter.
func (b *BalanceBuilder) Graph(v match.Values) *flow.Graph {
	s := b.Settings.WithDefaults()
	g := flow.NewGraph()

	for _, br := range assetBranches {
		for _, d := range br.lines {
			g.Add(d.label, abs(v.Get(d.key)), br.node)
		}
	}

	g.Add(NodeCurrentAssets, abs(v.Get("current_assets")), NodeTotalAssets)
	g.Add(NodeNonCurrentAssets, abs(v.Get("non_current_assets")), NodeTotalAssets)

	equity := abs(v.Get("equity"))
	g.Add(NodeTotalAssets, abs(v.Get("liabilities")), NodeLiabilities)
	g.Add(NodeTotalAssets, equity, NodeEquity)

	// Liability subtotals follow their displayed lines; the reported row is
	// only used when no line resolved.
	reported := map[string]int64{
		NodeCurrentLiabilities:    v.Get("current_liabilities"),
		NodeNonCurrentLiabilities: v.Get("non_current_liabilities"),
	}
	for _, br := range liabilityBranches {
		sum := branchSum(v, br)
		// Never overrides a non-zero recomputed sum.
		if sum == 0 {
			sum = abs(reported[br.node])
		}
		g.Add(NodeLiabilities, sum, br.node)
	}
	for _, br := range liabilityBranches {
		for _, d := range br.lines {
			g.Add(br.node, abs(v.Get(d.key)), d.label)
		}
	}

	sums := make([]int64, len(equityBranches))
	var covered int64
	for i, br := range equityBranches {
		sums[i] = branchSum(v, br)
		covered += sums[i]
	}
	plug := equityPlug(equity, covered, s.EquityPlugTolerance)
	for i, br := range equityBranches {
		w := sums[i]
		if br.node == NodeRetained {
			w += plug
		}
		g.Add(NodeEquity, w, br.node)
	}
	for _, br := range equityBranches {
		for _, d := range br.lines {
			g.Add(br.node, abs(v.Get(d.key)), d.label)
		}
	}
	if plug > 0 {
		g.Add(NodeRetained, plug, NodeOtherEquity)
	}

	return g.AtLeast(threshold(v.Get("total_assets"), s.BalanceMateriality))
}

// equityPlug is the part of equity the subgroup lines do not account for. Gaps
// within tolerance of equity are dropped.
func equityPlug(equity, covered int64, tolerance decimal.Decimal) int64 {
	plug := equity - covered
	if plug <= 0 {
		return 0
	}
	if decimal.NewFromInt(plug).LessThanOrEqual(decimal.NewFromInt(equity).Mul(tolerance)) {
		return 0
	}
	return plug
}

// branchSum adds the magnitudes of a branch's lines.
func branchSum(v match.Values, br branch) int64 {
	var sum int64
	for _, d := range br.lines {
		sum += abs(v.Get(d.key))
	}
	return sum
}
