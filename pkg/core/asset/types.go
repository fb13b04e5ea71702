// Package asset implements the net-asset-value engine: the balance sheet is
// restated line by line to fair value and NAV = fair-value assets minus
// fair-value liabilities.
package asset

import "valuation_platform/pkg/core/fincalc"

// BalanceSheet is the target company's book-value balance sheet in millions
// of won.
type BalanceSheet struct {
	SharesOutstanding int64   `json:"shares_outstanding"`
	TotalAssets       float64 `json:"total_assets"`
	TotalLiabilities  float64 `json:"total_liabilities"`

	Cash                 float64 `json:"cash"`
	ShortTermInvestments float64 `json:"short_term_investments"`
	AccountsReceivable   float64 `json:"accounts_receivable"`
	Inventory            float64 `json:"inventory"`

	Land      float64 `json:"land"`
	Building  float64 `json:"building"`
	Machinery float64 `json:"machinery"`

	Goodwill float64 `json:"goodwill"`
	Patents  float64 `json:"patents"`

	ListedStocks   float64 `json:"listed_stocks"`
	UnlistedStocks float64 `json:"unlisted_stocks"`

	CurrentLiabilities float64 `json:"current_liabilities"`
	LongTermDebt       float64 `json:"long_term_debt"`
	DebtInterestRate   float64 `json:"debt_interest_rate"`
}

// FairValueData carries appraisal and fair-value evidence. nil means the
// evidence is absent and the engine falls back to its heuristic for that
// line; this presence distinction is load-bearing (an explicit zero
// appraisal is not the same as no appraisal).
type FairValueData struct {
	BadDebtRate             *float64 `json:"bad_debt_rate,omitempty"`
	InventoryMarkdown       *float64 `json:"inventory_markdown,omitempty"`
	LandAppraisal           *float64 `json:"land_appraisal,omitempty"`
	BuildingAppraisal       *float64 `json:"building_appraisal,omitempty"`
	MachineryDepreciation   *float64 `json:"machinery_depreciation,omitempty"`
	GoodwillImpairment      *float64 `json:"goodwill_impairment,omitempty"`
	PatentsValuation        *float64 `json:"patents_valuation,omitempty"`
	ListedStocksMarketValue *float64 `json:"listed_stocks_market_value,omitempty"`
	UnlistedStocksValuation *float64 `json:"unlisted_stocks_valuation,omitempty"`
	MarketInterestRate      *float64 `json:"market_interest_rate,omitempty"`
	ContingentLiabilities   *float64 `json:"contingent_liabilities,omitempty"`
}

// Input is one NAV run's data.
type Input struct {
	BalanceSheet BalanceSheet  `json:"balance_sheet"`
	FairValue    FairValueData `json:"fair_value,omitempty"`
}

// LineItem is one balance-sheet line restated to fair value. The same shape
// serves assets and liabilities.
type LineItem struct {
	AssetType        string  `json:"asset_type"`
	BookValue        float64 `json:"book_value"`
	FairValue        float64 `json:"fair_value"`
	Adjustment       float64 `json:"adjustment"`
	AdjustmentReason string  `json:"adjustment_reason"`
}

// Breakdown is the NAV payload on the valuation result.
type Breakdown struct {
	TotalAssetsBook      float64    `json:"total_assets_book"`
	TotalAssetsFV        float64    `json:"total_assets_fv"`
	TotalLiabilitiesBook float64    `json:"total_liabilities_book"`
	TotalLiabilitiesFV   float64    `json:"total_liabilities_fv"`
	NAV                  float64    `json:"nav"`
	NAVPerShare          float64    `json:"nav_per_share"`
	AssetDetails         []LineItem `json:"asset_details"`
	LiabilityDetails     []LineItem `json:"liability_details"`
	TotalAdjustments     float64    `json:"total_adjustments"`

	Warnings []fincalc.Warning `json:"warnings,omitempty"`
}
