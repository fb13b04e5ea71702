// Package dcf implements the discounted-cash-flow valuation engine using
// the FCFF approach, WACC as the discount rate and the Gordon growth model
// for the terminal value.
package dcf

import (
	"valuation_platform/pkg/core/fincalc"
	"valuation_platform/pkg/core/valuation"
)

// ForecastAssumptions drives the explicit forecast period. Zero-valued
// fields fall back to ratios derived from the normalized history.
type ForecastAssumptions struct {
	// GrowthRates holds one revenue growth rate per forecast period. When
	// empty, the historical CAGR is used for ForecastYears periods.
	GrowthRates []float64 `json:"growth_rates"`

	TargetOperatingMargin float64 `json:"target_operating_margin"`
	TaxRate               float64 `json:"tax_rate"`
	DepreciationRatio     float64 `json:"depreciation_ratio"`    // of revenue
	CapexRatio            float64 `json:"capex_ratio"`           // of revenue
	WorkingCapitalRatio   float64 `json:"working_capital_ratio"` // of revenue delta
	TerminalGrowthRate    float64 `json:"terminal_growth_rate"`

	// ForecastYears defaults to 5 when GrowthRates is empty.
	ForecastYears int `json:"forecast_years"`

	// FirstPeriodStub is the discount period of the first forecast year.
	// 1.0 for a full year; 0.25 for a six-month stub valued mid-period.
	// Defaults to 1.0.
	FirstPeriodStub float64 `json:"first_period_stub"`
}

// WACCComponents carries every input to the discount rate, as delivered by
// the input-data collaborator.
type WACCComponents struct {
	RiskFreeRate      float64 `json:"risk_free_rate"`
	LeveredBeta       float64 `json:"levered_beta"`
	MarketRiskPremium float64 `json:"market_risk_premium"`
	SizePremium       float64 `json:"size_premium"`
	PretaxCostOfDebt  float64 `json:"pretax_cost_of_debt"`
	TaxRate           float64 `json:"tax_rate"`
	EquityToCapital   float64 `json:"equity_to_capital"` // E / (E+D)
	DebtToCapital     float64 `json:"debt_to_capital"`   // D / (E+D)
}

// CostOfEquity applies CAPM plus the size premium.
func (w WACCComponents) CostOfEquity() float64 {
	return w.RiskFreeRate + w.LeveredBeta*w.MarketRiskPremium + w.SizePremium
}

// AfterTaxCostOfDebt applies the tax shield to the pre-tax rate.
func (w WACCComponents) AfterTaxCostOfDebt() float64 {
	return w.PretaxCostOfDebt * (1 - w.TaxRate)
}

// WACC combines the component costs at the capital-structure weights.
func (w WACCComponents) WACC() float64 {
	return w.EquityToCapital*w.CostOfEquity() + w.DebtToCapital*w.AfterTaxCostOfDebt()
}

// Input is everything a run needs. Historical periods seed normalization
// and growth fallbacks; the engine itself is stateless.
type Input struct {
	Historical  []valuation.FinancialPeriod       `json:"historical"`
	Forecast    ForecastAssumptions               `json:"forecast"`
	WACC        WACCComponents                    `json:"wacc"`
	Adjustments valuation.NonOperatingAdjustments `json:"adjustments"`
	Sensitivity SensitivityConfig                 `json:"sensitivity"`
}

// CashFlowProjection is one forecast year.
type CashFlowProjection struct {
	Year                 string  `json:"year"`
	Revenue              float64 `json:"revenue"`
	EBIT                 float64 `json:"ebit"`
	TaxRate              float64 `json:"tax_rate"`
	NOPAT                float64 `json:"nopat"`
	Depreciation         float64 `json:"depreciation"`
	Capex                float64 `json:"capex"`
	WorkingCapitalChange float64 `json:"working_capital_change"`
	FCFF                 float64 `json:"fcff"`
	DiscountPeriod       float64 `json:"discount_period"`
}

// PVRow is one line of the PV-by-year table, including the terminal row.
type PVRow struct {
	Year           string  `json:"year"`
	FCFF           float64 `json:"fcff"`
	TerminalValue  float64 `json:"terminal_value,omitempty"`
	DiscountPeriod float64 `json:"discount_period"`
	DiscountFactor float64 `json:"discount_factor"`
	PV             float64 `json:"pv"`
}

// Breakdown is the method-specific payload attached to the valuation
// result.
type Breakdown struct {
	Normalized         NormalizedHistory    `json:"normalized"`
	Projections        []CashFlowProjection `json:"projections"`
	WACC               float64              `json:"wacc"`
	CostOfEquity       float64              `json:"cost_of_equity"`
	AfterTaxCostOfDebt float64              `json:"aftertax_cost_of_debt"`
	TerminalGrowthRate float64              `json:"terminal_growth_rate"`
	TerminalFCFF       float64              `json:"terminal_fcff"`
	TerminalValue      float64              `json:"terminal_value"`
	PVCumulative       float64              `json:"pv_cumulative"`
	PVTerminal         float64              `json:"pv_terminal"`
	OperatingValue     float64              `json:"operating_value"`
	PVByYear           []PVRow              `json:"pv_by_year"`
	Warnings           []fincalc.Warning    `json:"warnings,omitempty"`
	Sensitivity        *SensitivityResult   `json:"sensitivity,omitempty"`
	Scenarios          map[string]Scenario  `json:"scenarios,omitempty"`
}
