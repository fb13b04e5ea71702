package valuation

import "time"

// ResultStatus marks whether an engine run produced a usable valuation.
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultFailed    ResultStatus = "failed"
)

// FinancialPeriod is one fiscal year of historical data as delivered by the
// input-data collaborator. Immutable once recorded; engines never write to
// it.
type FinancialPeriod struct {
	Year                 string  `json:"year"`
	Revenue              float64 `json:"revenue"`
	EBIT                 float64 `json:"ebit"`
	OneTimeItems         float64 `json:"one_time_items"` // signed, already netted into EBIT
	TaxRate              float64 `json:"tax_rate"`
	Depreciation         float64 `json:"depreciation"`
	Capex                float64 `json:"capex"`
	WorkingCapitalChange float64 `json:"working_capital_change"`
	NetIncome            float64 `json:"net_income"`
}

// NonOperatingAdjustments bridges enterprise value to equity value to
// per-share value, identically for every method.
type NonOperatingAdjustments struct {
	NonOperatingAssets  float64 `json:"non_operating_assets"`
	InterestBearingDebt float64 `json:"interest_bearing_debt"`
	SharesOutstanding   int64   `json:"shares_outstanding"`
}

// BridgeToEquity applies the invariant
// equity = enterprise - interest-bearing debt + non-operating assets.
func (a NonOperatingAdjustments) BridgeToEquity(enterprise Money) Money {
	return enterprise.
		Sub(Money{Amount: a.InterestBearingDebt, Scale: enterprise.Scale}).
		Add(Money{Amount: a.NonOperatingAssets, Scale: enterprise.Scale})
}

// Result is the envelope every engine returns. Breakdown carries the
// method-specific payload (the DCF PV-by-year table, the relative
// per-multiple sub-results, the NAV line items, ...). One result exists per
// (project, method); recomputation overwrites, never merges.
type Result struct {
	ProjectID       string       `json:"project_id"`
	Method          Method       `json:"method"`
	Status          ResultStatus `json:"status"`
	Error           string       `json:"error,omitempty"`
	EnterpriseValue Money        `json:"enterprise_value"`
	EquityValue     Money        `json:"equity_value"`
	ValuePerShare   float64      `json:"value_per_share"`
	Breakdown       any          `json:"breakdown,omitempty"`
	ComputedAt      time.Time    `json:"computed_at"`
}

// Failed builds the failure envelope the orchestrator persists when an
// engine rejects its inputs. Other methods' results are unaffected.
func Failed(projectID string, method Method, err error) *Result {
	return &Result{
		ProjectID: projectID,
		Method:    method,
		Status:    ResultFailed,
		Error:     err.Error(),
	}
}
