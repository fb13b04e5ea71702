package dcf

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/fincalc"
	"valuation_platform/pkg/core/valuation"
)

const defaultForecastYears = 5

// Engine runs FCFF discounted-cash-flow valuations. Stateless; one instance
// serves any number of projects.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// RunValuation executes the full pipeline: normalize history, resolve
// assumptions, project cash flows, discount, bridge to equity. Input
// problems fail the run before any projection is computed.
func (e *Engine) RunValuation(projectID string, in Input) (*valuation.Result, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	normalized, err := Normalize(in.Historical)
	if err != nil {
		return nil, err
	}
	assumptions := resolveAssumptions(in.Forecast, normalized)

	wacc := in.WACC.WACC()
	if wacc <= 0 {
		return nil, eris.Wrapf(valuation.ErrInvalidAssumption, "WACC must be positive, got %.4f", wacc)
	}

	projections := project(in.Historical[len(in.Historical)-1], assumptions)
	breakdown, operating, err := discount(projections, wacc, assumptions.TerminalGrowthRate)
	if err != nil {
		return nil, err
	}
	breakdown.Normalized = normalized
	breakdown.CostOfEquity = in.WACC.CostOfEquity()
	breakdown.AfterTaxCostOfDebt = in.WACC.AfterTaxCostOfDebt()
	breakdown.Warnings = append(breakdown.Warnings,
		fincalc.ValidateWACCComponents(in.WACC.RiskFreeRate, in.WACC.LeveredBeta,
			in.WACC.MarketRiskPremium, in.WACC.DebtToCapital)...)
	breakdown.Warnings = append(breakdown.Warnings,
		fincalc.CheckTerminalValueRatio(breakdown.PVCumulative, breakdown.PVTerminal)...)

	enterprise := valuation.Millions(operating)
	equity := in.Adjustments.BridgeToEquity(enterprise)
	perShare, err := equity.PerShare(in.Adjustments.SharesOutstanding)
	if err != nil {
		return nil, err
	}

	breakdown.Sensitivity = e.sensitivityGrid(projections, wacc, assumptions.TerminalGrowthRate, in)
	breakdown.Scenarios = e.scenarios(projections, in, wacc, assumptions.TerminalGrowthRate)

	zap.L().Info("DCF 평가 완료",
		zap.String("project_id", projectID),
		zap.Float64("wacc", wacc),
		zap.Float64("enterprise_value", enterprise.Amount),
		zap.Float64("value_per_share", perShare))

	return &valuation.Result{
		ProjectID:       projectID,
		Method:          valuation.MethodDCF,
		Status:          valuation.ResultCompleted,
		EnterpriseValue: enterprise,
		EquityValue:     equity,
		ValuePerShare:   perShare,
		Breakdown:       breakdown,
	}, nil
}

func validateInput(in Input) error {
	switch {
	case len(in.Historical) == 0:
		return eris.Wrap(valuation.ErrMissingField, "historical financial periods")
	case in.Adjustments.SharesOutstanding <= 0:
		return eris.Wrap(valuation.ErrMissingField, "shares outstanding")
	case in.WACC == (WACCComponents{}):
		return eris.Wrap(valuation.ErrMissingField, "WACC components")
	}
	if weights := in.WACC.EquityToCapital + in.WACC.DebtToCapital; math.Abs(weights-1) > 0.001 {
		return eris.Wrapf(valuation.ErrInvalidParameter,
			"capital structure weights must sum to 1, got %.4f", weights)
	}
	return nil
}

// resolveAssumptions fills unset forecast fields from the normalized
// historical averages. Explicit values always win.
func resolveAssumptions(f ForecastAssumptions, hist NormalizedHistory) ForecastAssumptions {
	if f.ForecastYears == 0 {
		f.ForecastYears = defaultForecastYears
	}
	if len(f.GrowthRates) == 0 {
		f.GrowthRates = make([]float64, f.ForecastYears)
		for i := range f.GrowthRates {
			f.GrowthRates[i] = hist.RevenueCAGR
		}
	}
	if f.TargetOperatingMargin == 0 {
		f.TargetOperatingMargin = hist.AvgOperatingMargin
	}
	if f.TaxRate == 0 {
		f.TaxRate = hist.AvgTaxRate
	}
	if f.DepreciationRatio == 0 {
		f.DepreciationRatio = hist.AvgDepreciationRate
	}
	if f.CapexRatio == 0 {
		f.CapexRatio = hist.AvgCapexRate
	}
	if f.FirstPeriodStub == 0 {
		f.FirstPeriodStub = 1.0
	}
	return f
}

// project derives each forecast year independently from the ratio
// assumptions. FCFF = NOPAT + depreciation - capex - ΔWC.
func project(base valuation.FinancialPeriod, a ForecastAssumptions) []CashFlowProjection {
	projections := make([]CashFlowProjection, 0, len(a.GrowthRates))
	prevRevenue := base.Revenue
	for i, growth := range a.GrowthRates {
		revenue := prevRevenue * (1 + growth)
		ebit := revenue * a.TargetOperatingMargin
		nopat := ebit * (1 - a.TaxRate)
		depreciation := revenue * a.DepreciationRatio
		capex := revenue * a.CapexRatio
		wcChange := (revenue - prevRevenue) * a.WorkingCapitalRatio
		projections = append(projections, CashFlowProjection{
			Year:                 fmt.Sprintf("FY+%d", i+1),
			Revenue:              revenue,
			EBIT:                 ebit,
			TaxRate:              a.TaxRate,
			NOPAT:                nopat,
			Depreciation:         depreciation,
			Capex:                capex,
			WorkingCapitalChange: wcChange,
			FCFF:                 nopat + depreciation - capex - wcChange,
			DiscountPeriod:       a.FirstPeriodStub + float64(i),
		})
		prevRevenue = revenue
	}
	return projections
}

// discount builds the PV-by-year table and the operating value. The
// terminal value is discounted at the last forecast year's period.
func discount(projections []CashFlowProjection, wacc, terminalGrowth float64) (*Breakdown, float64, error) {
	b := &Breakdown{
		Projections:        projections,
		WACC:               wacc,
		TerminalGrowthRate: terminalGrowth,
	}
	for _, p := range projections {
		factor := 1 / math.Pow(1+wacc, p.DiscountPeriod)
		pv := p.FCFF * factor
		b.PVCumulative += pv
		b.PVByYear = append(b.PVByYear, PVRow{
			Year:           p.Year,
			FCFF:           p.FCFF,
			DiscountPeriod: p.DiscountPeriod,
			DiscountFactor: factor,
			PV:             pv,
		})
	}

	last := projections[len(projections)-1]
	b.TerminalFCFF = last.FCFF
	tv, err := fincalc.TerminalValue(last.FCFF, terminalGrowth, wacc)
	if err != nil {
		return nil, 0, err
	}
	b.TerminalValue = tv
	b.PVTerminal = fincalc.PVTerminalValue(tv, wacc, last.DiscountPeriod)
	b.PVByYear = append(b.PVByYear, PVRow{
		Year:           "Terminal",
		FCFF:           last.FCFF,
		TerminalValue:  tv,
		DiscountPeriod: last.DiscountPeriod,
		DiscountFactor: 1 / math.Pow(1+wacc, last.DiscountPeriod),
		PV:             b.PVTerminal,
	})

	b.OperatingValue = b.PVCumulative + b.PVTerminal
	return b, b.OperatingValue, nil
}

// operatingValueAt reprices the forecast under an alternate (wacc, growth)
// pair without re-projecting the cash flows. Returns false when the pair is
// infeasible (wacc <= growth or non-positive).
func operatingValueAt(projections []CashFlowProjection, wacc, terminalGrowth float64) (float64, bool) {
	if wacc <= 0 || wacc <= terminalGrowth {
		return 0, false
	}
	total := 0.0
	for _, p := range projections {
		total += p.FCFF / math.Pow(1+wacc, p.DiscountPeriod)
	}
	last := projections[len(projections)-1]
	tv, err := fincalc.TerminalValue(last.FCFF, terminalGrowth, wacc)
	if err != nil {
		return 0, false
	}
	return total + fincalc.PVTerminalValue(tv, wacc, last.DiscountPeriod), true
}
