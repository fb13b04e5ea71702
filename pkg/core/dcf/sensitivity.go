package dcf

import "valuation_platform/pkg/core/valuation"

// SensitivityConfig shapes the two-way sensitivity table. Zero values take
// the defaults: ±2%p WACC, ±1%p terminal growth, 5 steps per axis.
type SensitivityConfig struct {
	WACCDelta   float64 `json:"wacc_delta"`
	GrowthDelta float64 `json:"growth_delta"`
	Steps       int     `json:"steps"`
	Disabled    bool    `json:"disabled"`
}

const (
	defaultWACCDelta   = 0.02
	defaultGrowthDelta = 0.01
	defaultGridSteps   = 5
)

// SensitivityResult is the per-share value grid over (WACC, terminal
// growth). Cells where the pair is infeasible (WACC <= growth) are nil, not
// clamped or interpolated.
type SensitivityResult struct {
	WACCValues   []float64 `json:"wacc_values"`
	GrowthValues []float64 `json:"growth_values"`
	// Grid[i][j] is the per-share value at WACCValues[i] x GrowthValues[j].
	Grid [][]*float64 `json:"grid"`
}

// Scenario is one point estimate under shifted discount assumptions.
type Scenario struct {
	Label         string  `json:"label"`
	WACC          float64 `json:"wacc"`
	TerminalG     float64 `json:"terminal_growth"`
	ValuePerShare float64 `json:"value_per_share"`
}

// sensitivityGrid reprices the already-projected cash flows across the
// (WACC, growth) grid. Projections are never recomputed per cell; only the
// discounting changes.
func (e *Engine) sensitivityGrid(projections []CashFlowProjection, baseWACC, baseGrowth float64, in Input) *SensitivityResult {
	cfg := in.Sensitivity
	if cfg.Disabled {
		return nil
	}
	if cfg.WACCDelta == 0 {
		cfg.WACCDelta = defaultWACCDelta
	}
	if cfg.GrowthDelta == 0 {
		cfg.GrowthDelta = defaultGrowthDelta
	}
	// axis needs at least two points to place the ±delta extremes.
	if cfg.Steps < 2 {
		cfg.Steps = defaultGridSteps
	}

	res := &SensitivityResult{
		WACCValues:   axis(baseWACC, cfg.WACCDelta, cfg.Steps),
		GrowthValues: axis(baseGrowth, cfg.GrowthDelta, cfg.Steps),
	}
	for _, w := range res.WACCValues {
		row := make([]*float64, 0, len(res.GrowthValues))
		for _, g := range res.GrowthValues {
			row = append(row, e.perShareAt(projections, w, g, in.Adjustments))
		}
		res.Grid = append(res.Grid, row)
	}
	return res
}

// scenarios builds the bull/base/bear point estimates: ∓1%p WACC and
// ±0.5%p terminal growth around the base case.
func (e *Engine) scenarios(projections []CashFlowProjection, in Input, baseWACC, baseGrowth float64) map[string]Scenario {
	shifts := map[string][2]float64{
		"bull": {baseWACC - 0.01, baseGrowth + 0.005},
		"base": {baseWACC, baseGrowth},
		"bear": {baseWACC + 0.01, baseGrowth - 0.005},
	}
	out := make(map[string]Scenario, len(shifts))
	for label, s := range shifts {
		sc := Scenario{Label: label, WACC: s[0], TerminalG: s[1]}
		if v := e.perShareAt(projections, s[0], s[1], in.Adjustments); v != nil {
			sc.ValuePerShare = *v
		}
		out[label] = sc
	}
	return out
}

// perShareAt runs the full repricing-and-bridge path for one (wacc, growth)
// pair. nil means the pair is infeasible.
func (e *Engine) perShareAt(projections []CashFlowProjection, wacc, growth float64, adj valuation.NonOperatingAdjustments) *float64 {
	operating, ok := operatingValueAt(projections, wacc, growth)
	if !ok {
		return nil
	}
	equity := adj.BridgeToEquity(valuation.Millions(operating))
	perShare, err := equity.PerShare(adj.SharesOutstanding)
	if err != nil {
		return nil
	}
	return &perShare
}

// axis centers steps values on base, spaced so the extremes sit at ±delta.
func axis(base, delta float64, steps int) []float64 {
	values := make([]float64, 0, steps)
	step := 2 * delta / float64(steps-1)
	for i := 0; i < steps; i++ {
		values = append(values, base-delta+step*float64(i))
	}
	return values
}
