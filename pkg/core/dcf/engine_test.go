package dcf

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"valuation_platform/pkg/core/valuation"
)

func fixtureInput() Input {
	return Input{
		Historical: []valuation.FinancialPeriod{
			{Year: "2021", Revenue: 10000, EBIT: 1500, TaxRate: 0.25, Depreciation: 500, Capex: 600, WorkingCapitalChange: 100, NetIncome: 1000},
			{Year: "2022", Revenue: 11000, EBIT: 1650, TaxRate: 0.25, Depreciation: 550, Capex: 660, WorkingCapitalChange: 110, NetIncome: 1100},
			{Year: "2023", Revenue: 12100, EBIT: 1815, TaxRate: 0.25, Depreciation: 605, Capex: 726, WorkingCapitalChange: 121, NetIncome: 1210},
		},
		Forecast: ForecastAssumptions{
			GrowthRates:           []float64{0.10, 0.09, 0.08, 0.07, 0.06},
			TargetOperatingMargin: 0.15,
			TaxRate:               0.25,
			DepreciationRatio:     0.05,
			CapexRatio:            0.06,
			WorkingCapitalRatio:   0.05,
			TerminalGrowthRate:    0.02,
		},
		WACC: WACCComponents{
			RiskFreeRate:      0.03,
			LeveredBeta:       1.2,
			MarketRiskPremium: 0.07,
			PretaxCostOfDebt:  0.05,
			TaxRate:           0.25,
			EquityToCapital:   0.60,
			DebtToCapital:     0.40,
		},
		Adjustments: valuation.NonOperatingAdjustments{
			NonOperatingAssets:  500,
			InterestBearingDebt: 2000,
			SharesOutstanding:   1_000_000,
		},
	}
}

func TestRunValuation(t *testing.T) {
	engine := NewEngine()
	result, err := engine.RunValuation("proj-1", fixtureInput())
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	if result.Status != valuation.ResultCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}
	if result.Method != valuation.MethodDCF {
		t.Errorf("method = %s, want dcf", result.Method)
	}

	breakdown, ok := result.Breakdown.(*Breakdown)
	if !ok {
		t.Fatalf("breakdown has type %T, want *Breakdown", result.Breakdown)
	}

	if got := len(breakdown.PVByYear); got != 6 {
		t.Fatalf("pv_by_year has %d rows, want 5 forecast + terminal", got)
	}
	terminal := breakdown.PVByYear[5]
	if terminal.Year != "Terminal" {
		t.Errorf("last pv_by_year row = %q, want Terminal", terminal.Year)
	}
	// Terminal value discounts at the last forecast year's period.
	if terminal.DiscountPeriod != 5 {
		t.Errorf("terminal discount period = %v, want 5", terminal.DiscountPeriod)
	}

	wantPVTerminal := breakdown.TerminalValue / math.Pow(1+breakdown.WACC, 5)
	if math.Abs(breakdown.PVTerminal-wantPVTerminal) > 0.01 {
		t.Errorf("pv_terminal = %.2f, want %.2f", breakdown.PVTerminal, wantPVTerminal)
	}

	wantOperating := breakdown.PVCumulative + breakdown.PVTerminal
	if math.Abs(result.EnterpriseValue.Amount-wantOperating) > 0.01 {
		t.Errorf("enterprise value = %.2f, want pv_cumulative + pv_terminal = %.2f",
			result.EnterpriseValue.Amount, wantOperating)
	}
}

func TestRunValuationEquityBridge(t *testing.T) {
	in := fixtureInput()
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	wantEquity := result.EnterpriseValue.Amount - in.Adjustments.InterestBearingDebt + in.Adjustments.NonOperatingAssets
	if math.Abs(result.EquityValue.Amount-wantEquity) > 1e-9 {
		t.Errorf("equity value = %.4f, want %.4f", result.EquityValue.Amount, wantEquity)
	}
	wantPerShare := wantEquity * float64(valuation.ScaleMillions) / float64(in.Adjustments.SharesOutstanding)
	if math.Abs(result.ValuePerShare-wantPerShare) > 0.001 {
		t.Errorf("value per share = %.4f, want %.4f", result.ValuePerShare, wantPerShare)
	}
}

func TestRunValuationIdempotent(t *testing.T) {
	engine := NewEngine()
	first, err := engine.RunValuation("proj-1", fixtureInput())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := engine.RunValuation("proj-1", fixtureInput())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !first.ComputedAt.IsZero() {
		t.Errorf("engine set ComputedAt = %v; timestamps belong to the orchestrator", first.ComputedAt)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestRunValuationRejectsWACCBelowGrowth(t *testing.T) {
	in := fixtureInput()
	in.Forecast.TerminalGrowthRate = 0.20 // above the ~8.3% WACC
	_, err := NewEngine().RunValuation("proj-1", in)
	if !errors.Is(err, valuation.ErrInvalidAssumption) {
		t.Errorf("RunValuation() error = %v, want ErrInvalidAssumption", err)
	}
}

func TestRunValuationMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{name: "no historical periods", mutate: func(in *Input) { in.Historical = nil }},
		{name: "no shares outstanding", mutate: func(in *Input) { in.Adjustments.SharesOutstanding = 0 }},
		{name: "no wacc components", mutate: func(in *Input) { in.WACC = WACCComponents{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fixtureInput()
			tt.mutate(&in)
			_, err := NewEngine().RunValuation("proj-1", in)
			if !errors.Is(err, valuation.ErrMissingField) {
				t.Errorf("RunValuation() error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestRunValuationFallbackAssumptions(t *testing.T) {
	in := fixtureInput()
	in.Forecast = ForecastAssumptions{TerminalGrowthRate: 0.02}
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	breakdown := result.Breakdown.(*Breakdown)
	if got := len(breakdown.Projections); got != defaultForecastYears {
		t.Fatalf("projected %d years, want %d", got, defaultForecastYears)
	}
	// Historical revenue grows 10%/yr, so the CAGR fallback carries through.
	first := breakdown.Projections[0]
	if math.Abs(first.Revenue-12100*1.10) > 0.01 {
		t.Errorf("first forecast revenue = %.2f, want %.2f", first.Revenue, 12100*1.10)
	}
}

func TestRunValuationFirstPeriodStub(t *testing.T) {
	in := fixtureInput()
	in.Forecast.FirstPeriodStub = 0.25
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	breakdown := result.Breakdown.(*Breakdown)
	if got := breakdown.Projections[0].DiscountPeriod; got != 0.25 {
		t.Errorf("first discount period = %v, want 0.25", got)
	}
	if got := breakdown.Projections[4].DiscountPeriod; got != 4.25 {
		t.Errorf("last discount period = %v, want 4.25", got)
	}
}

func TestSensitivityGrid(t *testing.T) {
	result, err := NewEngine().RunValuation("proj-1", fixtureInput())
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	breakdown := result.Breakdown.(*Breakdown)
	grid := breakdown.Sensitivity
	if grid == nil {
		t.Fatal("sensitivity grid missing")
	}
	if len(grid.WACCValues) != 5 || len(grid.GrowthValues) != 5 || len(grid.Grid) != 5 {
		t.Fatalf("grid is %dx%d over %d rows, want 5x5",
			len(grid.WACCValues), len(grid.GrowthValues), len(grid.Grid))
	}
	center := grid.Grid[2][2]
	if center == nil {
		t.Fatal("center cell is nil")
	}
	if math.Abs(*center-result.ValuePerShare) > 0.01 {
		t.Errorf("center cell = %.4f, want base per-share %.4f", *center, result.ValuePerShare)
	}
	// Per-share value falls as WACC rises at fixed growth.
	lowWACC, highWACC := grid.Grid[0][2], grid.Grid[4][2]
	if lowWACC == nil || highWACC == nil {
		t.Fatal("edge cells unexpectedly nil")
	}
	if *lowWACC <= *highWACC {
		t.Errorf("value did not fall with WACC: %.4f <= %.4f", *lowWACC, *highWACC)
	}
}

func TestSensitivityGridSingleStepFallsBack(t *testing.T) {
	in := fixtureInput()
	// One step cannot span base±delta; the default grid applies instead.
	in.Sensitivity.Steps = 1
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	grid := result.Breakdown.(*Breakdown).Sensitivity
	if len(grid.WACCValues) != 5 || len(grid.Grid) != 5 {
		t.Fatalf("grid has %d WACC points over %d rows, want 5x5", len(grid.WACCValues), len(grid.Grid))
	}
	for i, w := range grid.WACCValues {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Fatalf("WACCValues[%d] = %v", i, w)
		}
	}
}

func TestSensitivityGridInfeasibleCells(t *testing.T) {
	in := fixtureInput()
	// Base WACC ~8.3%; push growth close enough that the low-WACC,
	// high-growth corner crosses the wacc > growth bound.
	in.Forecast.TerminalGrowthRate = 0.07
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	grid := result.Breakdown.(*Breakdown).Sensitivity
	// WACC axis low end ~6.3%, growth axis high end 8%: infeasible.
	if cell := grid.Grid[0][4]; cell != nil {
		t.Errorf("infeasible corner cell = %v, want nil", *cell)
	}
	if cell := grid.Grid[4][0]; cell == nil {
		t.Error("feasible corner cell is nil")
	}
}

func TestScenarios(t *testing.T) {
	result, err := NewEngine().RunValuation("proj-1", fixtureInput())
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	scenarios := result.Breakdown.(*Breakdown).Scenarios
	for _, label := range []string{"bull", "base", "bear"} {
		if _, ok := scenarios[label]; !ok {
			t.Fatalf("scenario %q missing", label)
		}
	}
	bull, base, bear := scenarios["bull"], scenarios["base"], scenarios["bear"]
	if !(bull.ValuePerShare > base.ValuePerShare && base.ValuePerShare > bear.ValuePerShare) {
		t.Errorf("scenario ordering broken: bull %.2f, base %.2f, bear %.2f",
			bull.ValuePerShare, base.ValuePerShare, bear.ValuePerShare)
	}
	if math.Abs(base.ValuePerShare-result.ValuePerShare) > 0.01 {
		t.Errorf("base scenario = %.4f, want %.4f", base.ValuePerShare, result.ValuePerShare)
	}
}

func TestNormalizeStripsOneTimeItems(t *testing.T) {
	hist, err := Normalize([]valuation.FinancialPeriod{
		{Year: "2023", Revenue: 10000, EBIT: 2000, OneTimeItems: 500, TaxRate: 0.25, Depreciation: 400, Capex: 300, WorkingCapitalChange: 100},
	})
	if err != nil {
		t.Fatalf("Normalize() unexpected error: %v", err)
	}
	p := hist.Periods[0]
	if p.AdjustedEBIT != 1500 {
		t.Errorf("adjusted EBIT = %.2f, want 1500", p.AdjustedEBIT)
	}
	wantFCFF := 1500*0.75 + 400 - 300 - 100
	if math.Abs(p.FCFF-wantFCFF) > 1e-9 {
		t.Errorf("FCFF = %.2f, want %.2f", p.FCFF, wantFCFF)
	}
}
