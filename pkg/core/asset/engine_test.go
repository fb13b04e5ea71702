package asset

import (
	"errors"
	"math"
	"testing"

	"valuation_platform/pkg/core/valuation"
)

func fptr(v float64) *float64 { return &v }

func fixtureBalanceSheet() BalanceSheet {
	return BalanceSheet{
		SharesOutstanding:    1_000_000,
		TotalAssets:          80_000,
		TotalLiabilities:     20_000,
		Cash:                 5_000,
		ShortTermInvestments: 2_000,
		AccountsReceivable:   8_000,
		Inventory:            5_000,
		Land:                 10_000,
		Building:             15_000,
		Machinery:            10_000,
		Goodwill:             5_000,
		Patents:              3_000,
		ListedStocks:         10_000,
		UnlistedStocks:       7_000,
		CurrentLiabilities:   10_000,
		LongTermDebt:         10_000,
	}
}

func findItem(items []LineItem, assetType string) *LineItem {
	for i := range items {
		if items[i].AssetType == assetType {
			return &items[i]
		}
	}
	return nil
}

func TestRunValuationReceivablesBadDebt(t *testing.T) {
	in := Input{
		BalanceSheet: BalanceSheet{
			SharesOutstanding:  1_000_000,
			AccountsReceivable: 1000,
		},
		FairValue: FairValueData{BadDebtRate: fptr(0.02)},
	}
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	ar := findItem(result.Breakdown.(*Breakdown).AssetDetails, "매출채권")
	if ar == nil {
		t.Fatal("receivables line missing")
	}
	if ar.FairValue != 980 || ar.Adjustment != -20 {
		t.Errorf("receivables fair value = %.0f, adjustment = %.0f; want 980, -20",
			ar.FairValue, ar.Adjustment)
	}
}

func TestRunValuationHeuristicDefaults(t *testing.T) {
	result, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: fixtureBalanceSheet()})
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	details := result.Breakdown.(*Breakdown).AssetDetails

	tests := []struct {
		assetType string
		wantFV    float64
	}{
		{assetType: "현금 및 현금성자산", wantFV: 5_000},
		{assetType: "매출채권", wantFV: 8_000 * 0.98},
		{assetType: "재고자산", wantFV: 5_000 * 0.95},
		{assetType: "토지", wantFV: 10_000 * 1.5},
		{assetType: "건물", wantFV: 15_000 * 0.9},
		{assetType: "기계장치", wantFV: 10_000 * 0.8},
		{assetType: "특허권/상표권", wantFV: 3_000 * 0.8},
		{assetType: "상장주식", wantFV: 10_000},
		{assetType: "비상장주식", wantFV: 7_000 * 0.5},
	}
	for _, tt := range tests {
		item := findItem(details, tt.assetType)
		if item == nil {
			t.Errorf("%s line missing", tt.assetType)
			continue
		}
		if math.Abs(item.FairValue-tt.wantFV) > 1e-9 {
			t.Errorf("%s fair value = %.1f, want %.1f", tt.assetType, item.FairValue, tt.wantFV)
		}
		if math.Abs(item.Adjustment-(item.FairValue-item.BookValue)) > 1e-9 {
			t.Errorf("%s adjustment %.1f does not reconcile book %.1f to fair %.1f",
				tt.assetType, item.Adjustment, item.BookValue, item.FairValue)
		}
	}
}

func TestRunValuationAppraisalsOverrideHeuristics(t *testing.T) {
	in := Input{
		BalanceSheet: fixtureBalanceSheet(),
		FairValue: FairValueData{
			LandAppraisal:           fptr(18_000),
			BuildingAppraisal:       fptr(14_000),
			UnlistedStocksValuation: fptr(5_000),
			GoodwillImpairment:      fptr(2_000),
		},
	}
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	details := result.Breakdown.(*Breakdown).AssetDetails

	land := findItem(details, "토지")
	if land.FairValue != 18_000 || land.AdjustmentReason != "감정평가액 적용" {
		t.Errorf("land = %.0f (%s), want appraisal 18000", land.FairValue, land.AdjustmentReason)
	}
	goodwill := findItem(details, "영업권")
	if goodwill.FairValue != 3_000 || goodwill.Adjustment != -2_000 {
		t.Errorf("goodwill fair value = %.0f, adjustment = %.0f; want 3000, -2000",
			goodwill.FairValue, goodwill.Adjustment)
	}
}

func TestRunValuationLongTermDebtRepricing(t *testing.T) {
	t.Run("market rate above book rate reprices", func(t *testing.T) {
		bs := fixtureBalanceSheet()
		bs.DebtInterestRate = 0.04
		in := Input{BalanceSheet: bs, FairValue: FairValueData{MarketInterestRate: fptr(0.06)}}
		result, err := NewEngine().RunValuation("proj-1", in)
		if err != nil {
			t.Fatalf("RunValuation() unexpected error: %v", err)
		}
		debt := findItem(result.Breakdown.(*Breakdown).LiabilityDetails, "장기차입금")
		// (0.04 - 0.06) × 0.5 × 10,000 = -100
		if math.Abs(debt.Adjustment-(-100)) > 1e-9 {
			t.Errorf("debt adjustment = %.1f, want -100", debt.Adjustment)
		}
	})

	t.Run("market rate at or below book rate leaves book value", func(t *testing.T) {
		bs := fixtureBalanceSheet()
		bs.DebtInterestRate = 0.06
		in := Input{BalanceSheet: bs, FairValue: FairValueData{MarketInterestRate: fptr(0.04)}}
		result, err := NewEngine().RunValuation("proj-1", in)
		if err != nil {
			t.Fatalf("RunValuation() unexpected error: %v", err)
		}
		debt := findItem(result.Breakdown.(*Breakdown).LiabilityDetails, "장기차입금")
		if debt.Adjustment != 0 || debt.FairValue != 10_000 {
			t.Errorf("debt = %.0f (adj %.1f), want book value unchanged", debt.FairValue, debt.Adjustment)
		}
	})

	t.Run("no market rate means no repricing", func(t *testing.T) {
		result, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: fixtureBalanceSheet()})
		if err != nil {
			t.Fatalf("RunValuation() unexpected error: %v", err)
		}
		debt := findItem(result.Breakdown.(*Breakdown).LiabilityDetails, "장기차입금")
		if debt.Adjustment != 0 {
			t.Errorf("debt adjustment = %.1f, want 0", debt.Adjustment)
		}
	})
}

func TestRunValuationContingentLiabilities(t *testing.T) {
	in := Input{
		BalanceSheet: fixtureBalanceSheet(),
		FairValue:    FairValueData{ContingentLiabilities: fptr(1_000)},
	}
	result, err := NewEngine().RunValuation("proj-1", in)
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	b := result.Breakdown.(*Breakdown)
	contingent := findItem(b.LiabilityDetails, "우발부채")
	if contingent == nil {
		t.Fatal("contingent liability line missing")
	}
	if contingent.BookValue != 0 || contingent.FairValue != 1_000 {
		t.Errorf("contingent = book %.0f / fair %.0f, want 0 / 1000",
			contingent.BookValue, contingent.FairValue)
	}

	// Without the evidence the line is not recognized at all.
	plain, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: fixtureBalanceSheet()})
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	if findItem(plain.Breakdown.(*Breakdown).LiabilityDetails, "우발부채") != nil {
		t.Error("contingent liability recognized without evidence")
	}
}

func TestRunValuationNAVTotals(t *testing.T) {
	result, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: fixtureBalanceSheet()})
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	b := result.Breakdown.(*Breakdown)

	var assetsFV, liabilitiesFV float64
	for _, item := range b.AssetDetails {
		assetsFV += item.FairValue
	}
	for _, item := range b.LiabilityDetails {
		liabilitiesFV += item.FairValue
	}
	if math.Abs(b.TotalAssetsFV-assetsFV) > 1e-9 || math.Abs(b.TotalLiabilitiesFV-liabilitiesFV) > 1e-9 {
		t.Errorf("totals do not reconcile with line items")
	}
	if math.Abs(b.NAV-(assetsFV-liabilitiesFV)) > 1e-9 {
		t.Errorf("NAV = %.0f, want assets %.0f - liabilities %.0f", b.NAV, assetsFV, liabilitiesFV)
	}
	if result.EquityValue.Amount != b.NAV {
		t.Errorf("equity value = %.0f, want NAV %.0f", result.EquityValue.Amount, b.NAV)
	}
	wantPerShare := b.NAV * 1_000_000 / 1_000_000
	if math.Abs(result.ValuePerShare-wantPerShare) > 0.001 {
		t.Errorf("per share = %.2f, want %.2f", result.ValuePerShare, wantPerShare)
	}
}

func TestRunValuationBookTotalsWarning(t *testing.T) {
	// The fixture's lines sum exactly to the stated totals: no warning.
	clean, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: fixtureBalanceSheet()})
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	if warnings := clean.Breakdown.(*Breakdown).Warnings; len(warnings) != 0 {
		t.Errorf("consistent statement produced warnings: %v", warnings)
	}

	// Stated assets overstated by 5,000 against the itemized lines.
	bs := fixtureBalanceSheet()
	bs.TotalAssets = 85_000
	result, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: bs})
	if err != nil {
		t.Fatalf("RunValuation() unexpected error: %v", err)
	}
	warnings := result.Breakdown.(*Breakdown).Warnings
	if len(warnings) != 1 || warnings[0].Check != "balance_sheet_identity" {
		t.Fatalf("warnings = %v, want one balance_sheet_identity warning", warnings)
	}
	// The run still completes; the warning is advisory.
	if result.Status != valuation.ResultCompleted {
		t.Errorf("status = %s, want completed despite warning", result.Status)
	}
}

func TestRunValuationMissingShares(t *testing.T) {
	_, err := NewEngine().RunValuation("proj-1", Input{BalanceSheet: BalanceSheet{}})
	if !errors.Is(err, valuation.ErrMissingField) {
		t.Errorf("RunValuation() error = %v, want ErrMissingField", err)
	}
}
