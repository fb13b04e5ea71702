package asset

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/fincalc"
	"valuation_platform/pkg/core/valuation"
)

// Heuristic fair-value factors applied when no appraisal evidence exists.
const (
	defaultBadDebtRate       = 0.02
	defaultInventoryMarkdown = 0.05
	landUpliftFactor         = 1.5 // 공시지가 현실화율 역산
	buildingDiscountFactor   = 0.9
	defaultMachineryHaircut  = 0.20
	patentsRecognitionFactor = 0.8
	unlistedLiquidityFactor  = 0.5
	defaultDebtBookRate      = 0.05

	// Tolerance (millions of won) for reconciling the itemized book lines
	// against the stated balance-sheet totals.
	balanceTolerance = 1.0
)

// Engine restates balance sheets to fair value. Stateless.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// RunValuation restates every asset and liability line, nets them into NAV
// and converts to per-share value. NAV is an equity-level figure, so
// enterprise and equity value coincide on the envelope.
func (e *Engine) RunValuation(projectID string, in Input) (*valuation.Result, error) {
	bs := in.BalanceSheet
	if bs.SharesOutstanding <= 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "shares outstanding")
	}

	assets, assetsFV, assetsAdj := valueAssets(bs, in.FairValue)
	liabilities, liabilitiesFV, liabilitiesAdj := valueLiabilities(bs, in.FairValue)

	nav := assetsFV - liabilitiesFV
	equity := valuation.Millions(nav)
	perShare, err := equity.PerShare(bs.SharesOutstanding)
	if err != nil {
		return nil, err
	}

	breakdown := &Breakdown{
		TotalAssetsBook:      bs.TotalAssets,
		TotalAssetsFV:        assetsFV,
		TotalLiabilitiesBook: bs.TotalLiabilities,
		TotalLiabilitiesFV:   liabilitiesFV,
		NAV:                  nav,
		NAVPerShare:          perShare,
		AssetDetails:         assets,
		LiabilityDetails:     liabilities,
		TotalAdjustments:     assetsAdj - liabilitiesAdj,
		Warnings:             reconcileBookTotals(bs, assets, liabilities),
	}
	if len(breakdown.Warnings) > 0 {
		zap.L().Warn("재무상태표 검증 경고",
			zap.String("project_id", projectID),
			zap.String("check", breakdown.Warnings[0].Check),
			zap.String("message", breakdown.Warnings[0].Message))
	}

	zap.L().Info("자산가치(NAV) 평가 완료",
		zap.String("project_id", projectID),
		zap.Float64("nav", nav),
		zap.Float64("total_adjustments", breakdown.TotalAdjustments))

	return &valuation.Result{
		ProjectID:       projectID,
		Method:          valuation.MethodAsset,
		Status:          valuation.ResultCompleted,
		EnterpriseValue: equity,
		EquityValue:     equity,
		ValuePerShare:   perShare,
		Breakdown:       breakdown,
	}, nil
}

// reconcileBookTotals checks the accounting identity against the stated
// totals: the itemized book lines must equal stated assets on one side and
// stated liabilities plus implied book equity on the other. A mismatch
// means the uploaded statement is internally inconsistent; the run still
// completes, the accountant sees the warning on the breakdown.
func reconcileBookTotals(bs BalanceSheet, assets, liabilities []LineItem) []fincalc.Warning {
	var assetsBook, liabilitiesBook float64
	for _, item := range assets {
		assetsBook += item.BookValue
	}
	for _, item := range liabilities {
		liabilitiesBook += item.BookValue
	}
	bookEquity := bs.TotalAssets - bs.TotalLiabilities
	return fincalc.ValidateBalanceSheet(assetsBook, liabilitiesBook, bookEquity, balanceTolerance)
}

func valueAssets(bs BalanceSheet, fv FairValueData) (items []LineItem, total, totalAdj float64) {
	groups := [][]LineItem{
		currentAssets(bs, fv),
		fixedAssets(bs, fv),
		intangibleAssets(bs, fv),
		investmentAssets(bs, fv),
	}
	for _, group := range groups {
		for _, item := range group {
			items = append(items, item)
			total += item.FairValue
			totalAdj += item.Adjustment
		}
	}
	return items, total, totalAdj
}

func currentAssets(bs BalanceSheet, fv FairValueData) []LineItem {
	badDebtRate := orDefault(fv.BadDebtRate, defaultBadDebtRate)
	badDebt := bs.AccountsReceivable * badDebtRate

	markdown := orDefault(fv.InventoryMarkdown, defaultInventoryMarkdown)
	inventoryLoss := bs.Inventory * markdown

	return []LineItem{
		{
			AssetType:        "현금 및 현금성자산",
			BookValue:        bs.Cash,
			FairValue:        bs.Cash,
			AdjustmentReason: "현금은 공정가치 = 장부가",
		},
		{
			AssetType:        "단기금융상품",
			BookValue:        bs.ShortTermInvestments,
			FairValue:        bs.ShortTermInvestments,
			AdjustmentReason: "단기금융상품 시가 = 장부가",
		},
		{
			AssetType:        "매출채권",
			BookValue:        bs.AccountsReceivable,
			FairValue:        bs.AccountsReceivable - badDebt,
			Adjustment:       -badDebt,
			AdjustmentReason: fmt.Sprintf("대손율 %.1f%% 반영", badDebtRate*100),
		},
		{
			AssetType:        "재고자산",
			BookValue:        bs.Inventory,
			FairValue:        bs.Inventory - inventoryLoss,
			Adjustment:       -inventoryLoss,
			AdjustmentReason: fmt.Sprintf("재고 평가손 %.1f%% 반영", markdown*100),
		},
	}
}

func fixedAssets(bs BalanceSheet, fv FairValueData) []LineItem {
	land := LineItem{AssetType: "토지", BookValue: bs.Land}
	if fv.LandAppraisal != nil {
		land.FairValue = *fv.LandAppraisal
		land.AdjustmentReason = "감정평가액 적용"
	} else {
		land.FairValue = bs.Land * landUpliftFactor
		land.AdjustmentReason = "공시지가 기준 추정 (장부가 × 1.5)"
	}
	land.Adjustment = land.FairValue - land.BookValue

	building := LineItem{AssetType: "건물", BookValue: bs.Building}
	if fv.BuildingAppraisal != nil {
		building.FairValue = *fv.BuildingAppraisal
		building.AdjustmentReason = "감정평가액 적용"
	} else {
		building.FairValue = bs.Building * buildingDiscountFactor
		building.AdjustmentReason = "경제적 감가상각 10% 반영"
	}
	building.Adjustment = building.FairValue - building.BookValue

	haircut := orDefault(fv.MachineryDepreciation, defaultMachineryHaircut)
	machinery := LineItem{
		AssetType:        "기계장치",
		BookValue:        bs.Machinery,
		FairValue:        bs.Machinery * (1 - haircut),
		Adjustment:       -bs.Machinery * haircut,
		AdjustmentReason: fmt.Sprintf("경제적 감가상각 %.0f%% 추가", haircut*100),
	}

	return []LineItem{land, building, machinery}
}

func intangibleAssets(bs BalanceSheet, fv FairValueData) []LineItem {
	impairment := orDefault(fv.GoodwillImpairment, 0)
	goodwill := LineItem{
		AssetType:        "영업권",
		BookValue:        bs.Goodwill,
		FairValue:        bs.Goodwill - impairment,
		Adjustment:       -impairment,
		AdjustmentReason: "손상검사 결과 반영",
	}

	patents := LineItem{AssetType: "특허권/상표권", BookValue: bs.Patents}
	if fv.PatentsValuation != nil {
		patents.FairValue = *fv.PatentsValuation
		patents.AdjustmentReason = "별도 평가액 적용"
	} else {
		patents.FairValue = bs.Patents * patentsRecognitionFactor
		patents.AdjustmentReason = "잔여 유효기간 고려 (80%)"
	}
	patents.Adjustment = patents.FairValue - patents.BookValue

	return []LineItem{goodwill, patents}
}

func investmentAssets(bs BalanceSheet, fv FairValueData) []LineItem {
	listed := LineItem{AssetType: "상장주식", BookValue: bs.ListedStocks}
	if fv.ListedStocksMarketValue != nil {
		listed.FairValue = *fv.ListedStocksMarketValue
		listed.AdjustmentReason = "거래소 시가 적용"
	} else {
		listed.FairValue = bs.ListedStocks
		listed.AdjustmentReason = "장부가 = 시가 가정"
	}
	listed.Adjustment = listed.FairValue - listed.BookValue

	unlisted := LineItem{AssetType: "비상장주식", BookValue: bs.UnlistedStocks}
	if fv.UnlistedStocksValuation != nil {
		unlisted.FairValue = *fv.UnlistedStocksValuation
		unlisted.AdjustmentReason = "DCF 등 별도 평가"
	} else {
		unlisted.FairValue = bs.UnlistedStocks * unlistedLiquidityFactor
		unlisted.AdjustmentReason = "유동성 할인 50% 적용"
	}
	unlisted.Adjustment = unlisted.FairValue - unlisted.BookValue

	return []LineItem{listed, unlisted}
}

func valueLiabilities(bs BalanceSheet, fv FairValueData) (items []LineItem, total, totalAdj float64) {
	items = append(items, LineItem{
		AssetType:        "유동부채",
		BookValue:        bs.CurrentLiabilities,
		FairValue:        bs.CurrentLiabilities,
		AdjustmentReason: "단기부채는 장부가 = 공정가치",
	})

	// Long-term debt reprices only when a market rate is supplied and it
	// exceeds the book rate; a rate rise lowers the debt's fair value.
	debt := LineItem{AssetType: "장기차입금", BookValue: bs.LongTermDebt}
	debt.AdjustmentReason = "장부가 = 공정가치 가정"
	if fv.MarketInterestRate != nil {
		bookRate := bs.DebtInterestRate
		if bookRate == 0 {
			bookRate = defaultDebtBookRate
		}
		marketRate := *fv.MarketInterestRate
		if marketRate > bookRate {
			debt.Adjustment = bs.LongTermDebt * (bookRate - marketRate) * 0.5
			debt.AdjustmentReason = fmt.Sprintf("시장이자율 %.1f%% 반영", marketRate*100)
		} else {
			debt.AdjustmentReason = "장부가 = 공정가치"
		}
	}
	debt.FairValue = debt.BookValue + debt.Adjustment
	items = append(items, debt)

	if contingent := orDefault(fv.ContingentLiabilities, 0); contingent > 0 {
		items = append(items, LineItem{
			AssetType:        "우발부채",
			FairValue:        contingent,
			Adjustment:       contingent,
			AdjustmentReason: "소송/보증 등 우발부채 추가 인식",
		})
	}

	for _, item := range items {
		total += item.FairValue
		totalAdj += item.Adjustment
	}
	return items, total, totalAdj
}

func orDefault(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
