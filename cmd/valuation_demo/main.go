package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/approval"
	"valuation_platform/pkg/core/asset"
	"valuation_platform/pkg/core/config"
	"valuation_platform/pkg/core/dcf"
	"valuation_platform/pkg/core/intrinsic"
	"valuation_platform/pkg/core/llm"
	"valuation_platform/pkg/core/relative"
	"valuation_platform/pkg/core/report"
	"valuation_platform/pkg/core/store"
	"valuation_platform/pkg/core/taxlaw"
	"valuation_platform/pkg/core/valuation"
	"valuation_platform/pkg/core/workflow"
)

// Demo: runs the full lifecycle for a fictional unlisted SaaS company
// (테크밸리) against the in-memory store — all five methods, accountant
// approval, draft generation.

func logStep(step string, details string) {
	fmt.Printf("\n[STEP] %s\n", step)
	fmt.Println("---------------------------------------------------------")
	fmt.Println(details)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using process environment")
	}
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load("config/valuation.yaml")
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	orchestrator := workflow.NewOrchestrator(store.NewMemoryStore())
	orchestrator.SetRenderer(report.NewGenerator())
	orchestrator.SetNotifier(report.LogNotifier{})

	methods := valuation.Methods()

	logStep("1. 프로젝트 생성", "테크밸리 / 전 방법 평가")
	project, err := orchestrator.CreateProject(ctx, "테크밸리", methods)
	if err != nil {
		fmt.Printf("CreateProject failed: %v\n", err)
		os.Exit(1)
	}
	projectID := project["id"].(string)

	logStep("2. 라이프사이클 진행", "requested → evaluating")
	for _, next := range []workflow.Status{
		workflow.StatusQuoteSent, workflow.StatusNegotiating, workflow.StatusApproved,
		workflow.StatusDocumentsUploaded, workflow.StatusCollecting, workflow.StatusEvaluating,
	} {
		if _, err := orchestrator.Transition(ctx, projectID, next); err != nil {
			fmt.Printf("Transition(%s) failed: %v\n", next, err)
			os.Exit(1)
		}
	}

	logStep("3. 평가 실행", "5개 평가 엔진 실행")
	results, err := orchestrator.RunEvaluation(ctx, projectID, methods, buildEvaluationInput(cfg))
	if err != nil {
		fmt.Printf("RunEvaluation failed: %v\n", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Status == valuation.ResultCompleted {
			fmt.Printf("  %-28s 주당 %.2f원\n", r.Method.DisplayName(), r.ValuePerShare)
		} else {
			fmt.Printf("  %-28s 실패: %s\n", r.Method.DisplayName(), r.Error)
		}
	}

	logStep("4. 회계사 검토", "판단 포인트 등록 및 승인")
	manager := approval.NewManager(projectID)
	if _, err := manager.RequestWACCApproval(0.0886, 1.15, 0.035, 0.055); err != nil {
		fmt.Printf("RequestWACCApproval failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := manager.RequestMarketabilityDiscountApproval(false); err != nil {
		fmt.Printf("RequestMarketabilityDiscountApproval failed: %v\n", err)
		os.Exit(1)
	}
	if provider, err := llm.NewProviderFromEnv(); err == nil {
		// Optional enrichment; decisions below do not depend on it.
		drafter := approval.NewRationaleDrafter(provider)
		if point, ok := manager.Point("DCF_WACC"); ok {
			for _, s := range drafter.EnrichScenarios(ctx, point) {
				fmt.Printf("  [%s] %s\n", s.Label, s.Description)
			}
		}
	}
	if err := manager.Approve("DCF_WACC", 1, "비상장 위험 프리미엄 1%p 반영"); err != nil {
		fmt.Printf("Approve failed: %v\n", err)
		os.Exit(1)
	}
	if err := manager.ApproveCustom("REL_MARKETABILITY_DISCOUNT", 0.25, "중간값 적용"); err != nil {
		fmt.Printf("ApproveCustom failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := orchestrator.SubmitForReview(ctx, projectID); err != nil {
		fmt.Printf("SubmitForReview failed: %v\n", err)
		os.Exit(1)
	}

	logStep("5. 초안 생성", "승인 게이트 통과 후 보고서 초안")
	draft, err := orchestrator.GenerateDraft(ctx, projectID, manager)
	if err != nil {
		fmt.Printf("GenerateDraft failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(draft["markdown"])

	logStep("6. 완료", "최종 확정")
	if _, err := orchestrator.Complete(ctx, projectID); err != nil {
		fmt.Printf("Complete failed: %v\n", err)
		os.Exit(1)
	}
	progress, err := orchestrator.Progress(ctx, projectID)
	if err != nil {
		fmt.Printf("Progress failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("상태: %s (%d%%) - %s\n", progress.Status, progress.Percent, progress.StepName)
}

func fptr(v float64) *float64 { return &v }

func buildEvaluationInput(cfg config.Config) workflow.EvaluationInput {
	historical := []valuation.FinancialPeriod{
		{Year: "2022", Revenue: 10_000, EBIT: 1_500, TaxRate: 0.22, Depreciation: 500, Capex: 800, WorkingCapitalChange: 200, NetIncome: 1_000},
		{Year: "2023", Revenue: 11_000, EBIT: 1_700, TaxRate: 0.22, Depreciation: 550, Capex: 880, WorkingCapitalChange: 220, NetIncome: 1_150},
		{Year: "2024", Revenue: 12_100, EBIT: 1_900, OneTimeItems: -150, TaxRate: 0.22, Depreciation: 605, Capex: 968, WorkingCapitalChange: 242, NetIncome: 1_300},
	}

	return workflow.EvaluationInput{
		DCF: &dcf.Input{
			Historical: historical,
			Forecast: dcf.ForecastAssumptions{
				TerminalGrowthRate: 0.02,
				ForecastYears:      cfg.DCF.ForecastYears,
			},
			WACC: dcf.WACCComponents{
				RiskFreeRate:      0.035,
				LeveredBeta:       1.15,
				MarketRiskPremium: 0.055,
				SizePremium:       0.01,
				PretaxCostOfDebt:  0.047,
				TaxRate:           0.22,
				EquityToCapital:   0.7,
				DebtToCapital:     0.3,
			},
			Adjustments: valuation.NonOperatingAdjustments{
				NonOperatingAssets:  500,
				InterestBearingDebt: 2_000,
				SharesOutstanding:   1_000_000,
			},
			Sensitivity: dcf.SensitivityConfig{
				WACCDelta:   cfg.DCF.SensitivityWACCDelta,
				GrowthDelta: cfg.DCF.SensitivityGrowthDelta,
				Steps:       cfg.DCF.SensitivitySteps,
			},
		},
		Relative: &relative.Input{
			Company: relative.CompanyProfile{
				Name:              "테크밸리",
				Industry:          "SaaS",
				Revenue:           12_100,
				NetIncome:         1_300,
				BookValue:         8_000,
				EBITDA:            2_505,
				SharesOutstanding: 1_000_000,
				GrowthRate3Yr:     0.10,
				ROE:               0.16,
				TotalDebt:         2_500,
				Cash:              1_200,
			},
			Comparables: []relative.Comparable{
				{Name: "A사", PER: 12.0, PBR: 1.8, PSR: 4.5, EVEBITDA: 9.0},
				{Name: "B사", PER: 10.5, PBR: 1.5, PSR: 5.2, EVEBITDA: 8.5},
				{Name: "C사", PER: 14.0, PBR: 2.1, PSR: 6.0, EVEBITDA: 10.0},
			},
		},
		Intrinsic: &intrinsic.Input{
			AssetValue:        9_800,
			IncomeValue:       intrinsic.IncomeValueFromAvgNetIncome(1_150),
			SharesOutstanding: 1_000_000,
			Purpose:           "합병",
			IncomeMethod:      "평균순이익×10",
		},
		Asset: &asset.Input{
			BalanceSheet: asset.BalanceSheet{
				SharesOutstanding:    1_000_000,
				TotalAssets:          15_000,
				TotalLiabilities:     5_200,
				Cash:                 1_200,
				ShortTermInvestments: 500,
				AccountsReceivable:   2_000,
				Inventory:            800,
				Land:                 3_000,
				Building:             2_500,
				Machinery:            1_500,
				Goodwill:             700,
				Patents:              900,
				ListedStocks:         1_000,
				UnlistedStocks:       900,
				CurrentLiabilities:   2_700,
				LongTermDebt:         2_500,
				DebtInterestRate:     0.04,
			},
			FairValue: asset.FairValueData{
				LandAppraisal:      fptr(4_200),
				MarketInterestRate: fptr(0.06),
			},
		},
		InheritanceTax: &taxlaw.Input{
			NetIncome3Yr:      3_450,
			NetAssets:         9_800,
			SharesOutstanding: 1_000_000,
			OwnershipRatio:    0.60,
			IsListed:          false,
			Purpose:           "상속세 신고",
		},
	}
}
