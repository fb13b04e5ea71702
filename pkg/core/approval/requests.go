package approval

import (
	"fmt"
	"sort"

	"valuation_platform/pkg/core/taxlaw"
	"valuation_platform/pkg/core/valuation"
)

// The request methods below are the engine-facing API: each one turns an
// AI-computed judgment into a pending point with ranked scenarios. IDs are
// stable so downstream consumers can look decisions up by name.

// RequestGrowthRateApproval proposes revenue growth paths: the business
// plan as written, a midpoint against the industry average, and the
// industry average flat.
func (m *Manager) RequestGrowthRateApproval(businessPlan map[string]float64, historicalAvg3Yr, industryAvg float64) (*Point, error) {
	years := make([]string, 0, len(businessPlan))
	var bpSum float64
	for year, rate := range businessPlan {
		years = append(years, year)
		bpSum += rate
	}
	sort.Strings(years)
	bpAvg := bpSum / float64(len(businessPlan))

	neutral := make(map[string]float64, len(businessPlan))
	conservative := make(map[string]float64, len(businessPlan))
	for _, year := range years {
		neutral[year] = (businessPlan[year] + industryAvg) / 2
		conservative[year] = industryAvg
	}

	return m.register(&Point{
		ID:         "DCF_GROWTH_RATE",
		Category:   "DCF",
		Name:       "매출 성장률",
		Importance: 3,
		Question:   "미래 매출 성장률 시나리오를 선택하시겠습니까?",
		Scenarios: []Scenario{
			{
				Label:       "낙관적",
				Value:       businessPlan,
				Description: fmt.Sprintf("사업계획서 그대로 (연평균 %.0f%%)", bpAvg*100),
			},
			{
				Label:         "중립적",
				Value:         neutral,
				Description:   fmt.Sprintf("사업계획서와 업종 평균 절충 (연평균 %.0f%%)", (bpAvg+industryAvg)/2*100),
				IsRecommended: true,
			},
			{
				Label:       "보수적",
				Value:       conservative,
				Description: fmt.Sprintf("업종 평균 수준 (연평균 %.0f%%)", industryAvg*100),
			},
		},
		Context: map[string]any{
			"business_plan":      businessPlan,
			"historical_avg_3yr": historicalAvg3Yr,
			"industry_avg":       industryAvg,
			"warning":            "사업계획서는 일반적으로 낙관적입니다. 업종 평균과 비교 검토하세요.",
		},
	})
}

// RequestWACCApproval proposes the auto-computed WACC as-is and with +1%p
// and +3%p unlisted/startup risk premiums.
func (m *Manager) RequestWACCApproval(autoWACC, beta, riskFree, marketPremium float64) (*Point, error) {
	return m.register(&Point{
		ID:         "DCF_WACC",
		Category:   "DCF",
		Name:       "WACC (할인율)",
		Importance: 3,
		Question:   "WACC 시나리오를 선택하시겠습니까?",
		Scenarios: []Scenario{
			{
				Label:       "낙관적",
				Value:       autoWACC,
				Description: fmt.Sprintf("%.2f%% (추가 위험 없음)", autoWACC*100),
			},
			{
				Label:         "중립적",
				Value:         autoWACC + 0.01,
				Description:   fmt.Sprintf("%.2f%% (비상장 위험 프리미엄 +1%%)", (autoWACC+0.01)*100),
				IsRecommended: true,
			},
			{
				Label:       "보수적",
				Value:       autoWACC + 0.03,
				Description: fmt.Sprintf("%.2f%% (신생기업 위험 프리미엄 +3%%)", (autoWACC+0.03)*100),
			},
		},
		Context: map[string]any{
			"calculation": fmt.Sprintf("Re = %.2f%% + %.2f × %.2f%% = %.2f%%",
				riskFree*100, beta, marketPremium*100, (riskFree+beta*marketPremium)*100),
			"warning": "WACC는 DCF 결과에 가장 큰 영향을 미칩니다.",
		},
	})
}

// OneTimeItem is a detected non-recurring income or expense.
type OneTimeItem struct {
	Year   string  `json:"year"`
	Item   string  `json:"item"`
	Amount float64 `json:"amount"` // signed, millions
	Type   string  `json:"type"`   // 영업외수익, 영업외비용
}

// RequestOneTimeItemsApproval asks, per detected item, whether to strip it
// from normalized earnings. Remove-all and keep-all are offered as
// scenarios; per-item cherry-picking goes through ApproveCustom.
func (m *Manager) RequestOneTimeItemsApproval(detected []OneTimeItem) (*Point, error) {
	descriptions := make([]string, 0, len(detected))
	for _, item := range detected {
		descriptions = append(descriptions,
			fmt.Sprintf("%s %s: %+.0f백만원 (%s)", item.Year, item.Item, item.Amount, item.Type))
	}
	return m.register(&Point{
		ID:         "DCF_ONE_TIME_ITEMS",
		Category:   "DCF",
		Name:       "일회성 항목 조정",
		Importance: 3,
		Question:   "일회성 항목을 제거하시겠습니까?",
		Scenarios: []Scenario{
			{
				Label:         "전체 제거",
				Value:         detected,
				Description:   fmt.Sprintf("%d건 모두 제거 → 정상 수익력 기준", len(detected)),
				IsRecommended: true,
			},
			{
				Label:       "유지",
				Value:       []OneTimeItem{},
				Description: "조정 없이 보고된 손익 그대로 사용",
			},
		},
		Context: map[string]any{
			"items":   descriptions,
			"warning": "일회성 제거 → 정상 수익력 파악 가능",
		},
	})
}

// RequestOperatingMarginApproval proposes the forecast operating margin:
// economies-of-scale upside, industry average, or the current level.
func (m *Manager) RequestOperatingMarginApproval(historicalMargins []float64, industryAvg float64) (*Point, error) {
	if len(historicalMargins) == 0 {
		return nil, valuation.ErrMissingField
	}
	current := historicalMargins[len(historicalMargins)-1]
	trend := "악화 추세"
	if current > historicalMargins[0] {
		trend = "개선 추세"
	}
	return m.register(&Point{
		ID:         "DCF_OPERATING_MARGIN",
		Category:   "DCF",
		Name:       "영업이익률",
		Importance: 2,
		Question:   "미래 영업이익률 시나리오를 선택하시겠습니까?",
		Scenarios: []Scenario{
			{
				Label:       "낙관적",
				Value:       0.20,
				Description: "규모의 경제 효과 → 20%까지 상승",
			},
			{
				Label:         "중립적",
				Value:         industryAvg,
				Description:   fmt.Sprintf("업종 평균 수준 유지 (%.0f%%)", industryAvg*100),
				IsRecommended: true,
			},
			{
				Label:       "보수적",
				Value:       current,
				Description: fmt.Sprintf("현재 수준 유지 (%.0f%%)", current*100),
			},
		},
		Context: map[string]any{
			"historical":   historicalMargins,
			"trend":        trend,
			"industry_avg": industryAvg,
		},
	})
}

// ComparableCandidate is one AI-selected peer with its similarity score.
type ComparableCandidate struct {
	Name       string  `json:"name"`
	Ticker     string  `json:"ticker"`
	Similarity float64 `json:"similarity"` // 0~100
	PER        float64 `json:"per"`
	Industry   string  `json:"industry"`
	Revenue    float64 `json:"revenue"`
}

// RequestComparableCompaniesApproval asks the accountant to confirm or
// prune the AI-selected peer set.
func (m *Manager) RequestComparableCompaniesApproval(autoSelected []ComparableCandidate) (*Point, error) {
	var similaritySum float64
	for _, c := range autoSelected {
		similaritySum += c.Similarity
	}
	avgSimilarity := 0.0
	if len(autoSelected) > 0 {
		avgSimilarity = similaritySum / float64(len(autoSelected))
	}
	return m.register(&Point{
		ID:         "REL_COMPARABLE_COMPANIES",
		Category:   "상대가치평가",
		Name:       "비교기업 선정",
		Importance: 2,
		Question:   "AI가 선정한 비교기업이 적절한가요?",
		Scenarios: []Scenario{
			{
				Label:         "적절함",
				Value:         autoSelected,
				Description:   "그대로 사용",
				IsRecommended: true,
			},
			{
				Label:       "일부 제외",
				Value:       "custom",
				Description: "유사도 낮은 기업 제외",
			},
			{
				Label:       "직접 선택",
				Value:       "manual",
				Description: "직접 비교기업 선택",
			},
		},
		Context: map[string]any{
			"companies":      autoSelected,
			"total_count":    len(autoSelected),
			"avg_similarity": avgSimilarity,
		},
	})
}

// RequestMarketabilityDiscountApproval proposes the unlisted liquidity
// discount; the recommendation flips when the company is preparing an IPO.
func (m *Manager) RequestMarketabilityDiscountApproval(isIPOPreparing bool) (*Point, error) {
	return m.register(&Point{
		ID:         "REL_MARKETABILITY_DISCOUNT",
		Category:   "상대가치평가",
		Name:       "비상장 할인율",
		Importance: 3,
		Question:   "비상장 유동성 할인을 적용하시겠습니까?",
		Scenarios: []Scenario{
			{
				Label:         "할인 없음",
				Value:         0.0,
				Description:   "0% (IPO 준비 중, 유동성 확보 가능)",
				IsRecommended: isIPOPreparing,
			},
			{
				Label:         "20% 할인",
				Value:         0.20,
				Description:   "20% (일반적 비상장 할인율)",
				IsRecommended: !isIPOPreparing,
			},
			{
				Label:       "30% 할인",
				Value:       0.30,
				Description: "30% (지배주주 외 소액주주)",
			},
		},
		Context: map[string]any{
			"is_ipo_preparing": isIPOPreparing,
			"warning":          "비상장 기업은 유동성 부족으로 할인 필요",
		},
	})
}

// RequestLandBuildingFVApproval asks how to set land/building fair value.
// With an appraisal report there is a single recommended scenario; without
// one the AI heuristic competes with the book value.
func (m *Manager) RequestLandBuildingFVApproval(landBook, buildingBook float64, appraisalValue *float64) (*Point, error) {
	var scenarios []Scenario
	if appraisalValue != nil {
		scenarios = []Scenario{{
			Label:         "감정평가액 사용",
			Value:         *appraisalValue,
			Description:   fmt.Sprintf("%.0f백만원 (감정평가서)", *appraisalValue),
			IsRecommended: true,
		}}
	} else {
		estimated := landBook*1.5 + buildingBook*0.9
		scenarios = []Scenario{
			{
				Label:         "AI 추정값",
				Value:         estimated,
				Description:   fmt.Sprintf("%.0f백만원 (공시지가 기준 추정)", estimated),
				IsRecommended: true,
			},
			{
				Label:       "장부가 그대로",
				Value:       landBook + buildingBook,
				Description: fmt.Sprintf("%.0f백만원", landBook+buildingBook),
			},
		}
	}
	return m.register(&Point{
		ID:         "NAV_LAND_BUILDING_FV",
		Category:   "자산가치평가",
		Name:       "토지/건물 공정가치",
		Importance: 3,
		Question:   "토지/건물 공정가치를 어떻게 산정하시겠습니까?",
		Scenarios:  scenarios,
		Context: map[string]any{
			"land_book":     landBook,
			"building_book": buildingBook,
			"has_appraisal": appraisalValue != nil,
			"warning":       "감정평가서 없이 진행 시 정확도 낮음",
		},
	})
}

// RequestShareholderTypeApproval asks the accountant to confirm or
// override the ownership-band classification and its statutory
// premium/discount. The band's recommendation leads; the opposite
// treatment is offered as the override.
func (m *Manager) RequestShareholderTypeApproval(ownershipRatio float64) (*Point, error) {
	band := taxlaw.DetermineShareholderType(ownershipRatio)

	var scenarios []Scenario
	if band.ControllingPremium {
		scenarios = []Scenario{
			{
				Label:         "경영권 프리미엄 적용",
				Value:         0.20,
				Description:   fmt.Sprintf("%s: 20%% 할증 (%s)", band.Type, band.Reason),
				IsRecommended: true,
			},
			{
				Label:       "할증 미적용",
				Value:       0.0,
				Description: "특수관계인 간 이전 등 할증 배제 사유 존재 시",
			},
		}
	} else {
		scenarios = []Scenario{
			{
				Label:         "소액주주 할인 적용",
				Value:         -band.RecommendedMinorityDiscount,
				Description:   fmt.Sprintf("%s: %.0f%% 할인 (%s)", band.Type, band.RecommendedMinorityDiscount*100, band.Reason),
				IsRecommended: true,
			},
			{
				Label:       "할인 미적용",
				Value:       0.0,
				Description: "지분율 대비 실질 지배력이 있는 경우",
			},
		}
	}
	return m.register(&Point{
		ID:         "TAX_SHAREHOLDER_TYPE",
		Category:   "상증세법평가",
		Name:       "주주 구분",
		Importance: 3,
		Question:   fmt.Sprintf("지분율 %.1f%%에 대한 주주 구분(%s)을 적용하시겠습니까?", ownershipRatio*100, band.Type),
		Scenarios:  scenarios,
		Context: map[string]any{
			"ownership_ratio":  ownershipRatio,
			"shareholder_type": band.Type,
			"reason":           band.Reason,
		},
	})
}

// RequestContingentLiabilitiesApproval asks whether pending litigation or
// guarantees need recognizing. Amounts go through ApproveCustom.
func (m *Manager) RequestContingentLiabilitiesApproval() (*Point, error) {
	return m.register(&Point{
		ID:         "NAV_CONTINGENT_LIABILITIES",
		Category:   "자산가치평가",
		Name:       "우발부채 인식",
		Importance: 3,
		Question:   "계류 중인 소송이나 채무 보증이 있습니까?",
		Scenarios: []Scenario{
			{
				Label:       "없음",
				Value:       0.0,
				Description: "우발부채 없음",
			},
			{
				Label:       "있음 - 직접 입력",
				Value:       "custom",
				Description: "소송 청구액 × 패소 확률",
			},
		},
		Context: map[string]any{
			"example": "소송 청구액 10억 × 패소 확률 30% = 3억 우발부채",
		},
	})
}

// RequestFinalValueRangeApproval proposes how to express the final value
// across the five method results (millions of won per method key).
func (m *Manager) RequestFinalValueRangeApproval(methodResults map[string]float64) (*Point, error) {
	if len(methodResults) == 0 {
		return nil, valuation.ErrMissingField
	}
	values := make([]float64, 0, len(methodResults))
	for _, v := range methodResults {
		values = append(values, v)
	}
	sort.Float64s(values)
	minVal, maxVal := values[0], values[len(values)-1]
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))

	return m.register(&Point{
		ID:         "INTEGRATED_VALUE_RANGE",
		Category:   "통합",
		Name:       "최종 가치 범위",
		Importance: 3,
		Question:   "최종 기업가치 범위를 어떻게 설정하시겠습니까?",
		Scenarios: []Scenario{
			{
				Label:       "전체 범위",
				Value:       [2]float64{minVal, maxVal},
				Description: fmt.Sprintf("%.0f ~ %.0f백만원 (±%.1f%%)", minVal, maxVal, (maxVal-minVal)/avg*100),
			},
			{
				Label:         "평균 ±10%",
				Value:         [2]float64{avg * 0.9, avg * 1.1},
				Description:   fmt.Sprintf("%.0f ~ %.0f백만원", avg*0.9, avg*1.1),
				IsRecommended: true,
			},
			{
				Label:       "평가 목적별 가중평균",
				Value:       "weighted",
				Description: "M&A: DCF 50% + 상대 30% + NAV 20%",
			},
		},
		Context: map[string]any{
			"methods": methodResults,
			"min":     minVal,
			"max":     maxVal,
			"avg":     avg,
			"median":  values[len(values)/2],
		},
	})
}
