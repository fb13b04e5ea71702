// Package intrinsic implements the capital-markets-law valuation:
// (asset value × 1 + income value × 1.5) ÷ 2.5, per 자본시장법 시행령
// 제176조의5. A documentation and audit wrapper around two inputs; there
// are no tunable parameters.
package intrinsic

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/valuation"
)

const (
	assetWeight  = 1.0
	incomeWeight = 1.5
	divisor      = 2.5

	// LegalBasis is the statutory citation carried on every result.
	LegalBasis = "자본시장과 금융투자업에 관한 법률 시행령 제176조의5"
)

// Input is one intrinsic-value run. AssetValue is the NAV or market-value
// net assets; IncomeValue is either a DCF result or average net income × 10
// (the caller chooses and labels the method).
type Input struct {
	AssetValue        float64 `json:"asset_value"`
	IncomeValue       float64 `json:"income_value"`
	SharesOutstanding int64   `json:"shares_outstanding"`
	Purpose           string  `json:"purpose"`       // 합병, 분할, 주식매수청구권, ...
	IncomeMethod      string  `json:"income_method"` // "DCF" or "평균순이익×10"
}

// Breakdown is the formula audit trail.
type Breakdown struct {
	AssetValue     float64 `json:"asset_value"`
	IncomeValue    float64 `json:"income_value"`
	AssetWeight    float64 `json:"asset_weight"`
	IncomeWeight   float64 `json:"income_weight"`
	Divisor        float64 `json:"divisor"`
	AssetWeighted  float64 `json:"asset_weighted"`
	IncomeWeighted float64 `json:"income_weighted"`
	WeightedSum    float64 `json:"weighted_sum"`
	Value          float64 `json:"value"`
	Purpose        string  `json:"purpose"`
	IncomeMethod   string  `json:"income_method"`
	LegalBasis     string  `json:"legal_basis"`
	Formula        string  `json:"formula"`
}

// IncomeValueFromAvgNetIncome is income-value method 1: three-year average
// net income × 10.
func IncomeValueFromAvgNetIncome(avgNetIncome3Yr float64) float64 {
	return avgNetIncome3Yr * 10
}

// Engine applies the statutory weighted average. Stateless.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) RunValuation(projectID string, in Input) (*valuation.Result, error) {
	if in.SharesOutstanding <= 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "shares outstanding")
	}
	if in.AssetValue == 0 && in.IncomeValue == 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "asset value and income value")
	}

	weightedSum := in.AssetValue*assetWeight + in.IncomeValue*incomeWeight
	value := weightedSum / divisor

	equity := valuation.Millions(value)
	perShare, err := equity.PerShare(in.SharesOutstanding)
	if err != nil {
		return nil, err
	}

	breakdown := &Breakdown{
		AssetValue:     in.AssetValue,
		IncomeValue:    in.IncomeValue,
		AssetWeight:    assetWeight,
		IncomeWeight:   incomeWeight,
		Divisor:        divisor,
		AssetWeighted:  in.AssetValue * assetWeight,
		IncomeWeighted: in.IncomeValue * incomeWeight,
		WeightedSum:    weightedSum,
		Value:          value,
		Purpose:        in.Purpose,
		IncomeMethod:   in.IncomeMethod,
		LegalBasis:     LegalBasis,
		Formula: fmt.Sprintf("(%.0f × %.1f + %.0f × %.1f) ÷ %.1f",
			in.AssetValue, assetWeight, in.IncomeValue, incomeWeight, divisor),
	}

	zap.L().Info("자본시장법 평가 완료",
		zap.String("project_id", projectID),
		zap.String("purpose", in.Purpose),
		zap.Float64("value", value))

	return &valuation.Result{
		ProjectID:       projectID,
		Method:          valuation.MethodIntrinsic,
		Status:          valuation.ResultCompleted,
		EnterpriseValue: equity,
		EquityValue:     equity,
		ValuePerShare:   perShare,
		Breakdown:       breakdown,
	}, nil
}
