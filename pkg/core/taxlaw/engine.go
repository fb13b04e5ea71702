// Package taxlaw implements the inheritance-and-gift-tax valuation per
// 상속세 및 증여세법 시행령 제54조: a 3:2 weighted average of income value
// and net-asset value, with shareholder-type premiums and discounts layered
// on top.
package taxlaw

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/valuation"
)

const (
	// Statutory capitalization rate for the income value.
	incomeCapRate = 0.10

	controllingPremiumRate        = 0.20
	unlistedMarketabilityDiscount = 0.20

	// LegalBasis is the statutory citation carried on every result.
	LegalBasis = "상속세 및 증여세법 시행령 제54조"
)

// Input is one tax-law valuation run. Monetary figures in millions of won.
type Input struct {
	NetIncome3Yr      float64 `json:"net_income_3yr"` // sum of the last three years
	NetAssets         float64 `json:"net_assets"`
	SharesOutstanding int64   `json:"shares_outstanding"`
	OwnershipRatio    float64 `json:"ownership_ratio"`
	IsListed          bool    `json:"is_listed"`
	Purpose           string  `json:"purpose"` // 상속세 신고, 증여세 신고, ...
}

// ShareholderType classifies the holder by ownership band and carries the
// statutory premium/discount recommendation for that band.
type ShareholderType struct {
	Type                        string  `json:"type"`
	ControllingPremium          bool    `json:"controlling_premium"`
	RecommendedMinorityDiscount float64 `json:"recommended_minority_discount"`
	Reason                      string  `json:"reason"`
}

// DetermineShareholderType maps the ownership ratio to its band.
func DetermineShareholderType(ownershipRatio float64) ShareholderType {
	switch {
	case ownershipRatio >= 0.50:
		return ShareholderType{
			Type:               "지배주주 (과반)",
			ControllingPremium: true,
			Reason:             "지분율 50% 이상 - 경영권 보유",
		}
	case ownershipRatio >= 0.30:
		return ShareholderType{
			Type:                        "준지배주주",
			RecommendedMinorityDiscount: 0.10,
			Reason:                      "지분율 30~50% - 경영 참여 가능",
		}
	case ownershipRatio >= 0.10:
		return ShareholderType{
			Type:                        "유력주주",
			RecommendedMinorityDiscount: 0.20,
			Reason:                      "지분율 10~30% - 일부 영향력",
		}
	default:
		return ShareholderType{
			Type:                        "소액주주",
			RecommendedMinorityDiscount: 0.30,
			Reason:                      "지분율 10% 미만 - 경영권 없음",
		}
	}
}

// Adjustment is one premium or discount applied to the base value.
type Adjustment struct {
	Type   string  `json:"type"`
	Rate   float64 `json:"rate"` // signed; discounts are negative
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Breakdown is the tax-law payload on the valuation result.
type Breakdown struct {
	Value           float64         `json:"value"`
	IncomeValue     float64         `json:"income_value"`
	AssetValue      float64         `json:"asset_value"`
	BaseValue       float64         `json:"base_value"`
	AvgNetIncome    float64         `json:"avg_net_income"`
	Adjustments     []Adjustment    `json:"adjustments"`
	TotalAdjustment float64         `json:"total_adjustment"`
	ShareholderType ShareholderType `json:"shareholder_type"`
	OwnershipRatio  float64         `json:"ownership_ratio"`
	IsListed        bool            `json:"is_listed"`
	Purpose         string          `json:"purpose"`
	LegalBasis      string          `json:"legal_basis"`
	Formula         string          `json:"formula"`
}

// Engine applies the statutory formula. Stateless.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// RunValuation computes the statutory value:
//
//	income value = (ΣNI₃/3) × 3 ÷ 0.10
//	base = (income × 3 + assets × 2) ÷ 5
//
// then applies the ownership-band premium or discount (mutually exclusive)
// and the marketability discount for unlisted shares.
func (e *Engine) RunValuation(projectID string, in Input) (*valuation.Result, error) {
	if in.SharesOutstanding <= 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "shares outstanding")
	}
	if in.OwnershipRatio < 0 || in.OwnershipRatio > 1 {
		return nil, eris.Wrapf(valuation.ErrInvalidParameter,
			"ownership ratio must be in [0,1], got %.4f", in.OwnershipRatio)
	}

	avgNetIncome := in.NetIncome3Yr / 3
	incomeValue := avgNetIncome * 3 / incomeCapRate
	assetValue := in.NetAssets
	baseValue := (incomeValue*3 + assetValue*2) / 5

	holder := DetermineShareholderType(in.OwnershipRatio)

	var adjustments []Adjustment
	finalValue := baseValue
	if holder.ControllingPremium {
		premium := baseValue * controllingPremiumRate
		finalValue += premium
		adjustments = append(adjustments, Adjustment{
			Type:   "지배주주 할증",
			Rate:   controllingPremiumRate,
			Amount: premium,
			Reason: "상증세법 시행령 제54조 - 지배주주 20% 할증",
		})
	} else if holder.RecommendedMinorityDiscount > 0 {
		discount := baseValue * holder.RecommendedMinorityDiscount
		finalValue -= discount
		adjustments = append(adjustments, Adjustment{
			Type:   "소액주주 할인",
			Rate:   -holder.RecommendedMinorityDiscount,
			Amount: -discount,
			Reason: fmt.Sprintf("소액주주 %.0f%% 할인", holder.RecommendedMinorityDiscount*100),
		})
	}

	if !in.IsListed {
		discount := baseValue * unlistedMarketabilityDiscount
		finalValue -= discount
		adjustments = append(adjustments, Adjustment{
			Type:   "유동성 할인",
			Rate:   -unlistedMarketabilityDiscount,
			Amount: -discount,
			Reason: fmt.Sprintf("비상장 주식 유동성 할인 %.0f%%", unlistedMarketabilityDiscount*100),
		})
	}

	equity := valuation.Millions(finalValue)
	perShare, err := equity.PerShare(in.SharesOutstanding)
	if err != nil {
		return nil, err
	}

	breakdown := &Breakdown{
		Value:           finalValue,
		IncomeValue:     incomeValue,
		AssetValue:      assetValue,
		BaseValue:       baseValue,
		AvgNetIncome:    avgNetIncome,
		Adjustments:     adjustments,
		TotalAdjustment: finalValue - baseValue,
		ShareholderType: holder,
		OwnershipRatio:  in.OwnershipRatio,
		IsListed:        in.IsListed,
		Purpose:         in.Purpose,
		LegalBasis:      LegalBasis,
		Formula:         fmt.Sprintf("(%.0f × 3 + %.0f × 2) ÷ 5", incomeValue, assetValue),
	}

	zap.L().Info("상증세법 평가 완료",
		zap.String("project_id", projectID),
		zap.String("shareholder_type", holder.Type),
		zap.Float64("value", finalValue))

	return &valuation.Result{
		ProjectID:       projectID,
		Method:          valuation.MethodInheritanceTax,
		Status:          valuation.ResultCompleted,
		EnterpriseValue: equity,
		EquityValue:     equity,
		ValuePerShare:   perShare,
		Breakdown:       breakdown,
	}, nil
}
