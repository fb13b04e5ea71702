// Package relative implements the market-approach valuation engine: PER,
// PBR, PSR and EV/EBITDA multiples against comparable companies, industry
// benchmarks or market defaults, integrated into one weighted estimate.
package relative

// CompanyProfile is the target company's snapshot. Monetary figures are in
// millions of won.
type CompanyProfile struct {
	Name              string  `json:"name"`
	Industry          string  `json:"industry"`
	Revenue           float64 `json:"revenue"`
	NetIncome         float64 `json:"net_income"`
	BookValue         float64 `json:"book_value"`
	EBITDA            float64 `json:"ebitda"`
	SharesOutstanding int64   `json:"shares_outstanding"`
	GrowthRate3Yr     float64 `json:"growth_rate_3yr"`
	ROE               float64 `json:"roe"`
	TotalDebt         float64 `json:"total_debt"`
	Cash              float64 `json:"cash"`
}

// Comparable is one peer company's trading multiples. A zero or negative
// multiple means the peer does not report it and is excluded from that
// multiple's sample.
type Comparable struct {
	Name     string  `json:"name"`
	PER      float64 `json:"per"`
	PBR      float64 `json:"pbr"`
	PSR      float64 `json:"psr"`
	EVEBITDA float64 `json:"ev_ebitda"`
}

// Benchmarks carries industry-average multiples, used when no comparable
// set is available. Median is preferred over average; zero means unset.
type Benchmarks struct {
	MedianPER      float64 `json:"median_per"`
	AvgPER         float64 `json:"avg_per"`
	MedianPBR      float64 `json:"median_pbr"`
	AvgPBR         float64 `json:"avg_pbr"`
	MedianPSR      float64 `json:"median_psr"`
	AvgPSR         float64 `json:"avg_psr"`
	MedianEVEBITDA float64 `json:"median_ev_ebitda"`
	AvgEVEBITDA    float64 `json:"avg_ev_ebitda"`
}

func (b Benchmarks) isZero() bool {
	return b == Benchmarks{}
}

// resolve prefers median, then average, then the market default.
func resolve(median, avg, fallback float64) float64 {
	if median > 0 {
		return median
	}
	if avg > 0 {
		return avg
	}
	return fallback
}

// Input is everything a relative-valuation run needs.
type Input struct {
	Company     CompanyProfile `json:"company"`
	Comparables []Comparable   `json:"comparables,omitempty"`
	Benchmarks  Benchmarks     `json:"benchmarks,omitempty"`
}

// Confidence grades how much weight a sub-result deserves.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// MultipleResult is one multiple's sub-valuation.
type MultipleResult struct {
	Method           string     `json:"method"`
	MultipleUsed     float64    `json:"multiple_used"`
	Basis            float64    `json:"basis"` // net income, book value, revenue or EBITDA
	EnterpriseValue  float64    `json:"enterprise_value,omitempty"`
	NetDebt          float64    `json:"net_debt,omitempty"`
	EquityValue      float64    `json:"equity_value"`
	ValuePerShare    float64    `json:"value_per_share"`
	AdjustmentFactor float64    `json:"adjustment_factor,omitempty"`
	AdjustmentReason string     `json:"adjustment_reason,omitempty"`
	Confidence       Confidence `json:"confidence"`
}

// Integrated is the weighted combination of the computable multiples.
type Integrated struct {
	EquityValue      float64            `json:"equity_value"`
	ValuePerShare    float64            `json:"value_per_share"`
	RangeLow         float64            `json:"range_low"`
	RangeHigh        float64            `json:"range_high"`
	MethodsUsed      []string           `json:"methods_used"`
	Weights          map[string]float64 `json:"weights"`
	IndividualValues map[string]float64 `json:"individual_values"`
}

// Breakdown is the method-specific payload on the valuation result. A nil
// sub-result means that multiple was skipped for the target company.
type Breakdown struct {
	PER        *MultipleResult `json:"per_valuation,omitempty"`
	PBR        *MultipleResult `json:"pbr_valuation,omitempty"`
	PSR        *MultipleResult `json:"psr_valuation,omitempty"`
	EVEBITDA   *MultipleResult `json:"ev_ebitda_valuation,omitempty"`
	Integrated Integrated      `json:"integrated"`
}
