package relative

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/valuation"
)

// Defaults are the market-average multiples used when neither comparables
// nor benchmarks are supplied.
type Defaults struct {
	PER         float64            `yaml:"per" json:"per"`
	PBR         float64            `yaml:"pbr" json:"pbr"`
	PSR         float64            `yaml:"psr" json:"psr"`
	EVEBITDA    float64            `yaml:"ev_ebitda" json:"ev_ebitda"`
	IndustryPSR map[string]float64 `yaml:"industry_psr" json:"industry_psr"`
}

// MarketDefaults returns the Korean-market baseline multiples.
func MarketDefaults() Defaults {
	return Defaults{
		PER:      10.0,
		PBR:      1.0,
		PSR:      2.0,
		EVEBITDA: 8.0,
		IndustryPSR: map[string]float64{
			"SaaS":  5.0,
			"소프트웨어": 5.0,
			"유통":    1.5,
			"플랫폼":   1.5,
		},
	}
}

// psrFor matches the industry string against the PSR table by substring,
// the way industry labels arrive from the document extractor. The most
// specific (longest) matching keyword wins; ties break lexicographically so
// the lookup is stable across runs.
func (d Defaults) psrFor(industry string) float64 {
	keywords := make([]string, 0, len(d.IndustryPSR))
	for keyword := range d.IndustryPSR {
		keywords = append(keywords, keyword)
	}
	sort.Slice(keywords, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keywords[i]), utf8.RuneCountInString(keywords[j])
		if li != lj {
			return li > lj
		}
		return keywords[i] < keywords[j]
	})
	for _, keyword := range keywords {
		if strings.Contains(industry, keyword) {
			return d.IndustryPSR[keyword]
		}
	}
	return d.PSR
}

// Integration weights per multiple, renormalized over whichever multiples
// were computable for the target.
var integrationWeights = map[string]float64{
	"PER":       0.40,
	"PBR":       0.20,
	"PSR":       0.10,
	"EV/EBITDA": 0.30,
}

// Engine runs market-approach valuations. Stateless apart from the default
// multiple table.
type Engine struct {
	defaults Defaults
}

func NewEngine() *Engine {
	return &Engine{defaults: MarketDefaults()}
}

// NewEngineWithDefaults substitutes a configured multiple table.
func NewEngineWithDefaults(d Defaults) *Engine {
	return &Engine{defaults: d}
}

// RunValuation computes every multiple applicable to the target company and
// integrates them. PER requires positive net income, PBR positive book
// value, PSR positive revenue, EV/EBITDA positive EBITDA; inapplicable
// multiples are skipped, not zeroed.
func (e *Engine) RunValuation(projectID string, in Input) (*valuation.Result, error) {
	c := in.Company
	if c.SharesOutstanding <= 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "shares outstanding")
	}
	if c.Revenue <= 0 && c.NetIncome <= 0 && c.BookValue <= 0 && c.EBITDA <= 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "no valuation basis: revenue, net income, book value and EBITDA all absent")
	}

	breakdown := &Breakdown{}
	if c.NetIncome > 0 {
		r, err := e.perValuation(in)
		if err != nil {
			return nil, err
		}
		breakdown.PER = r
	}
	if c.BookValue > 0 {
		r, err := e.pbrValuation(in)
		if err != nil {
			return nil, err
		}
		breakdown.PBR = r
	}
	if c.Revenue > 0 {
		r, err := e.psrValuation(in)
		if err != nil {
			return nil, err
		}
		breakdown.PSR = r
	}
	if c.EBITDA > 0 {
		r, err := e.evEbitdaValuation(in)
		if err != nil {
			return nil, err
		}
		breakdown.EVEBITDA = r
	}

	integrated, err := integrate(breakdown, c)
	if err != nil {
		return nil, err
	}
	breakdown.Integrated = *integrated

	// The envelope treats total debt as interest-bearing and cash as the
	// non-operating asset, so the equity bridge holds for this method too.
	equity := valuation.Millions(integrated.EquityValue)
	enterprise := equity.
		Add(valuation.Millions(c.TotalDebt)).
		Sub(valuation.Millions(c.Cash))

	zap.L().Info("상대가치 평가 완료",
		zap.String("project_id", projectID),
		zap.Strings("methods_used", integrated.MethodsUsed),
		zap.Float64("equity_value", integrated.EquityValue))

	return &valuation.Result{
		ProjectID:       projectID,
		Method:          valuation.MethodRelative,
		Status:          valuation.ResultCompleted,
		EnterpriseValue: enterprise,
		EquityValue:     equity,
		ValuePerShare:   integrated.ValuePerShare,
		Breakdown:       breakdown,
	}, nil
}

// perValuation prices earnings. The selected peer multiple gets a growth
// adjustment: +20% above 15% three-year growth, -10% below 5%.
func (e *Engine) perValuation(in Input) (*MultipleResult, error) {
	c := in.Company
	selected := e.selectFor(in, func(cmp Comparable) float64 { return cmp.PER },
		func(b Benchmarks) float64 { return resolve(b.MedianPER, b.AvgPER, e.defaults.PER) },
		e.defaults.PER)

	adjusted := selected
	reason := "조정 없음"
	switch {
	case c.GrowthRate3Yr > 0.15:
		adjusted = selected * 1.2
		reason = fmt.Sprintf("고성장 (성장률 %.1f%%) 20%% 프리미엄", c.GrowthRate3Yr*100)
	case c.GrowthRate3Yr < 0.05:
		adjusted = selected * 0.9
		reason = fmt.Sprintf("저성장 (성장률 %.1f%%) 10%% 할인", c.GrowthRate3Yr*100)
	}

	equityValue := c.NetIncome * adjusted
	perShare, err := valuation.Millions(equityValue).PerShare(c.SharesOutstanding)
	if err != nil {
		return nil, err
	}
	return &MultipleResult{
		Method:           "PER",
		MultipleUsed:     adjusted,
		Basis:            c.NetIncome,
		EquityValue:      equityValue,
		ValuePerShare:    perShare,
		AdjustmentFactor: adjusted / selected,
		AdjustmentReason: reason,
		Confidence:       e.confidence(in, ConfidenceMedium),
	}, nil
}

// pbrValuation prices net assets. ROE drives the adjustment: +30% above
// 15%, -20% below 8% (PBR = ROE / Ke in theory).
func (e *Engine) pbrValuation(in Input) (*MultipleResult, error) {
	c := in.Company
	selected := e.selectFor(in, func(cmp Comparable) float64 { return cmp.PBR },
		func(b Benchmarks) float64 { return resolve(b.MedianPBR, b.AvgPBR, e.defaults.PBR) },
		e.defaults.PBR)

	adjusted := selected
	reason := "조정 없음"
	switch {
	case c.ROE > 0.15:
		adjusted = selected * 1.3
		reason = fmt.Sprintf("고ROE (%.1f%%) 30%% 프리미엄", c.ROE*100)
	case c.ROE < 0.08:
		adjusted = selected * 0.8
		reason = fmt.Sprintf("저ROE (%.1f%%) 20%% 할인", c.ROE*100)
	}

	equityValue := c.BookValue * adjusted
	perShare, err := valuation.Millions(equityValue).PerShare(c.SharesOutstanding)
	if err != nil {
		return nil, err
	}
	return &MultipleResult{
		Method:           "PBR",
		MultipleUsed:     adjusted,
		Basis:            c.BookValue,
		EquityValue:      equityValue,
		ValuePerShare:    perShare,
		AdjustmentFactor: adjusted / selected,
		AdjustmentReason: reason,
		Confidence:       e.confidence(in, ConfidenceMedium),
	}, nil
}

// psrValuation prices revenue. Used unadjusted; it ignores profitability,
// hence the Medium confidence even with comparables. The default multiple
// is industry-sensitive.
func (e *Engine) psrValuation(in Input) (*MultipleResult, error) {
	c := in.Company
	industryDefault := e.defaults.psrFor(c.Industry)
	selected := e.selectFor(in, func(cmp Comparable) float64 { return cmp.PSR },
		func(b Benchmarks) float64 { return resolve(b.MedianPSR, b.AvgPSR, industryDefault) },
		industryDefault)

	equityValue := c.Revenue * selected
	perShare, err := valuation.Millions(equityValue).PerShare(c.SharesOutstanding)
	if err != nil {
		return nil, err
	}
	return &MultipleResult{
		Method:        "PSR",
		MultipleUsed:  selected,
		Basis:         c.Revenue,
		EquityValue:   equityValue,
		ValuePerShare: perShare,
		Confidence:    ConfidenceMedium,
	}, nil
}

// evEbitdaValuation prices the enterprise, then bridges: equity = EV - net
// debt.
func (e *Engine) evEbitdaValuation(in Input) (*MultipleResult, error) {
	c := in.Company
	selected := e.selectFor(in, func(cmp Comparable) float64 { return cmp.EVEBITDA },
		func(b Benchmarks) float64 { return resolve(b.MedianEVEBITDA, b.AvgEVEBITDA, e.defaults.EVEBITDA) },
		e.defaults.EVEBITDA)

	netDebt := c.TotalDebt - c.Cash
	enterpriseValue := c.EBITDA * selected
	equityValue := enterpriseValue - netDebt
	perShare, err := valuation.Millions(equityValue).PerShare(c.SharesOutstanding)
	if err != nil {
		return nil, err
	}
	return &MultipleResult{
		Method:          "EV/EBITDA",
		MultipleUsed:    selected,
		Basis:           c.EBITDA,
		EnterpriseValue: enterpriseValue,
		NetDebt:         netDebt,
		EquityValue:     equityValue,
		ValuePerShare:   perShare,
		Confidence:      ConfidenceHigh,
	}, nil
}

// selectFor runs the selection priority: comparables, then benchmarks,
// then the market default.
func (e *Engine) selectFor(in Input, pick func(Comparable) float64, fromBenchmarks func(Benchmarks) float64, fallback float64) float64 {
	if len(in.Comparables) > 0 {
		sample := make([]float64, 0, len(in.Comparables))
		for _, cmp := range in.Comparables {
			if v := pick(cmp); v > 0 {
				sample = append(sample, v)
			}
		}
		return selectMultiple(sample, fallback)
	}
	if !in.Benchmarks.isZero() {
		return fromBenchmarks(in.Benchmarks)
	}
	return fallback
}

func (e *Engine) confidence(in Input, without Confidence) Confidence {
	if len(in.Comparables) > 0 {
		return ConfidenceHigh
	}
	return without
}

// integrate combines the computed multiples at renormalized weights and
// reports the spread.
func integrate(b *Breakdown, c CompanyProfile) (*Integrated, error) {
	type entry struct {
		result *MultipleResult
		weight float64
	}
	ordered := []entry{
		{b.PER, integrationWeights["PER"]},
		{b.PBR, integrationWeights["PBR"]},
		{b.PSR, integrationWeights["PSR"]},
		{b.EVEBITDA, integrationWeights["EV/EBITDA"]},
	}

	var totalWeight float64
	for _, e := range ordered {
		if e.result != nil {
			totalWeight += e.weight
		}
	}
	if totalWeight == 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "no multiple was computable for the target company")
	}

	integrated := &Integrated{
		Weights:          make(map[string]float64),
		IndividualValues: make(map[string]float64),
	}
	first := true
	for _, e := range ordered {
		if e.result == nil {
			continue
		}
		w := e.weight / totalWeight
		integrated.EquityValue += e.result.EquityValue * w
		integrated.MethodsUsed = append(integrated.MethodsUsed, e.result.Method)
		integrated.Weights[e.result.Method] = w
		integrated.IndividualValues[e.result.Method] = e.result.EquityValue
		if first || e.result.EquityValue < integrated.RangeLow {
			integrated.RangeLow = e.result.EquityValue
		}
		if first || e.result.EquityValue > integrated.RangeHigh {
			integrated.RangeHigh = e.result.EquityValue
		}
		first = false
	}

	perShare, err := valuation.Millions(integrated.EquityValue).PerShare(c.SharesOutstanding)
	if err != nil {
		return nil, err
	}
	integrated.ValuePerShare = perShare
	return integrated, nil
}
