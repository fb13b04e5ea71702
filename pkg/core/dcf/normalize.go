package dcf

import (
	"github.com/rotisserie/eris"

	"valuation_platform/pkg/core/fincalc"
	"valuation_platform/pkg/core/valuation"
)

// NormalizedPeriod is one historical year with one-time items stripped out
// of EBIT and the derived run-rate figures.
type NormalizedPeriod struct {
	Year            string  `json:"year"`
	Revenue         float64 `json:"revenue"`
	AdjustedEBIT    float64 `json:"adjusted_ebit"`
	NOPAT           float64 `json:"nopat"`
	FCFF            float64 `json:"fcff"`
	OperatingMargin float64 `json:"operating_margin"`
}

// NormalizedHistory summarizes the adjusted historical periods. Its average
// ratios serve as fallback assumptions wherever the forecast leaves a field
// unset.
type NormalizedHistory struct {
	Periods             []NormalizedPeriod `json:"periods"`
	AvgOperatingMargin  float64            `json:"avg_operating_margin"`
	AvgDepreciationRate float64            `json:"avg_depreciation_rate"`
	AvgCapexRate        float64            `json:"avg_capex_rate"`
	AvgTaxRate          float64            `json:"avg_tax_rate"`
	RevenueCAGR         float64            `json:"revenue_cagr"`
}

// Normalize strips one-time items from each period's EBIT, rebuilds NOPAT
// and FCFF on the adjusted base, and averages the operating ratios.
func Normalize(periods []valuation.FinancialPeriod) (NormalizedHistory, error) {
	if len(periods) == 0 {
		return NormalizedHistory{}, eris.Wrap(valuation.ErrMissingField, "historical financial periods")
	}

	var hist NormalizedHistory
	var sumMargin, sumDep, sumCapex, sumTax float64
	for _, p := range periods {
		if p.Revenue <= 0 {
			return NormalizedHistory{}, eris.Wrapf(valuation.ErrInvalidParameter,
				"revenue must be positive in period %s, got %.2f", p.Year, p.Revenue)
		}
		adjEBIT := p.EBIT - p.OneTimeItems
		nopat := adjEBIT * (1 - p.TaxRate)
		fcff := nopat + p.Depreciation - p.Capex - p.WorkingCapitalChange
		hist.Periods = append(hist.Periods, NormalizedPeriod{
			Year:            p.Year,
			Revenue:         p.Revenue,
			AdjustedEBIT:    adjEBIT,
			NOPAT:           nopat,
			FCFF:            fcff,
			OperatingMargin: adjEBIT / p.Revenue,
		})
		sumMargin += adjEBIT / p.Revenue
		sumDep += p.Depreciation / p.Revenue
		sumCapex += p.Capex / p.Revenue
		sumTax += p.TaxRate
	}

	n := float64(len(periods))
	hist.AvgOperatingMargin = sumMargin / n
	hist.AvgDepreciationRate = sumDep / n
	hist.AvgCapexRate = sumCapex / n
	hist.AvgTaxRate = sumTax / n

	if len(periods) >= 2 {
		cagr, err := fincalc.CAGR(periods[0].Revenue, periods[len(periods)-1].Revenue, len(periods)-1)
		if err != nil {
			return NormalizedHistory{}, err
		}
		hist.RevenueCAGR = cagr
	}
	return hist, nil
}
