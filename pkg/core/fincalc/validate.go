package fincalc

import (
	"fmt"
	"math"
)

// Warning is a non-fatal plausibility finding. Validation helpers warn,
// they never fail a run.
type Warning struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// ValidateBalanceSheet checks the accounting identity
// assets = liabilities + equity within tolerance (absolute, same unit as
// the inputs).
func ValidateBalanceSheet(assets, liabilities, equity, tolerance float64) []Warning {
	diff := math.Abs(assets - (liabilities + equity))
	if diff <= tolerance {
		return nil
	}
	return []Warning{{
		Check: "balance_sheet_identity",
		Message: fmt.Sprintf("자산 %.0f ≠ 부채 %.0f + 자본 %.0f (차이 %.0f)",
			assets, liabilities, equity, diff),
	}}
}

// ValidateWACCComponents checks each WACC input against its usual range.
// Out-of-band components are suspicious, not fatal.
func ValidateWACCComponents(riskFree, beta, marketPremium, debtRatio float64) []Warning {
	var warnings []Warning
	if riskFree <= 0 || riskFree >= 0.10 {
		warnings = append(warnings, Warning{
			Check:   "risk_free_rate",
			Message: fmt.Sprintf("무위험이자율 %.2f%%가 통상 범위(0~10%%)를 벗어남", riskFree*100),
		})
	}
	if beta <= -1 || beta >= 3 {
		warnings = append(warnings, Warning{
			Check:   "beta",
			Message: fmt.Sprintf("베타 %.2f가 통상 범위(-1~3)를 벗어남", beta),
		})
	}
	if marketPremium <= 0.05 || marketPremium >= 0.15 {
		warnings = append(warnings, Warning{
			Check:   "market_risk_premium",
			Message: fmt.Sprintf("시장위험프리미엄 %.2f%%가 통상 범위(5~15%%)를 벗어남", marketPremium*100),
		})
	}
	if debtRatio < 0 || debtRatio > 0.90 {
		warnings = append(warnings, Warning{
			Check:   "debt_ratio",
			Message: fmt.Sprintf("부채비율 %.0f%%가 통상 범위(0~90%%)를 벗어남", debtRatio*100),
		})
	}
	return warnings
}

// TerminalValueRatio reports the terminal value's share of enterprise value
// and whether it sits in the customary 50~80% band.
func TerminalValueRatio(pvFCF, pvTerminal float64) (ratio float64, inBand bool) {
	total := pvFCF + pvTerminal
	if total == 0 {
		return 0, false
	}
	ratio = pvTerminal / total
	return ratio, ratio >= 0.50 && ratio <= 0.80
}

// CheckTerminalValueRatio wraps TerminalValueRatio as a warning producer.
func CheckTerminalValueRatio(pvFCF, pvTerminal float64) []Warning {
	ratio, inBand := TerminalValueRatio(pvFCF, pvTerminal)
	if inBand {
		return nil
	}
	return []Warning{{
		Check:   "terminal_value_ratio",
		Message: fmt.Sprintf("영구가치 비중 %.1f%%가 통상 범위(50~80%%)를 벗어남", ratio*100),
	}}
}
