// Package fincalc implements the stateless numeric primitives shared by the
// valuation engines. Pure functions over float64, no I/O, no state.
//
// Formula sources: KPMG "New Valuation Era" (2021), 삼일PwC "M&A ESSENCE
// 2020", standard DCF methodology.
package fincalc

import (
	"math"

	"github.com/rotisserie/eris"

	"valuation_platform/pkg/core/valuation"
)

// PresentValue discounts a series of year-end cash flows:
// PV = Σ CFt / (1+r)^t, t starting at 1.
func PresentValue(cashFlows []float64, rate float64) (float64, error) {
	if rate < 0 {
		return 0, eris.Wrapf(valuation.ErrInvalidParameter, "discount rate must be >= 0, got %.4f", rate)
	}
	pv := 0.0
	for t, cf := range cashFlows {
		pv += cf / math.Pow(1+rate, float64(t+1))
	}
	return pv, nil
}

// FutureValue compounds a present value: FV = PV × (1+g)^n.
func FutureValue(presentValue, growthRate float64, periods int) float64 {
	return presentValue * math.Pow(1+growthRate, float64(periods))
}

// WACC computes the weighted average cost of capital:
// WACC = (1-D)·Re + D·Rd·(1-T), with Re = Rf + β·MRP (CAPM).
func WACC(riskFreeRate, beta, marketPremium, costOfDebt, debtRatio, taxRate float64) float64 {
	costOfEquity := riskFreeRate + beta*marketPremium
	equityRatio := 1 - debtRatio
	return equityRatio*costOfEquity + debtRatio*costOfDebt*(1-taxRate)
}

// TerminalValue applies the Gordon growth model:
// TV = FCF(n)·(1+g) / (WACC - g). Fails when wacc <= g; the invariant is
// never clamped.
func TerminalValue(lastFCF, terminalGrowth, wacc float64) (float64, error) {
	if wacc <= terminalGrowth {
		return 0, eris.Wrapf(valuation.ErrInvalidAssumption,
			"WACC (%.2f%%) must exceed terminal growth rate (%.2f%%)", wacc*100, terminalGrowth*100)
	}
	return lastFCF * (1 + terminalGrowth) / (wacc - terminalGrowth), nil
}

// PVTerminalValue discounts a terminal value to present. lastPeriod is the
// discount period of the last forecast year, deliberately not last+1: the
// downstream verification figures are calibrated against this convention.
func PVTerminalValue(terminalValue, wacc, lastPeriod float64) float64 {
	return terminalValue / math.Pow(1+wacc, lastPeriod)
}

// CAGR computes the compound annual growth rate (End/Begin)^(1/n) - 1.
func CAGR(beginValue, endValue float64, periods int) (float64, error) {
	if beginValue <= 0 {
		return 0, eris.Wrapf(valuation.ErrInvalidParameter, "CAGR begin value must be > 0, got %.2f", beginValue)
	}
	if periods <= 0 {
		return 0, eris.Wrapf(valuation.ErrInvalidParameter, "CAGR periods must be > 0, got %d", periods)
	}
	return math.Pow(endValue/beginValue, 1/float64(periods)) - 1, nil
}

// Perpetuity is the present value of a constant perpetual cash flow CF / r.
func Perpetuity(cashFlow, discountRate float64) (float64, error) {
	if discountRate <= 0 {
		return 0, eris.Wrapf(valuation.ErrInvalidParameter, "perpetuity discount rate must be > 0, got %.4f", discountRate)
	}
	return cashFlow / discountRate, nil
}

// GrowingPerpetuity is the present value of a growing perpetual cash flow
// CF / (r - g).
func GrowingPerpetuity(cashFlow, discountRate, growthRate float64) (float64, error) {
	if discountRate <= growthRate {
		return 0, eris.Wrapf(valuation.ErrInvalidAssumption,
			"discount rate (%.2f%%) must exceed growth rate (%.2f%%)", discountRate*100, growthRate*100)
	}
	return cashFlow / (discountRate - growthRate), nil
}

const (
	irrSeed          = 0.10
	irrMaxIterations = 100
	irrTolerance     = 1e-9
)

// IRR solves NPV = -I0 + Σ CFt/(1+r)^t = 0 by Newton iteration from a 10%
// seed, with a numeric derivative. Non-convergence is an InvalidParameter.
func IRR(cashFlows []float64, initialInvestment float64) (float64, error) {
	npv := func(rate float64) float64 {
		v := -initialInvestment
		for t, cf := range cashFlows {
			v += cf / math.Pow(1+rate, float64(t+1))
		}
		return v
	}

	rate := irrSeed
	for i := 0; i < irrMaxIterations; i++ {
		v := npv(rate)
		if math.Abs(v) < irrTolerance {
			return rate, nil
		}
		const h = 1e-6
		derivative := (npv(rate+h) - npv(rate-h)) / (2 * h)
		if derivative == 0 || math.IsNaN(derivative) {
			break
		}
		next := rate - v/derivative
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, nil
		}
		rate = next
	}
	return 0, eris.Wrap(valuation.ErrInvalidParameter, "IRR did not converge")
}
