package valuation

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Scale is the unit a monetary amount is denominated in, expressed as the
// factor that converts it to raw currency units.
type Scale int64

const (
	ScaleWon      Scale = 1
	ScaleMillions Scale = 1_000_000
)

// Money is an engine-internal monetary amount tagged with its scale.
// Engines compute in a caller-defined scale (millions in practice) and the
// scale factor is applied exactly once, at the per-share boundary. Carrying
// the scale on the value closes off the class of off-by-10^6 bugs the
// untyped convention invites.
type Money struct {
	Amount float64 `json:"amount"`
	Scale  Scale   `json:"scale"`
}

// Millions tags an amount as denominated in millions of won.
func Millions(amount float64) Money {
	return Money{Amount: amount, Scale: ScaleMillions}
}

// Add returns m + other. Both operands must share a scale.
func (m Money) Add(other Money) Money {
	if m.Scale != other.Scale {
		panic(fmt.Sprintf("money scale mismatch: %d vs %d", m.Scale, other.Scale))
	}
	return Money{Amount: m.Amount + other.Amount, Scale: m.Scale}
}

// Sub returns m - other. Both operands must share a scale.
func (m Money) Sub(other Money) Money {
	if m.Scale != other.Scale {
		panic(fmt.Sprintf("money scale mismatch: %d vs %d", m.Scale, other.Scale))
	}
	return Money{Amount: m.Amount - other.Amount, Scale: m.Scale}
}

// PerShare converts the amount to raw currency units and divides by the
// share count. This is the single point where Scale is consumed. The
// conversion runs through decimal arithmetic so the scale multiplication
// does not lose precision before the division.
func (m Money) PerShare(sharesOutstanding int64) (float64, error) {
	if sharesOutstanding <= 0 {
		return 0, eris.Wrapf(ErrInvalidParameter, "shares outstanding must be positive, got %d", sharesOutstanding)
	}
	perShare := decimal.NewFromFloat(m.Amount).
		Mul(decimal.NewFromInt(int64(m.Scale))).
		DivRound(decimal.NewFromInt(sharesOutstanding), 4)
	return perShare.InexactFloat64(), nil
}

// Won returns the amount in raw currency units.
func (m Money) Won() float64 {
	return m.Amount * float64(m.Scale)
}
