package valuation

import (
	"errors"
	"testing"
)

func TestPerShareAppliesScaleOnce(t *testing.T) {
	// 73,500 million won over 1,000,000 shares: the millions factor must be
	// applied exactly once, giving 73,500 won per share.
	equity := Millions(73_500)
	perShare, err := equity.PerShare(1_000_000)
	if err != nil {
		t.Fatalf("PerShare() failed: %v", err)
	}
	if perShare != 73_500 {
		t.Errorf("per share = %v, want 73500", perShare)
	}

	// A won-scale amount divides without any factor.
	raw := Money{Amount: 73_500_000_000, Scale: ScaleWon}
	perShare, err = raw.PerShare(1_000_000)
	if err != nil {
		t.Fatalf("PerShare() failed: %v", err)
	}
	if perShare != 73_500 {
		t.Errorf("won-scale per share = %v, want 73500", perShare)
	}
}

func TestPerShareRounding(t *testing.T) {
	perShare, err := Millions(100).PerShare(3_000_000)
	if err != nil {
		t.Fatalf("PerShare() failed: %v", err)
	}
	if perShare != 33.3333 {
		t.Errorf("per share = %v, want 33.3333 (4 decimal places)", perShare)
	}
}

func TestPerShareRejectsNonPositiveShares(t *testing.T) {
	for _, shares := range []int64{0, -1} {
		if _, err := Millions(100).PerShare(shares); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("PerShare(%d) error = %v, want ErrInvalidParameter", shares, err)
		}
	}
}

func TestBridgeToEquity(t *testing.T) {
	adj := NonOperatingAdjustments{
		NonOperatingAssets:  500,
		InterestBearingDebt: 2_000,
		SharesOutstanding:   1_000_000,
	}
	equity := adj.BridgeToEquity(Millions(10_000))
	if equity.Amount != 10_000-2_000+500 {
		t.Errorf("equity = %v, want 8500", equity.Amount)
	}
	if equity.Scale != ScaleMillions {
		t.Errorf("bridge changed scale to %d", equity.Scale)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods() {
		parsed, err := ParseMethod(string(m))
		if err != nil || parsed != m {
			t.Errorf("ParseMethod(%s) = %v, %v", m, parsed, err)
		}
	}
	if _, err := ParseMethod("monte_carlo"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ParseMethod(unknown) error = %v, want ErrInvalidParameter", err)
	}
}
