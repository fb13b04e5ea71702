package report

import (
	"errors"
	"strings"
	"testing"

	"valuation_platform/pkg/core/intrinsic"
	"valuation_platform/pkg/core/valuation"
)

func sampleResults(t *testing.T) []*valuation.Result {
	t.Helper()
	ok, err := intrinsic.NewEngine().RunValuation("proj-1", intrinsic.Input{
		AssetValue:        74_221,
		IncomeValue:       73_545,
		SharesOutstanding: 1_000_000,
		Purpose:           "합병",
		IncomeMethod:      "DCF",
	})
	if err != nil {
		t.Fatalf("fixture valuation failed: %v", err)
	}
	failed := valuation.Failed("proj-1", valuation.MethodDCF, errors.New("missing historical financials"))
	return []*valuation.Result{ok, failed}
}

func TestRenderDraft(t *testing.T) {
	markdown, err := NewGenerator().RenderDraft("proj-1", sampleResults(t))
	if err != nil {
		t.Fatalf("RenderDraft() failed: %v", err)
	}

	for _, want := range []string{
		"# 기업가치평가 보고서 (초안)",
		"자본시장법 본질가치",
		"현금흐름할인법 (DCF)",
		"평가 실패: missing historical financials",
		intrinsic.LegalBasis,
		"주당가치 범위",
	} {
		if !strings.Contains(markdown, want) {
			t.Errorf("draft missing %q", want)
		}
	}
}

func TestRenderDraftEmpty(t *testing.T) {
	if _, err := NewGenerator().RenderDraft("proj-1", nil); !errors.Is(err, valuation.ErrMissingField) {
		t.Errorf("RenderDraft(no results) error = %v, want ErrMissingField", err)
	}
}

func TestRenderDraftRangeCoversCompletedOnly(t *testing.T) {
	markdown, err := NewGenerator().RenderDraft("proj-1", sampleResults(t))
	if err != nil {
		t.Fatalf("RenderDraft() failed: %v", err)
	}
	// One completed method: range degenerates to a single value, repeated.
	per := (74_221*1.0 + 73_545*1.5) / 2.5 // millions
	perShare := per * 1_000_000 / 1_000_000
	want := formatNumber(perShare)
	if !strings.Contains(markdown, want+"원 ~ "+want+"원") {
		t.Errorf("range line missing, want %q twice", want)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{73_500, "73,500"},
		{1_234_567.89, "1,234,567.89"},
		{-20, "-20"},
		{980.5, "980.5"},
		{0, "0"},
	}
	for _, c := range cases {
		if got := formatNumber(c.in); got != c.want {
			t.Errorf("formatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
