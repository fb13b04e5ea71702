// Package report renders the valuation draft handed to the notification
// collaborator: a markdown summary of every method's result with the
// statutory citations and formulas carried on the breakdowns. Layout and
// delivery (PDF, email) live outside this module.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/utils"
	"valuation_platform/pkg/core/valuation"
)

// Generator builds the markdown draft from persisted results.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// RenderDraft produces the draft document. Failed methods are listed with
// their error so the accountant sees what did not compute; the value range
// covers completed methods only.
func (g *Generator) RenderDraft(projectID string, results []*valuation.Result) (string, error) {
	if len(results) == 0 {
		return "", eris.Wrap(valuation.ErrMissingField, "no valuation results to report")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 기업가치평가 보고서 (초안)\n\n")
	fmt.Fprintf(&b, "프로젝트: %s\n\n", projectID)

	b.WriteString("## 평가 결과 요약\n\n")
	b.WriteString("| 평가 방법 | 상태 | 주당가치 (원) | 주주가치 (백만원) |\n")
	b.WriteString("|---|---|---:|---:|\n")

	var low, high float64
	completed := 0
	for _, r := range results {
		if r.Status != valuation.ResultCompleted {
			fmt.Fprintf(&b, "| %s | 실패 | - | - |\n", r.Method.DisplayName())
			continue
		}
		fmt.Fprintf(&b, "| %s | 완료 | %s | %s |\n",
			r.Method.DisplayName(), formatNumber(r.ValuePerShare), formatNumber(r.EquityValue.Amount))
		if completed == 0 || r.ValuePerShare < low {
			low = r.ValuePerShare
		}
		if completed == 0 || r.ValuePerShare > high {
			high = r.ValuePerShare
		}
		completed++
	}

	if completed > 0 {
		fmt.Fprintf(&b, "\n**주당가치 범위**: %s원 ~ %s원\n", formatNumber(low), formatNumber(high))
	}

	for _, r := range results {
		fmt.Fprintf(&b, "\n## %s\n\n", r.Method.DisplayName())
		if r.Status != valuation.ResultCompleted {
			fmt.Fprintf(&b, "평가 실패: %s\n", r.Error)
			continue
		}
		fmt.Fprintf(&b, "- 주당가치: %s원\n", formatNumber(r.ValuePerShare))
		fmt.Fprintf(&b, "- 주주가치: %s백만원\n", formatNumber(r.EquityValue.Amount))
		fmt.Fprintf(&b, "- 기업가치: %s백만원\n", formatNumber(r.EnterpriseValue.Amount))
		writeBreakdownNotes(&b, r.Breakdown)
	}

	markdown := utils.CleanMarkdown(b.String())
	if !utils.ValidateMarkdown(markdown) {
		return "", eris.New("report: rendered draft is not valid markdown")
	}
	return markdown, nil
}

// writeBreakdownNotes surfaces the statutory citation and formula when the
// method's breakdown carries them. Breakdowns arrive either as typed
// structs (fresh run) or maps (store round-trip), so they are normalized
// through JSON first.
func writeBreakdownNotes(b *strings.Builder, breakdown any) {
	if breakdown == nil {
		return
	}
	encoded, err := json.Marshal(breakdown)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return
	}
	if basis, ok := fields["legal_basis"].(string); ok && basis != "" {
		fmt.Fprintf(b, "- 법적 근거: %s\n", basis)
	}
	if formula, ok := fields["formula"].(string); ok && formula != "" {
		fmt.Fprintf(b, "- 산식: %s\n", formula)
	}
}

// formatNumber renders a monetary figure with thousands separators and at
// most two decimals, the way the report template prints values.
func formatNumber(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	parts := strings.SplitN(s, ".", 2)

	digits := parts[0]
	var grouped []string
	for len(digits) > 3 {
		grouped = append([]string{digits[len(digits)-3:]}, grouped...)
		digits = digits[:len(digits)-3]
	}
	grouped = append([]string{digits}, grouped...)

	out := strings.Join(grouped, ",")
	if len(parts) == 2 {
		out += "." + parts[1]
	}
	if neg {
		out = "-" + out
	}
	return out
}

// LogNotifier is the default notification collaborator: it records that a
// draft is ready. Real delivery channels implement workflow.Notifier
// outside this module.
type LogNotifier struct{}

func (LogNotifier) NotifyDraftReady(_ context.Context, projectID string, markdown string) error {
	zap.L().Info("초안 보고서 준비 완료",
		zap.String("project_id", projectID),
		zap.Int("length", len(markdown)))
	return nil
}
