package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"valuation_platform/pkg/core/llm"
	"valuation_platform/pkg/core/utils"
)

// RationaleDrafter asks an LLM to expand each scenario's one-line
// description into a short Korean rationale an accountant can review.
// Enrichment only: scenario values and recommendations are never touched,
// and any provider or parse failure falls back to the original
// descriptions.
type RationaleDrafter struct {
	provider llm.Provider
}

func NewRationaleDrafter(provider llm.Provider) *RationaleDrafter {
	return &RationaleDrafter{provider: provider}
}

const rationaleSystemPrompt = `당신은 기업가치평가 법인의 시니어 회계사입니다.
각 시나리오에 대해 회계사가 검토할 수 있는 2~3문장의 한국어 근거를 작성하세요.
반드시 JSON 객체 {"rationales": [{"label": ..., "description": ...}]} 형식으로만 답하세요.`

type draftedRationales struct {
	Rationales []struct {
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"rationales"`
}

// EnrichScenarios returns the point's scenarios with drafted descriptions.
// The returned slice is always usable; on failure it is a copy of the
// originals.
func (d *RationaleDrafter) EnrichScenarios(ctx context.Context, point Point) []Scenario {
	scenarios := make([]Scenario, len(point.Scenarios))
	copy(scenarios, point.Scenarios)
	if d.provider == nil || len(scenarios) == 0 {
		return scenarios
	}

	prompt, err := d.buildPrompt(point)
	if err != nil {
		return scenarios
	}
	raw, err := d.provider.GenerateResponse(ctx, prompt, rationaleSystemPrompt, map[string]any{
		"response_format": map[string]any{"type": "json_object"},
	})
	if err != nil {
		zap.L().Warn("시나리오 근거 생성 실패",
			zap.String("point_id", point.ID),
			zap.Error(err))
		return scenarios
	}

	var drafted draftedRationales
	if _, err := utils.SmartParse(raw, &drafted); err != nil {
		zap.L().Warn("시나리오 근거 파싱 실패",
			zap.String("point_id", point.ID),
			zap.Error(err))
		return scenarios
	}

	byLabel := make(map[string]string, len(drafted.Rationales))
	for _, r := range drafted.Rationales {
		if strings.TrimSpace(r.Description) != "" {
			byLabel[r.Label] = strings.TrimSpace(r.Description)
		}
	}
	for i := range scenarios {
		if description, ok := byLabel[scenarios[i].Label]; ok {
			scenarios[i].Description = description
		}
	}
	return scenarios
}

func (d *RationaleDrafter) buildPrompt(point Point) (string, error) {
	summary := struct {
		Name      string         `json:"name"`
		Question  string         `json:"question"`
		Scenarios []Scenario     `json:"scenarios"`
		Context   map[string]any `json:"context,omitempty"`
	}{point.Name, point.Question, point.Scenarios, point.Context}

	encoded, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("다음 판단 포인트의 시나리오별 근거를 작성하세요:\n%s", encoded), nil
}
