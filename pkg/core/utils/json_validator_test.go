package utils

import "testing"

type rationalePayload struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

func TestSmartParseStrictJSON(t *testing.T) {
	var out rationalePayload
	if _, err := SmartParse(`{"label": "낙관적", "description": "사업계획 기준"}`, &out); err != nil {
		t.Fatalf("SmartParse() failed: %v", err)
	}
	if out.Label != "낙관적" {
		t.Errorf("label = %q", out.Label)
	}
}

func TestSmartParseRepairsModelOutput(t *testing.T) {
	cases := []string{
		"```json\n{\"label\": \"중립적\", \"description\": \"업계 평균 반영\"}\n```",
		`{'label': '중립적', 'description': '업계 평균 반영',}`,
		`{label: 중립적, description: 업계 평균 반영}`, // hjson form
	}
	for _, input := range cases {
		var out rationalePayload
		if _, err := SmartParse(input, &out); err != nil {
			t.Errorf("SmartParse(%q) failed: %v", input, err)
			continue
		}
		if out.Label != "중립적" {
			t.Errorf("SmartParse(%q) label = %q", input, out.Label)
		}
	}
}

func TestSmartParseRejectsGarbage(t *testing.T) {
	var out rationalePayload
	if _, err := SmartParse("죄송하지만 답변할 수 없습니다", &out); err == nil {
		t.Error("SmartParse() accepted non-JSON prose")
	}
}

func TestCleanMarkdown(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```markdown\n# 보고서\n```", "# 보고서"},
		{"```\n# 보고서\n```", "# 보고서"},
		{"  # 보고서  ", "# 보고서"},
	}
	for _, c := range cases {
		if got := CleanMarkdown(c.in); got != c.want {
			t.Errorf("CleanMarkdown(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidateMarkdown(t *testing.T) {
	if !ValidateMarkdown("# 평가 보고서\n\n| 방법 | 주당가치 |\n|---|---|\n| DCF | 73,500 |") {
		t.Error("valid markdown rejected")
	}
	if ValidateMarkdown("") {
		t.Error("empty document accepted")
	}
}
