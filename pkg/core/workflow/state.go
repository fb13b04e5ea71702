// Package workflow drives a valuation project through its lifecycle: an
// explicit, caller-driven state machine plus the orchestrator that runs the
// engines, persists results, and gates report generation on accountant
// approval.
package workflow

import (
	"github.com/rotisserie/eris"

	"valuation_platform/pkg/core/valuation"
)

// Status is one stage of the project lifecycle. Transitions are strictly
// forward-only with no skipping; the single permitted backward edge is
// revision_requested -> draft_generated.
type Status string

const (
	StatusRequested         Status = "requested"
	StatusQuoteSent         Status = "quote_sent"
	StatusNegotiating       Status = "negotiating"
	StatusApproved          Status = "approved"
	StatusDocumentsUploaded Status = "documents_uploaded"
	StatusCollecting        Status = "collecting"
	StatusEvaluating        Status = "evaluating"
	StatusHumanApproval     Status = "human_approval"
	StatusDraftGenerated    Status = "draft_generated"
	StatusRevisionRequested Status = "revision_requested"
	StatusCompleted         Status = "completed"
)

// stage carries what gets persisted alongside the status on every
// transition: the step counter and the progress percentage shown to the
// client.
type stage struct {
	step     int
	progress int
	name     string
}

var stages = map[Status]stage{
	StatusRequested:         {step: 1, progress: 0, name: "평가 신청"},
	StatusQuoteSent:         {step: 2, progress: 0, name: "견적 발송"},
	StatusNegotiating:       {step: 3, progress: 0, name: "조건 협의 중"},
	StatusApproved:          {step: 4, progress: 0, name: "승인 완료"},
	StatusDocumentsUploaded: {step: 5, progress: 10, name: "자료 업로드"},
	StatusCollecting:        {step: 6, progress: 30, name: "데이터 수집"},
	StatusEvaluating:        {step: 7, progress: 50, name: "평가 실행"},
	StatusHumanApproval:     {step: 8, progress: 60, name: "회계사 승인 대기"},
	StatusDraftGenerated:    {step: 9, progress: 70, name: "초안 생성 완료"},
	StatusRevisionRequested: {step: 10, progress: 75, name: "수정 요청"},
	StatusCompleted:         {step: 14, progress: 100, name: "최종 확정"},
}

// transitions is the full forward chain. draft_generated forks into the
// revision loop or completion; revision_requested only returns to
// draft_generated.
var transitions = map[Status][]Status{
	StatusRequested:         {StatusQuoteSent},
	StatusQuoteSent:         {StatusNegotiating},
	StatusNegotiating:       {StatusApproved},
	StatusApproved:          {StatusDocumentsUploaded},
	StatusDocumentsUploaded: {StatusCollecting},
	StatusCollecting:        {StatusEvaluating},
	StatusEvaluating:        {StatusHumanApproval},
	StatusHumanApproval:     {StatusDraftGenerated},
	StatusDraftGenerated:    {StatusRevisionRequested, StatusCompleted},
	StatusRevisionRequested: {StatusDraftGenerated},
	StatusCompleted:         {},
}

// ParseStatus validates a status string coming back from persistence.
func ParseStatus(s string) (Status, error) {
	if _, ok := stages[Status(s)]; !ok {
		return "", eris.Wrapf(valuation.ErrInvalidParameter, "unknown project status %q", s)
	}
	return Status(s), nil
}

// Step is the monotonically non-decreasing step counter for the status
// (the revision loop is the one sanctioned decrease).
func (s Status) Step() int { return stages[s].step }

// Progress is the client-facing completion percentage for the status.
func (s Status) Progress() int { return stages[s].progress }

// DisplayName is the Korean stage label persisted with the status triple.
func (s Status) DisplayName() string { return stages[s].name }

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// requiredState names the status a caller must be in to reach to. Used to
// build actionable transition errors.
func requiredState(to Status) Status {
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to && from != StatusRevisionRequested {
				return from
			}
		}
	}
	return ""
}
