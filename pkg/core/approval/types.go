// Package approval separates AI-proposed judgments from accountant
// sign-off: each engine judgment point carries ranked scenarios, and the
// run cannot produce a draft report until an accountant has resolved every
// point. Points are never deleted; the full decision history is the audit
// trail.
package approval

// Status is an approval point's decision state. Once a point leaves
// pending it is terminal; revisiting a decision goes through Reopen, which
// issues a fresh point.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusCustom   Status = "custom"
)

// Terminal reports whether the status admits no further decision.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Resolved reports whether the point carries a usable value.
func (s Status) Resolved() bool {
	return s == StatusApproved || s == StatusCustom
}

// Scenario is one AI-proposed option on a judgment point.
type Scenario struct {
	Label         string `json:"label"` // 낙관적, 중립적, 보수적, ...
	Value         any    `json:"value"`
	Description   string `json:"description"`
	IsRecommended bool   `json:"is_recommended"`
}

// Point is one judgment requiring accountant sign-off.
type Point struct {
	ID         string         `json:"id"`       // e.g. "DCF_WACC"
	Category   string         `json:"category"` // DCF, 상대가치평가, 자산가치평가, 통합
	Name       string         `json:"name"`
	Importance int            `json:"importance"` // 1~3
	Question   string         `json:"question"`
	Scenarios  []Scenario     `json:"scenarios"`
	Context    map[string]any `json:"context,omitempty"`

	Status         Status `json:"status"`
	ApprovedValue  any    `json:"approved_value,omitempty"`
	DecisionReason string `json:"decision_reason,omitempty"`

	// Revision and Supersedes track reopened decisions. The first issue of
	// a point is revision 1 with an empty Supersedes.
	Revision   int    `json:"revision"`
	Supersedes string `json:"supersedes,omitempty"`
}
