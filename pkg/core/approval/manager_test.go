package approval

import (
	"errors"
	"testing"

	"valuation_platform/pkg/core/valuation"
)

func managerWithWACCPoint(t *testing.T) *Manager {
	t.Helper()
	m := NewManager("proj-1")
	if _, err := m.RequestWACCApproval(0.0886, 1.15, 0.035, 0.055); err != nil {
		t.Fatalf("RequestWACCApproval() failed: %v", err)
	}
	return m
}

func TestApproveScenario(t *testing.T) {
	m := managerWithWACCPoint(t)
	if err := m.Approve("DCF_WACC", 1, "비상장 위험 프리미엄 반영"); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	p, _ := m.Point("DCF_WACC")
	if p.Status != StatusApproved {
		t.Errorf("status = %s, want approved", p.Status)
	}
	if got := p.ApprovedValue.(float64); got != 0.0886+0.01 {
		t.Errorf("approved value = %v, want neutral scenario value", got)
	}
	if p.DecisionReason == "" {
		t.Error("decision reason not recorded")
	}
}

func TestApproveOutOfRangeScenario(t *testing.T) {
	m := managerWithWACCPoint(t)
	err := m.Approve("DCF_WACC", 5, "")
	if !errors.Is(err, valuation.ErrInvalidSelection) {
		t.Fatalf("Approve(index 5 of 3) error = %v, want ErrInvalidSelection", err)
	}
	p, _ := m.Point("DCF_WACC")
	if p.Status != StatusPending {
		t.Errorf("failed approval mutated status to %s", p.Status)
	}
}

func TestApproveUnknownPoint(t *testing.T) {
	m := NewManager("proj-1")
	if err := m.Approve("NO_SUCH_POINT", 0, ""); !errors.Is(err, valuation.ErrInvalidParameter) {
		t.Errorf("Approve() error = %v, want ErrInvalidParameter", err)
	}
}

func TestApproveCustom(t *testing.T) {
	m := managerWithWACCPoint(t)
	if err := m.ApproveCustom("DCF_WACC", 0.105, "비상장 위험 고려하여 10.5% 적용"); err != nil {
		t.Fatalf("ApproveCustom() failed: %v", err)
	}
	p, _ := m.Point("DCF_WACC")
	if p.Status != StatusCustom {
		t.Errorf("status = %s, want custom", p.Status)
	}
	if p.ApprovedValue.(float64) != 0.105 {
		t.Errorf("approved value = %v, want 0.105", p.ApprovedValue)
	}

	if err := m.ApproveCustom("DCF_WACC", 0.11, ""); !errors.Is(err, valuation.ErrInvalidStateTransition) {
		t.Errorf("second decision error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestDecisionsAreTerminal(t *testing.T) {
	m := managerWithWACCPoint(t)
	if err := m.Approve("DCF_WACC", 0, ""); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if err := m.Approve("DCF_WACC", 1, ""); !errors.Is(err, valuation.ErrInvalidStateTransition) {
		t.Errorf("re-approve error = %v, want ErrInvalidStateTransition", err)
	}
	if err := m.Reject("DCF_WACC", ""); !errors.Is(err, valuation.ErrInvalidStateTransition) {
		t.Errorf("reject-after-approve error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestRejectBlocksCompletion(t *testing.T) {
	m := managerWithWACCPoint(t)
	if err := m.Reject("DCF_WACC", "재계산 필요"); err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if m.IsAllApproved() {
		t.Error("rejected point did not block completion")
	}
}

func TestReopenIssuesNewRevision(t *testing.T) {
	m := managerWithWACCPoint(t)
	if err := m.Approve("DCF_WACC", 0, ""); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	successor, err := m.Reopen("DCF_WACC")
	if err != nil {
		t.Fatalf("Reopen() failed: %v", err)
	}
	if successor.ID != "DCF_WACC#2" || successor.Revision != 2 || successor.Supersedes != "DCF_WACC" {
		t.Errorf("successor = %+v, want revision 2 superseding DCF_WACC", successor)
	}
	if successor.Status != StatusPending {
		t.Errorf("successor status = %s, want pending", successor.Status)
	}

	// The original decision survives in the audit trail.
	original, _ := m.Point("DCF_WACC")
	if original.Status != StatusApproved {
		t.Errorf("original status mutated to %s", original.Status)
	}

	// A superseded decision no longer counts; the successor gates.
	if m.IsAllApproved() {
		t.Error("pending successor did not block completion")
	}
	if err := m.Approve("DCF_WACC#2", 2, "보수적으로 재결정"); err != nil {
		t.Fatalf("Approve(successor) failed: %v", err)
	}
	if !m.IsAllApproved() {
		t.Error("resolved successor should complete the gate")
	}
}

func TestReopenPendingFails(t *testing.T) {
	m := managerWithWACCPoint(t)
	if _, err := m.Reopen("DCF_WACC"); !errors.Is(err, valuation.ErrInvalidStateTransition) {
		t.Errorf("Reopen(pending) error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestIsAllApproved(t *testing.T) {
	m := NewManager("proj-1")
	if !m.IsAllApproved() {
		t.Error("empty manager should report all approved")
	}

	if _, err := m.RequestWACCApproval(0.09, 1.1, 0.03, 0.06); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RequestMarketabilityDiscountApproval(false); err != nil {
		t.Fatal(err)
	}
	if m.IsAllApproved() {
		t.Error("pending points should block")
	}

	if err := m.Approve("DCF_WACC", 1, ""); err != nil {
		t.Fatal(err)
	}
	if m.IsAllApproved() {
		t.Error("one pending point must still block")
	}

	if err := m.ApproveCustom("REL_MARKETABILITY_DISCOUNT", 0.25, "중간값 적용"); err != nil {
		t.Fatal(err)
	}
	if !m.IsAllApproved() {
		t.Error("approved + custom should pass the gate")
	}
}

func TestDuplicateRegistration(t *testing.T) {
	m := managerWithWACCPoint(t)
	if _, err := m.RequestWACCApproval(0.09, 1.1, 0.03, 0.06); !errors.Is(err, valuation.ErrInvalidParameter) {
		t.Errorf("duplicate registration error = %v, want ErrInvalidParameter", err)
	}
}

func TestRequestShareholderTypeApproval(t *testing.T) {
	m := NewManager("proj-1")
	controlling, err := m.RequestShareholderTypeApproval(0.60)
	if err != nil {
		t.Fatalf("RequestShareholderTypeApproval() failed: %v", err)
	}
	if !controlling.Scenarios[0].IsRecommended || controlling.Scenarios[0].Value.(float64) != 0.20 {
		t.Errorf("controlling band should recommend the 20%% premium, got %+v", controlling.Scenarios[0])
	}

	m2 := NewManager("proj-2")
	minority, err := m2.RequestShareholderTypeApproval(0.05)
	if err != nil {
		t.Fatalf("RequestShareholderTypeApproval() failed: %v", err)
	}
	if minority.Scenarios[0].Value.(float64) != -0.30 {
		t.Errorf("minority band should recommend the 30%% discount, got %+v", minority.Scenarios[0])
	}
}

func TestRequestGeneratorsShape(t *testing.T) {
	m := NewManager("proj-1")

	growth, err := m.RequestGrowthRateApproval(
		map[string]float64{"2024": 0.40, "2025": 0.35, "2026": 0.30},
		0.45, 0.10)
	if err != nil {
		t.Fatalf("growth request failed: %v", err)
	}
	if len(growth.Scenarios) != 3 {
		t.Errorf("growth scenarios = %d, want 3", len(growth.Scenarios))
	}
	neutral := growth.Scenarios[1]
	if !neutral.IsRecommended {
		t.Error("neutral growth scenario should be recommended")
	}
	blended := neutral.Value.(map[string]float64)
	if blended["2024"] != (0.40+0.10)/2 {
		t.Errorf("blended 2024 growth = %v, want midpoint 0.25", blended["2024"])
	}

	lb, err := m.RequestLandBuildingFVApproval(10_000, 15_000, nil)
	if err != nil {
		t.Fatalf("land/building request failed: %v", err)
	}
	if len(lb.Scenarios) != 2 {
		t.Errorf("without appraisal want 2 scenarios, got %d", len(lb.Scenarios))
	}
	if lb.Scenarios[0].Value.(float64) != 10_000*1.5+15_000*0.9 {
		t.Errorf("AI estimate = %v", lb.Scenarios[0].Value)
	}

	appraisal := 28_000.0
	m2 := NewManager("proj-2")
	lb2, err := m2.RequestLandBuildingFVApproval(10_000, 15_000, &appraisal)
	if err != nil {
		t.Fatalf("land/building request failed: %v", err)
	}
	if len(lb2.Scenarios) != 1 || lb2.Scenarios[0].Value.(float64) != 28_000 {
		t.Errorf("with appraisal want single 28000 scenario, got %+v", lb2.Scenarios)
	}

	rng, err := m.RequestFinalValueRangeApproval(map[string]float64{
		"dcf": 73_500, "relative": 69_000, "nav": 74_200, "intrinsic": 73_800, "inheritance_tax": 73_000,
	})
	if err != nil {
		t.Fatalf("value range request failed: %v", err)
	}
	full := rng.Scenarios[0].Value.([2]float64)
	if full[0] != 69_000 || full[1] != 74_200 {
		t.Errorf("full range = %v, want [69000 74200]", full)
	}
}
