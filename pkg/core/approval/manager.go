package approval

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/valuation"
)

// Manager owns one project's approval points. Engines register points
// during a run; only accountant actions mutate them afterwards.
type Manager struct {
	projectID string

	mu     sync.Mutex
	points map[string]*Point
	order  []string
}

func NewManager(projectID string) *Manager {
	return &Manager{
		projectID: projectID,
		points:    make(map[string]*Point),
	}
}

// register stores a freshly issued point. Registering an ID that already
// exists is a programming error in the calling engine.
func (m *Manager) register(p *Point) (*Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.points[p.ID]; exists {
		return nil, eris.Wrapf(valuation.ErrInvalidParameter, "approval point %s already registered", p.ID)
	}
	if p.Revision == 0 {
		p.Revision = 1
	}
	p.Status = StatusPending
	m.points[p.ID] = p
	m.order = append(m.order, p.ID)

	zap.L().Info("승인 포인트 등록",
		zap.String("project_id", m.projectID),
		zap.String("point_id", p.ID),
		zap.String("category", p.Category))
	return p, nil
}

func (m *Manager) pendingPoint(pointID string) (*Point, error) {
	p, ok := m.points[pointID]
	if !ok {
		return nil, eris.Wrapf(valuation.ErrInvalidParameter, "approval point %s not found", pointID)
	}
	if p.Status.Terminal() {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"approval point %s already decided (%s); reopen it to revisit", pointID, p.Status)
	}
	return p, nil
}

// Approve records the accountant's selection of one proposed scenario.
func (m *Manager) Approve(pointID string, selectedScenario int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.pendingPoint(pointID)
	if err != nil {
		return err
	}
	if selectedScenario < 0 || selectedScenario >= len(p.Scenarios) {
		return eris.Wrapf(valuation.ErrInvalidSelection,
			"scenario index %d out of range for point %s (%d scenarios)",
			selectedScenario, pointID, len(p.Scenarios))
	}

	p.Status = StatusApproved
	p.ApprovedValue = p.Scenarios[selectedScenario].Value
	p.DecisionReason = reason

	zap.L().Info("승인 완료",
		zap.String("project_id", m.projectID),
		zap.String("point_id", pointID),
		zap.Int("scenario", selectedScenario))
	return nil
}

// ApproveCustom records a value the accountant entered directly instead of
// picking a scenario.
func (m *Manager) ApproveCustom(pointID string, value any, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.pendingPoint(pointID)
	if err != nil {
		return err
	}
	if value == nil {
		return eris.Wrapf(valuation.ErrInvalidSelection, "custom value for point %s must not be nil", pointID)
	}

	p.Status = StatusCustom
	p.ApprovedValue = value
	p.DecisionReason = reason

	zap.L().Info("직접입력 승인",
		zap.String("project_id", m.projectID),
		zap.String("point_id", pointID))
	return nil
}

// Reject records that the accountant wants the engine to recompute. A
// rejected point stays in the audit trail and blocks draft generation
// until a reopened successor is resolved.
func (m *Manager) Reject(pointID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.pendingPoint(pointID)
	if err != nil {
		return err
	}
	p.Status = StatusRejected
	p.DecisionReason = reason

	zap.L().Info("승인 거부",
		zap.String("project_id", m.projectID),
		zap.String("point_id", pointID),
		zap.String("reason", reason))
	return nil
}

// Reopen issues a fresh pending revision of a decided point. The original
// keeps its decision; the successor gets the same scenarios and context
// and a revision-suffixed ID.
func (m *Manager) Reopen(pointID string) (*Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.points[pointID]
	if !ok {
		return nil, eris.Wrapf(valuation.ErrInvalidParameter, "approval point %s not found", pointID)
	}
	if !p.Status.Terminal() {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"approval point %s is still pending; nothing to reopen", pointID)
	}

	successor := &Point{
		ID:         fmt.Sprintf("%s#%d", baseID(p), p.Revision+1),
		Category:   p.Category,
		Name:       p.Name,
		Importance: p.Importance,
		Question:   p.Question,
		Scenarios:  append([]Scenario(nil), p.Scenarios...),
		Context:    p.Context,
		Status:     StatusPending,
		Revision:   p.Revision + 1,
		Supersedes: p.ID,
	}
	m.points[successor.ID] = successor
	m.order = append(m.order, successor.ID)

	zap.L().Info("승인 포인트 재오픈",
		zap.String("project_id", m.projectID),
		zap.String("point_id", pointID),
		zap.String("successor", successor.ID))
	return successor, nil
}

func baseID(p *Point) string {
	if p.Supersedes == "" {
		return p.ID
	}
	// Strip the revision suffix this chain already carries.
	return p.ID[:len(p.ID)-len(fmt.Sprintf("#%d", p.Revision))]
}

// Point returns a copy of one point.
func (m *Manager) Point(pointID string) (Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[pointID]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// Pending returns the unresolved points in registration order.
func (m *Manager) Pending() []Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []Point
	for _, id := range m.order {
		if p := m.points[id]; p.Status == StatusPending {
			pending = append(pending, *p)
		}
	}
	return pending
}

// All returns every point in registration order, decided or not.
func (m *Manager) All() []Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]Point, 0, len(m.order))
	for _, id := range m.order {
		all = append(all, *m.points[id])
	}
	return all
}

// IsAllApproved gates draft generation: every point superseded by a newer
// revision is excluded, and every live point must be approved or custom.
// A single pending or rejected live point blocks.
func (m *Manager) IsAllApproved() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	superseded := make(map[string]bool)
	for _, p := range m.points {
		if p.Supersedes != "" {
			superseded[p.Supersedes] = true
		}
	}
	for _, p := range m.points {
		if superseded[p.ID] {
			continue
		}
		if !p.Status.Resolved() {
			return false
		}
	}
	return true
}
