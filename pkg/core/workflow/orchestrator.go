package workflow

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuation_platform/pkg/core/asset"
	"valuation_platform/pkg/core/dcf"
	"valuation_platform/pkg/core/intrinsic"
	"valuation_platform/pkg/core/relative"
	"valuation_platform/pkg/core/store"
	"valuation_platform/pkg/core/taxlaw"
	"valuation_platform/pkg/core/valuation"
)

// EvaluationInput aggregates the per-method engine inputs for one run. Only
// the fields for the requested methods need to be set; a requested method
// whose input is absent fails that method with ErrMissingField.
type EvaluationInput struct {
	DCF            *dcf.Input
	Relative       *relative.Input
	Intrinsic      *intrinsic.Input
	Asset          *asset.Input
	InheritanceTax *taxlaw.Input
}

// EngineFunc adapts one engine to the orchestrator's dispatch signature.
type EngineFunc func(projectID string, in EvaluationInput) (*valuation.Result, error)

// DefaultRegistry wires the five engines. The mapping is fixed at compile
// time; an unknown method is a caller error, not a lookup miss at runtime.
func DefaultRegistry() map[valuation.Method]EngineFunc {
	dcfEngine := dcf.NewEngine()
	relativeEngine := relative.NewEngine()
	intrinsicEngine := intrinsic.NewEngine()
	assetEngine := asset.NewEngine()
	taxEngine := taxlaw.NewEngine()

	return map[valuation.Method]EngineFunc{
		valuation.MethodDCF: func(projectID string, in EvaluationInput) (*valuation.Result, error) {
			if in.DCF == nil {
				return nil, eris.Wrap(valuation.ErrMissingField, "dcf input not provided")
			}
			return dcfEngine.RunValuation(projectID, *in.DCF)
		},
		valuation.MethodRelative: func(projectID string, in EvaluationInput) (*valuation.Result, error) {
			if in.Relative == nil {
				return nil, eris.Wrap(valuation.ErrMissingField, "relative input not provided")
			}
			return relativeEngine.RunValuation(projectID, *in.Relative)
		},
		valuation.MethodIntrinsic: func(projectID string, in EvaluationInput) (*valuation.Result, error) {
			if in.Intrinsic == nil {
				return nil, eris.Wrap(valuation.ErrMissingField, "intrinsic input not provided")
			}
			return intrinsicEngine.RunValuation(projectID, *in.Intrinsic)
		},
		valuation.MethodAsset: func(projectID string, in EvaluationInput) (*valuation.Result, error) {
			if in.Asset == nil {
				return nil, eris.Wrap(valuation.ErrMissingField, "asset input not provided")
			}
			return assetEngine.RunValuation(projectID, *in.Asset)
		},
		valuation.MethodInheritanceTax: func(projectID string, in EvaluationInput) (*valuation.Result, error) {
			if in.InheritanceTax == nil {
				return nil, eris.Wrap(valuation.ErrMissingField, "inheritance tax input not provided")
			}
			return taxEngine.RunValuation(projectID, *in.InheritanceTax)
		},
	}
}

// ApprovalGate is what the orchestrator needs from the approval layer:
// whether every live judgment point has been resolved by the accountant.
// *approval.Manager satisfies it.
type ApprovalGate interface {
	IsAllApproved() bool
}

// DraftRenderer produces the markdown draft from the persisted results.
type DraftRenderer interface {
	RenderDraft(projectID string, results []*valuation.Result) (string, error)
}

// Notifier is the outbound signal that a draft is ready for review.
// Delivery (email, messenger, dashboard) lives outside this module.
type Notifier interface {
	NotifyDraftReady(ctx context.Context, projectID string, markdown string) error
}

// Progress is the persisted lifecycle triple plus its Korean stage label.
type Progress struct {
	ProjectID string `json:"project_id"`
	Status    Status `json:"status"`
	Step      int    `json:"step"`
	Percent   int    `json:"progress"`
	StepName  string `json:"step_name"`
}

// Orchestrator sequences a project through the lifecycle: it runs engines,
// persists one result row per (project, method), and advances the persisted
// (status, step, progress) triple on every explicit caller action. All
// collaborators are injected; there are no package-level clients.
type Orchestrator struct {
	store    store.Store
	registry map[valuation.Method]EngineFunc
	renderer DraftRenderer
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewOrchestrator(st store.Store) *Orchestrator {
	return &Orchestrator{
		store:    st,
		registry: DefaultRegistry(),
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// SetRenderer injects the draft renderer. Required before GenerateDraft.
func (o *Orchestrator) SetRenderer(r DraftRenderer) { o.renderer = r }

// SetNotifier injects the outbound draft notification. Optional.
func (o *Orchestrator) SetNotifier(n Notifier) { o.notifier = n }

// CreateProject registers a new project in its initial lifecycle state and
// returns the persisted record, id assigned by the store.
func (o *Orchestrator) CreateProject(ctx context.Context, companyName string, methods []valuation.Method) (store.Record, error) {
	if companyName == "" {
		return nil, eris.Wrap(valuation.ErrMissingField, "company name required")
	}
	methodTags := make([]string, 0, len(methods))
	for _, m := range methods {
		if _, err := valuation.ParseMethod(string(m)); err != nil {
			return nil, err
		}
		if _, ok := o.registry[m]; !ok {
			return nil, eris.Wrapf(valuation.ErrInvalidParameter, "no engine registered for method %s", m)
		}
		methodTags = append(methodTags, string(m))
	}

	record := store.Record{
		"company_name": companyName,
		"methods":      methodTags,
		"status":       string(StatusRequested),
		"current_step": StatusRequested.Step(),
		"progress":     StatusRequested.Progress(),
		"step_name":    StatusRequested.DisplayName(),
	}
	created, err := o.store.Insert(ctx, store.TableProjects, record)
	if err != nil {
		return nil, err
	}

	zap.L().Info("평가 프로젝트 생성",
		zap.String("project_id", created["id"].(string)),
		zap.String("company", companyName),
		zap.Strings("methods", methodTags))
	return created, nil
}

// gatedTargets are states owned by a checked operation; reaching them
// through the generic Transition would skip that operation's precondition
// (completed results for human_approval, resolved judgment points for
// draft_generated).
var gatedTargets = map[Status]string{
	StatusHumanApproval:  "SubmitForReview",
	StatusDraftGenerated: "GenerateDraft",
}

// Transition moves the project along one lifecycle edge and persists the
// new (status, step, progress) triple. Illegal edges fail with
// ErrInvalidStateTransition naming the state the action requires. States
// with an entry precondition are not reachable here; their owning
// operations carry the check.
func (o *Orchestrator) Transition(ctx context.Context, projectID string, to Status) (store.Record, error) {
	if _, ok := stages[to]; !ok {
		return nil, eris.Wrapf(valuation.ErrInvalidParameter, "unknown target status %q", to)
	}
	if op, gated := gatedTargets[to]; gated {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"%s 상태는 직접 전환할 수 없습니다 (%s를 통해 전환)", to, op)
	}
	current, err := o.currentStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current, to) {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"%s 상태에서 %s(으)로 전환할 수 없습니다 (필요 상태: %s)", current, to, requiredState(to))
	}
	return o.persistStatus(ctx, projectID, to, nil)
}

// RunEvaluation dispatches the project's requested methods through the
// engine registry and persists one result row per (project, method),
// overwriting any earlier row for that pair. An engine rejection is
// recorded as a failed result without touching the other methods' rows.
// The project must be in the evaluating state, and at most one run may be
// in flight per project.
func (o *Orchestrator) RunEvaluation(ctx context.Context, projectID string, methods []valuation.Method, in EvaluationInput) ([]*valuation.Result, error) {
	if len(methods) == 0 {
		return nil, eris.Wrap(valuation.ErrMissingField, "no valuation methods requested")
	}
	current, err := o.currentStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current != StatusEvaluating {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"평가 실행은 %s 상태에서만 가능합니다 (현재: %s)", StatusEvaluating, current)
	}

	if err := o.acquireRun(projectID); err != nil {
		return nil, err
	}
	defer o.releaseRun(projectID)

	results := make([]*valuation.Result, 0, len(methods))
	for _, method := range methods {
		run, ok := o.registry[method]
		if !ok {
			return nil, eris.Wrapf(valuation.ErrInvalidParameter, "no engine registered for method %s", method)
		}

		result, runErr := run(projectID, in)
		if runErr != nil {
			result = valuation.Failed(projectID, method, runErr)
			zap.L().Warn("평가 엔진 실패",
				zap.String("project_id", projectID),
				zap.String("method", string(method)),
				zap.Error(runErr))
		}
		result.ComputedAt = o.now()

		if err := o.upsertResult(ctx, result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	zap.L().Info("평가 실행 완료",
		zap.String("project_id", projectID),
		zap.Int("methods", len(methods)))
	return results, nil
}

// SubmitForReview hands the computed results to the accountant: the
// project enters human_approval. Requires at least one completed result.
func (o *Orchestrator) SubmitForReview(ctx context.Context, projectID string) (store.Record, error) {
	current, err := o.currentStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current != StatusEvaluating {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"검토 제출은 %s 상태에서만 가능합니다 (현재: %s)", StatusEvaluating, current)
	}

	results, err := o.Results(ctx, projectID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, r := range results {
		if r.Status == valuation.ResultCompleted {
			completed++
		}
	}
	if completed == 0 {
		return nil, eris.Wrap(valuation.ErrInvalidStateTransition,
			"완료된 평가 결과가 없어 검토를 제출할 수 없습니다")
	}
	return o.persistStatus(ctx, projectID, StatusHumanApproval, nil)
}

// GenerateDraft renders the markdown draft, persists it, signals the
// notifier, and moves the project to draft_generated. Allowed from
// human_approval (first draft) and revision_requested (the revision loop);
// from human_approval every live judgment point must be resolved first.
func (o *Orchestrator) GenerateDraft(ctx context.Context, projectID string, gate ApprovalGate) (store.Record, error) {
	current, err := o.currentStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current != StatusHumanApproval && current != StatusRevisionRequested {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"초안 생성은 %s 또는 %s 상태에서만 가능합니다 (현재: %s)",
			StatusHumanApproval, StatusRevisionRequested, current)
	}
	if gate != nil && !gate.IsAllApproved() {
		return nil, eris.Wrap(valuation.ErrInvalidStateTransition,
			"미승인 판단 포인트가 남아 있어 초안을 생성할 수 없습니다")
	}
	if o.renderer == nil {
		return nil, eris.New("workflow: draft renderer not configured")
	}

	results, err := o.Results(ctx, projectID)
	if err != nil {
		return nil, err
	}
	markdown, err := o.renderer.RenderDraft(projectID, results)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: render draft")
	}

	report, err := o.store.Insert(ctx, store.TableReports, store.Record{
		"project_id":   projectID,
		"kind":         "draft",
		"markdown":     markdown,
		"generated_at": o.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	if o.notifier != nil {
		if err := o.notifier.NotifyDraftReady(ctx, projectID, markdown); err != nil {
			zap.L().Warn("초안 알림 전송 실패",
				zap.String("project_id", projectID),
				zap.Error(err))
		}
	}

	if _, err := o.persistStatus(ctx, projectID, StatusDraftGenerated, nil); err != nil {
		return nil, err
	}
	zap.L().Info("초안 보고서 생성",
		zap.String("project_id", projectID),
		zap.String("report_id", report["id"].(string)))
	return report, nil
}

// RequestRevision records the client's revision request against the draft.
func (o *Orchestrator) RequestRevision(ctx context.Context, projectID string, reason string) (store.Record, error) {
	current, err := o.currentStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current != StatusDraftGenerated {
		return nil, eris.Wrapf(valuation.ErrInvalidStateTransition,
			"수정 요청은 %s 상태에서만 가능합니다 (현재: %s)", StatusDraftGenerated, current)
	}
	return o.persistStatus(ctx, projectID, StatusRevisionRequested, store.Record{"revision_reason": reason})
}

// Complete finalizes the project once the client accepts the draft.
func (o *Orchestrator) Complete(ctx context.Context, projectID string) (store.Record, error) {
	return o.Transition(ctx, projectID, StatusCompleted)
}

// Progress reports the persisted lifecycle triple for the project.
func (o *Orchestrator) Progress(ctx context.Context, projectID string) (Progress, error) {
	project, err := o.project(ctx, projectID)
	if err != nil {
		return Progress{}, err
	}
	status, err := ParseStatus(project["status"].(string))
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		ProjectID: projectID,
		Status:    status,
		Step:      status.Step(),
		Percent:   status.Progress(),
		StepName:  status.DisplayName(),
	}, nil
}

// Results loads every persisted result for the project, one per method.
func (o *Orchestrator) Results(ctx context.Context, projectID string) ([]*valuation.Result, error) {
	records, err := o.store.Select(ctx, store.TableValuationResults, store.Filters{"project_id": projectID})
	if err != nil {
		return nil, err
	}
	results := make([]*valuation.Result, 0, len(records))
	for _, record := range records {
		result, err := decodeResult(record)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (o *Orchestrator) acquireRun(projectID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[projectID]; busy {
		return eris.Wrapf(valuation.ErrConcurrentRunRejected, "project %s", projectID)
	}
	o.inFlight[projectID] = struct{}{}
	return nil
}

func (o *Orchestrator) releaseRun(projectID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, projectID)
}

func (o *Orchestrator) project(ctx context.Context, projectID string) (store.Record, error) {
	records, err := o.store.Select(ctx, store.TableProjects, store.Filters{"id": projectID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(store.ErrNotFound, "project %s", projectID)
	}
	return records[0], nil
}

func (o *Orchestrator) currentStatus(ctx context.Context, projectID string) (Status, error) {
	project, err := o.project(ctx, projectID)
	if err != nil {
		return "", err
	}
	raw, _ := project["status"].(string)
	return ParseStatus(raw)
}

// persistStatus writes the (status, step, progress) triple in one patch so
// the three never drift apart.
func (o *Orchestrator) persistStatus(ctx context.Context, projectID string, to Status, extra store.Record) (store.Record, error) {
	patch := store.Record{
		"status":       string(to),
		"current_step": to.Step(),
		"progress":     to.Progress(),
		"step_name":    to.DisplayName(),
	}
	for k, v := range extra {
		patch[k] = v
	}
	updated, err := o.store.Update(ctx, store.TableProjects, projectID, patch)
	if err != nil {
		return nil, err
	}
	zap.L().Info("프로젝트 상태 전환",
		zap.String("project_id", projectID),
		zap.String("status", string(to)),
		zap.Int("step", to.Step()),
		zap.Int("progress", to.Progress()))
	return updated, nil
}

// upsertResult keeps exactly one row per (project, method): recomputation
// overwrites, never merges.
func (o *Orchestrator) upsertResult(ctx context.Context, result *valuation.Result) error {
	record, err := resultRecord(result)
	if err != nil {
		return err
	}
	existing, err := o.store.Select(ctx, store.TableValuationResults, store.Filters{
		"project_id": result.ProjectID,
		"method":     string(result.Method),
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		id, _ := existing[0]["id"].(string)
		_, err = o.store.Update(ctx, store.TableValuationResults, id, record)
		return err
	}
	_, err = o.store.Insert(ctx, store.TableValuationResults, record)
	return err
}

// resultRecord flattens the envelope to the store's map form through JSON,
// matching what a round-trip through the JSONB tables produces.
func resultRecord(result *valuation.Result) (store.Record, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: encode result")
	}
	var record store.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, eris.Wrap(err, "workflow: encode result")
	}
	return record, nil
}

func decodeResult(record store.Record) (*valuation.Result, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: decode result")
	}
	var result valuation.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrap(err, "workflow: decode result")
	}
	return &result, nil
}
