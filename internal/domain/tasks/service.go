// Package tasks owns per-location remediation task lifecycle: assignment,
// attempt bookkeeping with a hard retry budget, completion and post-completion
// verification. The scheduler that consumes next_retry_at is external; this
// package only maintains the fields' invariants.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/audit"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

var (
	ErrNotFound       = errors.New("tasks: task not found")
	ErrTerminal       = errors.New("tasks: task is in a terminal state")
	ErrRetryExhausted = errors.New("tasks: retry attempts exhausted")
	ErrNotCompleted   = errors.New("tasks: task is not completed")
)

// retryBackoff spaces scheduled retries; attempt n waits n times this long.
const retryBackoff = time.Hour

type Service struct {
	client *memdb.Client
	audit  *audit.Service
	store  *memdb.Store
}

func NewService(store *memdb.Store, auditSvc *audit.Service) *Service {
	return &Service{client: memdb.NewClient(store), audit: auditSvc, store: store}
}

// Get fetches one task by identifier.
func (s *Service) Get(ctx context.Context, tenantID, id string) (compliance.ActionTask, error) {
	rec, err := s.fetch(ctx, tenantID, id)
	if err != nil {
		return compliance.ActionTask{}, err
	}
	var out compliance.ActionTask
	if err := compliance.Decode(rec, &out); err != nil {
		return compliance.ActionTask{}, err
	}
	return out, nil
}

func (s *Service) fetch(ctx context.Context, tenantID, id string) (memdb.Record, error) {
	res := s.client.From(memdb.TableTasks).Select().
		Eq("tenant_id", tenantID).
		Eq("id", id).
		Single().
		Execute(ctx)
	if errors.Is(res.Err, memdb.ErrNoRows) {
		return nil, ErrNotFound
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Row, nil
}

type Filter struct {
	RequestID string
	Status    compliance.TaskStatus
	Limit     int
	Offset    int
}

// List returns tasks ordered by assignment time, oldest assignment first,
// with unassigned tasks at the end.
func (s *Service) List(ctx context.Context, tenantID string, filter Filter) ([]compliance.ActionTask, int, error) {
	q := s.client.From(memdb.TableTasks).Select().
		Eq("tenant_id", tenantID).
		WithCount().
		Order("assigned_at", false)
	if filter.RequestID != "" {
		q = q.Eq("request_id", filter.RequestID)
	}
	if filter.Status != "" {
		q = q.Eq("status", string(filter.Status))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	res := q.Execute(ctx)
	if res.Err != nil {
		return nil, 0, res.Err
	}
	out, err := compliance.DecodeAll[compliance.ActionTask](res.Rows)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	if res.Count != nil {
		total = *res.Count
	}
	return out, total, nil
}

// Start assigns a pending task and moves it to in_progress.
func (s *Service) Start(ctx context.Context, tenantID, id, assignee string) (compliance.ActionTask, error) {
	rec, err := s.fetch(ctx, tenantID, id)
	if err != nil {
		return compliance.ActionTask{}, err
	}
	if status := taskStatus(rec); status.Terminal() {
		return compliance.ActionTask{}, ErrTerminal
	}

	now := memdb.FormatTime(s.store.Now())
	return s.patch(ctx, tenantID, id, memdb.Record{
		"status":      string(compliance.TaskInProgress),
		"assigned_to": assignee,
		"assigned_at": now,
		"started_at":  now,
	})
}

// AttemptOutcome describes one execution attempt against the location.
type AttemptOutcome struct {
	Success bool
	Detail  string
	Result  map[string]any
}

// RecordAttempt books one execution attempt. attempt_count only ever grows
// and never exceeds max_attempts: the attempt that consumes the last slot of
// the budget without succeeding moves the task to a terminal state instead of
// scheduling another retry — failed for automated locations, manual_action
// for ones needing a human — and reports ErrRetryExhausted.
func (s *Service) RecordAttempt(ctx context.Context, tenantID, id string, outcome AttemptOutcome) (compliance.ActionTask, error) {
	rec, err := s.fetch(ctx, tenantID, id)
	if err != nil {
		return compliance.ActionTask{}, err
	}
	if status := taskStatus(rec); status.Terminal() {
		return compliance.ActionTask{}, ErrTerminal
	}

	attempts := intField(rec, "attempt_count")
	maxAttempts := intField(rec, "max_attempts")
	if maxAttempts > 0 && attempts >= maxAttempts {
		// Bookkeeping already at the cap; refuse the increment and settle the
		// task in its terminal state.
		if _, err := s.patch(ctx, tenantID, id, memdb.Record{
			"status":        string(exhaustedStatus(rec)),
			"next_retry_at": nil,
		}); err != nil {
			return compliance.ActionTask{}, err
		}
		return compliance.ActionTask{}, ErrRetryExhausted
	}

	now := s.store.Now()
	attempts++
	patch := memdb.Record{
		"attempt_count":   attempts,
		"last_attempt_at": memdb.FormatTime(now),
	}
	if outcome.Result != nil {
		patch["execution_result"] = outcome.Result
	}

	switch {
	case outcome.Success:
		patch["status"] = string(compliance.TaskCompleted)
		patch["completed_at"] = memdb.FormatTime(now)
		patch["next_retry_at"] = nil
	case maxAttempts > 0 && attempts >= maxAttempts:
		patch["status"] = string(exhaustedStatus(rec))
		patch["next_retry_at"] = nil
	default:
		patch["status"] = string(compliance.TaskInProgress)
		patch["next_retry_at"] = memdb.FormatTime(now.Add(time.Duration(attempts) * retryBackoff))
	}

	task, err := s.patch(ctx, tenantID, id, patch)
	if err != nil {
		return compliance.ActionTask{}, err
	}

	auditErr := s.audit.Record(ctx, audit.Entry{
		TenantID:     tenantID,
		Action:       "task.attempt_recorded",
		ResourceType: "action_task",
		ResourceID:   id,
		ActorType:    compliance.ActorAutomation,
		GDPRRelevant: true,
		Metadata: map[string]any{
			"attempt": attempts,
			"success": outcome.Success,
			"detail":  outcome.Detail,
		},
	})
	if auditErr != nil {
		return compliance.ActionTask{}, auditErr
	}

	if !outcome.Success && maxAttempts > 0 && attempts >= maxAttempts {
		return task, ErrRetryExhausted
	}
	return task, nil
}

// Complete marks a task done. This is the path for manual and semi-automated
// work; automated tasks usually complete through a successful attempt.
func (s *Service) Complete(ctx context.Context, tenantID, id string, result map[string]any) (compliance.ActionTask, error) {
	rec, err := s.fetch(ctx, tenantID, id)
	if err != nil {
		return compliance.ActionTask{}, err
	}
	if status := taskStatus(rec); status == compliance.TaskCompleted {
		return compliance.ActionTask{}, ErrTerminal
	}

	patch := memdb.Record{
		"status":        string(compliance.TaskCompleted),
		"completed_at":  memdb.FormatTime(s.store.Now()),
		"next_retry_at": nil,
	}
	if result != nil {
		patch["execution_result"] = result
	}
	return s.patch(ctx, tenantID, id, patch)
}

// Verify records post-completion verification. Verification fields are only
// ever set on a completed task.
func (s *Service) Verify(ctx context.Context, tenantID, id, verifier string) (compliance.ActionTask, error) {
	rec, err := s.fetch(ctx, tenantID, id)
	if err != nil {
		return compliance.ActionTask{}, err
	}
	if taskStatus(rec) != compliance.TaskCompleted {
		return compliance.ActionTask{}, ErrNotCompleted
	}

	return s.patch(ctx, tenantID, id, memdb.Record{
		"verified_at": memdb.FormatTime(s.store.Now()),
		"verified_by": verifier,
	})
}

func (s *Service) patch(ctx context.Context, tenantID, id string, patch memdb.Record) (compliance.ActionTask, error) {
	res := s.client.From(memdb.TableTasks).Update(patch).
		Eq("tenant_id", tenantID).
		Eq("id", id).
		Single().
		Execute(ctx)
	if res.Err != nil {
		return compliance.ActionTask{}, res.Err
	}
	if res.Row == nil {
		return compliance.ActionTask{}, ErrNotFound
	}
	var out compliance.ActionTask
	if err := compliance.Decode(res.Row, &out); err != nil {
		return compliance.ActionTask{}, err
	}
	return out, nil
}

func taskStatus(rec memdb.Record) compliance.TaskStatus {
	status, _ := rec["status"].(string)
	return compliance.TaskStatus(status)
}

// exhaustedStatus picks the terminal state for a task out of retry budget.
// Automated locations fail outright; anything with a human in the loop is
// parked for manual action.
func exhaustedStatus(rec memdb.Record) compliance.TaskStatus {
	if mode, _ := rec["execution_mode"].(string); mode == string(compliance.ModeAutomated) {
		return compliance.TaskFailed
	}
	return compliance.TaskManualAction
}

func intField(rec memdb.Record, field string) int {
	switch v := rec[field].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
