// Package requests owns the data-subject request lifecycle: intake with task
// fan-out, caller-directed status transitions, the activity trail, and the
// derived overdue classification.
package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/audit"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

var (
	ErrNotFound        = errors.New("requests: request not found")
	ErrInvalidType     = errors.New("requests: invalid request type")
	ErrInvalidStatus   = errors.New("requests: invalid status")
	ErrMissingContact  = errors.New("requests: requester email is required")
	ErrMissingCustomer = errors.New("requests: customer id is required")
)

type Service struct {
	client      *memdb.Client
	audit       *audit.Service
	store       *memdb.Store
	slaDays     int
	maxAttempts int
}

func NewService(store *memdb.Store, auditSvc *audit.Service, slaDays, maxAttempts int) *Service {
	if slaDays <= 0 {
		slaDays = 30
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Service{
		client:      memdb.NewClient(store),
		audit:       auditSvc,
		store:       store,
		slaDays:     slaDays,
		maxAttempts: maxAttempts,
	}
}

type CreateInput struct {
	TenantID       string
	RequestType    compliance.RequestType
	Priority       string
	RequesterName  string
	RequesterEmail string
	CustomerID     string
	Notes          string
	Actor          compliance.ActorType
	ActorID        string
}

// Create registers a new request and fans out one remediation task per PII
// location whose supported request types include the requested one, in the
// locations' priority order.
func (s *Service) Create(ctx context.Context, in CreateInput) (compliance.DataSubjectRequest, error) {
	if !in.RequestType.Valid() {
		return compliance.DataSubjectRequest{}, fmt.Errorf("%w: %q", ErrInvalidType, in.RequestType)
	}
	if in.RequesterEmail == "" {
		return compliance.DataSubjectRequest{}, ErrMissingContact
	}
	if in.CustomerID == "" {
		return compliance.DataSubjectRequest{}, ErrMissingCustomer
	}
	if in.Priority == "" {
		in.Priority = "normal"
	}

	now := s.store.Now()
	rec := memdb.Record{
		"tenant_id":       in.TenantID,
		"request_type":    string(in.RequestType),
		"status":          string(compliance.StatusPending),
		"priority":        in.Priority,
		"requester_name":  in.RequesterName,
		"requester_email": in.RequesterEmail,
		"customer_id":     in.CustomerID,
		"due_date":        memdb.FormatTime(now.AddDate(0, 0, s.slaDays)),
		"notes":           in.Notes,
	}
	res := s.client.From(memdb.TableRequests).Insert(rec).Single().Execute(ctx)
	if res.Err != nil {
		return compliance.DataSubjectRequest{}, res.Err
	}
	requestID, _ := res.Row["id"].(string)

	if err := s.spawnTasks(ctx, in.TenantID, requestID, in.RequestType); err != nil {
		return compliance.DataSubjectRequest{}, err
	}

	if err := s.appendActivity(ctx, in.TenantID, requestID, "", string(compliance.StatusPending), in.Actor, in.ActorID, "request received"); err != nil {
		return compliance.DataSubjectRequest{}, err
	}
	if err := s.audit.Record(ctx, audit.Entry{
		TenantID:     in.TenantID,
		Action:       "request.created",
		ResourceType: "data_subject_request",
		ResourceID:   requestID,
		ActorType:    in.Actor,
		ActorID:      in.ActorID,
		GDPRRelevant: true,
	}); err != nil {
		return compliance.DataSubjectRequest{}, err
	}

	var out compliance.DataSubjectRequest
	if err := compliance.Decode(res.Row, &out); err != nil {
		return compliance.DataSubjectRequest{}, err
	}
	return out, nil
}

// spawnTasks creates one pending task for every location supporting the
// request type. supported_request_types constrains which locations may
// receive a task; everything else is skipped.
func (s *Service) spawnTasks(ctx context.Context, tenantID, requestID string, requestType compliance.RequestType) error {
	locations := s.client.From(memdb.TablePiiLocations).Select().
		Eq("tenant_id", tenantID).
		Contains("supported_request_types", string(requestType)).
		Order("priority", false).
		Execute(ctx)
	if locations.Err != nil {
		return locations.Err
	}

	tasks := make([]memdb.Record, 0, len(locations.Rows))
	for _, loc := range locations.Rows {
		tasks = append(tasks, memdb.Record{
			"tenant_id":      tenantID,
			"request_id":     requestID,
			"location_id":    loc["id"],
			"status":         string(compliance.TaskPending),
			"execution_mode": loc["execution_mode"],
			"attempt_count":  0,
			"max_attempts":   s.maxAttempts,
			"correlation_id": uuid.NewString(),
		})
	}
	if len(tasks) == 0 {
		return nil
	}
	res := s.client.From(memdb.TableTasks).Insert(tasks...).Execute(ctx)
	return res.Err
}

// Get fetches one request by identifier.
func (s *Service) Get(ctx context.Context, tenantID, id string) (compliance.DataSubjectRequest, error) {
	res := s.client.From(memdb.TableRequests).Select().
		Eq("tenant_id", tenantID).
		Eq("id", id).
		Single().
		Execute(ctx)
	if errors.Is(res.Err, memdb.ErrNoRows) {
		return compliance.DataSubjectRequest{}, ErrNotFound
	}
	if res.Err != nil {
		return compliance.DataSubjectRequest{}, res.Err
	}
	var out compliance.DataSubjectRequest
	if err := compliance.Decode(res.Row, &out); err != nil {
		return compliance.DataSubjectRequest{}, err
	}
	return out, nil
}

type Filter struct {
	Status      compliance.RequestStatus
	RequestType compliance.RequestType
	AssignedTo  string
	OverdueOnly bool
	Limit       int
	Offset      int
}

// List returns requests in due-date order plus the total count before
// pagination. OverdueOnly narrows to pending work past its due date; overdue
// is derived here, never read from a stored flag.
func (s *Service) List(ctx context.Context, tenantID string, filter Filter) ([]compliance.DataSubjectRequest, int, error) {
	q := s.client.From(memdb.TableRequests).Select().
		Eq("tenant_id", tenantID).
		WithCount().
		Order("due_date", false)
	if filter.Status != "" {
		q = q.Eq("status", string(filter.Status))
	}
	if filter.RequestType != "" {
		q = q.Eq("request_type", string(filter.RequestType))
	}
	if filter.AssignedTo != "" {
		q = q.Eq("assigned_to", filter.AssignedTo)
	}
	if filter.OverdueOnly {
		q = q.Lt("due_date", memdb.FormatTime(s.store.Now())).
			Neq("status", string(compliance.StatusCompleted))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	res := q.Execute(ctx)
	if res.Err != nil {
		return nil, 0, res.Err
	}
	out, err := compliance.DecodeAll[compliance.DataSubjectRequest](res.Rows)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	if res.Count != nil {
		total = *res.Count
	}
	return out, total, nil
}

type TransitionInput struct {
	TenantID string
	ID       string
	Status   compliance.RequestStatus
	Actor    compliance.ActorType
	ActorID  string
	Details  string
}

// Transition moves a request to a new caller-directed status. Completion is
// the only transition allowed to set completed_at; every other target status
// clears it. Each change appends one activity entry recording the previous
// and new status.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (compliance.DataSubjectRequest, error) {
	if !in.Status.Valid() {
		return compliance.DataSubjectRequest{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	current, err := s.Get(ctx, in.TenantID, in.ID)
	if err != nil {
		return compliance.DataSubjectRequest{}, err
	}
	if current.Status == in.Status {
		return current, nil
	}

	patch := memdb.Record{"status": string(in.Status)}
	if in.Status == compliance.StatusCompleted {
		patch["completed_at"] = memdb.FormatTime(s.store.Now())
	} else {
		patch["completed_at"] = nil
	}

	res := s.client.From(memdb.TableRequests).Update(patch).
		Eq("tenant_id", in.TenantID).
		Eq("id", in.ID).
		Single().
		Execute(ctx)
	if res.Err != nil {
		return compliance.DataSubjectRequest{}, res.Err
	}

	if err := s.appendActivity(ctx, in.TenantID, in.ID, string(current.Status), string(in.Status), in.Actor, in.ActorID, in.Details); err != nil {
		return compliance.DataSubjectRequest{}, err
	}
	if err := s.audit.Record(ctx, audit.Entry{
		TenantID:     in.TenantID,
		Action:       "request.status_changed",
		ResourceType: "data_subject_request",
		ResourceID:   in.ID,
		ActorType:    in.Actor,
		ActorID:      in.ActorID,
		GDPRRelevant: true,
		Metadata:     map[string]any{"from": string(current.Status), "to": string(in.Status)},
	}); err != nil {
		return compliance.DataSubjectRequest{}, err
	}

	var out compliance.DataSubjectRequest
	if err := compliance.Decode(res.Row, &out); err != nil {
		return compliance.DataSubjectRequest{}, err
	}
	return out, nil
}

func (s *Service) appendActivity(ctx context.Context, tenantID, requestID, previous, next string, actor compliance.ActorType, actorID, details string) error {
	res := s.client.From(memdb.TableActivities).Insert(memdb.Record{
		"tenant_id":       tenantID,
		"request_id":      requestID,
		"previous_status": previous,
		"new_status":      next,
		"actor_type":      string(actor),
		"actor_id":        actorID,
		"details":         details,
	}).Execute(ctx)
	return res.Err
}

// Activities returns the append-only trail for one request, oldest first.
func (s *Service) Activities(ctx context.Context, tenantID, requestID string) ([]compliance.RequestActivity, error) {
	res := s.client.From(memdb.TableActivities).Select().
		Eq("tenant_id", tenantID).
		Eq("request_id", requestID).
		Order("created_at", false).
		Execute(ctx)
	if res.Err != nil {
		return nil, res.Err
	}
	return compliance.DecodeAll[compliance.RequestActivity](res.Rows)
}

// Overdue derives whether a request is past due: due date in the past and
// status anything but completed. The flag is never persisted.
func Overdue(req compliance.DataSubjectRequest, now time.Time) bool {
	if req.Status == compliance.StatusCompleted {
		return false
	}
	return req.DueDate != nil && req.DueDate.Before(now)
}
