// Package compliance holds the workflow data model shared by the request,
// task, consent and audit services.
package compliance

import (
	"encoding/json"
	"time"

	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

type RequestType string

const (
	RequestAccess        RequestType = "access"
	RequestErasure       RequestType = "erasure"
	RequestPortability   RequestType = "portability"
	RequestRectification RequestType = "rectification"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestAccess, RequestErasure, RequestPortability, RequestRectification:
		return true
	}
	return false
}

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusReview     RequestStatus = "review"
	StatusCompleted  RequestStatus = "completed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending      TaskStatus = "pending"
	TaskInProgress   TaskStatus = "in_progress"
	TaskCompleted    TaskStatus = "completed"
	TaskManualAction TaskStatus = "manual_action"
	TaskFailed       TaskStatus = "failed"
)

// Terminal reports whether automation is done with the task. manual_action
// and failed still require human follow-up but never another automated run.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskManualAction || s == TaskFailed
}

type ExecutionMode string

const (
	ModeAutomated     ExecutionMode = "automated"
	ModeManual        ExecutionMode = "manual"
	ModeSemiAutomated ExecutionMode = "semi_automated"
)

type ActorType string

const (
	ActorUser       ActorType = "user"
	ActorSystem     ActorType = "system"
	ActorAdmin      ActorType = "admin"
	ActorAutomation ActorType = "automation"
)

type DataSubjectRequest struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	RequestType    RequestType    `json:"request_type"`
	Status         RequestStatus  `json:"status"`
	Priority       string         `json:"priority"`
	RequesterName  string         `json:"requester_name"`
	RequesterEmail string         `json:"requester_email"`
	CustomerID     string         `json:"customer_id"`
	AssignedTo     string         `json:"assigned_to,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type PiiLocation struct {
	ID                    string         `json:"id"`
	TenantID              string         `json:"tenant_id"`
	Name                  string         `json:"name"`
	Classification        string         `json:"classification"`
	ExecutionMode         ExecutionMode  `json:"execution_mode"`
	SupportedRequestTypes []RequestType  `json:"supported_request_types"`
	Priority              int            `json:"priority"`
	ActionConfig          map[string]any `json:"action_config,omitempty"`
	OwnerEmail            string         `json:"owner_email"`
	PiiFields             []string       `json:"pii_fields,omitempty"`
	ConsentQuery          map[string]any `json:"consent_query,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

type ActionTask struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenant_id"`
	RequestID       string         `json:"request_id"`
	LocationID      string         `json:"location_id"`
	Status          TaskStatus     `json:"status"`
	ExecutionMode   ExecutionMode  `json:"execution_mode"`
	AssignedTo      string         `json:"assigned_to,omitempty"`
	AssignedAt      *time.Time     `json:"assigned_at,omitempty"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	AttemptCount    int            `json:"attempt_count"`
	MaxAttempts     int            `json:"max_attempts"`
	LastAttemptAt   *time.Time     `json:"last_attempt_at,omitempty"`
	NextRetryAt     *time.Time     `json:"next_retry_at,omitempty"`
	ExecutionResult map[string]any `json:"execution_result,omitempty"`
	VerifiedAt      *time.Time     `json:"verified_at,omitempty"`
	VerifiedBy      string         `json:"verified_by,omitempty"`
	CorrelationID   string         `json:"correlation_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type ConsentRecord struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	CustomerID     string         `json:"customer_id"`
	ConsentType    string         `json:"consent_type"`
	ConsentGranted bool           `json:"consent_granted"`
	GrantedAt      *time.Time     `json:"granted_at,omitempty"`
	RevokedAt      *time.Time     `json:"revoked_at,omitempty"`
	Method         string         `json:"method"`
	LegalBasis     string         `json:"legal_basis"`
	RetentionDays  int            `json:"retention_days,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type AuditLogEntry struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	ActorType    ActorType      `json:"actor_type"`
	ActorID      string         `json:"actor_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	GDPRRelevant bool           `json:"gdpr_relevant"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type RequestActivity struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	RequestID      string    `json:"request_id"`
	TaskID         string    `json:"task_id,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	ActorType      ActorType `json:"actor_type"`
	ActorID        string    `json:"actor_id,omitempty"`
	Details        string    `json:"details,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Decode copies a record into a typed entity via its JSON tags. Timestamps in
// records are RFC 3339 strings and land in time.Time fields unchanged.
func Decode(rec memdb.Record, dst any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// DecodeAll decodes a record slice into a slice of typed entities.
func DecodeAll[T any](recs []memdb.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := Decode(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
