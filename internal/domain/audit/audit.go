// Package audit writes and reads the append-only audit log. Entries are never
// mutated or deleted once written; there is deliberately no update or delete
// path in this package.
package audit

import (
	"context"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

type Service struct {
	client *memdb.Client
}

func New(client *memdb.Client) *Service {
	return &Service{client: client}
}

// Entry is the caller-supplied portion of an audit record.
type Entry struct {
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	ActorType    compliance.ActorType
	ActorID      string
	IPAddress    string
	UserAgent    string
	GDPRRelevant bool
	Metadata     map[string]any
}

// Record appends one entry to the audit log.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	rec := memdb.Record{
		"tenant_id":     entry.TenantID,
		"action":        entry.Action,
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceID,
		"actor_type":    string(entry.ActorType),
		"actor_id":      entry.ActorID,
		"ip_address":    entry.IPAddress,
		"user_agent":    entry.UserAgent,
		"gdpr_relevant": entry.GDPRRelevant,
	}
	if entry.Metadata != nil {
		rec["metadata"] = entry.Metadata
	}
	res := s.client.From(memdb.TableAuditLog).Insert(rec).Execute(ctx)
	return res.Err
}

type Filter struct {
	Action       string
	ResourceType string
	ActorType    string
	Limit        int
	Offset       int
}

// List returns entries newest first plus the total matching count before
// pagination.
func (s *Service) List(ctx context.Context, tenantID string, filter Filter) ([]compliance.AuditLogEntry, int, error) {
	q := s.client.From(memdb.TableAuditLog).Select().
		Eq("tenant_id", tenantID).
		WithCount().
		Order("created_at", true)
	if filter.Action != "" {
		q = q.Eq("action", filter.Action)
	}
	if filter.ResourceType != "" {
		q = q.Eq("resource_type", filter.ResourceType)
	}
	if filter.ActorType != "" {
		q = q.Eq("actor_type", filter.ActorType)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	res := q.Execute(ctx)
	if res.Err != nil {
		return nil, 0, res.Err
	}
	entries, err := compliance.DecodeAll[compliance.AuditLogEntry](res.Rows)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	if res.Count != nil {
		total = *res.Count
	}
	return entries, total, nil
}
