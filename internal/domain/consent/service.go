// Package consent tracks per-customer consent state. A record carries exactly
// one of granted_at/revoked_at, matching its granted flag.
package consent

import (
	"context"
	"errors"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/audit"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

var ErrMissingCustomer = errors.New("consent: customer id is required")

type Service struct {
	client *memdb.Client
	audit  *audit.Service
	store  *memdb.Store
}

func NewService(store *memdb.Store, auditSvc *audit.Service) *Service {
	return &Service{client: memdb.NewClient(store), audit: auditSvc, store: store}
}

// Capture is the context a consent change was collected in.
type Capture struct {
	Method     string
	LegalBasis string
	IPAddress  string
	UserAgent  string
	Metadata   map[string]any
}

// Grant records consent for (customer, type): granted_at is set, revoked_at
// cleared. An existing record for the pair is updated in place, otherwise a
// new one is inserted.
func (s *Service) Grant(ctx context.Context, tenantID, customerID, consentType string, capture Capture) (compliance.ConsentRecord, error) {
	return s.set(ctx, tenantID, customerID, consentType, true, capture)
}

// Revoke withdraws consent: revoked_at is set, granted_at cleared.
func (s *Service) Revoke(ctx context.Context, tenantID, customerID, consentType string, capture Capture) (compliance.ConsentRecord, error) {
	return s.set(ctx, tenantID, customerID, consentType, false, capture)
}

func (s *Service) set(ctx context.Context, tenantID, customerID, consentType string, granted bool, capture Capture) (compliance.ConsentRecord, error) {
	if customerID == "" {
		return compliance.ConsentRecord{}, ErrMissingCustomer
	}

	now := memdb.FormatTime(s.store.Now())
	fields := memdb.Record{
		"consent_granted": granted,
		"method":          capture.Method,
		"legal_basis":     capture.LegalBasis,
		"ip_address":      capture.IPAddress,
		"user_agent":      capture.UserAgent,
	}
	if capture.Metadata != nil {
		fields["metadata"] = capture.Metadata
	}
	if granted {
		fields["granted_at"] = now
		fields["revoked_at"] = nil
	} else {
		fields["revoked_at"] = now
		fields["granted_at"] = nil
	}

	existing := s.client.From(memdb.TableConsent).Select().
		Eq("tenant_id", tenantID).
		Eq("customer_id", customerID).
		Eq("consent_type", consentType).
		MaybeSingle().
		Execute(ctx)
	if existing.Err != nil {
		return compliance.ConsentRecord{}, existing.Err
	}

	var row memdb.Record
	if existing.Row != nil {
		res := s.client.From(memdb.TableConsent).Update(fields).
			Eq("tenant_id", tenantID).
			Eq("customer_id", customerID).
			Eq("consent_type", consentType).
			Single().
			Execute(ctx)
		if res.Err != nil {
			return compliance.ConsentRecord{}, res.Err
		}
		row = res.Row
	} else {
		fields["tenant_id"] = tenantID
		fields["customer_id"] = customerID
		fields["consent_type"] = consentType
		res := s.client.From(memdb.TableConsent).Insert(fields).Single().Execute(ctx)
		if res.Err != nil {
			return compliance.ConsentRecord{}, res.Err
		}
		row = res.Row
	}

	action := "consent.revoked"
	if granted {
		action = "consent.granted"
	}
	if err := s.audit.Record(ctx, audit.Entry{
		TenantID:     tenantID,
		Action:       action,
		ResourceType: "consent_record",
		ResourceID:   customerID,
		ActorType:    compliance.ActorUser,
		IPAddress:    capture.IPAddress,
		UserAgent:    capture.UserAgent,
		GDPRRelevant: true,
		Metadata:     map[string]any{"consent_type": consentType},
	}); err != nil {
		return compliance.ConsentRecord{}, err
	}

	var out compliance.ConsentRecord
	if err := compliance.Decode(row, &out); err != nil {
		return compliance.ConsentRecord{}, err
	}
	return out, nil
}

// List returns a customer's consent records, newest change first.
func (s *Service) List(ctx context.Context, tenantID, customerID string) ([]compliance.ConsentRecord, error) {
	q := s.client.From(memdb.TableConsent).Select().
		Eq("tenant_id", tenantID).
		Order("updated_at", true)
	if customerID != "" {
		q = q.Eq("customer_id", customerID)
	}
	res := q.Execute(ctx)
	if res.Err != nil {
		return nil, res.Err
	}
	return compliance.DecodeAll[compliance.ConsentRecord](res.Rows)
}
