package memdb

import (
	"context"
	"time"
)

// SeedTenant is the tenant all seed data belongs to.
const SeedTenant = "tenant-demo"

// Seed loads the development fixtures into a fresh store: the PII location
// catalog, a handful of data-subject requests (one already overdue), the
// tasks for the in-flight request, and a few consent records. Seeding an
// already-populated store just appends, so call it once per store.
func Seed(ctx context.Context, store *Store) error {
	client := NewClient(store)
	now := store.Now()

	if err := seedLocations(ctx, client); err != nil {
		return err
	}
	if err := seedRequests(ctx, client, now); err != nil {
		return err
	}
	if err := seedTasks(ctx, client, now); err != nil {
		return err
	}
	return seedConsents(ctx, client, now)
}

func seedLocations(ctx context.Context, client *Client) error {
	locations := []Record{
		{
			"id":                      "loc-crm",
			"tenant_id":               SeedTenant,
			"name":                    "CRM",
			"classification":          "customer_master",
			"execution_mode":          "automated",
			"supported_request_types": []string{"access", "erasure", "portability", "rectification"},
			"priority":                1,
			"action_config": map[string]any{
				"endpoint": "https://crm.internal/api/privacy",
				"method":   "POST",
			},
			"owner_email":   "crm-team@example.com",
			"pii_fields":    []string{"name", "email", "phone", "address"},
			"consent_query": map[string]any{"endpoint": "https://crm.internal/api/consent", "field": "customer_id"},
		},
		{
			"id":                      "loc-billing",
			"tenant_id":               SeedTenant,
			"name":                    "Billing",
			"classification":          "financial",
			"execution_mode":          "semi_automated",
			"supported_request_types": []string{"access", "erasure", "rectification"},
			"priority":                2,
			"action_config": map[string]any{
				"endpoint": "https://billing.internal/api/privacy",
				"method":   "POST",
			},
			"owner_email": "billing-ops@example.com",
			"pii_fields":  []string{"name", "email", "payment_method", "invoice_address"},
		},
		{
			"id":                      "loc-warehouse",
			"tenant_id":               SeedTenant,
			"name":                    "Analytics warehouse",
			"classification":          "derived",
			"execution_mode":          "automated",
			"supported_request_types": []string{"access", "erasure", "portability"},
			"priority":                3,
			"action_config": map[string]any{
				"endpoint": "https://warehouse.internal/api/privacy",
				"method":   "POST",
			},
			"owner_email": "data-platform@example.com",
			"pii_fields":  []string{"email", "usage_events"},
		},
		{
			"id":                      "loc-archive",
			"tenant_id":               SeedTenant,
			"name":                    "Paper archive",
			"classification":          "legal_hold",
			"execution_mode":          "manual",
			"supported_request_types": []string{"erasure"},
			"priority":                4,
			"action_config": map[string]any{
				"procedure": "Locate physical records and shred under supervision",
				"contact":   "records-office@example.com",
			},
			"owner_email": "records-office@example.com",
			"pii_fields":  []string{"name", "address", "signature"},
		},
	}
	res := client.From(TablePiiLocations).Insert(locations...).Execute(ctx)
	return res.Err
}

func seedRequests(ctx context.Context, client *Client, now time.Time) error {
	requests := []Record{
		{
			"id":              "req-overdue",
			"tenant_id":       SeedTenant,
			"request_type":    "erasure",
			"status":          "pending",
			"priority":        "high",
			"requester_name":  "Ada Smith",
			"requester_email": "ada.smith@example.com",
			"customer_id":     "cust-1001",
			"due_date":        FormatTime(now.AddDate(0, 0, -2)),
			"notes":           "Escalated by support",
		},
		{
			"id":              "req-access",
			"tenant_id":       SeedTenant,
			"request_type":    "access",
			"status":          "in_progress",
			"priority":        "normal",
			"requester_name":  "Ben Okafor",
			"requester_email": "ben.okafor@example.com",
			"customer_id":     "cust-1002",
			"assigned_to":     "agent-1",
			"due_date":        FormatTime(now.AddDate(0, 0, 21)),
		},
		{
			"id":              "req-done",
			"tenant_id":       SeedTenant,
			"request_type":    "portability",
			"status":          "completed",
			"priority":        "normal",
			"requester_name":  "Carla Mendes",
			"requester_email": "carla.mendes@example.com",
			"customer_id":     "cust-1003",
			"assigned_to":     "agent-2",
			"due_date":        FormatTime(now.AddDate(0, 0, -10)),
			"completed_at":    FormatTime(now.AddDate(0, 0, -12)),
		},
	}
	res := client.From(TableRequests).Insert(requests...).Execute(ctx)
	return res.Err
}

func seedTasks(ctx context.Context, client *Client, now time.Time) error {
	tasks := []Record{
		{
			"id":             "task-crm-access",
			"tenant_id":      SeedTenant,
			"request_id":     "req-access",
			"location_id":    "loc-crm",
			"status":         "in_progress",
			"execution_mode": "automated",
			"assigned_to":    "agent-1",
			"assigned_at":    FormatTime(now.AddDate(0, 0, -1)),
			"started_at":     FormatTime(now.AddDate(0, 0, -1)),
			"attempt_count":  1,
			"max_attempts":   3,
			"last_attempt_at": FormatTime(now.Add(-6 * time.Hour)),
			"next_retry_at":  FormatTime(now.Add(6 * time.Hour)),
			"correlation_id": "corr-7f01",
		},
		{
			"id":             "task-billing-access",
			"tenant_id":      SeedTenant,
			"request_id":     "req-access",
			"location_id":    "loc-billing",
			"status":         "pending",
			"execution_mode": "semi_automated",
			"attempt_count":  0,
			"max_attempts":   3,
			"correlation_id": "corr-7f02",
		},
	}
	res := client.From(TableTasks).Insert(tasks...).Execute(ctx)
	return res.Err
}

func seedConsents(ctx context.Context, client *Client, now time.Time) error {
	consents := []Record{
		{
			"id":              "consent-1001-marketing",
			"tenant_id":       SeedTenant,
			"customer_id":     "cust-1001",
			"consent_type":    "marketing",
			"consent_granted": true,
			"granted_at":      FormatTime(now.AddDate(0, -3, 0)),
			"method":          "web_form",
			"legal_basis":     "consent",
			"ip_address":      "203.0.113.10",
			"user_agent":      "Mozilla/5.0",
		},
		{
			"id":              "consent-1002-analytics",
			"tenant_id":       SeedTenant,
			"customer_id":     "cust-1002",
			"consent_type":    "analytics",
			"consent_granted": false,
			"revoked_at":      FormatTime(now.AddDate(0, -1, 0)),
			"method":          "support_ticket",
			"legal_basis":     "consent",
		},
	}
	res := client.From(TableConsent).Insert(consents...).Execute(ctx)
	return res.Err
}
