package memdb

import (
	"context"
	"fmt"
	"strings"
)

// ProcSetTenantContext is the reserved procedure name used by application
// code to simulate tenant-scoping setup. It is a pure no-op here.
const ProcSetTenantContext = "set_tenant_context"

// RPC is the side-channel procedure-call interface: a name plus a parameter
// map. Names carrying a metrics/statistics marker resolve to a fixed-shape
// aggregate summary over the current collections; unknown names are rejected.
func (c *Client) RPC(ctx context.Context, name string, params map[string]any) (any, error) {
	switch {
	case name == ProcSetTenantContext:
		return nil, nil
	case strings.Contains(name, "metrics") || strings.Contains(name, "stats"):
		return c.dashboardSummary(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}
}

func (c *Client) dashboardSummary(ctx context.Context) (map[string]any, error) {
	now := FormatTime(c.store.Now())

	requests := c.From(TableRequests).Select().Execute(ctx)
	if requests.Err != nil {
		return nil, requests.Err
	}
	tasks := c.From(TableTasks).Select().Execute(ctx)
	if tasks.Err != nil {
		return nil, tasks.Err
	}
	consents := c.From(TableConsent).Select().Execute(ctx)
	if consents.Err != nil {
		return nil, consents.Err
	}

	requestsByStatus := map[string]int{}
	overdue := 0
	for _, rec := range requests.Rows {
		status, _ := rec["status"].(string)
		requestsByStatus[status]++
		due, _ := rec["due_date"].(string)
		if due != "" && due < now && status != "completed" {
			overdue++
		}
	}

	tasksByStatus := map[string]int{}
	for _, rec := range tasks.Rows {
		status, _ := rec["status"].(string)
		tasksByStatus[status]++
	}

	granted, revoked := 0, 0
	for _, rec := range consents.Rows {
		if v, _ := rec["consent_granted"].(bool); v {
			granted++
		} else {
			revoked++
		}
	}

	return map[string]any{
		"total_requests":     len(requests.Rows),
		"requests_by_status": requestsByStatus,
		"overdue_requests":   overdue,
		"total_tasks":        len(tasks.Rows),
		"tasks_by_status":    tasksByStatus,
		"consents_granted":   granted,
		"consents_revoked":   revoked,
	}, nil
}
