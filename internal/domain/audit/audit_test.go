package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

func newClient() *memdb.Client {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	store := memdb.NewStore(memdb.WithClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}))
	return memdb.NewClient(store)
}

func TestListNewestFirstWithFilters(t *testing.T) {
	ctx := context.Background()
	client := newClient()
	svc := New(client)

	entries := []Entry{
		{TenantID: "t1", Action: "request.created", ResourceType: "data_subject_request", ResourceID: "req-1", ActorType: compliance.ActorUser, GDPRRelevant: true},
		{TenantID: "t1", Action: "task.attempt_recorded", ResourceType: "action_task", ResourceID: "task-1", ActorType: compliance.ActorAutomation, GDPRRelevant: true},
		{TenantID: "t1", Action: "request.status_changed", ResourceType: "data_subject_request", ResourceID: "req-1", ActorType: compliance.ActorAdmin, GDPRRelevant: true},
		{TenantID: "t2", Action: "request.created", ResourceType: "data_subject_request", ResourceID: "req-9", ActorType: compliance.ActorUser},
	}
	for _, e := range entries {
		require.NoError(t, svc.Record(ctx, e))
	}

	all, total, err := svc.List(ctx, "t1", Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "other tenants' entries stay invisible")
	require.Len(t, all, 3)
	assert.Equal(t, "request.status_changed", all[0].Action, "newest entry first")
	assert.Equal(t, "request.created", all[2].Action)

	byResource, total, err := svc.List(ctx, "t1", Filter{ResourceType: "action_task"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byResource, 1)
	assert.Equal(t, compliance.ActorAutomation, byResource[0].ActorType)

	paged, total, err := svc.List(ctx, "t1", Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, paged, 2)
}
