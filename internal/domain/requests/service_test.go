package requests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/audit"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
)

const testTenant = "tenant-test"

func newFixture(t *testing.T) (*Service, *memdb.Client, *memdb.Store) {
	t.Helper()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	store := memdb.NewStore(memdb.WithClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}))
	client := memdb.NewClient(store)
	svc := NewService(store, audit.New(client), 30, 3)
	return svc, client, store
}

func seedLocations(t *testing.T, client *memdb.Client) {
	t.Helper()
	res := client.From(memdb.TablePiiLocations).Insert(
		memdb.Record{
			"id": "loc-a", "tenant_id": testTenant, "name": "CRM",
			"execution_mode":          "automated",
			"supported_request_types": []string{"access", "erasure"},
			"priority":                2,
		},
		memdb.Record{
			"id": "loc-b", "tenant_id": testTenant, "name": "Archive",
			"execution_mode":          "manual",
			"supported_request_types": []string{"erasure"},
			"priority":                1,
		},
		memdb.Record{
			"id": "loc-c", "tenant_id": testTenant, "name": "Mailer",
			"execution_mode":          "automated",
			"supported_request_types": []string{"access"},
			"priority":                3,
		},
	).Execute(context.Background())
	require.NoError(t, res.Err)
}

func TestCreateFansOutTasksPerSupportedLocation(t *testing.T) {
	ctx := context.Background()
	svc, client, _ := newFixture(t)
	seedLocations(t, client)

	req, err := svc.Create(ctx, CreateInput{
		TenantID:       testTenant,
		RequestType:    compliance.RequestErasure,
		RequesterName:  "Ada Smith",
		RequesterEmail: "ada@example.com",
		CustomerID:     "cust-1",
		Actor:          compliance.ActorUser,
		ActorID:        "ada",
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusPending, req.Status)
	assert.Equal(t, "normal", req.Priority)
	require.NotNil(t, req.DueDate)

	tasks := client.From(memdb.TableTasks).Select().
		Eq("request_id", req.ID).
		Execute(ctx)
	require.NoError(t, tasks.Err)
	require.Len(t, tasks.Rows, 2, "only erasure-capable locations receive a task")

	// Fan-out follows location priority order.
	assert.Equal(t, "loc-b", tasks.Rows[0]["location_id"])
	assert.Equal(t, "loc-a", tasks.Rows[1]["location_id"])
	for _, rec := range tasks.Rows {
		assert.Equal(t, "pending", rec["status"])
		assert.Equal(t, 0, rec["attempt_count"])
		assert.Equal(t, 3, rec["max_attempts"])
		assert.NotEmpty(t, rec["correlation_id"])
	}
	assert.Equal(t, "manual", tasks.Rows[0]["execution_mode"])
	assert.Equal(t, "automated", tasks.Rows[1]["execution_mode"])

	activities, err := svc.Activities(ctx, testTenant, req.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "", activities[0].PreviousStatus)
	assert.Equal(t, "pending", activities[0].NewStatus)

	events, total, err := audit.New(client).List(ctx, testTenant, audit.Filter{Action: "request.created"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, req.ID, events[0].ResourceID)
	assert.True(t, events[0].GDPRRelevant)
}

func TestCreateWithoutMatchingLocationsSpawnsNothing(t *testing.T) {
	ctx := context.Background()
	svc, client, _ := newFixture(t)

	req, err := svc.Create(ctx, CreateInput{
		TenantID:       testTenant,
		RequestType:    compliance.RequestPortability,
		RequesterEmail: "ada@example.com",
		CustomerID:     "cust-1",
	})
	require.NoError(t, err)

	tasks := client.From(memdb.TableTasks).Select().Eq("request_id", req.ID).Execute(ctx)
	require.NoError(t, tasks.Err)
	assert.Empty(t, tasks.Rows)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixture(t)

	_, err := svc.Create(ctx, CreateInput{TenantID: testTenant, RequestType: "deletion", RequesterEmail: "a@b.c", CustomerID: "c"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(ctx, CreateInput{TenantID: testTenant, RequestType: compliance.RequestAccess, CustomerID: "c"})
	assert.ErrorIs(t, err, ErrMissingContact)

	_, err = svc.Create(ctx, CreateInput{TenantID: testTenant, RequestType: compliance.RequestAccess, RequesterEmail: "a@b.c"})
	assert.ErrorIs(t, err, ErrMissingCustomer)
}

func TestTransitionManagesCompletionStamp(t *testing.T) {
	ctx := context.Background()
	svc, client, _ := newFixture(t)

	req, err := svc.Create(ctx, CreateInput{
		TenantID:       testTenant,
		RequestType:    compliance.RequestAccess,
		RequesterEmail: "ada@example.com",
		CustomerID:     "cust-1",
		Actor:          compliance.ActorUser,
	})
	require.NoError(t, err)

	done, err := svc.Transition(ctx, TransitionInput{
		TenantID: testTenant, ID: req.ID,
		Status: compliance.StatusCompleted,
		Actor:  compliance.ActorAdmin, ActorID: "dpo",
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	reopened, err := svc.Transition(ctx, TransitionInput{
		TenantID: testTenant, ID: req.ID,
		Status: compliance.StatusReview,
		Actor:  compliance.ActorAdmin, ActorID: "dpo",
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusReview, reopened.Status)
	assert.Nil(t, reopened.CompletedAt, "leaving completed clears the stamp")

	activities, err := svc.Activities(ctx, testTenant, req.ID)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, "pending", activities[1].PreviousStatus)
	assert.Equal(t, "completed", activities[1].NewStatus)
	assert.Equal(t, "completed", activities[2].PreviousStatus)
	assert.Equal(t, "review", activities[2].NewStatus)

	_, total, err := audit.New(client).List(ctx, testTenant, audit.Filter{Action: "request.status_changed"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestTransitionToSameStatusIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixture(t)

	req, err := svc.Create(ctx, CreateInput{
		TenantID: testTenant, RequestType: compliance.RequestAccess,
		RequesterEmail: "ada@example.com", CustomerID: "cust-1",
	})
	require.NoError(t, err)

	same, err := svc.Transition(ctx, TransitionInput{
		TenantID: testTenant, ID: req.ID, Status: compliance.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusPending, same.Status)

	activities, err := svc.Activities(ctx, testTenant, req.ID)
	require.NoError(t, err)
	assert.Len(t, activities, 1, "no-op transition appends nothing")
}

func TestTransitionRejectsUnknownStatusAndMissingRequest(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixture(t)

	_, err := svc.Transition(ctx, TransitionInput{TenantID: testTenant, ID: "missing", Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Transition(ctx, TransitionInput{TenantID: testTenant, ID: "missing", Status: compliance.StatusReview})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, testTenant, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOverdueOnly(t *testing.T) {
	ctx := context.Background()
	svc, client, store := newFixture(t)

	now := store.Now()
	res := client.From(memdb.TableRequests).Insert(
		memdb.Record{"id": "late-pending", "tenant_id": testTenant, "status": "pending",
			"due_date": memdb.FormatTime(now.AddDate(0, 0, -3))},
		memdb.Record{"id": "late-done", "tenant_id": testTenant, "status": "completed",
			"due_date": memdb.FormatTime(now.AddDate(0, 0, -3))},
		memdb.Record{"id": "on-track", "tenant_id": testTenant, "status": "pending",
			"due_date": memdb.FormatTime(now.AddDate(0, 0, 10))},
	).Execute(ctx)
	require.NoError(t, res.Err)

	overdue, total, err := svc.List(ctx, testTenant, Filter{OverdueOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, overdue, 1)
	assert.Equal(t, "late-pending", overdue[0].ID, "completed requests are never overdue")

	all, total, err := svc.List(ctx, testTenant, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	paged, total, err := svc.List(ctx, testTenant, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "count snapshots the filtered set before pagination")
	assert.Len(t, paged, 2)
}

func TestOverdueDerivation(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		req  compliance.DataSubjectRequest
		want bool
	}{
		{"past due pending", compliance.DataSubjectRequest{Status: compliance.StatusPending, DueDate: &past}, true},
		{"past due in progress", compliance.DataSubjectRequest{Status: compliance.StatusInProgress, DueDate: &past}, true},
		{"past due completed", compliance.DataSubjectRequest{Status: compliance.StatusCompleted, DueDate: &past}, false},
		{"not yet due", compliance.DataSubjectRequest{Status: compliance.StatusPending, DueDate: &future}, false},
		{"no due date", compliance.DataSubjectRequest{Status: compliance.StatusPending}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overdue(tc.req, now))
		})
	}
}
