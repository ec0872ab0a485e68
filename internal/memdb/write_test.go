package memdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAssignsIdentifiersAndStamps(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())

	res := client.From(TableRequests).Insert(
		Record{"status": "pending"},
		Record{"status": "pending"},
		Record{"id": "req-fixed", "status": "review"},
	).Execute(ctx)
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 3)

	seen := map[string]bool{}
	for _, rec := range res.Rows {
		id, ok := rec["id"].(string)
		require.True(t, ok)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "identifiers must be unique")
		seen[id] = true

		created, ok := rec["created_at"].(string)
		require.True(t, ok)
		_, err := ParseTime(created)
		require.NoError(t, err)
		assert.Equal(t, created, rec["updated_at"])
	}
	assert.True(t, seen["req-fixed"], "supplied identifier is preserved")
}

func TestInsertSingleShape(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())

	res := client.From(TableConsent).Insert(Record{"customer_id": "c1"}).Single().Execute(ctx)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Row)
	assert.Equal(t, "c1", res.Row["customer_id"])
	assert.Empty(t, res.Rows)
}

func TestUpdateMergesPatchAndStampsMatches(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"id": "r1", "status": "pending", "priority": "high"},
		Record{"id": "r2", "status": "pending", "priority": "low"},
		Record{"id": "r3", "status": "completed", "priority": "high"},
	)

	res := client.From(TableRequests).
		Update(Record{"status": "in_progress", "assigned_to": "dpo"}).
		Eq("status", "pending").
		Execute(ctx)
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 2)

	// Mutation goes through the shared store: a fresh read sees it.
	after := client.From(TableRequests).Select().Eq("id", "r1").Single().Execute(ctx)
	require.NoError(t, after.Err)
	assert.Equal(t, "in_progress", after.Row["status"])
	assert.Equal(t, "dpo", after.Row["assigned_to"])
	assert.Equal(t, "high", after.Row["priority"], "untouched fields survive the merge")
	assert.NotEqual(t, after.Row["created_at"], after.Row["updated_at"])

	untouched := client.From(TableRequests).Select().Eq("id", "r3").Single().Execute(ctx)
	require.NoError(t, untouched.Err)
	assert.Equal(t, "completed", untouched.Row["status"])
	assert.Equal(t, untouched.Row["created_at"], untouched.Row["updated_at"])
}

func TestUpdateZeroMatchesIsNotAnError(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client, Record{"id": "r1", "status": "pending"})

	res := client.From(TableRequests).
		Update(Record{"status": "completed"}).
		Eq("id", "missing").
		Execute(ctx)
	require.NoError(t, res.Err)
	assert.Empty(t, res.Rows)

	single := client.From(TableRequests).
		Update(Record{"status": "completed"}).
		Eq("id", "missing").
		Single().
		Execute(ctx)
	require.NoError(t, single.Err)
	assert.Nil(t, single.Row)

	before := client.From(TableRequests).Select().Eq("id", "r1").Single().Execute(ctx)
	require.NoError(t, before.Err)
	assert.Equal(t, "pending", before.Row["status"])
	assert.Equal(t, before.Row["created_at"], before.Row["updated_at"])
}

func TestDeleteRemovesOnlyMatches(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"id": "r1", "status": "pending"},
		Record{"id": "r2", "status": "completed"},
		Record{"id": "r3", "status": "pending"},
	)

	res := client.From(TableRequests).Delete().Eq("status", "pending").Execute(ctx)
	require.NoError(t, res.Err)

	left := client.From(TableRequests).Select().Execute(ctx)
	require.NoError(t, left.Err)
	require.Len(t, left.Rows, 1)
	assert.Equal(t, "r2", left.Rows[0]["id"])
}
