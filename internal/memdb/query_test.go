package memdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store whose clock steps one second per call, so
// every stamped instant is distinct and ordering is deterministic.
func newTestStore() *Store {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return NewStore(WithClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}))
}

func insertRequests(t *testing.T, client *Client, recs ...Record) {
	t.Helper()
	res := client.From(TableRequests).Insert(recs...).Execute(context.Background())
	require.NoError(t, res.Err)
}

func TestFilterConjunctionYieldsSubset(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"status": "pending", "priority": "high"},
		Record{"status": "pending", "priority": "low"},
		Record{"status": "completed", "priority": "high"},
		Record{"status": "pending", "priority": "high"},
	)

	broad := client.From(TableRequests).Select().Eq("status", "pending").Execute(ctx)
	require.NoError(t, broad.Err)
	narrow := client.From(TableRequests).Select().Eq("status", "pending").Eq("priority", "high").Execute(ctx)
	require.NoError(t, narrow.Err)

	require.Len(t, broad.Rows, 3)
	require.Len(t, narrow.Rows, 2)
	broadIDs := map[any]bool{}
	for _, rec := range broad.Rows {
		broadIDs[rec["id"]] = true
	}
	for _, rec := range narrow.Rows {
		assert.True(t, broadIDs[rec["id"]], "narrow result must be a subset of the broad one")
	}
}

func TestPaginationPartitionReconstructs(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	const n = 7
	for i := 0; i < n; i++ {
		insertRequests(t, client, Record{"seq": i, "status": "pending"})
	}

	ordered := client.From(TableRequests).Select().Order("seq", false).Execute(ctx)
	require.NoError(t, ordered.Err)
	require.Len(t, ordered.Rows, n)

	for k := 0; k <= n; k++ {
		head := client.From(TableRequests).Select().Order("seq", false).Range(0, k-1).Execute(ctx)
		require.NoError(t, head.Err)
		tail := client.From(TableRequests).Select().Order("seq", false).Range(k, n-1).Execute(ctx)
		require.NoError(t, tail.Err)

		combined := append(append([]Record{}, head.Rows...), tail.Rows...)
		require.Len(t, combined, n, "split at %d", k)
		for i, rec := range combined {
			assert.Equal(t, ordered.Rows[i]["id"], rec["id"], "split at %d, position %d", k, i)
		}
	}
}

func TestCountSnapshotIgnoresPagination(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	for i := 0; i < 5; i++ {
		insertRequests(t, client, Record{"status": "pending"})
	}
	insertRequests(t, client, Record{"status": "completed"})

	res := client.From(TableRequests).Select().
		Eq("status", "pending").
		WithCount().
		Limit(2).
		Execute(ctx)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Count)
	assert.Equal(t, 5, *res.Count)
	assert.Len(t, res.Rows, 2)

	uncounted := client.From(TableRequests).Select().Eq("status", "pending").Execute(ctx)
	require.NoError(t, uncounted.Err)
	assert.Nil(t, uncounted.Count)
}

func TestExactCountWithLimitOneOverThreeConsents(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	res := client.From(TableConsent).Insert(
		Record{"customer_id": "c1", "consent_type": "marketing", "consent_granted": true},
		Record{"customer_id": "c2", "consent_type": "marketing", "consent_granted": true},
		Record{"customer_id": "c3", "consent_type": "marketing", "consent_granted": false},
	).Execute(ctx)
	require.NoError(t, res.Err)

	out := client.From(TableConsent).Select().WithCount().Limit(1).Execute(ctx)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Count)
	assert.Equal(t, 3, *out.Count)
	assert.Len(t, out.Rows, 1)
}

func TestOrderPlacesNulls(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"assigned_to": "bob"},
		Record{"assigned_to": nil},
		Record{"assigned_to": "alice"},
		Record{},
	)

	asc := client.From(TableRequests).Select().Order("assigned_to", false).Execute(ctx)
	require.NoError(t, asc.Err)
	require.Len(t, asc.Rows, 4)
	assert.Equal(t, "alice", asc.Rows[0]["assigned_to"])
	assert.Equal(t, "bob", asc.Rows[1]["assigned_to"])
	assert.Nil(t, asc.Rows[2]["assigned_to"])
	assert.Nil(t, asc.Rows[3]["assigned_to"])

	desc := client.From(TableRequests).Select().Order("assigned_to", true).Execute(ctx)
	require.NoError(t, desc.Err)
	assert.Nil(t, desc.Rows[0]["assigned_to"])
	assert.Nil(t, desc.Rows[1]["assigned_to"])
	assert.Equal(t, "bob", desc.Rows[2]["assigned_to"])
	assert.Equal(t, "alice", desc.Rows[3]["assigned_to"])
}

func TestPatternMatching(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"requester_email": "Ada.Smith@example.com"},
		Record{"requester_email": "ben@other.org"},
	)

	tests := []struct {
		name    string
		pattern string
		want    int
	}{
		{"prefix", "ada%", 1},
		{"suffix", "%example.com", 1},
		{"contains", "%smith%", 1},
		{"all", "%", 2},
		{"exact miss", "ada", 0},
		{"literal dot not wildcard", "ada.smith@example.com", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			likeRes := client.From(TableRequests).Select().Like("requester_email", tc.pattern).Execute(ctx)
			require.NoError(t, likeRes.Err)
			assert.Len(t, likeRes.Rows, tc.want)

			ilikeRes := client.From(TableRequests).Select().ILike("requester_email", tc.pattern).Execute(ctx)
			require.NoError(t, ilikeRes.Err)
			assert.Len(t, ilikeRes.Rows, tc.want)
		})
	}
}

func TestSetMembershipAndNullChecks(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"status": "pending", "assigned_to": "alice"},
		Record{"status": "review", "assigned_to": nil},
		Record{"status": "completed"},
	)

	in := client.From(TableRequests).Select().In("status", "pending", "review").Execute(ctx)
	require.NoError(t, in.Err)
	assert.Len(t, in.Rows, 2)

	isNull := client.From(TableRequests).Select().Is("assigned_to", nil).Execute(ctx)
	require.NoError(t, isNull.Err)
	assert.Len(t, isNull.Rows, 2)

	notNull := client.From(TableRequests).Select().NotIs("assigned_to", nil).Execute(ctx)
	require.NoError(t, notNull.Err)
	assert.Len(t, notNull.Rows, 1)
}

func TestArrayContainment(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	locations := client.From(TablePiiLocations)
	res := locations.Insert(
		Record{"name": "crm", "supported_request_types": []string{"access", "erasure", "portability"}},
		Record{"name": "archive", "supported_request_types": []string{"erasure"}},
		Record{"name": "broken", "supported_request_types": "erasure"},
	).Execute(ctx)
	require.NoError(t, res.Err)

	one := locations.Select().Contains("supported_request_types", "erasure").Execute(ctx)
	require.NoError(t, one.Err)
	assert.Len(t, one.Rows, 2, "non-array fields never match")

	both := locations.Select().Contains("supported_request_types", "access", "erasure").Execute(ctx)
	require.NoError(t, both.Err)
	require.Len(t, both.Rows, 1)
	assert.Equal(t, "crm", both.Rows[0]["name"])
}

func TestDisjunctiveGroup(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"requester_name": "Ada Smith", "requester_email": "ada@example.com"},
		Record{"requester_name": "Ben Okafor", "requester_email": "ben@example.com"},
		Record{"requester_name": "Carla Mendes", "requester_email": "carla@other.org"},
	)

	res := client.From(TableRequests).Select().Or(
		OrClause{Field: "requester_name", Op: OpILike, Value: "%ada%"},
		OrClause{Field: "requester_email", Op: OpLike, Value: "%other.org"},
	).Execute(ctx)
	require.NoError(t, res.Err)
	assert.Len(t, res.Rows, 2)

	bad := client.From(TableRequests).Select().Or(
		OrClause{Field: "requester_name", Op: "eq", Value: "Ada Smith"},
	).Execute(ctx)
	var verr *ValidationError
	require.ErrorAs(t, bad.Err, &verr)
	assert.Equal(t, "eq", verr.Op)
}

func TestSingleRowShapes(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"status": "pending"},
		Record{"status": "pending"},
		Record{"status": "completed"},
	)

	one := client.From(TableRequests).Select().Eq("status", "completed").Single().Execute(ctx)
	require.NoError(t, one.Err)
	assert.Equal(t, "completed", one.Row["status"])

	none := client.From(TableRequests).Select().Eq("status", "review").Single().Execute(ctx)
	assert.ErrorIs(t, none.Err, ErrNoRows)

	many := client.From(TableRequests).Select().Eq("status", "pending").Single().Execute(ctx)
	assert.ErrorIs(t, many.Err, ErrMultipleRows)

	lenient := client.From(TableRequests).Select().Eq("status", "review").MaybeSingle().Execute(ctx)
	require.NoError(t, lenient.Err)
	assert.Nil(t, lenient.Row)
}

func TestRangeMatchesOffsetLimit(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	for i := 0; i < 6; i++ {
		insertRequests(t, client, Record{"seq": i})
	}

	ranged := client.From(TableRequests).Select().Order("seq", false).Range(2, 4).Execute(ctx)
	require.NoError(t, ranged.Err)
	paged := client.From(TableRequests).Select().Order("seq", false).Offset(2).Limit(3).Execute(ctx)
	require.NoError(t, paged.Err)

	require.Len(t, ranged.Rows, 3)
	require.Len(t, paged.Rows, 3)
	assert.Equal(t, paged.First()["seq"], ranged.First()["seq"])
	for i := range ranged.Rows {
		assert.Equal(t, paged.Rows[i]["seq"], ranged.Rows[i]["seq"])
	}
}

func TestNumericAndLexicographicComparisons(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	insertRequests(t, client,
		Record{"priority_weight": 1, "requester_name": "ann"},
		Record{"priority_weight": 2.5, "requester_name": "bob"},
		Record{"priority_weight": 10, "requester_name": "cid"},
	)

	// 2.5 and 10 are both > 2: numeric comparison, not string.
	numeric := client.From(TableRequests).Select().Gt("priority_weight", 2).Execute(ctx)
	require.NoError(t, numeric.Err)
	assert.Len(t, numeric.Rows, 2)

	lexical := client.From(TableRequests).Select().Gte("requester_name", "bob").Execute(ctx)
	require.NoError(t, lexical.Err)
	assert.Len(t, lexical.Rows, 2)
}

func TestUnknownTableRejected(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newTestStore())
	res := client.From("employees").Select().Execute(ctx)
	var uerr *UnknownTableError
	require.ErrorAs(t, res.Err, &uerr)
	assert.Equal(t, "employees", uerr.Name)
}
