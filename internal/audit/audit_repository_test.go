package audit

import (
	"context"
	"testing"

	"github.com/isgnet/devreg/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsTimestamp(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	repo := NewAuditLogRepository(db)

	entry, err := repo.Append(context.Background(), alice.ID, ActionCreate, ObjectTypeISGDevice, 42, map[string]interface{}{"uid": "dev-1"})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, "dev-1", entry.Details["uid"])
}

func TestQueryNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	repo := NewAuditLogRepository(db)
	ctx := context.Background()

	var ids []uint64
	for objectID := uint(1); objectID <= 3; objectID++ {
		entry, err := repo.Append(ctx, alice.ID, ActionCreate, ObjectTypeISGDevice, objectID, nil)
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	logs, total, err := repo.Query(ctx, 1, 10, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, logs, 3)
	assert.Equal(t, ids[2], logs[0].ID)
	assert.Equal(t, ids[1], logs[1].ID)
	assert.Equal(t, ids[0], logs[2].ID)
	assert.Equal(t, "alice", logs[0].ActorName())
}

func TestQueryFiltersCombine(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	repo := NewAuditLogRepository(db)
	ctx := context.Background()

	_, err := repo.Append(ctx, alice.ID, ActionCreate, ObjectTypeISGDevice, 1, nil)
	require.NoError(t, err)
	_, err = repo.Append(ctx, bob.ID, ActionUpdate, ObjectTypeISGDevice, 1, nil)
	require.NoError(t, err)
	_, err = repo.Append(ctx, alice.ID, ActionCreate, ObjectTypeISGDevice, 2, nil)
	require.NoError(t, err)
	_, err = repo.Append(ctx, alice.ID, ActionCreate, "other", 1, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"no filter", Filter{}, 4},
		{"object type", Filter{ObjectType: ObjectTypeISGDevice}, 3},
		{"object", Filter{ObjectType: ObjectTypeISGDevice, ObjectID: 1}, 2},
		{"object and actor", Filter{ObjectType: ObjectTypeISGDevice, ObjectID: 1, UserID: bob.ID}, 1},
		{"actor", Filter{UserID: alice.ID}, 3},
		{"no match", Filter{ObjectID: 99}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, total, err := repo.Query(ctx, 1, 10, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, logs, int(tt.want))
		})
	}
}

func TestQueryPagination(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	repo := NewAuditLogRepository(db)
	ctx := context.Background()

	for objectID := uint(1); objectID <= 7; objectID++ {
		_, err := repo.Append(ctx, alice.ID, ActionDelete, ObjectTypeISGDevice, objectID, nil)
		require.NoError(t, err)
	}

	logs, total, err := repo.Query(ctx, 2, 5, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, logs, 2)
	assert.EqualValues(t, 2, logs[0].ObjectID)
	assert.EqualValues(t, 1, logs[1].ObjectID)
}

func TestGetAuditLogs(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	repo := NewAuditLogRepository(db)
	svc := NewAuditService(repo)
	ctx := context.Background()

	for objectID := uint(1); objectID <= 12; objectID++ {
		_, err := repo.Append(ctx, alice.ID, ActionCreate, ObjectTypeISGDevice, objectID, nil)
		require.NoError(t, err)
	}

	page, err := svc.GetAuditLogs(ctx, 2, 10, Filter{ObjectType: ObjectTypeISGDevice})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Pagination.NumPages)
	assert.EqualValues(t, 12, page.Pagination.TotalResults)
	assert.Equal(t, 2, page.Pagination.PageNumber)
	assert.Equal(t, 10, page.Pagination.PageSize)
}
