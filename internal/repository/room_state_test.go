package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/raja-mantri/internal/models"
)

func TestRoomStateRepository_Upsert(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomStateRepository(db)
	ctx := context.Background()

	state := CreateTestRoomState("room0001", 1)
	require.NoError(t, repo.Upsert(ctx, state))

	found, err := findRoomState(t, repo, "room0001")
	require.NoError(t, err)
	AssertRoomState(t, state, found)

	// 再次保存同一房间应覆盖而不是新增
	updated := CreateTestRoomState("room0001", 4)
	updated.Assigned = true
	updated.Rounds = 2
	require.NoError(t, repo.Upsert(ctx, updated))

	found, err = findRoomState(t, repo, "room0001")
	require.NoError(t, err)
	AssertRoomState(t, updated, found)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRoomStateRepository_UpsertAll(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomStateRepository(db)
	ctx := context.Background()

	states := []*models.RoomState{
		CreateTestRoomState("aaaa1111", 1),
		CreateTestRoomState("bbbb2222", 3),
		CreateTestRoomState("cccc3333", 4),
	}
	require.NoError(t, repo.UpsertAll(ctx, states))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := range states {
		AssertRoomState(t, states[i], all[i])
	}

	// 空列表不报错
	assert.NoError(t, repo.UpsertAll(ctx, nil))
}

func TestRoomStateRepository_FindMissingRoom(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomStateRepository(db)

	found, err := findRoomState(t, repo, "missing")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestRoomStateRepository_WithTx(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomStateRepository(db)
	ctx := context.Background()

	tx := db.Begin()
	txRepo := repo.WithTx(tx).(RoomStateRepository)
	require.NoError(t, txRepo.Upsert(ctx, CreateTestRoomState("rollback", 2)))
	tx.Rollback()

	found, err := findRoomState(t, repo, "rollback")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

// findRoomState 按房间ID查找快照，不存在时返回 nil
func findRoomState(t *testing.T, repo RoomStateRepository, roomID string) (*models.RoomState, error) {
	t.Helper()
	all, err := repo.FindAll(context.Background())
	if err != nil {
		return nil, err
	}
	for _, state := range all {
		if state.RoomID == roomID {
			return state, nil
		}
	}
	return nil, nil
}
