package game

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/raja-mantri/internal/errors"
	"go.uber.org/zap"
)

func TestStoreRegistry_Create(t *testing.T) {
	ctx := context.Background()
	registry := NewStoreRegistry(ctx, NewMemoryStore(), zap.NewNop())

	room := NewRoom("abc", DefaultRolePoints)
	require.NoError(t, registry.Create(ctx, room))
	assert.Equal(t, 1, registry.Len())

	err := registry.Create(ctx, NewRoom("abc", DefaultRolePoints))
	assert.ErrorIs(t, err, ErrRoomExists)
	assert.Equal(t, 1, registry.Len())
}

func TestStoreRegistry_UpdateRejectedKeepsState(t *testing.T) {
	ctx := context.Background()
	registry := NewStoreRegistry(ctx, NewMemoryStore(), zap.NewNop())
	require.NoError(t, registry.Create(ctx, NewRoom("abc", DefaultRolePoints)))

	boom := stderrors.New("boom")
	err := registry.Update(ctx, "abc", func(room *Room) error {
		room.Players = append(room.Players, &Player{ID: "x", Name: "ghost"})
		room.Assigned = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = registry.View(ctx, "abc", func(room *Room) error {
		assert.Empty(t, room.Players)
		assert.False(t, room.Assigned)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreRegistry_NotFound(t *testing.T) {
	ctx := context.Background()
	registry := NewStoreRegistry(ctx, NewMemoryStore(), zap.NewNop())

	err := registry.View(ctx, "nope", func(*Room) error { return nil })
	assert.True(t, errors.Is(err, errors.ErrRoomNotFound))

	err = registry.Update(ctx, "nope", func(*Room) error { return nil })
	assert.True(t, errors.Is(err, errors.ErrRoomNotFound))
}

func TestStoreRegistry_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	e, first := newTestEngine(t, NewFileStore(path), permMantriBChorD)
	roomID, ids := fillRoom(t, e)
	_, err := e.AssignRoles(ctx, roomID)
	require.NoError(t, err)
	_, err = e.SubmitGuess(ctx, roomID, ids[1], ids[2])
	require.NoError(t, err)

	waiting, err := e.CreateRoom(ctx, "late")
	require.NoError(t, err)

	// 重启后从文件恢复
	restarted, second := newTestEngine(t, NewFileStore(path), nil)
	assert.Equal(t, first.rooms, second.rooms)

	res, err := restarted.GetResult(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, 150, res.Players[3].Points)
	assert.Len(t, res.Rounds, 1)

	// 已分配的房间不会重新洗牌
	status, err := restarted.AssignRoles(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyAssigned, status)

	// 未满房间可以继续加入
	_, err = restarted.JoinRoom(ctx, waiting.RoomID, "next")
	require.NoError(t, err)
}

func TestStoreRegistry_NormalizesLegacyRooms(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.data = []byte(`{"old":{"id":"old","players":null,"assigned":false,"rounds":null}}`)

	registry := NewStoreRegistry(ctx, store, zap.NewNop())
	err := registry.View(ctx, "old", func(room *Room) error {
		assert.NotNil(t, room.Players)
		assert.NotNil(t, room.Rounds)
		assert.Equal(t, DefaultRolePoints, room.RolePoints)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreRegistry_Ping(t *testing.T) {
	registry := NewStoreRegistry(context.Background(), NewMemoryStore(), zap.NewNop())
	assert.NoError(t, registry.Ping(context.Background()))
}

func TestStoreRegistry_DropsNullPlayers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.data = []byte(`{"abcd1234":{"id":"abcd1234","players":[null,{"id":"p1","name":"A","role":null,"points":0}],"assigned":false,"rounds":[]}}`)

	e, _ := newTestEngine(t, store, nil)

	var players []PlayerIdentity
	require.NotPanics(t, func() {
		var err error
		players, err = e.ListPlayers(ctx, "abcd1234")
		require.NoError(t, err)
	})
	assert.Equal(t, []PlayerIdentity{{ID: "p1", Name: "A"}}, players)

	_, err := e.GetMyRole(ctx, "abcd1234", "missing")
	assert.True(t, errors.Is(err, errors.ErrPlayerNotFound))
}

func TestStoreRegistry_RoomIDFollowsStoreKey(t *testing.T) {
	ctx := context.Background()

	for name, payload := range map[string]string{
		"missing id":   `{"abcd1234":{"players":[{"id":"p1","name":"A","role":null,"points":0}],"assigned":false,"rounds":[]}}`,
		"different id": `{"abcd1234":{"id":"zzzz9999","players":[{"id":"p1","name":"A","role":null,"points":0}],"assigned":false,"rounds":[]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			store.data = []byte(payload)
			e, registry := newTestEngine(t, store, nil)

			_, err := e.JoinRoom(ctx, "abcd1234", "B")
			require.NoError(t, err)

			// 写入落在原房间上，没有产生新房间
			assert.Equal(t, 1, registry.Len())
			players, err := e.ListPlayers(ctx, "abcd1234")
			require.NoError(t, err)
			assert.Len(t, players, 2)

			saved, err := store.Load(ctx)
			require.NoError(t, err)
			require.Contains(t, saved, "abcd1234")
			assert.Equal(t, "abcd1234", saved["abcd1234"].ID)
			assert.Len(t, saved, 1)
		})
	}
}
