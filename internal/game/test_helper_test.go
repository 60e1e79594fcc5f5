package game

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedPerm 总是返回同一个排列的随机源
type fixedPerm []int

func (f fixedPerm) Perm(n int) []int {
	out := make([]int, n)
	copy(out, f)
	return out
}

// 按加入顺序 A,B,C,D 分配 Raja, Mantri, Sipahi, Chor
var permMantriBChorD = fixedPerm{0, 1, 2, 3}

// flakyStore 可切换为写入失败的内存存储
type flakyStore struct {
	*MemoryStore
	mu   sync.Mutex
	fail bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: NewMemoryStore()}
}

func (s *flakyStore) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *flakyStore) Save(ctx context.Context, rooms map[string]*Room) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return stderrors.New("disk full")
	}
	return s.MemoryStore.Save(ctx, rooms)
}

// nopStore 丢弃所有写入
type nopStore struct{}

func (nopStore) Load(ctx context.Context) (map[string]*Room, error) { return nil, nil }
func (nopStore) Save(ctx context.Context, rooms map[string]*Room) error {
	return nil
}
func (nopStore) Ping(ctx context.Context) error { return nil }
func (nopStore) Name() string                   { return "nop" }

// newTestEngine 创建使用给定存储和随机源的引擎
func newTestEngine(t *testing.T, store Store, rnd RandSource) (*Engine, *StoreRegistry) {
	t.Helper()
	registry := NewStoreRegistry(context.Background(), store, zap.NewNop())
	engine := NewEngine(&EngineConfig{
		Registry: registry,
		Rand:     rnd,
		Logger:   zap.NewNop(),
	})
	return engine, registry
}

// fillRoom 创建房间并加入三名玩家，返回房间ID和按加入顺序排列的玩家ID
func fillRoom(t *testing.T, e *Engine, names ...string) (string, []string) {
	t.Helper()
	if len(names) == 0 {
		names = []string{"A", "B", "C", "D"}
	}
	ctx := context.Background()

	created, err := e.CreateRoom(ctx, names[0])
	require.NoError(t, err)
	ids := []string{created.Player.ID}

	for _, name := range names[1:] {
		joined, err := e.JoinRoom(ctx, created.RoomID, name)
		require.NoError(t, err)
		ids = append(ids, joined.Player.ID)
	}
	return created.RoomID, ids
}

// seedRoom 直接向注册表写入一个房间
func seedRoom(t *testing.T, registry *StoreRegistry, players ...*Player) string {
	t.Helper()
	room := NewRoom(newID(), DefaultRolePoints)
	room.Players = append(room.Players, players...)
	require.NoError(t, registry.Create(context.Background(), room))
	return room.ID
}
