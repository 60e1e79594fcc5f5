package game

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/wfunc/raja-mantri/internal/errors"
	"github.com/wfunc/raja-mantri/internal/logger"
	"go.uber.org/zap"
)

// ErrRoomExists 房间ID已被占用
var ErrRoomExists = stderrors.New("room id already exists")

// Registry 房间注册表
//
// View 和 Update 的回调在注册表锁内执行，回调不能保留 *Room 引用。
type Registry interface {
	// Create 新增房间并持久化，ID冲突时返回 ErrRoomExists
	Create(ctx context.Context, room *Room) error
	// View 只读访问房间
	View(ctx context.Context, roomID string, fn func(*Room) error) error
	// Update 修改房间；fn 返回错误时不提交，持久化失败时返回 ErrPersistence 且内存不变
	Update(ctx context.Context, roomID string, fn func(*Room) error) error
	// Len 房间数量
	Len() int
}

// StoreRegistry 内存注册表，每次修改后将整个注册表写入 Store
type StoreRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	store  Store
	logger *zap.Logger
}

// NewStoreRegistry 从存储加载注册表；存储缺失或损坏时以空注册表启动
func NewStoreRegistry(ctx context.Context, store Store, log *zap.Logger) *StoreRegistry {
	start := time.Now()
	rooms, err := store.Load(ctx)
	logger.LogStoreOperation(log, "load", store.Name(), len(rooms), time.Since(start), err)
	if err != nil {
		log.Warn("加载房间数据失败，使用空注册表", zap.String("driver", store.Name()), zap.Error(err))
		rooms = nil
	}
	if rooms == nil {
		rooms = make(map[string]*Room)
	}
	for key, room := range rooms {
		if room == nil {
			log.Warn("跳过空的房间数据", zap.String("room_id", key))
			delete(rooms, key)
			continue
		}
		if room.ID != key {
			log.Warn("房间ID与存储键不一致，以存储键为准",
				zap.String("room_id", key), zap.String("stored_id", room.ID))
		}
		room.normalize(key)
	}

	log.Info("房间注册表已加载", zap.String("driver", store.Name()), zap.Int("rooms", len(rooms)))
	return &StoreRegistry{
		rooms:  rooms,
		store:  store,
		logger: log,
	}
}

// Create 新增房间
func (r *StoreRegistry) Create(ctx context.Context, room *Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return ErrRoomExists
	}
	return r.commit(ctx, room)
}

// View 只读访问房间
func (r *StoreRegistry) View(ctx context.Context, roomID string, fn func(*Room) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return errors.New(errors.ErrRoomNotFound)
	}
	return fn(room)
}

// Update 在副本上执行修改，持久化成功后替换
func (r *StoreRegistry) Update(ctx context.Context, roomID string, fn func(*Room) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return errors.New(errors.ErrRoomNotFound)
	}

	next := room.Clone()
	if err := fn(next); err != nil {
		return err
	}
	return r.commit(ctx, next)
}

// commit 持久化包含 room 的注册表快照，成功后写入内存；调用方持有写锁
func (r *StoreRegistry) commit(ctx context.Context, room *Room) error {
	snapshot := make(map[string]*Room, len(r.rooms)+1)
	for id, existing := range r.rooms {
		snapshot[id] = existing
	}
	snapshot[room.ID] = room

	start := time.Now()
	err := r.store.Save(ctx, snapshot)
	logger.LogStoreOperation(r.logger, "save", r.store.Name(), len(snapshot), time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistence, "room "+room.ID)
	}

	r.rooms[room.ID] = room
	return nil
}

// Len 房间数量
func (r *StoreRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Ping 检查底层存储
func (r *StoreRegistry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
