package game

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/wfunc/raja-mantri/internal/database"
	"github.com/wfunc/raja-mantri/internal/models"
	"github.com/wfunc/raja-mantri/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store 房间注册表持久化
type Store interface {
	// Load 加载全部房间；没有数据时返回空表
	Load(ctx context.Context) (map[string]*Room, error)
	// Save 写入整个注册表
	Save(ctx context.Context, rooms map[string]*Room) error
	// Ping 检查存储是否可用
	Ping(ctx context.Context) error
	// Name 驱动名
	Name() string
}

// MemoryStore 内存持久化（用于测试和临时部署）
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStore 创建内存持久化器
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load 加载状态
func (s *MemoryStore) Load(ctx context.Context) (map[string]*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make(map[string]*Room)
	if len(s.data) == 0 {
		return rooms, nil
	}
	if err := json.Unmarshal(s.data, &rooms); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return rooms, nil
}

// Save 保存状态（序列化后保存，避免与内存中的房间共享引用）
func (s *MemoryStore) Save(ctx context.Context, rooms map[string]*Room) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Ping 内存存储始终可用
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Name 驱动名
func (s *MemoryStore) Name() string { return "memory" }

// FileStore JSON文件持久化，整个注册表写入同一文件
type FileStore struct {
	path string
}

// NewFileStore 创建文件持久化器
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load 从文件加载；文件不存在时返回空表
func (s *FileStore) Load(ctx context.Context) (map[string]*Room, error) {
	rooms := make(map[string]*Room)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return rooms, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取房间文件失败: %w", err)
	}
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("解析房间文件失败: %w", err)
	}
	return rooms, nil
}

// Save 先写临时文件再重命名，保证文件内容始终完整
func (s *FileStore) Save(ctx context.Context, rooms map[string]*Room) error {
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建存储目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("替换房间文件失败: %w", err)
	}
	return nil
}

// Ping 检查存储目录是否可访问
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

// Name 驱动名
func (s *FileStore) Name() string { return "file" }

// DatabaseStore 数据库持久化，每个房间一行
type DatabaseStore struct {
	db     *gorm.DB
	repo   repository.RoomStateRepository
	logger *zap.Logger
}

// NewDatabaseStore 创建数据库持久化器
func NewDatabaseStore(db *gorm.DB, log *zap.Logger) *DatabaseStore {
	return &DatabaseStore{
		db:     db,
		repo:   repository.NewRoomStateRepository(db),
		logger: log,
	}
}

// Load 从数据库加载，损坏的行跳过
func (s *DatabaseStore) Load(ctx context.Context) (map[string]*Room, error) {
	states, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询房间状态失败: %w", err)
	}

	rooms := make(map[string]*Room, len(states))
	for _, state := range states {
		var room Room
		if err := json.Unmarshal([]byte(state.StateData), &room); err != nil {
			s.logger.Warn("跳过损坏的房间数据", zap.String("room_id", state.RoomID), zap.Error(err))
			continue
		}
		rooms[state.RoomID] = &room
	}
	return rooms, nil
}

// Save 在一个事务中写入全部房间
func (s *DatabaseStore) Save(ctx context.Context, rooms map[string]*Room) error {
	states := make([]*models.RoomState, 0, len(rooms))
	for id, room := range rooms {
		data, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("序列化房间 %s 失败: %w", id, err)
		}
		states = append(states, &models.RoomState{
			RoomID:    id,
			Players:   len(room.Players),
			Assigned:  room.Assigned,
			Rounds:    len(room.Rounds),
			StateData: string(data),
		})
	}

	if err := s.repo.UpsertAll(ctx, states); err != nil {
		return fmt.Errorf("保存房间状态失败: %w", err)
	}
	return nil
}

// Ping 检查数据库连接以及房间表是否可读
func (s *DatabaseStore) Ping(ctx context.Context) error {
	if err := database.Ping(ctx, s.db); err != nil {
		return err
	}
	if _, err := s.repo.Count(ctx); err != nil {
		return fmt.Errorf("读取房间表失败: %w", err)
	}
	return nil
}

// Name 驱动名
func (s *DatabaseStore) Name() string { return "database" }

// RedisStore Redis持久化，所有房间存放在同一个hash中
type RedisStore struct {
	client redis.UniversalClient
	key    string
	logger *zap.Logger
}

// NewRedisStore 创建Redis持久化器
func NewRedisStore(client redis.UniversalClient, key string, log *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		logger: log,
	}
}

// Load 读取hash中的全部房间，损坏的字段跳过
func (s *RedisStore) Load(ctx context.Context) (map[string]*Room, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("读取Redis房间数据失败: %w", err)
	}

	rooms := make(map[string]*Room, len(fields))
	for id, raw := range fields {
		var room Room
		if err := json.Unmarshal([]byte(raw), &room); err != nil {
			s.logger.Warn("跳过损坏的房间数据", zap.String("room_id", id), zap.Error(err))
			continue
		}
		rooms[id] = &room
	}
	return rooms, nil
}

// Save 单条 HSET 写入全部房间
func (s *RedisStore) Save(ctx context.Context, rooms map[string]*Room) error {
	if len(rooms) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(rooms))
	for id, room := range rooms {
		data, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("序列化房间 %s 失败: %w", id, err)
		}
		values[id] = data
	}

	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("写入Redis失败: %w", err)
	}
	return nil
}

// Ping 检查Redis连接
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Name 驱动名
func (s *RedisStore) Name() string { return "redis" }
