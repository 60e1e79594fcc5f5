package repository

import (
	"context"

	"github.com/wfunc/raja-mantri/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomStateRepository 房间状态仓储接口
type RoomStateRepository interface {
	BaseRepository
	Upsert(ctx context.Context, state *models.RoomState) error
	UpsertAll(ctx context.Context, states []*models.RoomState) error
	FindAll(ctx context.Context) ([]*models.RoomState, error)
	Count(ctx context.Context) (int64, error)
}

// roomStateRepo 房间状态仓储实现
type roomStateRepo struct {
	*BaseRepo
}

// NewRoomStateRepository 创建房间状态仓储
func NewRoomStateRepository(db *gorm.DB) RoomStateRepository {
	return &roomStateRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// upsertClause 按 room_id 冲突时覆盖快照
var upsertClause = clause.OnConflict{
	Columns:   []clause.Column{{Name: "room_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"players", "assigned", "rounds", "state_data", "updated_at"}),
}

// Upsert 保存单个房间快照（存在则更新）
func (r *roomStateRepo) Upsert(ctx context.Context, state *models.RoomState) error {
	return r.db.WithContext(ctx).Clauses(upsertClause).Create(state).Error
}

// UpsertAll 在一个事务中保存全部房间快照
func (r *roomStateRepo) UpsertAll(ctx context.Context, states []*models.RoomState) error {
	if len(states) == 0 {
		return nil
	}
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx).(RoomStateRepository)
		for _, state := range states {
			if err := txRepo.Upsert(ctx, state); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAll 查询全部房间快照（按创建顺序）
func (r *roomStateRepo) FindAll(ctx context.Context) ([]*models.RoomState, error) {
	var states []*models.RoomState
	err := r.db.WithContext(ctx).
		Order("id asc").
		Find(&states).Error
	return states, err
}

// Count 房间总数
func (r *roomStateRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.RoomState{}).Count(&total).Error
	return total, err
}

// WithTx 使用事务
func (r *roomStateRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &roomStateRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
