package models

import (
	"time"
)

// RoomState 房间状态快照（用于持久化房间注册表）
type RoomState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    string    `gorm:"uniqueIndex;size:64;not null" json:"room_id"`
	Players   int       `gorm:"not null;default:0" json:"players"`
	Assigned  bool      `gorm:"not null;default:false" json:"assigned"`
	Rounds    int       `gorm:"not null;default:0" json:"rounds"`
	StateData string    `gorm:"type:text;not null" json:"state_data"` // JSON格式的房间数据
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (RoomState) TableName() string {
	return "room_states"
}
