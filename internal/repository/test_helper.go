package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/raja-mantri/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建测试数据库（每个测试独立的内存数据库）
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.RoomState{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateTestRoomState 创建测试用房间快照
func CreateTestRoomState(roomID string, players int) *models.RoomState {
	return &models.RoomState{
		RoomID:    roomID,
		Players:   players,
		StateData: fmt.Sprintf(`{"id":%q,"players":[],"assigned":false,"rounds":[]}`, roomID),
	}
}

// AssertRoomState 断言房间快照相等
func AssertRoomState(t *testing.T, expected, actual *models.RoomState) {
	t.Helper()
	require.NotNil(t, actual)
	assert.Equal(t, expected.RoomID, actual.RoomID)
	assert.Equal(t, expected.Players, actual.Players)
	assert.Equal(t, expected.Assigned, actual.Assigned)
	assert.Equal(t, expected.Rounds, actual.Rounds)
	assert.JSONEq(t, expected.StateData, actual.StateData)
}
