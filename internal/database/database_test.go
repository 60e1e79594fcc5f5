package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/raja-mantri/internal/config"
	"go.uber.org/zap"
)

func TestOpenAndMigrate_SQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "rooms.db")
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}

	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, AutoMigrate(db, dsn, zap.NewNop()))
	assert.True(t, db.Migrator().HasTable("room_states"))
	assert.NoError(t, Ping(context.Background(), db))

	// 迁移结束后锁文件应被清理
	_, err = os.Stat(dsn + ".migration.lock")
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestPing_NilDB(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestSQLiteFilePath(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "x.db")
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	testCases := []struct {
		dsn      string
		expected string
	}{
		{"./data/rooms.db", "./data/rooms.db"},
		{"file:./data/rooms.db?_busy_timeout=5000", "./data/rooms.db"},
		{":memory:", ""},
		{"file:test?mode=memory&cache=shared", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, sqliteFilePath(db, tc.dsn), tc.dsn)
	}
}
