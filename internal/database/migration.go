package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wfunc/raja-mantri/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB, dsn string, log *zap.Logger) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// SQLite 文件库可能被多个进程同时打开，迁移前加文件锁
	if path := sqliteFilePath(db, dsn); path != "" {
		lockFile, err := acquireMigrationLock(path, log)
		if err != nil {
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile, log)
	}

	log.Info("开始数据库迁移...")
	if err := db.AutoMigrate(&models.RoomState{}); err != nil {
		log.Error("迁移失败", zap.Error(err))
		return err
	}
	log.Info("数据库迁移完成")
	return nil
}

// sqliteFilePath 返回 SQLite 文件路径，内存库或其他驱动返回空
func sqliteFilePath(db *gorm.DB, dsn string) string {
	if db.Dialector.Name() != "sqlite" {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}

// acquireMigrationLock 获取迁移锁
func acquireMigrationLock(dbPath string, log *zap.Logger) (*os.File, error) {
	lockPath := dbPath + ".migration.lock"

	for i := 0; i < 30; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			log.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return lockFile, nil
		}

		// 超过5分钟的锁视为残留
		if info, err := os.Stat(lockPath); err == nil && time.Since(info.ModTime()) > 5*time.Minute {
			log.Warn("迁移锁文件过期，尝试删除", zap.String("lock", lockPath))
			os.Remove(lockPath)
			continue
		}

		log.Debug("等待迁移锁...", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

// releaseMigrationLock 释放迁移锁
func releaseMigrationLock(lockFile *os.File, log *zap.Logger) {
	if lockFile == nil {
		return
	}
	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	log.Debug("释放迁移锁", zap.String("lock", lockPath))
}
