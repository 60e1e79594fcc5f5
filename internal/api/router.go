package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/raja-mantri/internal/config"
	"github.com/wfunc/raja-mantri/internal/game"
	"github.com/wfunc/raja-mantri/internal/middleware"
	"go.uber.org/zap"
)

// healthTimeout 健康检查访问存储的超时时间
const healthTimeout = 3 * time.Second

// HealthChecker 存储健康检查
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router API路由器
type Router struct {
	engine      *gin.Engine
	roomHandler *RoomHandler
	health      HealthChecker
	log         *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(gameEngine *game.Engine, health HealthChecker, cfg *config.ServerConfig, log *zap.Logger) *Router {
	gin.SetMode(ginMode(cfg.Mode))
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS(cfg.CORSOrigins))

	router := &Router{
		engine:      engine,
		roomHandler: NewRoomHandler(gameEngine, log),
		health:      health,
		log:         log,
	}
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	room := r.engine.Group("/room")
	{
		room.POST("/create", r.roomHandler.CreateRoom)
		room.POST("/join", r.roomHandler.JoinRoom)
		room.GET("/players/:room_id", r.roomHandler.ListPlayers)
		room.POST("/assign/:room_id", r.roomHandler.AssignRoles)
	}

	r.engine.GET("/role/me/:room_id/:player_id", r.roomHandler.GetMyRole)
	r.engine.POST("/guess/:room_id", r.roomHandler.SubmitGuess)
	r.engine.GET("/result/:room_id", r.roomHandler.GetResult)
	r.engine.GET("/leaderboard/:room_id", r.roomHandler.GetLeaderboard)

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "route not found",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	if r.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := r.health.Ping(ctx); err != nil {
			r.log.Warn("存储健康检查失败", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"rooms":  r.roomHandler.engine.RoomCount(),
	})
}

// ginMode 将服务模式映射为gin模式
func ginMode(mode string) string {
	switch mode {
	case "production", gin.ReleaseMode:
		return gin.ReleaseMode
	case gin.TestMode:
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// Handler 返回 http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
