package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/wfunc/raja-mantri/internal/api"
	"github.com/wfunc/raja-mantri/internal/config"
	"github.com/wfunc/raja-mantri/internal/database"
	"github.com/wfunc/raja-mantri/internal/errors"
	"github.com/wfunc/raja-mantri/internal/game"
	"github.com/wfunc/raja-mantri/internal/logger"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	store      game.Store
	registry   *game.StoreRegistry
	engine     *game.Engine
	httpServer *http.Server
	redis      *redis.Client

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动房间服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("config", config.ConfigFile()),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	s.startHTTPServer()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("store", s.store.Name()),
	)
	return nil
}

// initComponents 初始化存储、注册表和引擎
func (s *Server) initComponents() error {
	store, err := openWithRetry(s.ctx, storeOpenAttempts, storeRetryDelay, s.logger, s.openStore)
	if err != nil {
		return err
	}
	s.store = store
	s.registry = game.NewStoreRegistry(s.ctx, store, logger.Named("registry"))

	rolePoints, err := game.RolePointsFromConfig(s.cfg.Game.RolePoints)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "角色分值配置无效")
	}

	s.engine = game.NewEngine(&game.EngineConfig{
		Registry:   s.registry,
		Rand:       game.DefaultRandSource(),
		RolePoints: rolePoints,
		MaxGuesses: s.cfg.Game.MaxGuesses,
		Logger:     logger.Named("engine"),
	})

	router := api.NewRouter(s.engine, s.registry, &s.cfg.Server, logger.Named("http"))
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return nil
}

// openStore 按配置选择持久化驱动
func (s *Server) openStore() (game.Store, error) {
	switch s.cfg.Store.Driver {
	case "", "file":
		return game.NewFileStore(s.cfg.Store.FilePath), nil

	case "memory":
		s.logger.Warn("使用内存存储，重启后房间数据丢失")
		return game.NewMemoryStore(), nil

	case "database":
		log := logger.Named("database")
		if err := database.Init(&s.cfg.Database, log); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
		}
		if s.cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(database.DB, s.cfg.Database.DSN, log); err != nil {
				return nil, errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
			}
		}
		return game.NewDatabaseStore(database.DB, log), nil

	case "redis":
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		if err := s.redis.Ping(s.ctx).Err(); err != nil {
			s.redis.Close()
			s.redis = nil
			return nil, errors.Wrap(err, errors.ErrDatabaseConnect, "连接Redis失败")
		}
		return game.NewRedisStore(s.redis, s.cfg.Redis.Key, logger.Named("redis")), nil

	default:
		return nil, errors.Newf(errors.ErrConfigLoad, "不支持的存储驱动: %s", s.cfg.Store.Driver)
	}
}

// startHTTPServer 启动HTTP服务
func (s *Server) startHTTPServer() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("HTTP服务监听中", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.cancel()
		}
	}()
}

// WaitForShutdown 等待关闭信号或服务异常退出
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
		s.logger.Warn("服务已停止")
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务关闭超时", zap.Error(err))
			shutdownErr = err
		}
	}
	s.cancel()
	s.wg.Wait()

	if err := s.closeComponents(); err != nil {
		s.logger.Error("关闭组件失败", zap.Error(err))
		return err
	}

	logger.Sync()
	return shutdownErr
}

// closeComponents 关闭存储连接
func (s *Server) closeComponents() error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	if database.DB != nil {
		if err := database.Close(); err != nil {
			return err
		}
	}
	s.logger.Info("所有组件已关闭")
	return nil
}

// reloadConfig 只有日志级别支持热更新
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("日志级别已更新", zap.String("level", newCfg.Log.Level))
	}
	s.cfg.Log = newCfg.Log
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Raja Mantri 房间服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Raja Mantri 房间服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  raja-mantri-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量 (也可写入 .env):")
	fmt.Println("  RMSC_SERVER_PORT       监听端口")
	fmt.Println("  RMSC_STORE_DRIVER      存储驱动 (file/memory/database/redis)")
	fmt.Println("  RMSC_REDIS_ADDR        Redis地址")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  raja-mantri-server -config=/path/to/config.yaml")
	fmt.Println("  raja-mantri-server -version")
}
