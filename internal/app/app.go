package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nurseprep_backend/internal/config"
	"nurseprep_backend/internal/controller"
	"nurseprep_backend/internal/repository"
	"nurseprep_backend/internal/service"
	"nurseprep_backend/pkg/database"
	"nurseprep_backend/pkg/logger"
	"nurseprep_backend/pkg/monitoring"
	"nurseprep_backend/pkg/security"
	"nurseprep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	sweepStop       chan struct{}
}

type repositories struct {
	user     *repository.UserRepository
	qbank    *repository.QBankRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
}

type services struct {
	auth     *service.AuthService
	question *service.QuestionService
	qbank    *service.QBankService
	attempt  *service.AttemptService
	archive  *service.ArchiveService
}

type controllers struct {
	auth    *controller.AuthController
	attempt *controller.AttemptController
	qbank   *controller.QBankController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，由 configwatcher 调用
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		qbank:    repository.NewQBankRepository(db),
		question: repository.NewQuestionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.question = service.NewQuestionService(repos.question, rdb, cfg.Engine.QuestionCacheTTL())
	s.auth = service.NewAuthService(repos.user, cfg)
	s.qbank = service.NewQBankService(repos.qbank, repos.question, repos.attempt, s.question)

	archive, err := service.NewArchiveService(cfg.Storage)
	if err != nil {
		logger.Log.Warn("archive storage unavailable, snapshots disabled", zap.Error(err))
	}
	s.archive = archive

	// typed-nil 陷阱：archive 为 nil 时不能直接塞进接口
	var archiver service.Archiver
	if archive != nil {
		archiver = archive
	}
	s.attempt = service.NewAttemptService(repos.attempt, s.question, archiver)
	s.attempt.DefaultTimePerQuestionSec = cfg.Engine.DefaultTimePerQuestionSec

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		attempt: controller.NewAttemptController(s.attempt),
		qbank:   controller.NewQBankController(s.qbank),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 空闲会话清扫：超窗未活动的 in_progress 会话自动定稿或放弃
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	a.sweepStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Engine.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				swept, err := s.attempt.SweepIdleAttempts(context.Background(), a.Config.Engine.InactivityWindow())
				if err != nil {
					logger.Log.Error("idle attempt sweep failed", zap.Error(err))
					continue
				}
				if swept > 0 {
					logger.Log.Info("idle attempts finalized", zap.Int("count", swept))
				}
			case <-a.sweepStop:
				return
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("nurseprep-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, repos, cfg)

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.sweepStop != nil {
		close(a.sweepStop)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	logger.Log.Sync()

	log.Println("Server exiting")
}
