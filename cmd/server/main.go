package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finanspanel/internal/config"
	cronrunner "finanspanel/internal/cron"
	"finanspanel/internal/db"
	"finanspanel/internal/engine"
	"finanspanel/internal/handler"
	"finanspanel/internal/logger"
	"finanspanel/internal/repository"
	gormrepository "finanspanel/internal/repository/gorm"
	"finanspanel/internal/service"
)

func main() {
	cfgPath := os.Getenv("FP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var dbConn *db.DB
	var store repository.Repository
	if cfg.DB.DSN != "" {
		dbConn, err = db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		store = gormrepository.New(dbConn.Gorm)
	} else {
		logger.Info("audit storage disabled; running engine-only")
	}

	analyzer := &engine.Analyzer{
		Options: engineOptions(cfg.Engine),
		Logger:  logger,
	}
	analysisSvc := &service.AnalysisService{
		Engine: analyzer,
		Repo:   store,
		Logger: logger,
	}
	retentionSvc := &service.RetentionService{
		Repo:   store,
		Logger: logger,
		MaxAge: time.Duration(cfg.Retention.MaxAgeDays) * 24 * time.Hour,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(router)
	analysisHandler := &handler.V2AnalysisHandler{Service: analysisSvc, Logger: logger}
	analysisHandler.Register(router)
	runHandler := &handler.V2RunHandler{Repo: store}
	runHandler.Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled && store != nil {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.RetentionPurge, func(ctx context.Context) {
			if err := retentionSvc.RunOnce(ctx); err != nil {
				logger.Warn("cron retention purge failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register retention purge failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func engineOptions(cfg config.EngineConfig) engine.Options {
	opts := engine.DefaultOptions()
	if cfg.RequirementMultiplier > 0 {
		opts.RequirementMultiplier = decimal.NewFromFloat(cfg.RequirementMultiplier)
	}
	if cfg.ThresholdMinutes > 0 {
		opts.ThresholdMinutes = cfg.ThresholdMinutes
	}
	if strings.EqualFold(cfg.BonusWagerMode, string(engine.BonusWagerSeparate)) {
		opts.BonusWagerMode = engine.BonusWagerSeparate
	}
	if cfg.TopN > 0 {
		opts.TopN = cfg.TopN
	}
	if cfg.MaxParallelMembers > 0 {
		opts.MaxParallelMembers = cfg.MaxParallelMembers
	}
	return opts
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
