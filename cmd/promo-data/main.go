package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"promo-data/internal/config"
	"promo-data/internal/database"
	"promo-data/internal/devices"
	httpapi "promo-data/internal/http"
	logpkg "promo-data/internal/logger"
	"promo-data/internal/metrics"
	"promo-data/internal/notify"
	"promo-data/internal/repository"
	"promo-data/internal/service"
	"promo-data/internal/sqlgen"
	"promo-data/internal/store"
)

func main() {
	cfg := config.Load()

	// 初始化日志
	logger, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "promo-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// 促销记录：DB 可选，未启用或连接失败时使用内存存储
	var db *sql.DB
	var promoRepo repository.PromotionsRepository = repository.NewMemoryPromotionsRepo()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(ctx, &cfg.Database); err == nil {
			pg := repository.NewPostgresPromotionsRepo(d)
			if err := pg.EnsureSchema(ctx); err != nil {
				logger.Warn("DB schema bootstrap failed, falling back to memory store", zap.Error(err))
				_ = d.Close()
			} else {
				db = d
				promoRepo = pg
				logger.Info("DB enabled for promo-data")
			}
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}

	var tickets service.TicketLookup
	if cfg.Jira.Enabled() {
		tickets = service.NewJiraClient(cfg.Jira, logger)
	}
	assembler := sqlgen.NewAssembler(service.SQLOptions(cfg.SQL), logger)
	promoSvc := service.NewPromoService(promoRepo, repository.NewFileUploadStore(cfg.SQL.UploadDir),
		assembler, tickets, m, logger)

	// 设备别名 / 新设备检测
	classifier, err := service.NewClassifier(cfg.Catalog.RulesPath)
	if err != nil {
		logger.Fatal("Failed to load classifier rules", zap.String("path", cfg.Catalog.RulesPath), zap.Error(err))
	}
	deviceSvc := service.NewDeviceService(service.DeviceConfigFrom(cfg.Catalog), classifier, m, logger)

	var redisClient *redis.Client
	var snapshots devices.SnapshotStore
	switch cfg.SnapshotBackend {
	case "redis":
		redisClient = store.NewRedisClient(&cfg.Redis)
		snapshots = repository.NewKVSnapshotStore(store.NewRedisKV(redisClient, cfg.Redis.Prefix))
	default:
		snapshots = repository.NewFileSnapshotStore(cfg.Catalog.SnapshotPath)
	}

	var alerts devices.AlertPublisher
	var mqttClient *notify.Client
	if cfg.MQTT.Enabled {
		if c, err := notify.NewClient(&cfg.MQTT); err == nil {
			mqttClient = c
			alerts = notify.NewDetectionNotifier(c, cfg.MQTT.Topic, cfg.MQTT.QoS, logger)
		} else {
			logger.Warn("MQTT enabled but connection failed, detection alerts disabled", zap.Error(err))
		}
	}
	detector := devices.NewDetector(service.DetectorConfigFrom(cfg.Catalog), snapshots, classifier, alerts, logger)
	detectionSvc := service.NewDetectionService(detector, m, logger).WithMappingRebuild(deviceSvc)

	router := httpapi.NewRouter(logger)
	router.RegisterHealthRoutes()
	router.RegisterPromoRoutes(httpapi.NewPromoHandler(promoSvc, logger))
	router.RegisterDeviceRoutes(httpapi.NewDeviceHandler(deviceSvc, detectionSvc, logger))
	router.HandleHandler("/metrics", m.Handler())

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	if cfg.Catalog.DetectionInterval > 0 {
		go detectionSvc.Start(ctx, cfg.Catalog.DetectionInterval)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping server", zap.Error(err))
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	logger.Info("Service stopped")
}
