package service

import (
	"context"
	"database/sql"
	"fmt"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/consumer"
	"wellness-monitor/internal/detector"
	"wellness-monitor/internal/evaluator"
	"wellness-monitor/internal/learner"
	"wellness-monitor/internal/notifier"
	"wellness-monitor/internal/repository"
	"wellness-monitor/internal/scheduler"
	"wellness-monitor/internal/summary"
	"wellness-monitor/internal/tracker"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// MonitorService 健康监测服务（整合各层）
type MonitorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	eventsRepo    *repository.SensorEventsRepository
	routinesRepo  *repository.RoutinesRepository
	baselinesRepo *repository.BaselinesRepository
	alertsRepo    *repository.AlertsRepository
	tracker       *tracker.Tracker
	evaluator     *evaluator.Evaluator
	notifier      *notifier.Notifier
	detector      *detector.Detector
	learner       *learner.Learner
	consumer      *consumer.EventConsumer
	scheduler     *scheduler.Scheduler
}

// NewMonitorService 创建监测服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	eventsRepo := repository.NewSensorEventsRepository(db, logger)
	routinesRepo := repository.NewRoutinesRepository(db, logger)
	baselinesRepo := repository.NewBaselinesRepository(db, logger)
	alertsRepo := repository.NewAlertsRepository(db, logger)

	// 4. 连接 MQTT 推送通道
	alertNotifier, err := notifier.NewNotifier(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	// 5. 创建状态跟踪与检测层
	stateTracker := tracker.NewTracker(eventsRepo, logger)
	eval := evaluator.NewEvaluator(logger)
	anomalyDetector := detector.NewDetector(
		cfg,
		stateTracker,
		baselinesRepo,
		alertsRepo,
		eval,
		alertNotifier,
		logger,
	)

	// 6. 创建例程学习层
	summaryClient := summary.NewClient(cfg, logger)
	routineLearner := learner.NewLearner(cfg, eventsRepo, routinesRepo, baselinesRepo, summaryClient, logger)

	// 7. 创建消费者与调度器
	eventConsumer := consumer.NewEventConsumer(cfg, redisClient, eventsRepo, stateTracker, anomalyDetector, logger)
	checkScheduler := scheduler.NewScheduler(cfg, eventsRepo, anomalyDetector, routineLearner, logger)

	return &MonitorService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		logger:        logger,
		eventsRepo:    eventsRepo,
		routinesRepo:  routinesRepo,
		baselinesRepo: baselinesRepo,
		alertsRepo:    alertsRepo,
		tracker:       stateTracker,
		evaluator:     eval,
		notifier:      alertNotifier,
		detector:      anomalyDetector,
		learner:       routineLearner,
		consumer:      eventConsumer,
		scheduler:     checkScheduler,
	}, nil
}

// Start 启动服务（阻塞直到 ctx 取消）
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting wellness monitor service")

	// 调度器独立运行
	go func() {
		if err := s.scheduler.Start(ctx); err != nil {
			s.logger.Error("Scheduler stopped with error", zap.Error(err))
		}
	}()

	// 事件消费循环（阻塞）
	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event consumer: %w", err)
	}

	return nil
}

// Stop 停止服务
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping wellness monitor service")

	s.notifier.Close()

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// buildDSN 构建 PostgreSQL 连接字符串
func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}
