package scheduler

import (
	"context"
	"time"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// HouseholdLister 家庭枚举接口（定时批量检查的目标来源）
type HouseholdLister interface {
	DistinctHouseholds(ctx context.Context) ([]string, error)
}

// AnomalyChecker 异常检测接口
type AnomalyChecker interface {
	CheckAnomalies(ctx context.Context, householdID string) error
	InvalidateAllBaselines()
}

// DailyLearner 每日例程学习接口
type DailyLearner interface {
	RunDaily(ctx context.Context, now time.Time) error
}

// Scheduler 定时任务调度器
// 两个循环：固定时刻的全量异常检查，以及每日一次的例程学习与基线重算
type Scheduler struct {
	config     *config.Config
	households HouseholdLister
	detector   AnomalyChecker
	learner    DailyLearner
	logger     *zap.Logger

	nowFn func() time.Time
}

// NewScheduler 创建调度器
func NewScheduler(
	cfg *config.Config,
	households HouseholdLister,
	detector AnomalyChecker,
	learner DailyLearner,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:     cfg,
		households: households,
		detector:   detector,
		learner:    learner,
		logger:     logger,
		nowFn:      time.Now,
	}
}

// Start 启动两个调度循环（阻塞直到 ctx 取消）
func (s *Scheduler) Start(ctx context.Context) error {
	go s.runCheckLoop(ctx)
	go s.runLearnerLoop(ctx)

	s.logger.Info("Scheduler started",
		zap.Strings("check_times", s.config.Monitor.CheckTimes),
		zap.String("learner_run_time", s.config.Monitor.LearnerRunTime),
	)

	<-ctx.Done()
	return nil
}

// runCheckLoop 固定时刻触发全量异常检查
func (s *Scheduler) runCheckLoop(ctx context.Context) {
	for {
		next := nextOccurrence(s.nowFn(), s.config.Monitor.CheckTimes)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			s.CheckAllHouseholds(ctx)
		}
	}
}

// runLearnerLoop 每日固定时刻触发例程学习与基线重算
func (s *Scheduler) runLearnerLoop(ctx context.Context) {
	for {
		next := nextOccurrence(s.nowFn(), []string{s.config.Monitor.LearnerRunTime})

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			s.runLearnerOnce(ctx)
		}
	}
}

// runLearnerOnce 执行一次例程学习与基线重算，成功后丢弃缓存里的旧基线快照
func (s *Scheduler) runLearnerOnce(ctx context.Context) {
	s.logger.Info("Starting daily routine learning run")
	if err := s.learner.RunDaily(ctx, s.nowFn()); err != nil {
		s.logger.Error("Daily learning run failed", zap.Error(err))
		return
	}
	s.detector.InvalidateAllBaselines()
}

// CheckAllHouseholds 对所有有事件记录的家庭执行异常检查
// 单个家庭失败只记录日志，不影响其余家庭
func (s *Scheduler) CheckAllHouseholds(ctx context.Context) {
	households, err := s.households.DistinctHouseholds(ctx)
	if err != nil {
		s.logger.Error("Failed to list households for scheduled check", zap.Error(err))
		return
	}

	s.logger.Info("Running scheduled anomaly check",
		zap.Int("household_count", len(households)),
	)

	for _, householdID := range households {
		if err := s.detector.CheckAnomalies(ctx, householdID); err != nil {
			s.logger.Error("Scheduled anomaly check failed",
				zap.String("household_id", householdID),
				zap.Error(err),
			)
		}
	}
}

// nextOccurrence 计算给定 HH:MM 时刻表中下一次触发的时间点
// 今日所有时刻已过则取明日最早时刻
func nextOccurrence(now time.Time, clockTimes []string) time.Time {
	var next time.Time

	for _, clock := range clockTimes {
		minutes, ok := models.MinutesOfDay(clock)
		if !ok {
			continue
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(), minutes/60, minutes%60, 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	if next.IsZero() {
		// 时刻表为空时退化为一小时后重试
		return now.Add(time.Hour)
	}
	return next
}
