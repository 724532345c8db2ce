package learner

import (
	"context"
	"time"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// EventsSource 事件查询接口
type EventsSource interface {
	QueryEvents(ctx context.Context, householdID, from, to string) ([]models.SensorEvent, error)
	DistinctHouseholds(ctx context.Context) ([]string, error)
}

// RoutineStore 例程存储接口
type RoutineStore interface {
	UpsertRoutine(ctx context.Context, routine *models.DailyRoutine) error
	QueryRange(ctx context.Context, householdID, startDate, endDate string) ([]models.DailyRoutine, error)
	DistinctHouseholds(ctx context.Context, sinceDate string) ([]string, error)
}

// BaselineStore 基线存储接口
type BaselineStore interface {
	CreateBaseline(ctx context.Context, baseline *models.Baseline) error
}

// SummaryGenerator 例程摘要生成接口
type SummaryGenerator interface {
	Generate(routine *models.DailyRoutine) string
}

// Learner 例程学习器（每日提取昨日例程并重算滚动基线）
type Learner struct {
	config    *config.Config
	events    EventsSource
	routines  RoutineStore
	baselines BaselineStore
	summary   SummaryGenerator
	logger    *zap.Logger
}

// NewLearner 创建例程学习器
func NewLearner(
	cfg *config.Config,
	events EventsSource,
	routines RoutineStore,
	baselines BaselineStore,
	summary SummaryGenerator,
	logger *zap.Logger,
) *Learner {
	return &Learner{
		config:    cfg,
		events:    events,
		routines:  routines,
		baselines: baselines,
		summary:   summary,
		logger:    logger,
	}
}

// RunDaily 每日学习任务：先提取昨日例程，再重算基线
func (l *Learner) RunDaily(ctx context.Context, now time.Time) error {
	if err := l.LearnRoutines(ctx, now); err != nil {
		return err
	}
	return l.RebuildBaselines(ctx, now)
}

// LearnRoutines 提取所有家庭昨日的例程记录
// 单个家庭失败只记录日志，不中断其他家庭
func (l *Learner) LearnRoutines(ctx context.Context, now time.Time) error {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfYesterday := startOfToday.AddDate(0, 0, -1)

	households, err := l.events.DistinctHouseholds(ctx)
	if err != nil {
		return err
	}

	processed := 0
	for _, householdID := range households {
		if err := l.learnHousehold(ctx, householdID, startOfYesterday, startOfToday); err != nil {
			l.logger.Error("Failed to learn routine for household",
				zap.String("household_id", householdID),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	l.logger.Info("Routine learning completed",
		zap.String("date", startOfYesterday.Format("2006-01-02")),
		zap.Int("households_total", len(households)),
		zap.Int("households_processed", processed),
	)

	return nil
}

// learnHousehold 提取单个家庭的昨日例程
func (l *Learner) learnHousehold(ctx context.Context, householdID string, dayStart, dayEnd time.Time) error {
	from := dayStart.Format(models.TimestampLayout)
	to := dayEnd.Format(models.TimestampLayout)

	events, err := l.events.QueryEvents(ctx, householdID, from, to)
	if err != nil {
		return err
	}

	// 完全没有事件的日子不写退化记录
	if len(events) == 0 {
		l.logger.Debug("No events for household, skipping routine",
			zap.String("household_id", householdID),
		)
		return nil
	}

	date := dayStart.Format("2006-01-02")
	routine := ExtractRoutine(householdID, date, events)
	routine.SummaryText = l.summary.Generate(routine)

	return l.routines.UpsertRoutine(ctx, routine)
}

// RebuildBaselines 按最近例程记录枚举家庭并重算滚动基线
func (l *Learner) RebuildBaselines(ctx context.Context, now time.Time) error {
	windowDays := l.config.Monitor.WindowDays
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startDate := endDate.AddDate(0, 0, -windowDays)

	start := startDate.Format("2006-01-02")
	end := endDate.Format("2006-01-02")

	households, err := l.routines.DistinctHouseholds(ctx, start)
	if err != nil {
		return err
	}

	for _, householdID := range households {
		routines, err := l.routines.QueryRange(ctx, householdID, start, end)
		if err != nil {
			l.logger.Error("Failed to query routines for baseline",
				zap.String("household_id", householdID),
				zap.Error(err),
			)
			continue
		}
		if len(routines) == 0 {
			continue
		}

		baseline := BuildBaseline(householdID, routines, windowDays, start, end, now)
		if err := l.baselines.CreateBaseline(ctx, baseline); err != nil {
			l.logger.Error("Failed to create baseline",
				zap.String("household_id", householdID),
				zap.String("baseline_id", baseline.BaselineID),
				zap.Error(err),
			)
			continue
		}

		l.logger.Info("Baseline computed",
			zap.String("household_id", householdID),
			zap.String("baseline_id", baseline.BaselineID),
			zap.Int("days_found", len(routines)),
			zap.Float64("reliability_score", baseline.DataQuality.ReliabilityScore),
		)
	}

	return nil
}
