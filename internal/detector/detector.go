package detector

import (
	"context"
	"fmt"
	"time"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/evaluator"
	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// StateSource 当日状态快照来源
type StateSource interface {
	State(ctx context.Context, householdID string) (*models.DailyState, error)
}

// BaselineSource 基线查询接口
type BaselineSource interface {
	GetLatestBaseline(ctx context.Context, householdID, baselineType string) (*models.Baseline, error)
}

// AlertStore 告警存储接口
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	ExistsUnacknowledged(ctx context.Context, householdID, alertType string, since time.Time) (bool, error)
}

// AlertPublisher 告警推送接口（fire-and-forget）
type AlertPublisher interface {
	Publish(alert *models.Alert) error
}

// Detector 异常检测编排器
// 事件驱动路径（关键传感器事件）与定时路径共用同一入口 CheckAnomalies
type Detector struct {
	config    *config.Config
	states    StateSource
	baselines BaselineSource
	alerts    AlertStore
	evaluator *evaluator.Evaluator
	notifier  AlertPublisher
	logger    *zap.Logger

	cache    *baselineCache
	cooldown *cooldownTable

	nowFn func() time.Time
}

// NewDetector 创建检测编排器
func NewDetector(
	cfg *config.Config,
	states StateSource,
	baselines BaselineSource,
	alerts AlertStore,
	eval *evaluator.Evaluator,
	notifier AlertPublisher,
	logger *zap.Logger,
) *Detector {
	return &Detector{
		config:    cfg,
		states:    states,
		baselines: baselines,
		alerts:    alerts,
		evaluator: eval,
		notifier:  notifier,
		logger:    logger,
		cache:     newBaselineCache(time.Duration(cfg.Monitor.BaselineCacheTTLHours) * time.Hour),
		cooldown:  newCooldownTable(time.Duration(cfg.Monitor.CooldownHours) * time.Hour),
		nowFn:     time.Now,
	}
}

// CheckAnomalies 评估单个家庭并发出通过去重的告警
// 评估在状态快照上进行，不持有家庭状态锁
func (d *Detector) CheckAnomalies(ctx context.Context, householdID string) error {
	// 1. 获取当日状态快照
	state, err := d.states.State(ctx, householdID)
	if err != nil {
		return fmt.Errorf("failed to get daily state for %s: %w", householdID, err)
	}

	// 2. 获取基线（缓存优先，"无基线"同样被缓存）
	baseline, err := d.getBaseline(ctx, householdID)
	if err != nil {
		return fmt.Errorf("failed to get baseline for %s: %w", householdID, err)
	}

	// 3. 规则评估（纯内存，无基线时返回空列表）
	now := d.nowFn()
	anomalies := d.evaluator.Evaluate(state, baseline, now)

	// 4. 逐条去重并发出
	for i := range anomalies {
		if err := d.emit(ctx, &anomalies[i], now); err != nil {
			return err
		}
	}

	return nil
}

// InvalidateBaseline 使家庭基线缓存失效（基线重算后调用）
func (d *Detector) InvalidateBaseline(householdID string) {
	d.cache.invalidate(householdID)
}

// InvalidateAllBaselines 清空基线缓存（每日批量重算后调用）
func (d *Detector) InvalidateAllBaselines() {
	d.cache.invalidateAll()
}

// getBaseline 读取家庭基线，缓存未命中时查库并回填
func (d *Detector) getBaseline(ctx context.Context, householdID string) (*models.Baseline, error) {
	if baseline, ok := d.cache.get(householdID); ok {
		return baseline, nil
	}

	baselineType := models.BaselineType(d.config.Monitor.WindowDays)
	baseline, err := d.baselines.GetLatestBaseline(ctx, householdID, baselineType)
	if err != nil {
		return nil, err
	}

	d.cache.put(householdID, baseline)
	return baseline, nil
}

// emit 双层去重通过后：持久化 → 推送 → 记录冷却
// 持久化失败向上返回；推送失败仅记录日志（告警已落库，照护者列表不受影响）
func (d *Detector) emit(ctx context.Context, anomaly *models.Anomaly, now time.Time) error {
	// 第一层：进程内冷却表
	if !d.cooldown.shouldSend(anomaly.HouseholdID, anomaly.Type, now) {
		d.logger.Debug("Alert suppressed by in-memory cooldown",
			zap.String("household_id", anomaly.HouseholdID),
			zap.String("type", anomaly.Type),
		)
		return nil
	}

	// 第二层：持久层未确认告警检查（跨重启、跨并发评估的最终防线）
	since := now.Add(-time.Duration(d.config.Monitor.CooldownHours) * time.Hour)
	exists, err := d.alerts.ExistsUnacknowledged(ctx, anomaly.HouseholdID, anomaly.Type, since)
	if err != nil {
		return fmt.Errorf("failed to check existing alerts: %w", err)
	}
	if exists {
		d.logger.Debug("Alert suppressed by persisted cooldown",
			zap.String("household_id", anomaly.HouseholdID),
			zap.String("type", anomaly.Type),
		)
		return nil
	}

	alert := models.NewAlert(*anomaly, now)

	if err := d.alerts.CreateAlert(ctx, &alert); err != nil {
		return fmt.Errorf("failed to persist alert %s: %w", alert.AlertID, err)
	}

	if err := d.notifier.Publish(&alert); err != nil {
		d.logger.Warn("Failed to push alert notification",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}

	d.cooldown.markSent(anomaly.HouseholdID, anomaly.Type, now)

	d.logger.Info("Alert emitted",
		zap.String("alert_id", alert.AlertID),
		zap.String("household_id", alert.HouseholdID),
		zap.String("type", alert.AlertType),
		zap.String("severity", alert.Severity),
	)

	return nil
}
