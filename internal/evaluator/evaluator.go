package evaluator

import (
	"time"

	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// Evaluator 异常规则评估器
// 纯内存计算：对（当日状态，基线，当前时刻）产出候选异常列表
// 去重与持久化由上层负责
type Evaluator struct {
	logger *zap.Logger

	// 规则评估器
	rule1 *MissedKitchenRule // 早餐活动缺失
	rule2 *InactivityRule    // 长时间无活动
	rule3 *BathroomRule      // 卫生间次数异常
	rule4 *LateWakeRule      // 起床时间偏晚
}

// NewEvaluator 创建评估器
func NewEvaluator(logger *zap.Logger) *Evaluator {
	e := &Evaluator{
		logger: logger,
	}

	// 初始化规则评估器
	e.rule1 = NewMissedKitchenRule(e)
	e.rule2 = NewInactivityRule(e)
	e.rule3 = NewBathroomRule(e)
	e.rule4 = NewLateWakeRule(e)

	return e
}

// Evaluate 评估家庭当日状态，返回候选异常列表
// 无基线时直接返回空列表（首周正常情况，不是错误）
func (e *Evaluator) Evaluate(state *models.DailyState, baseline *models.Baseline, now time.Time) []models.Anomaly {
	if baseline == nil {
		e.logger.Debug("No baseline available, skipping anomaly evaluation",
			zap.String("household_id", state.HouseholdID),
		)
		return nil
	}

	anomalies := []models.Anomaly{}

	// 规则1：早餐活动缺失
	if anomaly := e.rule1.Evaluate(state, baseline, now); anomaly != nil {
		anomalies = append(anomalies, *anomaly)
	}

	// 规则2：长时间无活动
	if anomaly := e.rule2.Evaluate(state, baseline, now); anomaly != nil {
		anomalies = append(anomalies, *anomaly)
	}

	// 规则3：卫生间次数异常
	if anomaly := e.rule3.Evaluate(state, baseline, now); anomaly != nil {
		anomalies = append(anomalies, *anomaly)
	}

	// 规则4：起床时间偏晚
	if anomaly := e.rule4.Evaluate(state, baseline, now); anomaly != nil {
		anomalies = append(anomalies, *anomaly)
	}

	if len(anomalies) > 0 {
		e.logger.Info("Anomalies detected",
			zap.String("household_id", state.HouseholdID),
			zap.Int("count", len(anomalies)),
		)
	}

	return anomalies
}

// minutesOfDay 当前时刻在当日的分钟数
func minutesOfDay(now time.Time) int {
	return now.Hour()*60 + now.Minute()
}
