package evaluator

import (
	"fmt"
	"time"

	"wellness-monitor/internal/models"
)

// InactivityRule 规则2：长时间无活动
// 末次运动事件距今超过 2 小时，且当前时刻已过 08:00（避免夜间睡眠误报）
type InactivityRule struct {
	evaluator *Evaluator
}

// NewInactivityRule 创建规则2评估器
func NewInactivityRule(evaluator *Evaluator) *InactivityRule {
	return &InactivityRule{
		evaluator: evaluator,
	}
}

// Evaluate 评估规则2，无异常时返回 nil
func (r *InactivityRule) Evaluate(state *models.DailyState, baseline *models.Baseline, now time.Time) *models.Anomaly {
	if state.LastMotionTime == nil {
		return nil
	}

	lastMotion, err := time.ParseInLocation(models.TimestampLayout, *state.LastMotionTime, now.Location())
	if err != nil {
		return nil
	}

	inactiveHours := now.Sub(lastMotion).Hours()
	if inactiveHours <= 2 || minutesOfDay(now) <= 480 {
		return nil
	}

	location := "unknown"
	if state.LastLocation != nil {
		location = *state.LastLocation
	}

	return &models.Anomaly{
		Type:        models.AnomalyInactivity,
		Severity:    models.SeverityHigh,
		Message:     fmt.Sprintf("No motion detected for %.1f hours", inactiveHours),
		Context:     fmt.Sprintf("Last activity in %s at %s", location, lastMotion.Format("15:04")),
		HouseholdID: state.HouseholdID,
		Timestamp:   now.Format(models.TimestampLayout),
	}
}
