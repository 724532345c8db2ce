package evaluator

import (
	"fmt"
	"time"

	"wellness-monitor/internal/models"
)

// LateWakeRule 规则4：起床时间偏晚
// 当日起床时间超过基线最晚起床时间 60 分钟
type LateWakeRule struct {
	evaluator *Evaluator
}

// NewLateWakeRule 创建规则4评估器
func NewLateWakeRule(evaluator *Evaluator) *LateWakeRule {
	return &LateWakeRule{
		evaluator: evaluator,
	}
}

// Evaluate 评估规则4，无异常时返回 nil
func (r *LateWakeRule) Evaluate(state *models.DailyState, baseline *models.Baseline, now time.Time) *models.Anomaly {
	if !state.WakeDetected || state.WakeUpTime == nil {
		return nil
	}
	if baseline.WakeUpTime == nil {
		return nil
	}

	latestMinutes, ok := models.MinutesOfDay(baseline.WakeUpTime.Latest)
	if !ok {
		return nil
	}
	wakeMinutes, ok := models.MinutesOfDay(*state.WakeUpTime)
	if !ok {
		return nil
	}
	if wakeMinutes <= latestMinutes+60 {
		return nil
	}

	return &models.Anomaly{
		Type:        models.AnomalyLateWakeUp,
		Severity:    models.SeverityLow,
		Message:     fmt.Sprintf("Woke up at %s (typical: %s)", *state.WakeUpTime, baseline.WakeUpTime.Median),
		Context:     "Later than usual",
		HouseholdID: state.HouseholdID,
		Timestamp:   now.Format(models.TimestampLayout),
	}
}
