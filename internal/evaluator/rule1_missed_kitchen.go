package evaluator

import (
	"fmt"
	"time"

	"wellness-monitor/internal/models"
)

// MissedKitchenRule 规则1：早餐活动缺失
// 已起床但超过基线最晚厨房时间 30 分钟仍未出现厨房活动
type MissedKitchenRule struct {
	evaluator *Evaluator
}

// NewMissedKitchenRule 创建规则1评估器
func NewMissedKitchenRule(evaluator *Evaluator) *MissedKitchenRule {
	return &MissedKitchenRule{
		evaluator: evaluator,
	}
}

// Evaluate 评估规则1，无异常时返回 nil
func (r *MissedKitchenRule) Evaluate(state *models.DailyState, baseline *models.Baseline, now time.Time) *models.Anomaly {
	// 前置条件：已起床且尚未出现厨房活动
	if !state.WakeDetected || state.KitchenVisited {
		return nil
	}
	if baseline.FirstKitchenTime == nil {
		return nil
	}

	latestMinutes, ok := models.MinutesOfDay(baseline.FirstKitchenTime.Latest)
	if !ok {
		return nil
	}
	if minutesOfDay(now) <= latestMinutes+30 {
		return nil
	}

	context := "Location unknown"
	if state.LastLocation != nil {
		context = fmt.Sprintf("Last seen in %s", *state.LastLocation)
	}

	return &models.Anomaly{
		Type:        models.AnomalyMissedKitchen,
		Severity:    models.SeverityMedium,
		Message:     fmt.Sprintf("No kitchen activity detected. Expected by %s.", baseline.FirstKitchenTime.Median),
		Context:     context,
		Actionable:  "Check on resident or call to confirm well-being",
		HouseholdID: state.HouseholdID,
		Timestamp:   now.Format(models.TimestampLayout),
	}
}
