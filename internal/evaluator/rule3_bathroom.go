package evaluator

import (
	"fmt"
	"time"

	"wellness-monitor/internal/models"
)

// BathroomRule 规则3：卫生间次数异常
// 当日卫生间活动次数超过基线日最大值 +2
type BathroomRule struct {
	evaluator *Evaluator
}

// NewBathroomRule 创建规则3评估器
func NewBathroomRule(evaluator *Evaluator) *BathroomRule {
	return &BathroomRule{
		evaluator: evaluator,
	}
}

// Evaluate 评估规则3，无异常时返回 nil
func (r *BathroomRule) Evaluate(state *models.DailyState, baseline *models.Baseline, now time.Time) *models.Anomaly {
	if baseline.BathroomVisits == nil || baseline.BathroomVisits.MaxDaily == 0 {
		return nil
	}
	if state.BathroomCount <= baseline.BathroomVisits.MaxDaily+2 {
		return nil
	}

	return &models.Anomaly{
		Type:        models.AnomalyBathroomExcessive,
		Severity:    models.SeverityMedium,
		Message:     fmt.Sprintf("%d bathroom visits (typical: %g)", state.BathroomCount, baseline.BathroomVisits.DailyMedian),
		Context:     "May indicate health concern",
		HouseholdID: state.HouseholdID,
		Timestamp:   now.Format(models.TimestampLayout),
	}
}
