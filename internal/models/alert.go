package models

import (
	"fmt"
	"time"
)

// 异常类型
const (
	AnomalyMissedKitchen     = "missed_kitchen_activity"
	AnomalyInactivity        = "prolonged_inactivity"
	AnomalyBathroomExcessive = "excessive_bathroom_visits"
	AnomalyLateWakeUp        = "late_wake_up"
)

// 告警级别
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Anomaly 候选异常（评估器输出，未经去重）
type Anomaly struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	Context     string `json:"context"`
	Actionable  string `json:"actionable,omitempty"`
	HouseholdID string `json:"household_id"`
	Timestamp   string `json:"timestamp"` // 评估时刻，TimestampLayout 格式
}

// Alert 告警记录（对应 wellness_alerts 表，只追加；acknowledged 由照护者修改）
type Alert struct {
	AlertID      string    `json:"alert_id" db:"alert_id"`
	HouseholdID  string    `json:"household_id" db:"household_id"`
	AlertType    string    `json:"type" db:"alert_type"`
	Severity     string    `json:"severity" db:"severity"`
	Message      string    `json:"message" db:"message"`
	Context      string    `json:"context" db:"context"`
	Actionable   string    `json:"actionable,omitempty" db:"actionable"`
	Timestamp    string    `json:"timestamp" db:"timestamp"`
	Acknowledged bool      `json:"acknowledged" db:"acknowledged"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AlertKey 告警主键："{household_id}_{timestamp}_{type}"
// 相同键的重复写入幂等，与既有持久化数据兼容
func AlertKey(householdID, timestamp, alertType string) string {
	return fmt.Sprintf("%s_%s_%s", householdID, timestamp, alertType)
}

// NewAlert 从候选异常构造告警记录
func NewAlert(anomaly Anomaly, now time.Time) Alert {
	return Alert{
		AlertID:      AlertKey(anomaly.HouseholdID, anomaly.Timestamp, anomaly.Type),
		HouseholdID:  anomaly.HouseholdID,
		AlertType:    anomaly.Type,
		Severity:     anomaly.Severity,
		Message:      anomaly.Message,
		Context:      anomaly.Context,
		Actionable:   anomaly.Actionable,
		Timestamp:    anomaly.Timestamp,
		Acknowledged: false,
		CreatedAt:    now,
	}
}

// AlertTitle 推送通知标题（按异常类型）
func AlertTitle(alertType string) string {
	switch alertType {
	case AnomalyMissedKitchen:
		return "Missed Breakfast Activity"
	case AnomalyInactivity:
		return "No Movement Detected"
	case AnomalyBathroomExcessive:
		return "Frequent Bathroom Visits"
	case AnomalyLateWakeUp:
		return "Later Wake-Up Than Usual"
	}
	return "Wellness Alert"
}
