package models

import (
	"fmt"
	"time"
)

// TimeStats 时刻型字段的统计（HH:MM 字符串，内部按当日分钟数计算）
type TimeStats struct {
	Median        string  `json:"median"`
	Mean          string  `json:"mean"`
	StdDevMinutes float64 `json:"std_dev_minutes"`
	Earliest      string  `json:"earliest"`
	Latest        string  `json:"latest"`
}

// CountStats 计数型字段的统计
type CountStats struct {
	DailyAvg    float64 `json:"daily_avg"`
	DailyMedian float64 `json:"daily_median"`
	MinDaily    int     `json:"min_daily"`
	MaxDaily    int     `json:"max_daily"`
	StdDev      float64 `json:"std_dev"`
}

// DurationStats 活动时长统计（分钟）
type DurationStats struct {
	AvgMinutes    float64 `json:"avg_minutes"`
	MedianMinutes float64 `json:"median_minutes"`
	MinMinutes    float64 `json:"min_minutes"`
	MaxMinutes    float64 `json:"max_minutes"`
}

// DataQuality 基线数据质量
type DataQuality struct {
	DaysWithCompleteData int     `json:"days_with_complete_data"`
	DaysMissingKeyFields int     `json:"days_missing_key_fields"`
	ReliabilityScore     float64 `json:"reliability_score"` // records_found / window_days
}

// BaselinePeriod 基线统计窗口
type BaselinePeriod struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
	DaysFound int    `json:"days_found"`
}

// Baseline 滚动基线快照（对应 routine_baselines 表，只追加不更新）
// 评估器始终读取 computed_at 最新的一条
type Baseline struct {
	BaselineID       string         `json:"baseline_id" db:"baseline_id"`
	HouseholdID      string         `json:"household_id" db:"household_id"`
	BaselineType     string         `json:"baseline_type" db:"baseline_type"` // 如 "rolling7"
	WindowDays       int            `json:"window_days" db:"window_days"`
	WakeUpTime       *TimeStats     `json:"wake_up_time,omitempty"`
	BedTime          *TimeStats     `json:"bed_time,omitempty"`
	FirstKitchenTime *TimeStats     `json:"first_kitchen_time,omitempty"`
	BathroomVisits   *CountStats    `json:"bathroom_visits,omitempty"`
	TotalDailyEvents *CountStats    `json:"total_daily_events,omitempty"`
	ActivityDuration *DurationStats `json:"activity_duration,omitempty"`
	DataQuality      DataQuality    `json:"data_quality"`
	Period           BaselinePeriod `json:"baseline_period"`
	ComputedAt       time.Time      `json:"computed_at" db:"computed_at"`
}

// BaselineKey 基线主键："{household_id}_{end_date}_baseline{window_days}"
// 每次计算产生独立快照，与既有持久化数据兼容
func BaselineKey(householdID, endDate string, windowDays int) string {
	return fmt.Sprintf("%s_%s_baseline%d", householdID, endDate, windowDays)
}

// BaselineType 基线类型名："rolling{window_days}"
func BaselineType(windowDays int) string {
	return fmt.Sprintf("rolling%d", windowDays)
}
